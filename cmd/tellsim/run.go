package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/tellsim/internal/api"
	"github.com/talgya/tellsim/internal/config"
	"github.com/talgya/tellsim/internal/engine"
	"github.com/talgya/tellsim/internal/entropy"
	"github.com/talgya/tellsim/internal/notes"
	"github.com/talgya/tellsim/internal/persistence"
)

const apiRequestsPerMinute = 120

// loadConfig reads the configuration and applies explicitly set flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("turns") {
		cfg.Turns = turnsFlag
	}
	if flags.Changed("seed") {
		cfg.Seed = seedFlag
	}
	if flags.Changed("db") {
		cfg.Database = dbFlag
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = metricsFlag
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return cfg, err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	seed := cfg.ResolveSeed()
	mem := &notes.Memory{}
	sink := notes.Multi{mem, notes.Slog{}}

	w, err := engine.Bootstrap(cfg.Setup(seed), entropy.NewRand(seed), sink, cfg.Params())
	if err != nil {
		return err
	}

	// ── Database ──────────────────────────────────────────────────────
	var db *persistence.DB
	if cfg.Database != "" {
		if dir := filepath.Dir(cfg.Database); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("create db dir: %w", err)
			}
		}
		db, err = persistence.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		if _, err := db.CreateRun(w.RunID, seed, cfg); err != nil {
			return err
		}
		slog.Info("database opened", "path", cfg.Database, "run_id", w.RunID)
	}

	// ── HTTP: metrics and observation API ─────────────────────────────
	var apiServer *api.Server
	if cfg.MetricsAddr != "" {
		apiServer = api.NewServer(cfg.MetricsAddr, apiRequestsPerMinute)
		if err := apiServer.Publish(w, w.Snapshot()); err != nil {
			return err
		}
		srv := apiServer.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
	}

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine(w)
	eng.Interval = cfg.Pace
	eng.OnTurn = func(snap engine.Snapshot) error {
		if apiServer != nil {
			if err := apiServer.Publish(w, snap); err != nil {
				return err
			}
		}
		if db == nil {
			mem.Drain()
			return nil
		}
		return db.SaveWorld(w, snap, mem)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("%s: %s people in %d clans across %d settlements.\n",
		w.Clock.String(), humanize.Comma(int64(w.Population())),
		len(w.Registry.Clans()), len(w.Registry.LiveSettlements()))
	if err := eng.Run(ctx, cfg.Turns); err != nil {
		return err
	}

	st := w.Stats()
	fmt.Printf("%s: %s people in %d clans across %d settlements (last turn: %d births, %d deaths, %d moves).\n",
		w.Clock.String(), humanize.Comma(int64(w.Population())),
		len(w.Registry.Clans()), len(w.Registry.LiveSettlements()),
		st.Births, st.Deaths, st.Migrations)
	if db != nil {
		fmt.Printf("Run %s saved to %s.\n", w.RunID, cfg.Database)
	}
	return nil
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	if err := config.WriteDefault(configPath); err != nil {
		return err
	}
	fmt.Printf("Wrote default configuration to %s\n", configPath)
	return nil
}
