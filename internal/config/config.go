// Package config loads run configuration from YAML, falling back to
// defaults for anything the file leaves out.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/talgya/tellsim/internal/engine"
	"github.com/talgya/tellsim/internal/entropy"
	"github.com/talgya/tellsim/internal/rites"
	"github.com/talgya/tellsim/internal/social"
)

// Config is the full run configuration.
type Config struct {
	Seed        int64         `yaml:"seed"` // 0 draws a fresh seed
	Turns       int           `yaml:"turns"`
	Database    string        `yaml:"database"` // empty disables persistence
	LogLevel    string        `yaml:"log_level"`
	MetricsAddr string        `yaml:"metrics_addr"` // empty disables /metrics and /api/v1
	Pace        time.Duration `yaml:"pace"`
	World       WorldConfig   `yaml:"world"`
	Model       ModelConfig   `yaml:"model"`
}

// WorldConfig shapes the generated valley and its first settlements.
type WorldConfig struct {
	Radius             int     `yaml:"radius"`
	ValleyWidth        float64 `yaml:"valley_width"`
	Tributaries        int     `yaml:"tributaries"`
	Settlements        int     `yaml:"settlements"`
	MinDistance        int     `yaml:"min_distance"`
	ClusterLink        int     `yaml:"cluster_link"`
	AdjacentDistance   int     `yaml:"adjacent_distance"`
	ClansPerSettlement int     `yaml:"clans_per_settlement"`
	MeanClanSize       float64 `yaml:"mean_clan_size"`
	DaughterMin        int     `yaml:"daughter_min"`
	DaughterMax        int     `yaml:"daughter_max"`
	StartYear          int     `yaml:"start_year"`
	YearsPerTurn       float64 `yaml:"years_per_turn"`
	RitesPolicy        string  `yaml:"rites_policy"`
}

// ModelConfig overrides model thresholds.
type ModelConfig struct {
	MaxClanSize    int     `yaml:"max_clan_size"`
	MinClanSize    int     `yaml:"min_clan_size"`
	CrowdingCap    int     `yaml:"crowding_cap"`
	ScaleThreshold int     `yaml:"scale_threshold"`
	DriftUp        float64 `yaml:"drift_up"`
	DriftDown      float64 `yaml:"drift_down"`
	MigrationNoise float64 `yaml:"migration_noise"`
}

// Default returns the standard configuration.
func Default() Config {
	setup := engine.DefaultSetup()
	p := engine.DefaultParams()
	return Config{
		Seed:     setup.Seed,
		Turns:    50,
		Database: "tellsim.db",
		LogLevel: "info",
		World: WorldConfig{
			Radius:             setup.Gen.Radius,
			ValleyWidth:        setup.Gen.ValleyWidth,
			Tributaries:        setup.Gen.Tributaries,
			Settlements:        setup.Settlements,
			MinDistance:        setup.MinDist,
			ClusterLink:        setup.ClusterLink,
			AdjacentDistance:   setup.AdjacentDist,
			ClansPerSettlement: setup.ClansPer,
			MeanClanSize:       setup.MeanClanSize,
			DaughterMin:        setup.Placement.MinDist,
			DaughterMax:        setup.Placement.MaxDist,
			StartYear:          setup.StartYear,
			YearsPerTurn:       setup.YearsPerTurn,
			RitesPolicy:        setup.Policy.String(),
		},
		Model: ModelConfig{
			MaxClanSize:    p.MaxClanSize,
			MinClanSize:    p.MinClanSize,
			CrowdingCap:    p.Migration.PopulationCap,
			ScaleThreshold: p.Attitude.ScaleThreshold,
			DriftUp:        p.DriftUp,
			DriftDown:      p.DriftDown,
			MigrationNoise: p.Migration.Noise,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("no config file, using defaults", "path", path)
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// WriteDefault writes the default configuration to path, creating its
// directory. An existing file is left alone.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects settings the model cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Turns < 0 {
		errs = append(errs, fmt.Errorf("turns must not be negative"))
	}
	if c.Model.MinClanSize < 1 || c.Model.MaxClanSize <= 2*c.Model.MinClanSize {
		errs = append(errs, fmt.Errorf("clan sizes need 1 <= min and 2*min < max, got min %d max %d", c.Model.MinClanSize, c.Model.MaxClanSize))
	}
	if c.World.Settlements < 1 || c.World.ClansPerSettlement < 1 {
		errs = append(errs, fmt.Errorf("need at least one settlement and one clan per settlement"))
	}
	if c.World.DaughterMin < 1 || c.World.DaughterMax < c.World.DaughterMin {
		errs = append(errs, fmt.Errorf("daughter distance range [%d, %d] is empty", c.World.DaughterMin, c.World.DaughterMax))
	}
	if c.Model.DriftUp < 0 || c.Model.DriftDown < 0 || c.Model.DriftUp+c.Model.DriftDown > 1 {
		errs = append(errs, fmt.Errorf("drift probabilities must be non-negative and sum to at most 1"))
	}
	if _, ok := rites.ParsePolicy(c.World.RitesPolicy); !ok {
		errs = append(errs, fmt.Errorf("unknown rites policy %q", c.World.RitesPolicy))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlogLevel parses the log level.
func (c Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", c.LogLevel)
}

// ResolveSeed returns the configured seed, or draws one from the entropy
// client (random.org when RANDOM_ORG_API_KEY is set, crypto/rand otherwise).
func (c Config) ResolveSeed() int64 {
	if c.Seed != 0 {
		return c.Seed
	}
	seed := entropy.NewClient(os.Getenv("RANDOM_ORG_API_KEY")).Seed()
	slog.Info("drew run seed", "seed", seed)
	return seed
}

// Setup converts the world section for a given seed.
func (c Config) Setup(seed int64) engine.Setup {
	s := engine.DefaultSetup()
	s.Seed = seed
	s.Gen.Radius = c.World.Radius
	s.Gen.ValleyWidth = c.World.ValleyWidth
	s.Gen.Tributaries = c.World.Tributaries
	s.Settlements = c.World.Settlements
	s.MinDist = c.World.MinDistance
	s.ClusterLink = c.World.ClusterLink
	s.AdjacentDist = c.World.AdjacentDistance
	s.ClansPer = c.World.ClansPerSettlement
	s.MeanClanSize = c.World.MeanClanSize
	s.StartYear = c.World.StartYear
	s.YearsPerTurn = c.World.YearsPerTurn
	s.Placement = social.Placement{MinDist: c.World.DaughterMin, MaxDist: c.World.DaughterMax}
	if p, ok := rites.ParsePolicy(c.World.RitesPolicy); ok {
		s.Policy = p
	}
	return s
}

// Params converts the model section.
func (c Config) Params() engine.Params {
	p := engine.DefaultParams()
	p.MaxClanSize = c.Model.MaxClanSize
	p.MinClanSize = c.Model.MinClanSize
	p.Migration.PopulationCap = c.Model.CrowdingCap
	p.Migration.Noise = c.Model.MigrationNoise
	p.Attitude.ScaleThreshold = c.Model.ScaleThreshold
	p.DriftUp = c.Model.DriftUp
	p.DriftDown = c.Model.DriftDown
	return p
}
