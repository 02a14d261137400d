// Package persistence provides SQLite storage for simulation runs: one row
// per run, a summary per turn, per-entity snapshots and narrative notes.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/tellsim/internal/engine"
	"github.com/talgya/tellsim/internal/notes"
)

// DB wraps a SQLite connection for run storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		config_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS turns (
		run_id TEXT NOT NULL,
		turn INTEGER NOT NULL,
		year INTEGER NOT NULL,
		era TEXT NOT NULL,
		population INTEGER NOT NULL,
		births INTEGER NOT NULL,
		deaths INTEGER NOT NULL,
		migrations INTEGER NOT NULL,
		foundings INTEGER NOT NULL,
		abandonments INTEGER NOT NULL,
		splits INTEGER NOT NULL,
		merges INTEGER NOT NULL,
		pruned INTEGER NOT NULL,
		PRIMARY KEY (run_id, turn)
	);

	CREATE TABLE IF NOT EXISTS clan_snapshots (
		run_id TEXT NOT NULL,
		turn INTEGER NOT NULL,
		clan_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		settlement_id INTEGER NOT NULL,
		population INTEGER NOT NULL,
		cohorts_json TEXT NOT NULL,
		housing TEXT NOT NULL,
		traits TEXT NOT NULL,
		seniority INTEGER NOT NULL,
		subsistence REAL NOT NULL,
		happiness REAL NOT NULL,
		prestige REAL NOT NULL,
		parent INTEGER NOT NULL,
		moved INTEGER NOT NULL,
		PRIMARY KEY (run_id, turn, clan_id)
	);

	CREATE TABLE IF NOT EXISTS settlement_snapshots (
		run_id TEXT NOT NULL,
		turn INTEGER NOT NULL,
		settlement_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		cluster_id INTEGER NOT NULL,
		population INTEGER NOT NULL,
		clans INTEGER NOT NULL,
		tell_height REAL NOT NULL,
		rites_quality REAL NOT NULL,
		rites_policy TEXT NOT NULL,
		leader_id INTEGER,
		ditch REAL NOT NULL,
		flood REAL NOT NULL,
		abandoned INTEGER NOT NULL,
		PRIMARY KEY (run_id, turn, settlement_id)
	);

	CREATE TABLE IF NOT EXISTS notes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		turn INTEGER NOT NULL,
		label TEXT NOT NULL,
		message TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_notes_run_turn ON notes(run_id, turn);
	CREATE INDEX IF NOT EXISTS idx_clans_settlement ON clan_snapshots(run_id, settlement_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Run is one stored simulation run.
type Run struct {
	ID         string `db:"id"`
	Seed       int64  `db:"seed"`
	StartedAt  string `db:"started_at"` // RFC 3339
	ConfigJSON string `db:"config_json"`
}

// TurnRow is one stored turn summary.
type TurnRow struct {
	RunID      string `db:"run_id"`
	Turn       int    `db:"turn"`
	Year       int    `db:"year"`
	Era        string `db:"era"`
	Population int    `db:"population"`
	engine.TurnStats
}

// ClanRow is one stored clan snapshot.
type ClanRow struct {
	RunID        string  `db:"run_id"`
	Turn         int     `db:"turn"`
	ClanID       int     `db:"clan_id"`
	Name         string  `db:"name"`
	SettlementID int     `db:"settlement_id"`
	Population   int     `db:"population"`
	CohortsJSON  string  `db:"cohorts_json"`
	Housing      string  `db:"housing"`
	Traits       string  `db:"traits"`
	Seniority    int     `db:"seniority"`
	Subsistence  float64 `db:"subsistence"`
	Happiness    float64 `db:"happiness"`
	Prestige     float64 `db:"prestige"`
	Parent       int     `db:"parent"`
	Moved        bool    `db:"moved"`
}

// SettlementRow is one stored settlement snapshot.
type SettlementRow struct {
	RunID        string  `db:"run_id"`
	Turn         int     `db:"turn"`
	SettlementID int     `db:"settlement_id"`
	Name         string  `db:"name"`
	ClusterID    int     `db:"cluster_id"`
	Population   int     `db:"population"`
	Clans        int     `db:"clans"`
	TellHeight   float64 `db:"tell_height"`
	RitesQuality float64 `db:"rites_quality"`
	RitesPolicy  string  `db:"rites_policy"`
	LeaderID     *int    `db:"leader_id"`
	Ditch        float64 `db:"ditch"`
	Flood        float64 `db:"flood"`
	Abandoned    bool    `db:"abandoned"`
}

// CreateRun records a new run. An empty id is replaced with a fresh UUID;
// the id used is returned.
func (db *DB) CreateRun(id string, seed int64, config any) (string, error) {
	if id == "" {
		id = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("run id %q: %w", id, err)
	}
	cfg, err := json.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	_, err = db.conn.Exec(
		"INSERT INTO runs (id, seed, started_at, config_json) VALUES (?, ?, ?, ?)",
		id, seed, time.Now().UTC().Format(time.RFC3339), string(cfg),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// SaveTurn writes one snapshot: the turn summary and every clan and
// settlement row, in a single transaction.
func (db *DB) SaveTurn(runID string, snap engine.Snapshot) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	row := TurnRow{
		RunID:      runID,
		Turn:       snap.Turn,
		Year:       snap.Year,
		Era:        snap.Era,
		Population: snap.Population,
		TurnStats:  snap.Stats,
	}
	if _, err := tx.NamedExec(`INSERT INTO turns
		(run_id, turn, year, era, population, births, deaths, migrations,
		 foundings, abandonments, splits, merges, pruned)
		VALUES (:run_id, :turn, :year, :era, :population, :births, :deaths, :migrations,
		 :foundings, :abandonments, :splits, :merges, :pruned)`, row); err != nil {
		return fmt.Errorf("insert turn %d: %w", snap.Turn, err)
	}

	clanStmt, err := tx.Preparex(`INSERT INTO clan_snapshots
		(run_id, turn, clan_id, name, settlement_id, population, cohorts_json,
		 housing, traits, seniority, subsistence, happiness, prestige, parent, moved)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer clanStmt.Close()

	for _, c := range snap.Clans {
		cohortsJSON, _ := json.Marshal(c.Cohorts)
		_, err := clanStmt.Exec(
			runID, snap.Turn, c.ID, c.Name, c.SettlementID, c.Population, string(cohortsJSON),
			c.Housing, c.Traits, c.Seniority, c.Subsistence, c.Happiness, c.Prestige,
			c.Parent, c.Moved,
		)
		if err != nil {
			return fmt.Errorf("insert clan %d: %w", c.ID, err)
		}
	}

	settStmt, err := tx.Preparex(`INSERT INTO settlement_snapshots
		(run_id, turn, settlement_id, name, cluster_id, population, clans, tell_height,
		 rites_quality, rites_policy, leader_id, ditch, flood, abandoned)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer settStmt.Close()

	for _, s := range snap.Settlements {
		_, err := settStmt.Exec(
			runID, snap.Turn, s.ID, s.Name, s.ClusterID, s.Population, s.Clans, s.TellHeight,
			s.RitesQuality, s.RitesPolicy, s.LeaderID, s.Ditch, s.Flood, s.Abandoned,
		)
		if err != nil {
			return fmt.Errorf("insert settlement %d: %w", s.ID, err)
		}
	}

	return tx.Commit()
}

// SaveNotes appends narrative notes.
func (db *DB) SaveNotes(runID string, ns []notes.Note) error {
	if len(ns) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, n := range ns {
		_, err := tx.Exec(
			"INSERT INTO notes (run_id, turn, label, message) VALUES (?, ?, ?, ?)",
			runID, n.Turn, n.Label, n.Message,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveMeta stores a key-value pair.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// SaveWorld records a completed turn of a world along with its buffered
// notes, and remembers it as the last run.
func (db *DB) SaveWorld(w *engine.World, snap engine.Snapshot, mem *notes.Memory) error {
	if err := db.SaveTurn(w.RunID, snap); err != nil {
		return fmt.Errorf("save turn: %w", err)
	}
	if mem != nil {
		if err := db.SaveNotes(w.RunID, mem.Drain()); err != nil {
			return fmt.Errorf("save notes: %w", err)
		}
	}
	if err := db.SaveMeta("last_run", w.RunID); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	slog.Debug("turn saved", "run_id", w.RunID, "turn", snap.Turn, "clans", len(snap.Clans))
	return nil
}

// Runs lists every stored run, newest first.
func (db *DB) Runs() ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs, "SELECT id, seed, started_at, config_json FROM runs ORDER BY started_at DESC, id")
	return runs, err
}

// Turns returns a run's turn summaries in order.
func (db *DB) Turns(runID string) ([]TurnRow, error) {
	var rows []TurnRow
	err := db.conn.Select(&rows, `SELECT run_id, turn, year, era, population, births, deaths,
		migrations, foundings, abandonments, splits, merges, pruned
		FROM turns WHERE run_id = ? ORDER BY turn`, runID)
	return rows, err
}

// Clans returns the clan snapshots of one turn, by clan id.
func (db *DB) Clans(runID string, turn int) ([]ClanRow, error) {
	var rows []ClanRow
	err := db.conn.Select(&rows, "SELECT * FROM clan_snapshots WHERE run_id = ? AND turn = ? ORDER BY clan_id", runID, turn)
	return rows, err
}

// Settlements returns the settlement snapshots of one turn, by id.
func (db *DB) Settlements(runID string, turn int) ([]SettlementRow, error) {
	var rows []SettlementRow
	err := db.conn.Select(&rows, "SELECT * FROM settlement_snapshots WHERE run_id = ? AND turn = ? ORDER BY settlement_id", runID, turn)
	return rows, err
}

// RecentNotes returns the most recent notes of a run, newest first.
func (db *DB) RecentNotes(runID string, limit int) ([]notes.Note, error) {
	var ns []notes.Note
	err := db.conn.Select(&ns,
		"SELECT turn, label, message FROM notes WHERE run_id = ? ORDER BY id DESC LIMIT ?",
		runID, limit,
	)
	return ns, err
}
