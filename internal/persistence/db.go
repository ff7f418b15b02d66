// Package persistence archives world snapshots to SQLite. Memory stays
// authoritative; the archive is written on a cadence and on shutdown and
// read back once at startup.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/hexfront/internal/army"
	"github.com/talgya/hexfront/internal/combat"
	"github.com/talgya/hexfront/internal/economy"
	"github.com/talgya/hexfront/internal/engine"
)

// Settlement sides.
const (
	sidePlayer   = "player"
	sideOpponent = "opponent"
)

// DB wraps a SQLite connection for world state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
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
	CREATE TABLE IF NOT EXISTS settlements (
		id INTEGER NOT NULL,
		side TEXT NOT NULL,
		name TEXT NOT NULL,
		pos_q INTEGER NOT NULL,
		pos_r INTEGER NOT NULL,
		buildings_json TEXT NOT NULL,
		units_json TEXT NOT NULL,
		PRIMARY KEY (side, id)
	);

	CREATE TABLE IF NOT EXISTS opponent_economies (
		id INTEGER PRIMARY KEY,
		wood REAL NOT NULL,
		clay REAL NOT NULL,
		iron REAL NOT NULL,
		capacity REAL NOT NULL,
		production_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		attacker TEXT NOT NULL,
		defender TEXT NOT NULL,
		attacker_won INTEGER NOT NULL,
		ts INTEGER NOT NULL,
		body_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_ts ON reports(ts);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type settlementRow struct {
	ID            uint64 `db:"id"`
	Side          string `db:"side"`
	Name          string `db:"name"`
	PosQ          int    `db:"pos_q"`
	PosR          int    `db:"pos_r"`
	BuildingsJSON string `db:"buildings_json"`
	UnitsJSON     string `db:"units_json"`
}

type economyRow struct {
	ID             uint64  `db:"id"`
	Wood           float64 `db:"wood"`
	Clay           float64 `db:"clay"`
	Iron           float64 `db:"iron"`
	Capacity       float64 `db:"capacity"`
	ProductionJSON string  `db:"production_json"`
}

// SaveSettlements writes both sides' settlements (full replace).
func (db *DB) SaveSettlements(player, opponents []engine.Settlement) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM settlements"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO settlements
		(id, side, name, pos_q, pos_r, buildings_json, units_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for side, list := range map[string][]engine.Settlement{sidePlayer: player, sideOpponent: opponents} {
		for _, s := range list {
			buildingsJSON, _ := json.Marshal(s.Buildings)
			unitsJSON, _ := json.Marshal(s.Units)
			if _, err := stmt.Exec(s.ID, side, s.Name, s.Position.Q, s.Position.R,
				string(buildingsJSON), string(unitsJSON)); err != nil {
				return fmt.Errorf("insert settlement %d: %w", s.ID, err)
			}
		}
	}

	return tx.Commit()
}

// SaveEconomies writes the opponents' tracked stockpiles (full replace).
func (db *DB) SaveEconomies(econ map[uint64]engine.OpponentEconomy) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM opponent_economies"); err != nil {
		return err
	}
	for id, e := range econ {
		prodJSON, _ := json.Marshal(e.ProductionPerHour)
		_, err := tx.Exec(`INSERT INTO opponent_economies
			(id, wood, clay, iron, capacity, production_json) VALUES (?, ?, ?, ?, ?, ?)`,
			id, e.Resources[economy.Wood], e.Resources[economy.Clay], e.Resources[economy.Iron],
			e.Capacity, string(prodJSON))
		if err != nil {
			return fmt.Errorf("insert economy %d: %w", id, err)
		}
	}
	return tx.Commit()
}

// SaveReports appends reports not yet archived. The archive keeps every
// report, not just the in-memory window.
func (db *DB) SaveReports(reports []combat.Report) error {
	if len(reports) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, r := range reports {
		body, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode report %s: %w", r.ID, err)
		}
		won := 0
		if r.AttackerWon {
			won = 1
		}
		_, err = tx.Exec(`INSERT OR IGNORE INTO reports
			(id, attacker, defender, attacker_won, ts, body_json) VALUES (?, ?, ?, ?, ?, ?)`,
			r.ID, r.Attacker, r.Defender, won, r.Timestamp.UnixMilli(), string(body))
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentReports returns the most recent limit reports, newest first.
func (db *DB) RecentReports(limit int) ([]combat.Report, error) {
	var bodies []string
	err := db.conn.Select(&bodies,
		"SELECT body_json FROM reports ORDER BY ts DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	out := make([]combat.Report, 0, len(bodies))
	for _, b := range bodies {
		var r combat.Report
		if err := json.Unmarshal([]byte(b), &r); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}

// ReportCount returns how many reports the archive holds.
func (db *DB) ReportCount() (int, error) {
	var n int
	err := db.conn.Get(&n, "SELECT COUNT(*) FROM reports")
	return n, err
}

// SaveMeta stores a key-value pair in world metadata.
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

// SaveWorldSeed records the terrain seed the archived world was built with.
func (db *DB) SaveWorldSeed(seed int64) error {
	return db.SaveMeta("world_seed", strconv.FormatInt(seed, 10))
}

// WorldSeed returns the archived terrain seed. ok is false when none was saved.
func (db *DB) WorldSeed() (seed int64, ok bool, err error) {
	v, err := db.GetMeta("world_seed")
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	seed, err = strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse world_seed: %w", err)
	}
	return seed, true, nil
}

func (db *DB) saveMetaJSON(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return db.SaveMeta(key, string(b))
}

func (db *DB) metaJSON(key string, v any) error {
	s, err := db.GetMeta(key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(s), v)
}

// SaveWorldState performs a full save of a snapshot.
func (db *DB) SaveWorldState(s *engine.State, tick uint64) error {
	slog.Info("saving world state", "tick", tick,
		"settlements", len(s.Settlements)+len(s.Opponents), "reports", len(s.Reports))

	if err := db.SaveSettlements(s.Settlements, s.Opponents); err != nil {
		return fmt.Errorf("save settlements: %w", err)
	}
	if err := db.SaveEconomies(s.OpponentEconomies); err != nil {
		return fmt.Errorf("save economies: %w", err)
	}
	if err := db.SaveReports(s.Reports); err != nil {
		return fmt.Errorf("save reports: %w", err)
	}
	if err := db.saveMetaJSON("resources", s.Resources); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if err := db.saveMetaJSON("movements", s.Movements); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if err := db.SaveMeta("warehouse_capacity", strconv.FormatFloat(s.WarehouseCapacity, 'f', -1, 64)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if err := db.SaveMeta("last_update", s.LastUpdate.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if err := db.SaveMeta("last_tick", strconv.FormatUint(tick, 10)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	slog.Info("world state saved")
	return nil
}

// LoadWorldState rebuilds a snapshot from the archive. ok is false when
// nothing has been saved yet. The grid is not stored; callers regenerate it.
func (db *DB) LoadWorldState() (s *engine.State, tick uint64, ok bool, err error) {
	lastUpdate, err := db.GetMeta("last_update")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("load meta: %w", err)
	}

	s = &engine.State{OpponentEconomies: make(map[uint64]engine.OpponentEconomy)}
	if s.LastUpdate, err = time.Parse(time.RFC3339Nano, lastUpdate); err != nil {
		return nil, 0, false, fmt.Errorf("parse last_update: %w", err)
	}
	capStr, err := db.GetMeta("warehouse_capacity")
	if err != nil {
		return nil, 0, false, fmt.Errorf("load capacity: %w", err)
	}
	if s.WarehouseCapacity, err = strconv.ParseFloat(capStr, 64); err != nil {
		return nil, 0, false, fmt.Errorf("parse capacity: %w", err)
	}
	if err := db.metaJSON("resources", &s.Resources); err != nil {
		return nil, 0, false, fmt.Errorf("load resources: %w", err)
	}
	var movements []army.Movement
	if err := db.metaJSON("movements", &movements); err != nil {
		return nil, 0, false, fmt.Errorf("load movements: %w", err)
	}
	s.Movements = movements
	if t, err := db.GetMeta("last_tick"); err == nil {
		tick, _ = strconv.ParseUint(t, 10, 64)
	}

	var rows []settlementRow
	if err := db.conn.Select(&rows, "SELECT * FROM settlements ORDER BY side, id"); err != nil {
		return nil, 0, false, fmt.Errorf("load settlements: %w", err)
	}
	for _, r := range rows {
		st := engine.Settlement{ID: r.ID, Name: r.Name}
		st.Position.Q, st.Position.R = r.PosQ, r.PosR
		if err := json.Unmarshal([]byte(r.BuildingsJSON), &st.Buildings); err != nil {
			return nil, 0, false, fmt.Errorf("decode buildings %d: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(r.UnitsJSON), &st.Units); err != nil {
			return nil, 0, false, fmt.Errorf("decode units %d: %w", r.ID, err)
		}
		if r.Side == sidePlayer {
			s.Settlements = append(s.Settlements, st)
		} else {
			s.Opponents = append(s.Opponents, st)
		}
	}

	var econ []economyRow
	if err := db.conn.Select(&econ, "SELECT * FROM opponent_economies ORDER BY id"); err != nil {
		return nil, 0, false, fmt.Errorf("load economies: %w", err)
	}
	for _, e := range econ {
		oe := engine.OpponentEconomy{
			ID:        e.ID,
			Resources: economy.NewAmounts(e.Wood, e.Clay, e.Iron),
			Capacity:  e.Capacity,
		}
		if err := json.Unmarshal([]byte(e.ProductionJSON), &oe.ProductionPerHour); err != nil {
			return nil, 0, false, fmt.Errorf("decode production %d: %w", e.ID, err)
		}
		s.OpponentEconomies[e.ID] = oe
	}

	reports, err := db.RecentReports(combat.LogCap)
	if err != nil {
		return nil, 0, false, fmt.Errorf("load reports: %w", err)
	}
	s.Reports = combat.Log(reports)

	return s, tick, true, nil
}
