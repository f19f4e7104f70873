package main

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// PlayerRow represents an account in the database
type PlayerRow struct {
	ID        int64
	Username  string
	PassHash  string
	Admin     bool
	CreatedAt time.Time
}

// StatsRow holds per-account command counters
type StatsRow struct {
	PlayerID   int64
	Commands   int
	Configures int
	Formations int
	Deposits   int
	Withdraws  int
}

// FaultRow is one rejected action from the audit table
type FaultRow struct {
	SessionID  string
	Tick       uint64
	PlayerID   int64
	PlayerName string
	ActionType string
	Reason     string
	CreatedAt  time.Time
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS players (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		pass_hash TEXT NOT NULL DEFAULT '',
		is_admin INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS stats (
		player_id INTEGER PRIMARY KEY REFERENCES players(id),
		commands INTEGER NOT NULL DEFAULT 0,
		configures INTEGER NOT NULL DEFAULT 0,
		formations INTEGER NOT NULL DEFAULT 0,
		deposits INTEGER NOT NULL DEFAULT 0,
		withdraws INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS achievements (
		player_id INTEGER NOT NULL REFERENCES players(id),
		achievement_id TEXT NOT NULL,
		unlocked_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (player_id, achievement_id)
	);

	CREATE TABLE IF NOT EXISTS analytics_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		player_id INTEGER,
		session_id TEXT,
		data TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS audit_faults (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL DEFAULT '',
		tick INTEGER NOT NULL DEFAULT 0,
		player_id INTEGER,
		player_name TEXT NOT NULL DEFAULT '',
		action_type TEXT NOT NULL,
		reason TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_players_username ON players(username);
	CREATE INDEX IF NOT EXISTS idx_analytics_type ON analytics_events(event_type, created_at);
	CREATE INDEX IF NOT EXISTS idx_faults_created ON audit_faults(created_at);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// CreatePlayer creates a new account (returns player ID)
func (db *DB) CreatePlayer(username, passHash string) (int64, error) {
	res, err := db.conn.Exec(
		"INSERT INTO players (username, pass_hash) VALUES (?, ?)",
		username, passHash,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	// Create stats row
	_, err = db.conn.Exec("INSERT INTO stats (player_id) VALUES (?)", id)
	return id, err
}

func scanPlayer(row *sql.Row) (*PlayerRow, error) {
	p := &PlayerRow{}
	err := row.Scan(&p.ID, &p.Username, &p.PassHash, &p.Admin, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetPlayerByUsername returns an account by username, nil if none
func (db *DB) GetPlayerByUsername(username string) (*PlayerRow, error) {
	return scanPlayer(db.conn.QueryRow(
		"SELECT id, username, pass_hash, is_admin, created_at FROM players WHERE username = ?",
		username,
	))
}

// GetPlayer returns an account by ID, nil if none
func (db *DB) GetPlayer(id int64) (*PlayerRow, error) {
	return scanPlayer(db.conn.QueryRow(
		"SELECT id, username, pass_hash, is_admin, created_at FROM players WHERE id = ?",
		id,
	))
}

// SetAdmin grants or revokes admin rights
func (db *DB) SetAdmin(id int64, admin bool) error {
	_, err := db.conn.Exec("UPDATE players SET is_admin = ? WHERE id = ?", admin, id)
	return err
}

// UsernameExists checks if a username is taken
func (db *DB) UsernameExists(username string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM players WHERE username = ?", username).Scan(&count)
	return count > 0, err
}

// GetSetting returns a stored setting, "" when unset
func (db *DB) GetSetting(key string) string {
	var v string
	if err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&v); err != nil {
		return ""
	}
	return v
}

func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

// GetStats returns account counters, nil if the account has none
func (db *DB) GetStats(playerID int64) (*StatsRow, error) {
	row := db.conn.QueryRow(
		"SELECT player_id, commands, configures, formations, deposits, withdraws FROM stats WHERE player_id = ?",
		playerID,
	)
	s := &StatsRow{}
	err := row.Scan(&s.PlayerID, &s.Commands, &s.Configures, &s.Formations, &s.Deposits, &s.Withdraws)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// AddStats adds the counters of d to the account's stats
func (db *DB) AddStats(d StatsRow) error {
	_, err := db.conn.Exec(`
		UPDATE stats SET
			commands = commands + ?,
			configures = configures + ?,
			formations = formations + ?,
			deposits = deposits + ?,
			withdraws = withdraws + ?
		WHERE player_id = ?`,
		d.Commands, d.Configures, d.Formations, d.Deposits, d.Withdraws, d.PlayerID,
	)
	return err
}

// GetAchievements returns the unlocked achievement ids of an account
func (db *DB) GetAchievements(playerID int64) ([]string, error) {
	rows, err := db.conn.Query("SELECT achievement_id FROM achievements WHERE player_id = ? ORDER BY unlocked_at", playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UnlockAchievement records an achievement; false if it was already unlocked
func (db *DB) UnlockAchievement(playerID int64, id string) (bool, error) {
	res, err := db.conn.Exec(
		"INSERT OR IGNORE INTO achievements (player_id, achievement_id) VALUES (?, ?)",
		playerID, id,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// RecentFaults returns the newest audit faults first
func (db *DB) RecentFaults(limit int) ([]FaultRow, error) {
	rows, err := db.conn.Query(`
		SELECT session_id, tick, COALESCE(player_id, 0), player_name, action_type, reason, created_at
		FROM audit_faults ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []FaultRow
	for rows.Next() {
		var f FaultRow
		var created string
		if err := rows.Scan(&f.SessionID, &f.Tick, &f.PlayerID, &f.PlayerName, &f.ActionType, &f.Reason, &created); err != nil {
			return nil, err
		}
		f.CreatedAt, _ = time.Parse(time.RFC3339, created)
		result = append(result, f)
	}
	return result, rows.Err()
}
