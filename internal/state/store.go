package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS twin_versions (
	version_id    TEXT PRIMARY KEY,
	parent_id     TEXT,
	state_json    TEXT NOT NULL,
	reason        TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (parent_id) REFERENCES twin_versions(version_id)
);

CREATE TABLE IF NOT EXISTS active_twin (
	id            INTEGER PRIMARY KEY CHECK (id = 1),
	version_id    TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES twin_versions(version_id)
);
`

// timeLayout is fixed-width so created_at sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
// #endregion schema

// #region store-struct
// Store manages versioned twin snapshots in SQLite.
type Store struct {
	db *sql.DB
}
// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}
// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}
// #endregion db-accessor

// #region create-initial
// CreateInitialState stores st as a parentless version and makes it active.
func (s *Store) CreateInitialState(st TwinState) (StateRecord, error) {
	rec := StateRecord{
		VersionID: uuid.New().String(),
		State:     st.Clone(),
		Reason:    "initial",
		CreatedAt: time.Now().UTC(),
	}
	if err := s.CommitState(rec); err != nil {
		return StateRecord{}, err
	}
	return rec, nil
}
// #endregion create-initial

// #region get-current
// GetCurrent reads the active twin version.
func (s *Store) GetCurrent() (StateRecord, error) {
	var versionID string
	err := s.db.QueryRow(`SELECT version_id FROM active_twin WHERE id = 1`).Scan(&versionID)
	if err != nil {
		return StateRecord{}, fmt.Errorf("get active: %w", err)
	}
	return s.GetVersion(versionID)
}
// #endregion get-current

// #region get-version
// GetVersion retrieves a specific twin version by ID.
func (s *Store) GetVersion(id string) (StateRecord, error) {
	row := s.db.QueryRow(
		`SELECT version_id, parent_id, state_json, reason, created_at
		 FROM twin_versions WHERE version_id = ?`, id,
	)
	rec, err := scanRecord(row)
	if err != nil {
		return StateRecord{}, fmt.Errorf("get version %s: %w", id, err)
	}
	return rec, nil
}
// #endregion get-version

// #region commit-state
// CommitState inserts a new version and updates the active pointer atomically.
func (s *Store) CommitState(rec StateRecord) error {
	stateJSON, err := json.Marshal(rec.State)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO twin_versions (version_id, parent_id, state_json, reason, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.VersionID, nullIfEmpty(rec.ParentID), string(stateJSON), nullIfEmpty(rec.Reason),
		rec.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert version: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO active_twin (id, version_id) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET version_id = excluded.version_id`,
		rec.VersionID,
	)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}

	return tx.Commit()
}
// #endregion commit-state

// #region persist
// Persist commits st as a child of the active version and returns the new
// version ID. Satisfies the controller's persister hook.
func (s *Store) Persist(st TwinState, reason string) (string, error) {
	var parentID string
	err := s.db.QueryRow(`SELECT version_id FROM active_twin WHERE id = 1`).Scan(&parentID)
	if err != nil && err != sql.ErrNoRows {
		return "", fmt.Errorf("get active: %w", err)
	}
	rec := StateRecord{
		VersionID: uuid.New().String(),
		ParentID:  parentID,
		State:     st,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.CommitState(rec); err != nil {
		return "", err
	}
	return rec.VersionID, nil
}
// #endregion persist

// #region rollback
// Rollback sets the active pointer to a previous version.
func (s *Store) Rollback(targetVersionID string) error {
	var exists int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM twin_versions WHERE version_id = ?`, targetVersionID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check version: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("version %s not found", targetVersionID)
	}

	_, err = s.db.Exec(`UPDATE active_twin SET version_id = ? WHERE id = 1`, targetVersionID)
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}
// #endregion rollback

// #region list-versions
// ListVersions returns the most recent twin versions, newest first.
func (s *Store) ListVersions(limit int) ([]StateRecord, error) {
	rows, err := s.db.Query(
		`SELECT version_id, parent_id, state_json, reason, created_at
		 FROM twin_versions ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var records []StateRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
// #endregion list-versions

// #region helpers
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (StateRecord, error) {
	var rec StateRecord
	var parentID, reason sql.NullString
	var stateJSON, createdStr string

	if err := row.Scan(&rec.VersionID, &parentID, &stateJSON, &reason, &createdStr); err != nil {
		return StateRecord{}, err
	}
	if parentID.Valid {
		rec.ParentID = parentID.String
	}
	if reason.Valid {
		rec.Reason = reason.String
	}
	if err := json.Unmarshal([]byte(stateJSON), &rec.State); err != nil {
		return StateRecord{}, fmt.Errorf("unmarshal state: %w", err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr) // accepts any fraction width
	return rec, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
