package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS interaction_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	turn_id       TEXT NOT NULL UNIQUE,
	version_id    TEXT,
	input         TEXT NOT NULL,
	output        TEXT NOT NULL,
	rule_name     TEXT NOT NULL,
	outcome       TEXT,
	decision_path TEXT NOT NULL,
	reward        REAL,
	warnings      TEXT,
	created_at    TEXT NOT NULL
);
`

// EnsureSchema creates the interaction_log table if it does not exist.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migrate interaction_log: %w", err)
	}
	return nil
}
// #endregion schema

// #region log-interaction
// LogInteraction writes an interaction entry to the interaction_log table.
func LogInteraction(db *sql.DB, entry InteractionEntry) error {
	return logInteraction(context.Background(), db, entry)
}

func logInteraction(ctx context.Context, db *sql.DB, entry InteractionEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	pathJSON, err := json.Marshal(nonNil(entry.DecisionPath))
	if err != nil {
		return fmt.Errorf("marshal decision path: %w", err)
	}
	var warningsJSON string
	if len(entry.Warnings) > 0 {
		data, err := json.Marshal(entry.Warnings)
		if err != nil {
			return fmt.Errorf("marshal warnings: %w", err)
		}
		warningsJSON = string(data)
	}
	var reward interface{}
	if entry.Reward != nil {
		reward = *entry.Reward
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO interaction_log (turn_id, version_id, input, output, rule_name, outcome, decision_path, reward, warnings, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.TurnID,
		nullIfEmpty(entry.VersionID),
		entry.Input,
		entry.Output,
		entry.RuleName,
		nullIfEmpty(entry.Outcome),
		string(pathJSON),
		reward,
		nullIfEmpty(warningsJSON),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log interaction: %w", err)
	}
	return nil
}
// #endregion log-interaction

// #region list-interactions
// ListInteractions returns the most recent limit entries in chronological order.
// limit <= 0 returns every entry.
func ListInteractions(db *sql.DB, limit int) ([]InteractionEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(
		`SELECT turn_id, version_id, input, output, rule_name, outcome, decision_path, reward, warnings, created_at
		 FROM interaction_log ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	defer rows.Close()

	var entries []InteractionEntry
	for rows.Next() {
		var e InteractionEntry
		var versionID, outcome, warnings sql.NullString
		var reward sql.NullFloat64
		var pathJSON, createdStr string
		if err := rows.Scan(&e.TurnID, &versionID, &e.Input, &e.Output, &e.RuleName, &outcome,
			&pathJSON, &reward, &warnings, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.VersionID = versionID.String
		e.Outcome = outcome.String
		if reward.Valid {
			r := reward.Float64
			e.Reward = &r
		}
		if err := json.Unmarshal([]byte(pathJSON), &e.DecisionPath); err != nil {
			return nil, fmt.Errorf("unmarshal decision path: %w", err)
		}
		if warnings.Valid {
			if err := json.Unmarshal([]byte(warnings.String), &e.Warnings); err != nil {
				return nil, fmt.Errorf("unmarshal warnings: %w", err)
			}
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(entries)
	return entries, nil
}
// #endregion list-interactions

// #region sql-recorder
// SQLRecorder writes interaction entries to a SQLite database.
type SQLRecorder struct {
	db *sql.DB
}

// NewSQLRecorder ensures the schema exists and returns a recorder.
func NewSQLRecorder(db *sql.DB) (*SQLRecorder, error) {
	if err := EnsureSchema(db); err != nil {
		return nil, err
	}
	return &SQLRecorder{db: db}, nil
}

// Record implements the controller's recorder hook.
func (r *SQLRecorder) Record(ctx context.Context, entry InteractionEntry) error {
	return logInteraction(ctx, r.db, entry)
}
// #endregion sql-recorder

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
// #endregion helpers
