package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"authwatch/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'started',
  countsJson TEXT NOT NULL DEFAULT '{}',
  startedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  finishedAt TEXT
);

CREATE TABLE IF NOT EXISTS report_rows (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId INTEGER NOT NULL,
  connectionId TEXT NOT NULL,
  websiteId TEXT NOT NULL,
  username TEXT NOT NULL,
  status TEXT NOT NULL,
  locationId TEXT NOT NULL,
  lastUpdated TEXT NOT NULL,
  practiceGroupId TEXT NOT NULL,
  practiceGroupName TEXT NOT NULL,
  fetchedAt TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(runId) REFERENCES runs(id)
);
CREATE INDEX IF NOT EXISTS idx_report_rows_runId ON report_rows(runId);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) InsertRun(traceID string) (int64, error) {
	result, err := d.conn.Exec(`INSERT INTO runs (traceId) VALUES (?)`, traceID)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (d *DB) FinishRun(runID int64, status string, counts map[string]int) error {
	countsJSON, _ := json.Marshal(counts)
	_, err := d.conn.Exec(`
UPDATE runs SET status = ?, countsJson = ?, finishedAt = CURRENT_TIMESTAMP WHERE id = ?
`, status, string(countsJSON), runID)
	return err
}

func (d *DB) InsertReportRows(runID int64, rows []internal.ReportRow, fetchedAt string) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO report_rows (
  runId, connectionId, websiteId, username, status,
  locationId, lastUpdated, practiceGroupId, practiceGroupName, fetchedAt
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.Exec(
			runID, row.ID, row.WebsiteID, row.Username, row.Status,
			row.LocationID, row.LastUpdated, row.PracticeGroupID, row.PracticeGroupName, fetchedAt,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) GetRunRows(runID int64) ([]internal.ReportExportRow, error) {
	rows, err := d.conn.Query(`
SELECT connectionId, websiteId, username, status, locationId, lastUpdated,
       practiceGroupId, practiceGroupName, fetchedAt
FROM report_rows WHERE runId = ? ORDER BY id ASC
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ReportExportRow
	for rows.Next() {
		var row internal.ReportExportRow
		if err := rows.Scan(
			&row.ID, &row.WebsiteID, &row.Username, &row.Status, &row.LocationID,
			&row.LastUpdated, &row.PracticeGroupID, &row.PracticeGroupName, &row.FetchedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) ListRuns(limit int) ([]internal.RunRow, error) {
	rows, err := d.conn.Query(`
SELECT id, traceId, status, countsJson, startedAt, finishedAt
FROM runs ORDER BY id DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RunRow
	for rows.Next() {
		var row internal.RunRow
		if err := rows.Scan(&row.ID, &row.TraceID, &row.Status, &row.CountsJSON, &row.StartedAt, &row.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// LatestRunID returns the id of the most recent run, or nil when no run has
// been recorded yet.
func (d *DB) LatestRunID() (*int64, error) {
	var id int64
	err := d.conn.QueryRow(`SELECT id FROM runs ORDER BY id DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
