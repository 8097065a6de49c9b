package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"tunedl/models"
)

const (
	keyAskSource       = "ask_source"
	keyPreferredSource = "preferred_source"
)

const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

type Database struct {
	db *sql.DB
}

type HistoryRecord struct {
	ID           int64     `json:"id"`
	BatchID      string    `json:"batch_id,omitempty"`
	Reference    string    `json:"reference"`
	Title        string    `json:"title"`
	Performers   string    `json:"performers,omitempty"`
	Source       string    `json:"source"`
	Path         string    `json:"path,omitempty"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

// New opens (creating if needed) the sqlite database at dbPath and runs migrations.
func New(dbPath string) (*Database, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	d := &Database{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Infof("Database initialized at %s", dbPath)
	return d, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS download_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id TEXT NOT NULL DEFAULT '',
			reference TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL,
			performers TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			path TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			downloaded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_download_history_downloaded_at ON download_history(downloaded_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_download_history_batch_id ON download_history(batch_id)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	return nil
}

// LoadSettings returns the stored settings. Missing or unreadable values keep
// their defaults.
func (d *Database) LoadSettings() (models.Settings, error) {
	settings := models.DefaultSettings()

	rows, err := d.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return settings, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return settings, fmt.Errorf("failed to scan settings row: %w", err)
		}

		switch key {
		case keyAskSource:
			ask, err := strconv.ParseBool(value)
			if err != nil {
				log.Warnf("ignoring invalid %s value %q", key, value)
				continue
			}
			settings.AskSource = ask
		case keyPreferredSource:
			source, err := models.ParseDownloadSource(value)
			if err != nil {
				log.Warnf("ignoring invalid %s value %q", key, value)
				continue
			}
			settings.PreferredSource = source
		}
	}
	return settings, rows.Err()
}

// SaveSettings persists every setting in a single transaction.
func (d *Database) SaveSettings(settings models.Settings) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	values := map[string]string{
		keyAskSource:       strconv.FormatBool(settings.AskSource),
		keyPreferredSource: string(settings.PreferredSource),
	}
	for key, value := range values {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, key, value); err != nil {
			return fmt.Errorf("failed to save setting %s: %w", key, err)
		}
	}

	return tx.Commit()
}

// RecordDownload inserts a download outcome. DownloadedAt defaults to now.
func (d *Database) RecordDownload(r HistoryRecord) error {
	if r.DownloadedAt.IsZero() {
		r.DownloadedAt = time.Now()
	}

	_, err := d.db.Exec(
		`INSERT INTO download_history (batch_id, reference, title, performers, source, path, status, error, downloaded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.BatchID, r.Reference, r.Title, r.Performers, r.Source, r.Path, r.Status, r.Error,
		r.DownloadedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}
	return nil
}

// GetHistory returns the most recent downloads, newest first.
func (d *Database) GetHistory(limit int) ([]HistoryRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := d.db.Query(
		`SELECT id, batch_id, reference, title, performers, source, path, status, error, downloaded_at
		 FROM download_history
		 ORDER BY downloaded_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []HistoryRecord
	for rows.Next() {
		var r HistoryRecord
		var downloadedAt string
		if err := rows.Scan(&r.ID, &r.BatchID, &r.Reference, &r.Title, &r.Performers,
			&r.Source, &r.Path, &r.Status, &r.Error, &downloadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		r.DownloadedAt = parseTimestamp(downloadedAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// parseTimestamp accepts both the RFC3339 values written by RecordDownload and
// the sqlite CURRENT_TIMESTAMP default.
func parseTimestamp(value string) time.Time {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, layout := range formats {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	log.Warnf("failed to parse timestamp '%s' with all known formats", value)
	return time.Time{}
}
