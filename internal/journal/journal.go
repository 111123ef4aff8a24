// Package journal provides SQLite-backed recording of dispatched alerts.
//
// The journal is an audit log: it never feeds back into watch-list or dedup
// decisions, so a restart still resets tracking.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mkrutov/stockpulse/internal/models"
	_ "modernc.org/sqlite"
)

// Journal wraps a SQLite database holding the alert history.
type Journal struct {
	db        *sql.DB
	maxAlerts int
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/stockpulse/data.db.
func New(maxAlerts int, dbPath string) (*Journal, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "stockpulse", "data.db")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	j := &Journal{db: db, maxAlerts: maxAlerts}
	if err := j.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return j, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS alerts (
			id            TEXT PRIMARY KEY,
			symbol        TEXT NOT NULL,
			tier          TEXT NOT NULL,
			open_price    REAL NOT NULL,
			current_price REAL NOT NULL,
			percent       REAL NOT NULL,
			volume        REAL NOT NULL,
			exchange      TEXT NOT NULL,
			headline      TEXT,
			news_at       INTEGER NOT NULL,
			detected_at   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_detected_at ON alerts(detected_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_symbol ON alerts(symbol)`,
	}
	for _, stmt := range stmts {
		if _, err := j.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Record inserts a dispatched alert, assigning it a fresh row ID.
func (j *Journal) Record(alert *models.Alert) error {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	_, err := j.db.Exec(`
		INSERT INTO alerts
			(id, symbol, tier, open_price, current_price, percent, volume,
			 exchange, headline, news_at, detected_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		alert.ID, alert.Symbol, alert.Tier.String(),
		alert.OpenPrice, alert.CurrentPrice, alert.Percent, alert.Volume,
		alert.Exchange, alert.Headline,
		alert.NewsAt.UnixNano(), alert.DetectedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

// Recent returns up to k alerts, newest first.
func (j *Journal) Recent(k int) ([]models.Alert, error) {
	rows, err := j.db.Query(`
		SELECT id, symbol, tier, open_price, current_price, percent, volume,
		       exchange, headline, news_at, detected_at
		FROM alerts ORDER BY detected_at DESC LIMIT ?`, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var a models.Alert
		var tier string
		var newsAtNano, detectedAtNano int64

		err := rows.Scan(
			&a.ID, &a.Symbol, &tier, &a.OpenPrice, &a.CurrentPrice, &a.Percent,
			&a.Volume, &a.Exchange, &a.Headline, &newsAtNano, &detectedAtNano,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}

		a.Tier = parseTier(tier)
		a.NewsAt = time.Unix(0, newsAtNano)
		a.DetectedAt = time.Unix(0, detectedAtNano)
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}

// Rotate keeps at most maxAlerts newest alerts by detection time.
func (j *Journal) Rotate() error {
	_, err := j.db.Exec(`
		DELETE FROM alerts WHERE id NOT IN (
			SELECT id FROM alerts ORDER BY detected_at DESC LIMIT ?
		)`, j.maxAlerts)
	if err != nil {
		return fmt.Errorf("failed to rotate alerts: %w", err)
	}
	return nil
}

func parseTier(s string) models.Tier {
	switch s {
	case "pump":
		return models.TierPump
	case "long":
		return models.TierLong
	default:
		return 0
	}
}
