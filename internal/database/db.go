package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jgoulah/waterdash/pkg/models"
	_ "modernc.org/sqlite"
)

// timeLayout has a fixed-width fraction so stored timestamps sort as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DB wraps the database connection
type DB struct {
	conn *sql.DB
}

// New creates a new database connection and initializes the schema
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the necessary tables
func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		spec_json TEXT NOT NULL,
		row_count INTEGER NOT NULL,
		consume_sum REAL NOT NULL,
		created_at TEXT NOT NULL,
		published INTEGER DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS snapshot_readings (
		snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		reading_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		device_id TEXT NOT NULL,
		is_at_home INTEGER NOT NULL,
		is_anomalous INTEGER NOT NULL,
		time TEXT NOT NULL,
		consume REAL NOT NULL,
		total_consume REAL NOT NULL,
		PRIMARY KEY (snapshot_id, position)
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at);
	CREATE INDEX IF NOT EXISTS idx_snapshots_published ON snapshots(published);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// SaveSnapshot stores a snapshot and its readings in one transaction.
// ID and CreatedAt are assigned when empty.
func (db *DB) SaveSnapshot(snap *models.Snapshot, readings []models.Reading) error {
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}
	snap.RowCount = len(readings)
	snap.ConsumeSum = 0
	for _, r := range readings {
		snap.ConsumeSum += r.Consume
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
	INSERT INTO snapshots (id, source, spec_json, row_count, consume_sum, created_at, published)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`, snap.ID, snap.Source, snap.Spec, snap.RowCount, snap.ConsumeSum,
		snap.CreatedAt.Format(timeLayout), boolToInt(snap.Published))
	if err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}

	stmt, err := tx.Prepare(`
	INSERT INTO snapshot_readings (snapshot_id, position, reading_id, user_id, device_id, is_at_home, is_anomalous, time, consume, total_consume)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing reading insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range readings {
		_, err := stmt.Exec(snap.ID, i, r.ID, r.UserID, r.DeviceID,
			boolToInt(r.IsAtHome), boolToInt(r.IsAnomalous),
			r.Time.Format(timeLayout), r.Consume, r.TotalConsume)
		if err != nil {
			return fmt.Errorf("inserting reading %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}

	return nil
}

// GetSnapshot retrieves a snapshot by ID, or nil if it does not exist
func (db *DB) GetSnapshot(id string) (*models.Snapshot, error) {
	row := db.conn.QueryRow(`
	SELECT id, source, spec_json, row_count, consume_sum, created_at, published
	FROM snapshots
	WHERE id = ?
	`, id)

	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}
	return snap, nil
}

// ListSnapshots retrieves all snapshots, newest first
func (db *DB) ListSnapshots() ([]models.Snapshot, error) {
	return db.listSnapshots(`
	SELECT id, source, spec_json, row_count, consume_sum, created_at, published
	FROM snapshots
	ORDER BY created_at DESC
	`)
}

// ListUnpublished retrieves snapshots not yet published, oldest first
func (db *DB) ListUnpublished() ([]models.Snapshot, error) {
	return db.listSnapshots(`
	SELECT id, source, spec_json, row_count, consume_sum, created_at, published
	FROM snapshots
	WHERE published = 0
	ORDER BY created_at ASC
	`)
}

func (db *DB) listSnapshots(query string) ([]models.Snapshot, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var results []models.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		results = append(results, *snap)
	}

	return results, rows.Err()
}

// SnapshotReadings retrieves the readings of a snapshot in saved order
func (db *DB) SnapshotReadings(id string) ([]models.Reading, error) {
	rows, err := db.conn.Query(`
	SELECT reading_id, user_id, device_id, is_at_home, is_anomalous, time, consume, total_consume
	FROM snapshot_readings
	WHERE snapshot_id = ?
	ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("querying snapshot readings: %w", err)
	}
	defer rows.Close()

	var results []models.Reading
	for rows.Next() {
		var r models.Reading
		var atHome, anomalous int
		var timeStr string

		if err := rows.Scan(&r.ID, &r.UserID, &r.DeviceID, &atHome, &anomalous, &timeStr, &r.Consume, &r.TotalConsume); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		r.Time, err = time.Parse(timeLayout, timeStr)
		if err != nil {
			return nil, fmt.Errorf("parsing time: %w", err)
		}
		r.IsAtHome = atHome != 0
		r.IsAnomalous = anomalous != 0

		results = append(results, r)
	}

	return results, rows.Err()
}

// MarkPublished marks a snapshot as published
func (db *DB) MarkPublished(id string) error {
	_, err := db.conn.Exec(`UPDATE snapshots SET published = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("marking snapshot as published: %w", err)
	}
	return nil
}

// DeleteSnapshot removes a snapshot and its readings
func (db *DB) DeleteSnapshot(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM snapshot_readings WHERE snapshot_id = ?`, id); err != nil {
		return fmt.Errorf("deleting snapshot readings: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM snapshots WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}

	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (*models.Snapshot, error) {
	var snap models.Snapshot
	var createdAt string
	var published int

	if err := row.Scan(&snap.ID, &snap.Source, &snap.Spec, &snap.RowCount, &snap.ConsumeSum, &createdAt, &published); err != nil {
		return nil, err
	}

	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	snap.CreatedAt = t
	snap.Published = published != 0

	return &snap, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
