// Package sqlite implements the store on an embedded SQLite database.
// Rows carry the full document as JSON beside the indexed key columns,
// so schema churn in the payload types never needs a migration.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

const dateLayout = "2006-01-02"

// Store is a SQLite-backed store.
type Store struct {
	db *sql.DB
}

// New opens (and if needed creates) the database at path.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// UpsertRecords writes normalized records keyed by record id. Re-running
// a window over the same inputs overwrites rows with identical content.
func (s *Store) UpsertRecords(ctx context.Context, records []domain.NormalizedRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO normalized_records (record_id, hct_id, origin_country, trade_date, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(record_id) DO UPDATE SET
			hct_id = excluded.hct_id,
			origin_country = excluded.origin_country,
			trade_date = excluded.trade_date,
			payload = excluded.payload
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range records {
		rec := records[i]
		payload, merr := json.Marshal(rec)
		if merr != nil {
			err = merr
			return err
		}
		if _, err = stmt.ExecContext(ctx,
			rec.RecordID,
			rec.HCTID,
			rec.OriginCountry,
			rec.TradeDate.UTC().Format(dateLayout),
			payload,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListRecords returns records for a commodity in [from, to], ordered by
// trade date then record id.
func (s *Store) ListRecords(ctx context.Context, hctID string, from, to time.Time) ([]domain.NormalizedRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM normalized_records
		WHERE hct_id = ? AND trade_date >= ? AND trade_date <= ?
		ORDER BY trade_date, record_id
	`, hctID, from.UTC().Format(dateLayout), to.UTC().Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.NormalizedRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var rec domain.NormalizedRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("sqlite: corrupt record payload: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UpsertIPCPoints writes implied-price points keyed by commodity,
// origin and date.
func (s *Store) UpsertIPCPoints(ctx context.Context, points []domain.IPCPoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ipc_points (hct_id, origin_country, date, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(hct_id, origin_country, date) DO UPDATE SET
			payload = excluded.payload
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range points {
		p := points[i]
		payload, merr := json.Marshal(p)
		if merr != nil {
			err = merr
			return err
		}
		if _, err = stmt.ExecContext(ctx,
			p.HCTID, p.OriginCountry, p.Date.UTC().Format(dateLayout), payload,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListIPCPoints returns stored points for a commodity and origin over
// [from, to], ordered by date.
func (s *Store) ListIPCPoints(ctx context.Context, hctID, origin string, from, to time.Time) ([]domain.IPCPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM ipc_points
		WHERE hct_id = ? AND origin_country = ? AND date >= ? AND date <= ?
		ORDER BY date
	`, hctID, origin, from.UTC().Format(dateLayout), to.UTC().Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.IPCPoint
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var p domain.IPCPoint
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("sqlite: corrupt ipc payload: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpsertFVIPoints writes flow-velocity points keyed by corridor and date.
func (s *Store) UpsertFVIPoints(ctx context.Context, points []domain.FVIPoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fvi_points (hct_id, origin_country, destination_country, date, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(hct_id, origin_country, destination_country, date) DO UPDATE SET
			payload = excluded.payload
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range points {
		p := points[i]
		payload, merr := json.Marshal(p)
		if merr != nil {
			err = merr
			return err
		}
		if _, err = stmt.ExecContext(ctx,
			p.HCTID, p.OriginCountry, p.DestinationCountry, p.Date.UTC().Format(dateLayout), payload,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// InsertSignals appends emitted signals. Signals are immutable; a
// duplicate id is ignored rather than overwritten.
func (s *Store) InsertSignals(ctx context.Context, signals []domain.Signal) error {
	if len(signals) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO signals (id, hct_id, emitted_at, acknowledged, payload)
		VALUES (?, ?, ?, 0, ?)
		ON CONFLICT(id) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range signals {
		sig := signals[i]
		payload, merr := json.Marshal(sig)
		if merr != nil {
			err = merr
			return err
		}
		if _, err = stmt.ExecContext(ctx,
			sig.ID, sig.HCTID, sig.EmittedAt.UTC().Format(time.RFC3339), payload,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListSignals returns signals emitted since a time, newest first. An
// empty hctID matches every commodity.
func (s *Store) ListSignals(ctx context.Context, hctID string, since time.Time) ([]domain.Signal, error) {
	query := `
		SELECT payload, acknowledged FROM signals
		WHERE emitted_at >= ?`
	args := []any{since.UTC().Format(time.RFC3339)}
	if hctID != "" {
		query += ` AND hct_id = ?`
		args = append(args, hctID)
	}
	query += ` ORDER BY emitted_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Signal
	for rows.Next() {
		var payload []byte
		var acknowledged bool
		if err := rows.Scan(&payload, &acknowledged); err != nil {
			return nil, err
		}
		var sig domain.Signal
		if err := json.Unmarshal(payload, &sig); err != nil {
			return nil, fmt.Errorf("sqlite: corrupt signal payload: %w", err)
		}
		sig.Acknowledged = acknowledged
		out = append(out, sig)
	}
	return out, rows.Err()
}

// AcknowledgeSignal marks a signal acknowledged. Returns false when the
// id is unknown.
func (s *Store) AcknowledgeSignal(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE signals SET acknowledged = 1 WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpsertEntities writes the entity registry.
func (s *Store) UpsertEntities(ctx context.Context, entities []domain.Entity) error {
	if len(entities) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entities (id, canonical_name, created_at, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			canonical_name = excluded.canonical_name,
			payload = excluded.payload
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range entities {
		e := entities[i]
		payload, merr := json.Marshal(e)
		if merr != nil {
			err = merr
			return err
		}
		if _, err = stmt.ExecContext(ctx,
			e.ID, e.CanonicalName, e.CreatedAt.UTC().Format(time.RFC3339), payload,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListEntities returns every entity, oldest first.
func (s *Store) ListEntities(ctx context.Context) ([]domain.Entity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM entities ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Entity
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var e domain.Entity
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("sqlite: corrupt entity payload: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) migrate() error {
	statements := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS normalized_records (
			record_id TEXT PRIMARY KEY,
			hct_id TEXT NOT NULL,
			origin_country TEXT NOT NULL,
			trade_date TEXT NOT NULL,
			payload TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_records_hct_date
			ON normalized_records (hct_id, trade_date);`,
		`CREATE TABLE IF NOT EXISTS ipc_points (
			hct_id TEXT NOT NULL,
			origin_country TEXT NOT NULL,
			date TEXT NOT NULL,
			payload TEXT NOT NULL,
			PRIMARY KEY (hct_id, origin_country, date)
		);`,
		`CREATE TABLE IF NOT EXISTS fvi_points (
			hct_id TEXT NOT NULL,
			origin_country TEXT NOT NULL,
			destination_country TEXT NOT NULL,
			date TEXT NOT NULL,
			payload TEXT NOT NULL,
			PRIMARY KEY (hct_id, origin_country, destination_country, date)
		);`,
		`CREATE TABLE IF NOT EXISTS signals (
			id TEXT PRIMARY KEY,
			hct_id TEXT NOT NULL,
			emitted_at TEXT NOT NULL,
			acknowledged INTEGER NOT NULL DEFAULT 0,
			payload TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_signals_emitted
			ON signals (emitted_at);`,
		`CREATE TABLE IF NOT EXISTS entities (
			id TEXT PRIMARY KEY,
			canonical_name TEXT NOT NULL,
			created_at TEXT NOT NULL,
			payload TEXT NOT NULL
		);`,
	}

	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return err
		}
	}
	return nil
}
