// Package store persists normalized records, metric points, signals and
// entities.
package store

import (
	"context"
	"time"

	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

// Store is the persistence boundary of the engine.
type Store interface {
	UpsertRecords(ctx context.Context, records []domain.NormalizedRecord) error
	ListRecords(ctx context.Context, hctID string, from, to time.Time) ([]domain.NormalizedRecord, error)

	UpsertIPCPoints(ctx context.Context, points []domain.IPCPoint) error
	ListIPCPoints(ctx context.Context, hctID, origin string, from, to time.Time) ([]domain.IPCPoint, error)

	UpsertFVIPoints(ctx context.Context, points []domain.FVIPoint) error

	InsertSignals(ctx context.Context, signals []domain.Signal) error
	ListSignals(ctx context.Context, hctID string, since time.Time) ([]domain.Signal, error)
	AcknowledgeSignal(ctx context.Context, id string) (bool, error)

	UpsertEntities(ctx context.Context, entities []domain.Entity) error
	ListEntities(ctx context.Context) ([]domain.Entity, error)

	Close() error
}

// NopStore discards writes and returns empty reads. Used by the batch
// CLI when no database is configured.
type NopStore struct{}

func (s *NopStore) UpsertRecords(ctx context.Context, records []domain.NormalizedRecord) error {
	return nil
}

func (s *NopStore) ListRecords(ctx context.Context, hctID string, from, to time.Time) ([]domain.NormalizedRecord, error) {
	return nil, nil
}

func (s *NopStore) UpsertIPCPoints(ctx context.Context, points []domain.IPCPoint) error {
	return nil
}

func (s *NopStore) ListIPCPoints(ctx context.Context, hctID, origin string, from, to time.Time) ([]domain.IPCPoint, error) {
	return nil, nil
}

func (s *NopStore) UpsertFVIPoints(ctx context.Context, points []domain.FVIPoint) error {
	return nil
}

func (s *NopStore) InsertSignals(ctx context.Context, signals []domain.Signal) error {
	return nil
}

func (s *NopStore) ListSignals(ctx context.Context, hctID string, since time.Time) ([]domain.Signal, error) {
	return nil, nil
}

func (s *NopStore) AcknowledgeSignal(ctx context.Context, id string) (bool, error) {
	return false, nil
}

func (s *NopStore) UpsertEntities(ctx context.Context, entities []domain.Entity) error {
	return nil
}

func (s *NopStore) ListEntities(ctx context.Context) ([]domain.Entity, error) {
	return nil, nil
}

func (s *NopStore) Close() error {
	return nil
}
