package refdata

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// Provider hands out the current reference snapshot and swaps refreshed
// versions in atomically. Normalization runs capture the snapshot once at
// the start of the batch, so in-flight work keeps a consistent view while
// a refresh lands.
type Provider struct {
	current atomic.Pointer[Snapshot]
	logger  *slog.Logger
}

// NewProvider validates and installs the initial snapshot.
func NewProvider(initial *Snapshot, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := initial.Validate(); err != nil {
		return nil, fmt.Errorf("install initial snapshot: %w", err)
	}
	p := &Provider{logger: logger}
	p.current.Store(initial)
	return p, nil
}

// Current returns the snapshot in effect. The returned snapshot is
// immutable and safe to read from any number of goroutines.
func (p *Provider) Current() *Snapshot {
	return p.current.Load()
}

// Swap installs a refreshed snapshot after validating it. The old
// snapshot stays valid for readers that already captured it.
func (p *Provider) Swap(next *Snapshot) error {
	if err := next.Validate(); err != nil {
		return fmt.Errorf("swap snapshot: %w", err)
	}
	prev := p.current.Swap(next)
	p.logger.Info("reference snapshot swapped",
		"previous_version", versionOf(prev),
		"version", next.Version,
		"loaded_at", next.LoadedAt.Format(time.RFC3339),
	)
	return nil
}

func versionOf(s *Snapshot) string {
	if s == nil {
		return ""
	}
	return s.Version
}
