// Package metrics computes the derived market indicators: implied price
// (IPC), flow velocity (FVI), concentration shift (CSS), freight-adjusted
// basis (FAB), the supply/demand tracker and counterparty analytics. All
// computations are pure functions over normalized records plus the active
// reference snapshot, so re-running a window over the same inputs yields
// identical outputs.
package metrics

import (
	"log/slog"
	"strings"
	"time"

	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

// Config carries every tunable threshold of the engine. Zero values are
// replaced with defaults so a partially populated config stays safe.
type Config struct {
	// IPC windowing.
	IPCWindowDays     int // primary lookback, default 5
	IPCThinWindowDays int // widened lookback for thin markets, default 15

	// IPC confidence gates.
	MinRecordsHigh    int     // default 20
	MinRecordsMedium  int     // default 5
	MaxDispersionHigh float64 // IQR/median ceiling for HIGH, default 0.15
	CoverageHigh      float64 // volume coverage floor for HIGH, default 0.80
	CoverageMedium    float64 // volume coverage floor for MEDIUM, default 0.30
	MinSampleQuotable int     // below this, DirectionalOnly, default 3

	// FVI windowing.
	FVIRecentDays  int // default 7
	FVIBaselineLag int // days back to the baseline window start, default 30

	// SD tracker tolerance ladder, in percent of expected cumulative.
	SDOverPct   float64 // default 10
	SDSlightPct float64 // default 5

	// Counterparty anomaly thresholds.
	WithdrawalSharePct float64 // min historical share to call a withdrawal, default 3
	SurgeMultiplier    float64 // monthly volume vs trailing average, default 2
}

func (c *Config) applyDefaults() {
	if c.IPCWindowDays == 0 {
		c.IPCWindowDays = 5
	}
	if c.IPCThinWindowDays == 0 {
		c.IPCThinWindowDays = 15
	}
	if c.MinRecordsHigh == 0 {
		c.MinRecordsHigh = 20
	}
	if c.MinRecordsMedium == 0 {
		c.MinRecordsMedium = 5
	}
	if c.MaxDispersionHigh == 0 {
		c.MaxDispersionHigh = 0.15
	}
	if c.CoverageHigh == 0 {
		c.CoverageHigh = 0.80
	}
	if c.CoverageMedium == 0 {
		c.CoverageMedium = 0.30
	}
	if c.MinSampleQuotable == 0 {
		c.MinSampleQuotable = 3
	}
	if c.FVIRecentDays == 0 {
		c.FVIRecentDays = 7
	}
	if c.FVIBaselineLag == 0 {
		c.FVIBaselineLag = 30
	}
	if c.SDOverPct == 0 {
		c.SDOverPct = 10
	}
	if c.SDSlightPct == 0 {
		c.SDSlightPct = 5
	}
	if c.WithdrawalSharePct == 0 {
		c.WithdrawalSharePct = 3
	}
	if c.SurgeMultiplier == 0 {
		c.SurgeMultiplier = 2
	}
}

// Engine is stateless apart from its configuration; callers pass the
// record set and snapshot on every computation.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// NewEngine creates a metric engine.
func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()
	return &Engine{cfg: cfg, logger: logger}
}

// Config returns the effective configuration after defaulting.
func (e *Engine) Config() Config { return e.cfg }

// scope filters records by commodity, optional origin/destination and a
// half-open date window [start, end).
func scope(recs []domain.NormalizedRecord, hctID, origin, dest string, start, end time.Time) []domain.NormalizedRecord {
	var out []domain.NormalizedRecord
	for _, r := range recs {
		if r.HCTID != hctID || r.TradeDate.IsZero() {
			continue
		}
		if origin != "" && !strings.EqualFold(r.OriginCountry, origin) {
			continue
		}
		if dest != "" && !strings.EqualFold(r.DestinationCountry, dest) {
			continue
		}
		if r.TradeDate.Before(start) || !r.TradeDate.Before(end) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// totalVolume sums QuantityMT over records that have it.
func totalVolume(recs []domain.NormalizedRecord) float64 {
	total := 0.0
	for _, r := range recs {
		if r.QuantityMT != nil {
			total += *r.QuantityMT
		}
	}
	return total
}

func ptr(v float64) *float64 { return &v }

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
