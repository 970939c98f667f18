// Package signals turns metric readings into ranked, human-readable
// alerts. Signal emission is two-staged: the generator decides that a
// reading is noteworthy, the tracker decides whether it has persisted
// long enough to escalate from watch to alert, so a single noisy day
// never pages anyone.
package signals

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sri0310-dev/tesseract/internal/metrics"
	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

// Config carries the generator thresholds.
type Config struct {
	// IPCMovePct triggers a price-movement signal on a 7-day change of
	// at least this magnitude. Default 5.
	IPCMovePct float64
	// IPCMoveHighPct escalates the price-movement signal. Default 10.
	IPCMoveHighPct float64
	// CSSRatioTrigger triggers a concentration-shift signal. Default 1.5.
	CSSRatioTrigger float64
}

func (c *Config) applyDefaults() {
	if c.IPCMovePct == 0 {
		c.IPCMovePct = 5
	}
	if c.IPCMoveHighPct == 0 {
		c.IPCMoveHighPct = 10
	}
	if c.CSSRatioTrigger == 0 {
		c.CSSRatioTrigger = 1.5
	}
}

// Generator builds candidate signals from metric outputs.
type Generator struct {
	cfg    Config
	logger *slog.Logger
	clock  func() time.Time
	newID  func() string
}

// NewGenerator creates a signal generator.
func NewGenerator(cfg Config, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()
	return &Generator{
		cfg:    cfg,
		logger: logger,
		clock:  time.Now,
		newID:  uuid.NewString,
	}
}

// FromFVI builds a flow-velocity signal for an abnormal reading. The
// seasonally adjusted signal is preferred when present so a harvest
// ramp that is merely on schedule stays quiet.
func (g *Generator) FromFVI(p domain.FVIPoint) (domain.Signal, bool) {
	sig := p.Signal
	ratio := p.Raw
	if p.SignalAdjusted != "" && p.Adjusted != nil {
		sig = p.SignalAdjusted
		ratio = p.Adjusted
	}
	var severity domain.Severity
	var verb string
	switch sig {
	case domain.FVIStrongAcceleration:
		severity, verb = domain.SeverityHigh, "accelerating sharply"
	case domain.FVISevereDeceleration:
		severity, verb = domain.SeverityHigh, "decelerating sharply"
	case domain.FVIModerateAcceleration:
		severity, verb = domain.SeverityMedium, "accelerating"
	case domain.FVIModerateDeceleration:
		severity, verb = domain.SeverityMedium, "decelerating"
	default:
		return domain.Signal{}, false
	}
	corridor := corridorLabel(p.OriginCountry, p.DestinationCountry)
	headline := fmt.Sprintf("%s flows from %s %s: recent volume %.2fx baseline",
		p.HCTID, p.OriginCountry, verb, *ratio)
	return g.build(domain.SignalFlowVelocity, severity, headline, p.HCTID, corridor, map[string]any{
		"fvi_raw":            p.Raw,
		"fvi_adjusted":       p.Adjusted,
		"signal":             string(sig),
		"volume_recent_mt":   p.VolumeRecentMT,
		"volume_baseline_mt": p.VolumeBaselineMT,
	}), true
}

// FromSDTracker builds a supply/demand divergence signal for entries
// outside the on-track band. Under-shipping grades a notch above
// over-shipping at the same magnitude: a supply shortfall moves markets
// harder than a surplus.
func (g *Generator) FromSDTracker(e domain.SDTrackerEntry) (domain.Signal, bool) {
	var severity domain.Severity
	switch e.Signal {
	case domain.SDUnderShipping:
		severity = domain.SeverityHigh
	case domain.SDOverShipping, domain.SDSlightlyUnder:
		severity = domain.SeverityMedium
	case domain.SDSlightlyOver:
		severity = domain.SeverityLow
	default:
		return domain.Signal{}, false
	}
	scopeName := e.Country
	if scopeName == "" {
		scopeName = "All origins"
	}
	direction := "ahead of"
	if e.DeltaPct < 0 {
		direction = "behind"
	}
	headline := fmt.Sprintf("%s %s exports %.1f%% %s consensus pace. %s",
		scopeName, e.HCTID, abs(e.DeltaPct), direction, e.Implication)
	return g.build(domain.SignalSDDelta, severity, headline, e.HCTID, e.Country, map[string]any{
		"delta_pct":              e.DeltaPct,
		"actual_cumulative_mt":   e.ActualCumulativeMT,
		"expected_cumulative_mt": e.ExpectedCumulativeMT,
		"crop_year_progress_pct": e.CropYearProgressPct,
		"signal":                 string(e.Signal),
	}), true
}

// FromIPCMove builds a price-movement signal for a 7-day implied price
// change beyond the configured threshold.
func (g *Generator) FromIPCMove(hctID, origin string, changePct float64, current domain.IPCPoint) (domain.Signal, bool) {
	if abs(changePct) < g.cfg.IPCMovePct {
		return domain.Signal{}, false
	}
	severity := domain.SeverityMedium
	if abs(changePct) >= g.cfg.IPCMoveHighPct {
		severity = domain.SeverityHigh
	}
	direction := "up"
	if changePct < 0 {
		direction = "down"
	}
	headline := fmt.Sprintf("%s %s implied price %s %.1f%% over 7 days",
		hctID, origin, direction, abs(changePct))
	return g.build(domain.SignalPriceMovement, severity, headline, hctID, origin, map[string]any{
		"change_pct":       changePct,
		"price_usd_per_mt": current.PriceUSDPerMT,
		"confidence":       string(current.Confidence),
		"sample_count":     current.SampleCount,
	}), true
}

// FromCSS builds a concentration-shift signal when origin concentration
// tightened materially versus the prior year.
func (g *Generator) FromCSS(p domain.CSSPoint) (domain.Signal, bool) {
	if p.Score == nil || *p.Score < g.cfg.CSSRatioTrigger {
		return domain.Signal{}, false
	}
	headline := fmt.Sprintf("%s origin concentration %.2fx prior year (HHI %.3f, %s)",
		p.HCTID, *p.Score, p.CurrentHHI, metrics.ConcentrationLevel(p.CurrentHHI))
	return g.build(domain.SignalConcentrationShift, domain.SeverityMedium, headline, p.HCTID, "", map[string]any{
		"score":          *p.Score,
		"current_hhi":    p.CurrentHHI,
		"prior_year_hhi": p.PriorYearHHI,
		"origin_count":   p.OriginCount,
	}), true
}

// FromCounterpartyAnomaly builds signals for structural counterparty
// changes.
func (g *Generator) FromCounterpartyAnomaly(a metrics.CounterpartyAnomaly) (domain.Signal, bool) {
	switch a.Kind {
	case metrics.AnomalyNewEntrant:
		headline := fmt.Sprintf("New counterparty in %s: %s (%.0f MT this month)",
			a.HCTID, a.Name, a.CurrentVolumeMT)
		return g.build(domain.SignalNewEntrant, domain.SeverityLow, headline, a.HCTID, "", map[string]any{
			"entity_id":         a.EntityID,
			"name":              a.Name,
			"current_volume_mt": a.CurrentVolumeMT,
		}), true
	case metrics.AnomalyWithdrawal:
		headline := fmt.Sprintf("%s stopped trading %s (held %.1f%% of flow)",
			a.Name, a.HCTID, a.HistoricalSharePct)
		return g.build(domain.SignalWithdrawal, domain.SeverityMedium, headline, a.HCTID, "", map[string]any{
			"entity_id":            a.EntityID,
			"name":                 a.Name,
			"historical_share_pct": a.HistoricalSharePct,
		}), true
	case metrics.AnomalyVolumeSurge:
		headline := fmt.Sprintf("%s volume surge in %s: %.0f MT vs %.0f MT monthly average",
			a.Name, a.HCTID, a.CurrentVolumeMT, a.BaselineVolumeMT)
		return g.build(domain.SignalVolumeSurge, domain.SeverityMedium, headline, a.HCTID, "", map[string]any{
			"entity_id":          a.EntityID,
			"name":               a.Name,
			"current_volume_mt":  a.CurrentVolumeMT,
			"baseline_volume_mt": a.BaselineVolumeMT,
		}), true
	}
	return domain.Signal{}, false
}

// FromStaleReference builds a data-quality signal when the active
// reference snapshot has outlived its maximum age.
func (g *Generator) FromStaleReference(version string, loadedAt time.Time) domain.Signal {
	headline := fmt.Sprintf("Reference data snapshot %s is stale (loaded %s)",
		version, loadedAt.Format("2006-01-02"))
	return g.build(domain.SignalReferenceDataStale, domain.SeverityMedium, headline, "", "", map[string]any{
		"snapshot_version": version,
		"loaded_at":        loadedAt,
	})
}

func (g *Generator) build(t domain.SignalType, sev domain.Severity, headline, hctID, corridor string, detail map[string]any) domain.Signal {
	return domain.Signal{
		ID:        g.newID(),
		Type:      t,
		Severity:  sev,
		Headline:  headline,
		Detail:    detail,
		HCTID:     hctID,
		Corridor:  corridor,
		EmittedAt: g.clock().UTC(),
	}
}

func corridorLabel(origin, dest string) string {
	if dest == "" {
		return origin
	}
	return origin + "->" + dest
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
