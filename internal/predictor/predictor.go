package predictor

import (
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

// Config tunes the predictor.
type Config struct {
	// MinHistoryDays of observed trade data a commodity needs before any
	// prediction is emitted. Default 182 (half a year: one full harvest
	// ramp and decay for most tracked commodities).
	MinHistoryDays int
	// HorizonDays is the forecast horizon. Default 14.
	HorizonDays int
}

func (c *Config) applyDefaults() {
	if c.MinHistoryDays == 0 {
		c.MinHistoryDays = 182
	}
	if c.HorizonDays == 0 {
		c.HorizonDays = 14
	}
}

// Predictor scores stored feature vectors into directional calls. The
// model is a hand-weighted linear blend of flow, supply/demand and
// momentum pressures, not a trained model: with thin per-commodity
// history a transparent heuristic beats an overfit regression, and the
// stored vectors become the training set for whatever replaces it.
type Predictor struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.RWMutex
	features map[string][]domain.FeatureVector // hct|corridor -> chronological
}

// New creates a predictor.
func New(cfg Config, logger *slog.Logger) *Predictor {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()
	return &Predictor{
		cfg:      cfg,
		logger:   logger,
		features: make(map[string][]domain.FeatureVector),
	}
}

// Observe stores a feature vector. Vectors accumulate even while the
// commodity is still below the history gate.
func (p *Predictor) Observe(fv domain.FeatureVector) {
	key := fv.HCTID + "|" + fv.Corridor
	p.mu.Lock()
	defer p.mu.Unlock()
	vecs := p.features[key]
	i := sort.Search(len(vecs), func(i int) bool { return !vecs[i].Date.Before(fv.Date) })
	if i < len(vecs) && vecs[i].Date.Equal(fv.Date) {
		vecs[i] = fv // idempotent re-observation of the same date
	} else {
		vecs = append(vecs, domain.FeatureVector{})
		copy(vecs[i+1:], vecs[i:])
		vecs[i] = fv
	}
	p.features[key] = vecs
}

// Features returns the stored vectors for a commodity corridor.
func (p *Predictor) Features(hctID, corridor string) []domain.FeatureVector {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]domain.FeatureVector(nil), p.features[hctID+"|"+corridor]...)
}

// HistoryDays reports the observed history span for a commodity
// corridor as of a date.
func (p *Predictor) HistoryDays(hctID, corridor string, asOf time.Time) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	vecs := p.features[hctID+"|"+corridor]
	if len(vecs) == 0 {
		return 0
	}
	return int(asOf.Sub(vecs[0].Date).Hours() / 24)
}

// Predict returns a directional call for the latest stored vector of a
// commodity corridor, or nil while the history gate is closed. The gate
// is hard: no partial-confidence early output.
func (p *Predictor) Predict(hctID, corridor string, asOf time.Time) *domain.Prediction {
	p.mu.RLock()
	vecs := p.features[hctID+"|"+corridor]
	p.mu.RUnlock()
	if len(vecs) == 0 {
		return nil
	}
	if days := int(asOf.Sub(vecs[0].Date).Hours() / 24); days < p.cfg.MinHistoryDays {
		p.logger.Debug("prediction withheld, insufficient history",
			"hct_id", hctID,
			"corridor", corridor,
			"history_days", days,
			"required_days", p.cfg.MinHistoryDays,
		)
		return nil
	}

	latest := vecs[len(vecs)-1]
	score, weightUsed := scoreVector(latest)
	if weightUsed == 0 {
		return nil
	}

	direction := domain.DirectionNeutral
	switch {
	case score > 0.15:
		direction = domain.DirectionUp
	case score < -0.15:
		direction = domain.DirectionDown
	}

	return &domain.Prediction{
		HCTID:        hctID,
		Corridor:     corridor,
		Date:         latest.Date,
		Direction:    direction,
		MagnitudePct: math.Abs(score) * 10,
		Confidence:   confidence(latest, weightUsed),
		HorizonDays:  p.cfg.HorizonDays,
	}
}

// scoreVector blends the pressure features into [-1, 1]-ish territory.
// Positive is bullish. More shipments than expected is bearish (supply
// pressure); price momentum continues; a tightening origin base is
// bullish.
func scoreVector(fv domain.FeatureVector) (score, weightUsed float64) {
	add := func(weight, contribution float64) {
		score += weight * clamp(contribution, -1, 1)
		weightUsed += weight
	}

	if fv.FVIAdjusted != nil {
		add(0.30, -(*fv.FVIAdjusted - 1)) // faster flow -> bearish
	} else if fv.FVIRaw != nil {
		add(0.20, -(*fv.FVIRaw - 1))
	}
	if fv.SDDeltaPct != nil {
		add(0.30, -*fv.SDDeltaPct/20) // ahead of consensus -> bearish
	}
	if fv.IPCChange7dPct != nil {
		add(0.25, *fv.IPCChange7dPct/10) // momentum continuation
	}
	if fv.CSSScore != nil {
		add(0.15, *fv.CSSScore-1) // concentration tightening -> bullish
	}
	if weightUsed > 0 {
		score /= weightUsed
	}
	return score, weightUsed
}

// confidence grows with feature coverage and sample size, shrinks with
// price dispersion, and never claims certainty.
func confidence(fv domain.FeatureVector, weightUsed float64) float64 {
	c := 0.3 * weightUsed // max 0.3 when every feature contributed
	if fv.SampleCount >= 20 {
		c += 0.25
	} else if fv.SampleCount >= 5 {
		c += 0.15
	}
	if fv.PriceDispersion != nil && *fv.PriceDispersion < 0.15 {
		c += 0.15
	}
	return clamp(c, 0.05, 0.75)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
