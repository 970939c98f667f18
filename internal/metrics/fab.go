package metrics

import (
	"sort"
	"time"

	"github.com/sri0310-dev/tesseract/internal/refdata"
	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

// ComputeFAB reconstructs a landed CIF price for a corridor from the
// implied FOB price plus reference freight, insurance and destination
// port charges, then reports the basis against a published benchmark
// where one exists. For commodities without a published benchmark the
// reconstructed CIF stands alone and the basis is omitted.
func (e *Engine) ComputeFAB(recs []domain.NormalizedRecord, snap *refdata.Snapshot, hctID, origin, originPort, destPort string, date time.Time) domain.FABPoint {
	date = day(date)
	point := domain.FABPoint{
		HCTID:           hctID,
		OriginCountry:   origin,
		OriginPort:      originPort,
		DestinationPort: destPort,
		Date:            date,
		Confidence:      domain.ConfidenceNone,
	}

	ipc := e.ComputeIPC(recs, hctID, origin, date)
	point.SampleCount = ipc.SampleCount
	if ipc.PriceUSDPerMT == nil {
		return point
	}
	fob := *ipc.PriceUSDPerMT
	point.FOBUSDPerMT = ptr(fob)
	point.Confidence = ipc.Confidence

	if snap == nil {
		return point
	}

	cif := fob
	if freight, ok := snap.FreightRateFor(originPort, destPort, "", date); ok {
		point.FreightUSDPerMT = ptr(freight)
		cif += freight
	}
	insurance := snap.InsuranceFor(fob, originPort, destPort)
	if insurance > 0 {
		point.InsuranceUSDPerMT = ptr(insurance)
		cif += insurance
	}
	if charges := snap.PortChargesFor(destPort); charges > 0 {
		point.PortChargesUSDPerMT = ptr(charges)
		cif += charges
	}
	point.ImpliedCIFUSDPerMT = ptr(cif)

	if benchmark, ok := snap.BenchmarkFor(hctID, destPort); ok {
		point.BenchmarkUSDPerMT = ptr(benchmark)
		point.BasisUSDPerMT = ptr(cif - benchmark)
	}
	return point
}

// OriginComparison is one origin's landed cost into a destination.
type OriginComparison struct {
	FAB               domain.FABPoint `json:"fab"`
	AdvantageUSDPerMT float64         `json:"advantage_usd_per_mt"`
}

// CompareOrigins ranks origins by implied landed cost into destPort,
// cheapest first. Origins with no computable CIF are dropped. The
// advantage is measured against the cheapest origin.
func (e *Engine) CompareOrigins(recs []domain.NormalizedRecord, snap *refdata.Snapshot, hctID, destPort string, origins map[string]string, date time.Time) []OriginComparison {
	var out []OriginComparison
	for origin, originPort := range origins {
		fab := e.ComputeFAB(recs, snap, hctID, origin, originPort, destPort, date)
		if fab.ImpliedCIFUSDPerMT == nil {
			continue
		}
		out = append(out, OriginComparison{FAB: fab})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := *out[i].FAB.ImpliedCIFUSDPerMT, *out[j].FAB.ImpliedCIFUSDPerMT
		if a == b {
			return out[i].FAB.OriginCountry < out[j].FAB.OriginCountry
		}
		return a < b
	})
	if len(out) > 0 {
		cheapest := *out[0].FAB.ImpliedCIFUSDPerMT
		for i := range out {
			out[i].AdvantageUSDPerMT = *out[i].FAB.ImpliedCIFUSDPerMT - cheapest
		}
	}
	return out
}

// ArbitrageWindow flags a corridor where the implied landed cost
// undercuts the benchmark by more than the threshold.
type ArbitrageWindow struct {
	FAB            domain.FABPoint `json:"fab"`
	MarginUSDPerMT float64         `json:"margin_usd_per_mt"`
}

// FindArbitrage scans corridors for landed costs below benchmark by at
// least minMarginUSD per tonne.
func (e *Engine) FindArbitrage(recs []domain.NormalizedRecord, snap *refdata.Snapshot, hctID, destPort string, origins map[string]string, date time.Time, minMarginUSD float64) []ArbitrageWindow {
	var out []ArbitrageWindow
	for _, cmp := range e.CompareOrigins(recs, snap, hctID, destPort, origins, date) {
		if cmp.FAB.BasisUSDPerMT == nil {
			continue
		}
		margin := -*cmp.FAB.BasisUSDPerMT
		if margin >= minMarginUSD {
			out = append(out, ArbitrageWindow{FAB: cmp.FAB, MarginUSDPerMT: margin})
		}
	}
	return out
}

// OriginSpread is a pair of origins whose implied FOB prices have
// diverged beyond normal quality differentials.
type OriginSpread struct {
	HCTID         string            `json:"hct_id"`
	CheaperOrigin string            `json:"cheaper_origin"`
	DearerOrigin  string            `json:"dearer_origin"`
	SpreadPct     float64           `json:"spread_pct"`
	Confidence    domain.Confidence `json:"confidence"`
	Date          time.Time         `json:"date"`
}

// DetectOriginSpreads compares implied FOB prices pairwise across
// origins and reports spreads above minSpreadPct (default 3). Each pair
// carries the weaker of its two legs' confidence, widest spread first.
func (e *Engine) DetectOriginSpreads(recs []domain.NormalizedRecord, hctID string, origins []string, date time.Time, minSpreadPct float64) []OriginSpread {
	if minSpreadPct == 0 {
		minSpreadPct = 3
	}
	date = day(date)

	type leg struct {
		origin     string
		price      float64
		confidence domain.Confidence
	}
	var legs []leg
	for _, origin := range origins {
		ipc := e.ComputeIPC(recs, hctID, origin, date)
		if ipc.PriceUSDPerMT == nil {
			continue
		}
		legs = append(legs, leg{origin: origin, price: *ipc.PriceUSDPerMT, confidence: ipc.Confidence})
	}

	var out []OriginSpread
	for i := 0; i < len(legs); i++ {
		for j := i + 1; j < len(legs); j++ {
			cheap, dear := legs[i], legs[j]
			if dear.price < cheap.price {
				cheap, dear = dear, cheap
			}
			if cheap.price <= 0 {
				continue
			}
			spread := (dear.price - cheap.price) / cheap.price * 100
			if spread <= minSpreadPct {
				continue
			}
			joint := cheap.confidence
			if dear.confidence.Rank() < joint.Rank() {
				joint = dear.confidence
			}
			out = append(out, OriginSpread{
				HCTID:         hctID,
				CheaperOrigin: cheap.origin,
				DearerOrigin:  dear.origin,
				SpreadPct:     spread,
				Confidence:    joint,
				Date:          date,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SpreadPct > out[j].SpreadPct })
	return out
}
