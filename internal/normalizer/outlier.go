package normalizer

import (
	"math"
	"sort"

	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

// OutlierDetector flags statistically implausible per-tonne prices by
// comparing each record against the other records of the same
// commodity x origin x month. It uses median absolute deviation rather
// than standard deviation so a single mis-declared shipment cannot drag
// the comparison window with it. Outliers are flagged, never removed.
type OutlierDetector struct {
	multiplier     float64
	minComparables int
	perHCT         map[string]float64
}

// NewOutlierDetector creates a detector. multiplier is the MAD-equivalent
// of the classic 3-sigma rule; perHCT overrides it per commodity.
func NewOutlierDetector(multiplier float64, minComparables int, perHCT map[string]float64) *OutlierDetector {
	return &OutlierDetector{
		multiplier:     multiplier,
		minComparables: minComparables,
		perHCT:         perHCT,
	}
}

// consistencyFactor rescales MAD to estimate sigma for normal data.
const consistencyFactor = 1.4826

// Flag marks outliers in place and returns the number flagged. It also
// appends price-position quality signals for records priced in the
// extreme quartiles of their window, which sharpens grade estimates for
// descriptions that parsed as plain "Standard".
func (d *OutlierDetector) Flag(recs []domain.NormalizedRecord) int {
	groups := make(map[string][]int)
	for i := range recs {
		r := &recs[i]
		if r.PriceStatus != domain.PriceNormal || r.FOBUSDPerMT == nil || r.TradeDate.IsZero() {
			continue
		}
		key := r.HCTID + "|" + r.OriginCountry + "|" + r.TradeDate.Format("2006-01")
		groups[key] = append(groups[key], i)
	}

	flagged := 0
	for _, idxs := range groups {
		if len(idxs) < d.minComparables {
			continue
		}
		prices := make([]float64, len(idxs))
		for j, i := range idxs {
			prices[j] = *recs[i].FOBUSDPerMT
		}
		med := median(prices)
		mad := medianAbsDeviation(prices, med)

		for _, i := range idxs {
			r := &recs[i]
			d.applyPricePosition(r, prices)
			if mad <= 0 {
				continue
			}
			k := d.multiplier
			if override, ok := d.perHCT[r.HCTID]; ok && override > 0 {
				k = override
			}
			if math.Abs(*r.FOBUSDPerMT-med) > k*consistencyFactor*mad {
				r.PriceStatus = domain.PriceOutlier
				r.Faults = append(r.Faults, domain.FaultOutlierPrice)
				flagged++
			}
		}
	}
	return flagged
}

func (d *OutlierDetector) applyPricePosition(r *domain.NormalizedRecord, windowPrices []float64) {
	if r.Quality.Grade != "Standard" || len(windowPrices) < d.minComparables {
		return
	}
	pct := percentileRank(windowPrices, *r.FOBUSDPerMT)
	switch {
	case pct >= 0.75:
		r.Quality.SignalsUsed = append(r.Quality.SignalsUsed, "price_position_high")
		r.Quality.Confidence = math.Min(r.Quality.Confidence+0.05, 0.95)
	case pct <= 0.25:
		r.Quality.SignalsUsed = append(r.Quality.SignalsUsed, "price_position_low")
		r.Quality.Confidence = math.Min(r.Quality.Confidence+0.05, 0.95)
	}
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func medianAbsDeviation(values []float64, med float64) float64 {
	devs := make([]float64, len(values))
	for i, v := range values {
		devs[i] = math.Abs(v - med)
	}
	return median(devs)
}

// percentileRank returns the fraction of window values at or below v.
func percentileRank(values []float64, v float64) float64 {
	if len(values) == 0 {
		return 0
	}
	atOrBelow := 0
	for _, w := range values {
		if w <= v {
			atOrBelow++
		}
	}
	return float64(atOrBelow) / float64(len(values))
}
