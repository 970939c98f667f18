package metrics

import (
	"time"

	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

// historyLookbackDays is the span used to estimate a "normal" window
// volume for the coverage gate.
const historyLookbackDays = 60

// ComputeIPC derives the implied price for a commodity x origin on a
// date: the volume-weighted median of usable per-tonne FOB prices in
// the trailing window. Weighting by shipment volume means a handful of
// container-sized lots cannot move the quote against a bulk carrier,
// while the median keeps any single mis-declared shipment from
// dragging it.
func (e *Engine) ComputeIPC(recs []domain.NormalizedRecord, hctID, origin string, date time.Time) domain.IPCPoint {
	date = day(date)
	end := date.AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -e.cfg.IPCWindowDays)

	window := usablePrices(scope(recs, hctID, origin, "", start, end))

	// Thin market: widen the lookback before giving up on the day.
	if len(window) < e.cfg.MinRecordsMedium && e.cfg.IPCThinWindowDays > e.cfg.IPCWindowDays {
		wideStart := end.AddDate(0, 0, -e.cfg.IPCThinWindowDays)
		wide := usablePrices(scope(recs, hctID, origin, "", wideStart, end))
		if len(wide) > len(window) {
			window = wide
			start = wideStart
		}
	}

	point := domain.IPCPoint{
		HCTID:         hctID,
		OriginCountry: origin,
		Incoterm:      domain.IncotermFOB,
		Date:          date,
		WindowStart:   start,
		WindowEnd:     end,
		SampleCount:   len(window),
		Confidence:    domain.ConfidenceNone,
	}
	if len(window) == 0 {
		return point
	}

	values := make([]float64, len(window))
	weights := make([]float64, len(window))
	for i, r := range window {
		values[i] = *r.FOBUSDPerMT
		weights[i] = 1
		if r.QuantityMT != nil && *r.QuantityMT > 0 {
			weights[i] = *r.QuantityMT
		}
	}

	med := weightedMedian(values, weights)
	spread := iqr(values)
	lo, hi := minMax(values)

	point.PriceUSDPerMT = ptr(med)
	point.PriceIQR = ptr(spread)
	point.PriceMin = ptr(lo)
	point.PriceMax = ptr(hi)
	point.PriceMean = ptr(mean(values))
	point.VolumeMT = totalVolume(window)
	point.DirectionalOnly = len(window) < e.cfg.MinSampleQuotable
	point.Confidence = e.ipcConfidence(recs, point, med, spread, hctID, origin, start)
	return point
}

// ipcConfidence applies the three-gate model: sample size, price
// dispersion and volume coverage against the commodity's own history.
func (e *Engine) ipcConfidence(recs []domain.NormalizedRecord, p domain.IPCPoint, med, spread float64, hctID, origin string, windowStart time.Time) domain.Confidence {
	coverage, hasHistory := e.volumeCoverage(recs, hctID, origin, windowStart, p.VolumeMT)

	dispersionOK := med > 0 && spread/med < e.cfg.MaxDispersionHigh
	switch {
	case p.SampleCount >= e.cfg.MinRecordsHigh && dispersionOK &&
		hasHistory && coverage >= e.cfg.CoverageHigh:
		return domain.ConfidenceHigh
	case p.SampleCount >= e.cfg.MinRecordsMedium &&
		(!hasHistory || coverage >= e.cfg.CoverageMedium):
		// A market with no measurable history cannot clear the coverage
		// gate either way; cap it at MEDIUM rather than punishing new
		// corridors with LOW forever.
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

// volumeCoverage compares the window volume against the average volume
// of equally sized windows over the trailing history period.
func (e *Engine) volumeCoverage(recs []domain.NormalizedRecord, hctID, origin string, windowStart time.Time, windowVolume float64) (float64, bool) {
	histStart := windowStart.AddDate(0, 0, -historyLookbackDays)
	hist := scope(recs, hctID, origin, "", histStart, windowStart)
	histVolume := totalVolume(hist)
	if histVolume <= 0 {
		return 0, false
	}
	avgWindowVolume := histVolume / float64(historyLookbackDays) * float64(e.cfg.IPCWindowDays)
	if avgWindowVolume <= 0 {
		return 0, false
	}
	return windowVolume / avgWindowVolume, true
}

// IPCSeries computes one IPC point per day over [from, to].
func (e *Engine) IPCSeries(recs []domain.NormalizedRecord, hctID, origin string, from, to time.Time) []domain.IPCPoint {
	var out []domain.IPCPoint
	for d := day(from); !d.After(day(to)); d = d.AddDate(0, 0, 1) {
		out = append(out, e.ComputeIPC(recs, hctID, origin, d))
	}
	return out
}

// IPCChangePct returns the percent change of the implied price between
// two dates, when both ends have a quotable price.
func (e *Engine) IPCChangePct(recs []domain.NormalizedRecord, hctID, origin string, from, to time.Time) *float64 {
	a := e.ComputeIPC(recs, hctID, origin, from)
	b := e.ComputeIPC(recs, hctID, origin, to)
	if a.PriceUSDPerMT == nil || b.PriceUSDPerMT == nil || *a.PriceUSDPerMT <= 0 {
		return nil
	}
	return ptr((*b.PriceUSDPerMT - *a.PriceUSDPerMT) / *a.PriceUSDPerMT * 100)
}

// usablePrices keeps records whose price survived normalization checks.
func usablePrices(recs []domain.NormalizedRecord) []domain.NormalizedRecord {
	var out []domain.NormalizedRecord
	for _, r := range recs {
		if r.FOBUSDPerMT == nil || *r.FOBUSDPerMT <= 0 {
			continue
		}
		if !r.PriceStatus.Usable() {
			continue
		}
		out = append(out, r)
	}
	return out
}
