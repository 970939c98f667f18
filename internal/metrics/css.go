package metrics

import (
	"time"

	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

// ComputeCSS measures supply-concentration drift for a commodity: the
// HHI of origin-country volume shares for the quarter-to-date, divided
// by the HHI of the same quarter-to-date one year earlier. Comparing
// like-for-like elapsed portions of the quarter keeps a mid-quarter
// reading from being diluted against a full prior quarter.
func (e *Engine) ComputeCSS(recs []domain.NormalizedRecord, hctID string, date time.Time) domain.CSSPoint {
	date = day(date)
	qStart := quarterStart(date)
	end := date.AddDate(0, 0, 1)

	current := originVolumes(scope(recs, hctID, "", "", qStart, end))
	prior := originVolumes(scope(recs, hctID, "", "", qStart.AddDate(-1, 0, 0), end.AddDate(-1, 0, 0)))

	point := domain.CSSPoint{
		HCTID:        hctID,
		Date:         date,
		CurrentHHI:   hhi(current),
		PriorYearHHI: hhi(prior),
		OriginCount:  len(current),
	}
	if point.PriorYearHHI > 0 {
		point.Score = ptr(point.CurrentHHI / point.PriorYearHHI)
	}
	return point
}

// ConcentrationLevel grades an HHI the way antitrust practice does.
func ConcentrationLevel(index float64) string {
	switch {
	case index > 0.25:
		return "HIGH"
	case index > 0.15:
		return "MODERATE"
	default:
		return "LOW"
	}
}

func quarterStart(t time.Time) time.Time {
	m := time.Month((int(t.Month())-1)/3*3 + 1)
	return time.Date(t.Year(), m, 1, 0, 0, 0, 0, time.UTC)
}

func originVolumes(recs []domain.NormalizedRecord) map[string]float64 {
	vols := make(map[string]float64)
	for _, r := range recs {
		if r.OriginCountry == "" || r.QuantityMT == nil {
			continue
		}
		vols[r.OriginCountry] += *r.QuantityMT
	}
	return vols
}
