package metrics

import (
	"time"

	"github.com/sri0310-dev/tesseract/internal/refdata"
	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

// ComputeFVI measures whether a corridor is shipping faster or slower
// than a month ago: recent-window volume over an equally sized baseline
// window ending at the baseline lag. A second, seasonally adjusted
// reading divides out the expected month-over-month seasonal swing so a
// harvest ramp does not read as acceleration.
func (e *Engine) ComputeFVI(recs []domain.NormalizedRecord, snap *refdata.Snapshot, hctID, origin, dest string, date time.Time) domain.FVIPoint {
	date = day(date)
	end := date.AddDate(0, 0, 1)
	recentStart := end.AddDate(0, 0, -e.cfg.FVIRecentDays)
	baselineEnd := end.AddDate(0, 0, -e.cfg.FVIBaselineLag)
	baselineStart := baselineEnd.AddDate(0, 0, -e.cfg.FVIRecentDays)

	recent := scope(recs, hctID, origin, dest, recentStart, end)
	baseline := scope(recs, hctID, origin, dest, baselineStart, baselineEnd)

	point := domain.FVIPoint{
		HCTID:              hctID,
		OriginCountry:      origin,
		DestinationCountry: dest,
		Date:               date,
		VolumeRecentMT:     totalVolume(recent),
		VolumeBaselineMT:   totalVolume(baseline),
		RecordsRecent:      len(recent),
		RecordsBaseline:    len(baseline),
		Signal:             domain.FVINoData,
	}

	if point.VolumeRecentMT <= 0 && point.VolumeBaselineMT <= 0 {
		return point
	}
	if point.VolumeBaselineMT <= 0 {
		point.Signal = domain.FVINoBaseline
		return point
	}

	raw := point.VolumeRecentMT / point.VolumeBaselineMT
	point.Raw = ptr(raw)
	point.Signal = classifyFVI(raw)

	if snap != nil {
		recentW, okRecent := snap.SeasonalWeight(hctID, date.Month())
		baselineW, okBaseline := snap.SeasonalWeight(hctID, baselineEnd.AddDate(0, 0, -1).Month())
		if okRecent && okBaseline && recentW > 0 && baselineW > 0 {
			factor := recentW / baselineW
			point.SeasonalFactor = ptr(factor)
			adjusted := raw / factor
			point.Adjusted = ptr(adjusted)
			point.SignalAdjusted = classifyFVI(adjusted)
		}
	}
	return point
}

// classifyFVI maps the velocity ratio onto the fixed ladder.
func classifyFVI(ratio float64) domain.FVISignal {
	switch {
	case ratio > 1.30:
		return domain.FVIStrongAcceleration
	case ratio > 1.10:
		return domain.FVIModerateAcceleration
	case ratio >= 0.90:
		return domain.FVINormal
	case ratio >= 0.70:
		return domain.FVIModerateDeceleration
	default:
		return domain.FVISevereDeceleration
	}
}

// FVISeries computes one FVI point per day over [from, to].
func (e *Engine) FVISeries(recs []domain.NormalizedRecord, snap *refdata.Snapshot, hctID, origin, dest string, from, to time.Time) []domain.FVIPoint {
	var out []domain.FVIPoint
	for d := day(from); !d.After(day(to)); d = d.AddDate(0, 0, 1) {
		out = append(out, e.ComputeFVI(recs, snap, hctID, origin, dest, d))
	}
	return out
}
