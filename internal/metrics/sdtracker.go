package metrics

import (
	"sort"
	"time"

	"github.com/sri0310-dev/tesseract/internal/refdata"
	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

// ComputeSDTracker compares actual cumulative exports for a commodity
// and origin country against the consensus annual estimate pro-rated by
// elapsed crop-year fraction. Sign convention: positive delta means the
// origin is shipping ahead of consensus pace (bearish for price),
// negative means behind (bullish). Pass country "" to track all origins.
func (e *Engine) ComputeSDTracker(recs []domain.NormalizedRecord, snap *refdata.Snapshot, hctID, country string, date time.Time) (domain.SDTrackerEntry, bool) {
	date = day(date)
	entry := domain.SDTrackerEntry{
		HCTID:   hctID,
		Country: country,
		Date:    date,
	}
	if snap == nil {
		return entry, false
	}
	consensus, ok := snap.ConsensusFor(hctID)
	if !ok || consensus.AnnualMT <= 0 {
		return entry, false
	}

	start := cropYearStart(consensus.CropYearStart, date)
	end := date.AddDate(0, 0, 1)
	window := scope(recs, hctID, country, "", start, end)

	elapsed := end.Sub(start).Hours() / 24
	progress := elapsed / 365
	if progress > 1 {
		progress = 1
	}

	entry.ConsensusAnnualMT = consensus.AnnualMT
	entry.CropYearProgressPct = progress * 100
	entry.ActualCumulativeMT = totalVolume(window)
	entry.ExpectedCumulativeMT = consensus.AnnualMT * progress
	entry.DeltaMT = entry.ActualCumulativeMT - entry.ExpectedCumulativeMT
	entry.RecordCount = len(window)
	if entry.ExpectedCumulativeMT > 0 {
		entry.DeltaPct = entry.DeltaMT / entry.ExpectedCumulativeMT * 100
	}
	entry.Signal, entry.Implication = e.classifySDDelta(entry.DeltaPct)
	entry.CountryBreakdown = countryBreakdown(window)
	return entry, true
}

func (e *Engine) classifySDDelta(deltaPct float64) (domain.SDSignal, string) {
	switch {
	case deltaPct > e.cfg.SDOverPct:
		return domain.SDOverShipping, "Supply more ample than market expects. Bearish."
	case deltaPct > e.cfg.SDSlightPct:
		return domain.SDSlightlyOver, "Supply slightly ahead of expectations. Mildly bearish."
	case deltaPct < -e.cfg.SDOverPct:
		return domain.SDUnderShipping, "Supply tighter than market expects. Bullish."
	case deltaPct < -e.cfg.SDSlightPct:
		return domain.SDSlightlyUnder, "Supply slightly behind expectations. Mildly bullish."
	default:
		return domain.SDOnTrack, "Flows in line with expectations. Neutral."
	}
}

// YoYFlowChangePct compares the trailing year's volume against the year
// before it for a commodity and optional origin country.
func (e *Engine) YoYFlowChangePct(recs []domain.NormalizedRecord, hctID, country string, date time.Time) *float64 {
	end := day(date).AddDate(0, 0, 1)
	current := totalVolume(scope(recs, hctID, country, "", end.AddDate(-1, 0, 0), end))
	prior := totalVolume(scope(recs, hctID, country, "", end.AddDate(-2, 0, 0), end.AddDate(-1, 0, 0)))
	if prior <= 0 {
		return nil
	}
	return ptr((current - prior) / prior * 100)
}

// cropYearStart returns the start of the crop year containing date, for
// a reference start whose month/day define the year boundary.
func cropYearStart(reference, date time.Time) time.Time {
	start := time.Date(date.Year(), reference.Month(), reference.Day(), 0, 0, 0, 0, time.UTC)
	if start.After(date) {
		start = start.AddDate(-1, 0, 0)
	}
	return start
}

func countryBreakdown(recs []domain.NormalizedRecord) []domain.CountryVolume {
	vols := originVolumes(recs)
	total := 0.0
	for _, v := range vols {
		total += v
	}
	out := make([]domain.CountryVolume, 0, len(vols))
	for country, v := range vols {
		row := domain.CountryVolume{Country: country, VolumeMT: v}
		if total > 0 {
			row.SharePct = v / total * 100
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].VolumeMT == out[j].VolumeMT {
			return out[i].Country < out[j].Country
		}
		return out[i].VolumeMT > out[j].VolumeMT
	})
	return out
}
