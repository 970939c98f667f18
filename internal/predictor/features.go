// Package predictor derives directional price calls from the metric
// stack. It is deliberately conservative: features are computed and
// stored from day one, but no prediction is emitted until a commodity
// has accumulated enough history to make the call defensible.
package predictor

import (
	"time"

	"github.com/sri0310-dev/tesseract/internal/metrics"
	"github.com/sri0310-dev/tesseract/internal/refdata"
	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

// BuildFeatures assembles the fixed feature vector for one commodity
// corridor on a date. Missing inputs stay nil; the scorer works with
// whatever is present.
func BuildFeatures(engine *metrics.Engine, recs []domain.NormalizedRecord, snap *refdata.Snapshot, hctID, origin, dest string, date time.Time) domain.FeatureVector {
	fv := domain.FeatureVector{
		HCTID:    hctID,
		Corridor: corridor(origin, dest),
		Date:     date,
	}

	ipc := engine.ComputeIPC(recs, hctID, origin, date)
	fv.IPCUSDPerMT = ipc.PriceUSDPerMT
	fv.SampleCount = ipc.SampleCount
	if ipc.PriceUSDPerMT != nil && ipc.PriceIQR != nil && *ipc.PriceUSDPerMT > 0 {
		d := *ipc.PriceIQR / *ipc.PriceUSDPerMT
		fv.PriceDispersion = &d
	}
	fv.IPCChange7dPct = engine.IPCChangePct(recs, hctID, origin, date.AddDate(0, 0, -7), date)

	fvi := engine.ComputeFVI(recs, snap, hctID, origin, dest, date)
	fv.FVIRaw = fvi.Raw
	fv.FVIAdjusted = fvi.Adjusted
	fv.VolumeRecentMT = fvi.VolumeRecentMT

	css := engine.ComputeCSS(recs, hctID, date)
	fv.CSSScore = css.Score

	if sd, ok := engine.ComputeSDTracker(recs, snap, hctID, origin, date); ok {
		fv.SDDeltaPct = &sd.DeltaPct
	}

	fab := engine.ComputeFAB(recs, snap, hctID, origin, "", "", date)
	fv.BasisUSDPerMT = fab.BasisUSDPerMT

	if snap != nil {
		if w, ok := snap.SeasonalWeight(hctID, date.Month()); ok {
			fv.SeasonalWeight = &w
		}
	}
	return fv
}

func corridor(origin, dest string) string {
	if dest == "" {
		return origin
	}
	return origin + "->" + dest
}
