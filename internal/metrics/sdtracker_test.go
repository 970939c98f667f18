package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sri0310-dev/tesseract/internal/refdata"
	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

func sdSnapshot(annualMT float64) *refdata.Snapshot {
	return &refdata.Snapshot{
		Consensus: map[string]refdata.ConsensusEstimate{
			testHCT: {
				AnnualMT:      annualMT,
				CropYearStart: d(2020, 10, 1), // only month/day matter
			},
		},
	}
}

func TestComputeSDTrackerOverShipping(t *testing.T) {
	e := NewEngine(Config{}, nil)
	recs := []domain.NormalizedRecord{
		rec("IVORY COAST", "", d(2024, 10, 20), 0, 12000),
		rec("IVORY COAST", "", d(2024, 11, 15), 0, 7000),
		rec("GHANA", "", d(2024, 12, 5), 0, 4000),
	}

	// Dec 12 is 73 days into an Oct 1 crop year: 20% elapsed, so the
	// consensus pace expects 20,000 MT. 23,000 actual is +15%.
	entry, ok := e.ComputeSDTracker(recs, sdSnapshot(100000), testHCT, "", d(2024, 12, 12))

	require.True(t, ok)
	assert.InDelta(t, 20, entry.CropYearProgressPct, 1e-9)
	assert.InDelta(t, 20000, entry.ExpectedCumulativeMT, 1e-9)
	assert.InDelta(t, 23000, entry.ActualCumulativeMT, 1e-9)
	assert.InDelta(t, 15, entry.DeltaPct, 1e-9)
	assert.Equal(t, domain.SDOverShipping, entry.Signal)
	assert.Equal(t, "Supply more ample than market expects. Bearish.", entry.Implication)

	require.Len(t, entry.CountryBreakdown, 2)
	assert.Equal(t, "IVORY COAST", entry.CountryBreakdown[0].Country)
	assert.InDelta(t, 19000, entry.CountryBreakdown[0].VolumeMT, 1e-9)
	assert.InDelta(t, 19000.0/23000*100, entry.CountryBreakdown[0].SharePct, 1e-9)
}

func TestComputeSDTrackerUnderShippingSingleOrigin(t *testing.T) {
	e := NewEngine(Config{}, nil)
	recs := []domain.NormalizedRecord{
		rec("IVORY COAST", "", d(2024, 11, 1), 0, 16000),
		rec("GHANA", "", d(2024, 11, 2), 0, 50000), // other origin, out of scope
	}

	entry, ok := e.ComputeSDTracker(recs, sdSnapshot(100000), testHCT, "IVORY COAST", d(2024, 12, 12))

	require.True(t, ok)
	assert.InDelta(t, 16000, entry.ActualCumulativeMT, 1e-9)
	assert.InDelta(t, -20, entry.DeltaPct, 1e-9)
	assert.Equal(t, domain.SDUnderShipping, entry.Signal)
	assert.Equal(t, "Supply tighter than market expects. Bullish.", entry.Implication)
}

func TestComputeSDTrackerNoConsensus(t *testing.T) {
	e := NewEngine(Config{}, nil)

	_, ok := e.ComputeSDTracker(nil, &refdata.Snapshot{}, testHCT, "", d(2024, 12, 12))
	assert.False(t, ok)

	_, ok = e.ComputeSDTracker(nil, sdSnapshot(0), testHCT, "", d(2024, 12, 12))
	assert.False(t, ok)

	_, ok = e.ComputeSDTracker(nil, nil, testHCT, "", d(2024, 12, 12))
	assert.False(t, ok)
}

func TestClassifySDDelta(t *testing.T) {
	e := NewEngine(Config{}, nil)

	tests := []struct {
		deltaPct float64
		want     domain.SDSignal
	}{
		{15, domain.SDOverShipping},
		{10, domain.SDSlightlyOver},
		{7, domain.SDSlightlyOver},
		{5, domain.SDOnTrack},
		{0, domain.SDOnTrack},
		{-5, domain.SDOnTrack},
		{-7, domain.SDSlightlyUnder},
		{-10, domain.SDSlightlyUnder},
		{-15, domain.SDUnderShipping},
	}
	for _, tt := range tests {
		got, implication := e.classifySDDelta(tt.deltaPct)
		assert.Equal(t, tt.want, got, "delta %.0f%%", tt.deltaPct)
		assert.NotEmpty(t, implication)
	}
}

func TestCropYearStart(t *testing.T) {
	ref := d(2020, 10, 1)
	assert.Equal(t, d(2024, 10, 1), cropYearStart(ref, d(2024, 12, 12)))
	assert.Equal(t, d(2024, 10, 1), cropYearStart(ref, d(2025, 3, 15)))
	assert.Equal(t, d(2024, 10, 1), cropYearStart(ref, d(2024, 10, 1)))
}

func TestYoYFlowChangePct(t *testing.T) {
	e := NewEngine(Config{}, nil)
	recs := []domain.NormalizedRecord{
		rec("IVORY COAST", "", d(2024, 8, 1), 0, 150),
		rec("IVORY COAST", "", d(2023, 8, 1), 0, 100),
	}

	change := e.YoYFlowChangePct(recs, testHCT, "IVORY COAST", d(2025, 5, 10))
	require.NotNil(t, change)
	assert.InDelta(t, 50, *change, 1e-9)

	assert.Nil(t, e.YoYFlowChangePct(recs, testHCT, "GHANA", d(2025, 5, 10)))
}

func TestComputeSDTrackerProgressCapsAtFullYear(t *testing.T) {
	e := NewEngine(Config{}, nil)

	entry, ok := e.ComputeSDTracker(nil, sdSnapshot(100000), testHCT, "", d(2025, 9, 30))
	require.True(t, ok)
	assert.InDelta(t, 100, entry.CropYearProgressPct, 1e-6)
}
