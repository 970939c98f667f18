package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sri0310-dev/tesseract/internal/refdata"
	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

func fabSnapshot() *refdata.Snapshot {
	return &refdata.Snapshot{
		Freight: []refdata.FreightRate{
			{OriginPort: "ABIDJAN", DestinationPort: "TUTICORIN", RatePerMT: 42.50},
		},
		Insurance: map[string]refdata.InsuranceRate{
			"standard":       {RatePct: 0.001},
			"gulf_of_guinea": {RatePct: 0.0015, WarRiskPct: 0.0025},
		},
		HighRiskPorts: map[string][]string{"gulf_of_guinea": {"ABIDJAN"}},
		PortCharges:   map[string]float64{"TUTICORIN": 4.70},
		Benchmarks:    map[string]float64{testHCT + "|TUTICORIN": 1100},
	}
}

func fabRecords() []domain.NormalizedRecord {
	var out []domain.NormalizedRecord
	for i := 0; i < 5; i++ {
		out = append(out, rec("IVORY COAST", "", d(2025, 5, 8), 1000, 20))
	}
	for i := 0; i < 5; i++ {
		out = append(out, rec("GHANA", "", d(2025, 5, 8), 980, 20))
	}
	return out
}

func TestComputeFABReconstructsCIF(t *testing.T) {
	e := NewEngine(Config{}, nil)

	p := e.ComputeFAB(fabRecords(), fabSnapshot(), testHCT, "IVORY COAST", "ABIDJAN", "TUTICORIN", d(2025, 5, 10))

	require.NotNil(t, p.FOBUSDPerMT)
	assert.InDelta(t, 1000, *p.FOBUSDPerMT, 1e-9)
	require.NotNil(t, p.FreightUSDPerMT)
	assert.InDelta(t, 42.50, *p.FreightUSDPerMT, 1e-9)
	require.NotNil(t, p.InsuranceUSDPerMT)
	assert.InDelta(t, 4.00, *p.InsuranceUSDPerMT, 1e-9) // war-risk route
	require.NotNil(t, p.PortChargesUSDPerMT)
	assert.InDelta(t, 4.70, *p.PortChargesUSDPerMT, 1e-9)
	require.NotNil(t, p.ImpliedCIFUSDPerMT)
	assert.InDelta(t, 1051.20, *p.ImpliedCIFUSDPerMT, 1e-9)

	require.NotNil(t, p.BenchmarkUSDPerMT)
	require.NotNil(t, p.BasisUSDPerMT)
	assert.InDelta(t, -48.80, *p.BasisUSDPerMT, 1e-9)
	assert.Equal(t, domain.ConfidenceMedium, p.Confidence)
}

func TestComputeFABWithoutBenchmark(t *testing.T) {
	e := NewEngine(Config{}, nil)
	snap := fabSnapshot()
	snap.Benchmarks = nil

	p := e.ComputeFAB(fabRecords(), snap, testHCT, "IVORY COAST", "ABIDJAN", "TUTICORIN", d(2025, 5, 10))

	require.NotNil(t, p.ImpliedCIFUSDPerMT)
	assert.Nil(t, p.BenchmarkUSDPerMT)
	assert.Nil(t, p.BasisUSDPerMT)
}

func TestComputeFABNoPrice(t *testing.T) {
	e := NewEngine(Config{}, nil)

	p := e.ComputeFAB(nil, fabSnapshot(), testHCT, "IVORY COAST", "ABIDJAN", "TUTICORIN", d(2025, 5, 10))

	assert.Nil(t, p.FOBUSDPerMT)
	assert.Nil(t, p.ImpliedCIFUSDPerMT)
	assert.Equal(t, domain.ConfidenceNone, p.Confidence)
}

func TestCompareOriginsRanksByLandedCost(t *testing.T) {
	e := NewEngine(Config{}, nil)
	origins := map[string]string{
		"IVORY COAST": "ABIDJAN",
		"GHANA":       "ABIDJAN",
	}

	out := e.CompareOrigins(fabRecords(), fabSnapshot(), testHCT, "TUTICORIN", origins, d(2025, 5, 10))

	require.Len(t, out, 2)
	assert.Equal(t, "GHANA", out[0].FAB.OriginCountry)
	assert.Zero(t, out[0].AdvantageUSDPerMT)
	assert.Equal(t, "IVORY COAST", out[1].FAB.OriginCountry)
	// FOB gap of 20 plus the insurance difference on the dearer cargo.
	assert.InDelta(t, 20.08, out[1].AdvantageUSDPerMT, 1e-9)
}

func TestDetectOriginSpreads(t *testing.T) {
	e := NewEngine(Config{}, nil)
	recs := fabRecords()
	for i := 0; i < 5; i++ {
		recs = append(recs, rec("NIGERIA", "", d(2025, 5, 8), 1100, 20))
	}
	origins := []string{"IVORY COAST", "GHANA", "NIGERIA"}

	out := e.DetectOriginSpreads(recs, testHCT, origins, d(2025, 5, 10), 0)

	// Ghana vs Ivory Coast is 2% apart and stays inside the normal
	// quality differential; Nigeria diverges from both.
	require.Len(t, out, 2)
	assert.Equal(t, "GHANA", out[0].CheaperOrigin)
	assert.Equal(t, "NIGERIA", out[0].DearerOrigin)
	assert.InDelta(t, 12.2449, out[0].SpreadPct, 1e-3)
	assert.Equal(t, domain.ConfidenceMedium, out[0].Confidence)
	assert.Equal(t, "IVORY COAST", out[1].CheaperOrigin)
	assert.InDelta(t, 10.0, out[1].SpreadPct, 1e-9)

	// Raising the bar above the widest spread suppresses every pair.
	assert.Empty(t, e.DetectOriginSpreads(recs, testHCT, origins, d(2025, 5, 10), 15))
}

func TestFindArbitrage(t *testing.T) {
	e := NewEngine(Config{}, nil)
	origins := map[string]string{"IVORY COAST": "ABIDJAN", "GHANA": "ABIDJAN"}

	windows := e.FindArbitrage(fabRecords(), fabSnapshot(), testHCT, "TUTICORIN", origins, d(2025, 5, 10), 50)

	// Ghana lands at 1031.12 against an 1100 benchmark; Ivory Coast's
	// 48.80 margin misses the 50 USD/MT bar.
	require.Len(t, windows, 1)
	assert.Equal(t, "GHANA", windows[0].FAB.OriginCountry)
	assert.InDelta(t, 68.88, windows[0].MarginUSDPerMT, 1e-9)
}
