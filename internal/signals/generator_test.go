package signals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sri0310-dev/tesseract/internal/metrics"
	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

func ratio(v float64) *float64 { return &v }

func TestFromFVIPrefersAdjustedReading(t *testing.T) {
	g := NewGenerator(Config{}, nil)

	// Raw acceleration that is fully explained by the seasonal calendar
	// must stay quiet.
	seasonal := domain.FVIPoint{
		HCTID:          "HCT-0801-RCN-INSHELL",
		OriginCountry:  "IVORY COAST",
		Signal:         domain.FVIStrongAcceleration,
		Raw:            ratio(1.4),
		Adjusted:       ratio(1.0),
		SignalAdjusted: domain.FVINormal,
	}
	_, ok := g.FromFVI(seasonal)
	assert.False(t, ok)

	genuine := domain.FVIPoint{
		HCTID:              "HCT-0801-RCN-INSHELL",
		OriginCountry:      "IVORY COAST",
		DestinationCountry: "INDIA",
		Signal:             domain.FVIStrongAcceleration,
		Raw:                ratio(1.5),
		VolumeRecentMT:     150,
		VolumeBaselineMT:   100,
	}
	sig, ok := g.FromFVI(genuine)
	require.True(t, ok)
	assert.Equal(t, domain.SignalFlowVelocity, sig.Type)
	assert.Equal(t, domain.SeverityHigh, sig.Severity)
	assert.Equal(t, "IVORY COAST->INDIA", sig.Corridor)
	assert.Equal(t,
		"HCT-0801-RCN-INSHELL flows from IVORY COAST accelerating sharply: recent volume 1.50x baseline",
		sig.Headline)
}

func TestFromFVISeverityLadder(t *testing.T) {
	g := NewGenerator(Config{}, nil)

	tests := []struct {
		signal  domain.FVISignal
		wantSev domain.Severity
		wantOK  bool
	}{
		{domain.FVIStrongAcceleration, domain.SeverityHigh, true},
		{domain.FVISevereDeceleration, domain.SeverityHigh, true},
		{domain.FVIModerateAcceleration, domain.SeverityMedium, true},
		{domain.FVIModerateDeceleration, domain.SeverityMedium, true},
		{domain.FVINormal, "", false},
		{domain.FVINoBaseline, "", false},
	}
	for _, tt := range tests {
		p := domain.FVIPoint{HCTID: "HCT-X", OriginCountry: "GHANA", Signal: tt.signal, Raw: ratio(1.0)}
		sig, ok := g.FromFVI(p)
		assert.Equal(t, tt.wantOK, ok, string(tt.signal))
		if ok {
			assert.Equal(t, tt.wantSev, sig.Severity, string(tt.signal))
		}
	}
}

func TestFromIPCMoveThresholds(t *testing.T) {
	g := NewGenerator(Config{}, nil)
	point := domain.IPCPoint{Confidence: domain.ConfidenceMedium, SampleCount: 8}

	_, ok := g.FromIPCMove("HCT-X", "IVORY COAST", 4, point)
	assert.False(t, ok)

	sig, ok := g.FromIPCMove("HCT-X", "IVORY COAST", 7, point)
	require.True(t, ok)
	assert.Equal(t, domain.SeverityMedium, sig.Severity)
	assert.Equal(t, "HCT-X IVORY COAST implied price up 7.0% over 7 days", sig.Headline)

	sig, ok = g.FromIPCMove("HCT-X", "IVORY COAST", -12, point)
	require.True(t, ok)
	assert.Equal(t, domain.SeverityHigh, sig.Severity)
	assert.Equal(t, "HCT-X IVORY COAST implied price down 12.0% over 7 days", sig.Headline)
}

func TestFromSDTracker(t *testing.T) {
	g := NewGenerator(Config{}, nil)

	entry := domain.SDTrackerEntry{
		HCTID:       "HCT-0801-RCN-INSHELL",
		Country:     "IVORY COAST",
		DeltaPct:    15,
		Signal:      domain.SDOverShipping,
		Implication: "Supply more ample than market expects. Bearish.",
	}
	sig, ok := g.FromSDTracker(entry)
	require.True(t, ok)
	assert.Equal(t, domain.SignalSDDelta, sig.Type)
	assert.Equal(t, domain.SeverityMedium, sig.Severity)
	assert.Equal(t,
		"IVORY COAST HCT-0801-RCN-INSHELL exports 15.0% ahead of consensus pace. Supply more ample than market expects. Bearish.",
		sig.Headline)

	entry.Country = ""
	entry.DeltaPct = -7
	entry.Signal = domain.SDSlightlyUnder
	entry.Implication = "Supply slightly behind expectations. Mildly bullish."
	sig, ok = g.FromSDTracker(entry)
	require.True(t, ok)
	assert.Equal(t, domain.SeverityMedium, sig.Severity)
	assert.Contains(t, sig.Headline, "All origins")
	assert.Contains(t, sig.Headline, "behind consensus pace")

	entry.Signal = domain.SDOnTrack
	_, ok = g.FromSDTracker(entry)
	assert.False(t, ok)
}

func TestFromSDTrackerSeverityLadder(t *testing.T) {
	g := NewGenerator(Config{}, nil)

	// A shortfall outranks a surplus of the same size.
	tests := []struct {
		signal  domain.SDSignal
		wantSev domain.Severity
		wantOK  bool
	}{
		{domain.SDUnderShipping, domain.SeverityHigh, true},
		{domain.SDOverShipping, domain.SeverityMedium, true},
		{domain.SDSlightlyUnder, domain.SeverityMedium, true},
		{domain.SDSlightlyOver, domain.SeverityLow, true},
		{domain.SDOnTrack, "", false},
	}
	for _, tt := range tests {
		e := domain.SDTrackerEntry{HCTID: "HCT-X", Country: "GHANA", DeltaPct: 12, Signal: tt.signal}
		sig, ok := g.FromSDTracker(e)
		assert.Equal(t, tt.wantOK, ok, string(tt.signal))
		if ok {
			assert.Equal(t, tt.wantSev, sig.Severity, string(tt.signal))
		}
	}
}

func TestFromCSS(t *testing.T) {
	g := NewGenerator(Config{}, nil)

	score := 2.0
	sig, ok := g.FromCSS(domain.CSSPoint{HCTID: "HCT-X", Score: &score, CurrentHHI: 0.5, PriorYearHHI: 0.25})
	require.True(t, ok)
	assert.Equal(t, domain.SignalConcentrationShift, sig.Type)
	assert.Contains(t, sig.Headline, "2.00x prior year")
	assert.Contains(t, sig.Headline, "HIGH")

	mild := 1.2
	_, ok = g.FromCSS(domain.CSSPoint{HCTID: "HCT-X", Score: &mild})
	assert.False(t, ok)

	_, ok = g.FromCSS(domain.CSSPoint{HCTID: "HCT-X"})
	assert.False(t, ok)
}

func TestFromCounterpartyAnomaly(t *testing.T) {
	g := NewGenerator(Config{}, nil)

	tests := []struct {
		anomaly  metrics.CounterpartyAnomaly
		wantType domain.SignalType
		wantSev  domain.Severity
	}{
		{
			metrics.CounterpartyAnomaly{Kind: metrics.AnomalyNewEntrant, Name: "CHARLIE VENTURES", HCTID: "HCT-X", CurrentVolumeMT: 40},
			domain.SignalNewEntrant, domain.SeverityLow,
		},
		{
			metrics.CounterpartyAnomaly{Kind: metrics.AnomalyWithdrawal, Name: "DELTA COMMODITIES", HCTID: "HCT-X", HistoricalSharePct: 4},
			domain.SignalWithdrawal, domain.SeverityMedium,
		},
		{
			metrics.CounterpartyAnomaly{Kind: metrics.AnomalyVolumeSurge, Name: "BRAVO IMPORTS", HCTID: "HCT-X", CurrentVolumeMT: 250, BaselineVolumeMT: 100},
			domain.SignalVolumeSurge, domain.SeverityMedium,
		},
	}
	for _, tt := range tests {
		sig, ok := g.FromCounterpartyAnomaly(tt.anomaly)
		require.True(t, ok, string(tt.anomaly.Kind))
		assert.Equal(t, tt.wantType, sig.Type)
		assert.Equal(t, tt.wantSev, sig.Severity)
		assert.Contains(t, sig.Headline, tt.anomaly.Name)
	}

	_, ok := g.FromCounterpartyAnomaly(metrics.CounterpartyAnomaly{Kind: "UNKNOWN"})
	assert.False(t, ok)
}

func TestFromStaleReference(t *testing.T) {
	g := NewGenerator(Config{}, nil)

	sig := g.FromStaleReference("builtin-1", time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC))

	assert.Equal(t, domain.SignalReferenceDataStale, sig.Type)
	assert.Equal(t, domain.SeverityMedium, sig.Severity)
	assert.Equal(t, "Reference data snapshot builtin-1 is stale (loaded 2025-04-01)", sig.Headline)
}
