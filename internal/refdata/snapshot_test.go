package refdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

func TestValidate(t *testing.T) {
	require.NoError(t, DefaultSnapshot().Validate())

	var nilSnap *Snapshot
	assert.ErrorIs(t, nilSnap.Validate(), ErrInvalidSnapshot)

	noUnits := DefaultSnapshot()
	noUnits.Units = nil
	assert.ErrorIs(t, noUnits.Validate(), ErrInvalidSnapshot)

	noTaxonomy := DefaultSnapshot()
	noTaxonomy.Taxonomy = nil
	assert.ErrorIs(t, noTaxonomy.Validate(), ErrInvalidSnapshot)

	noVersion := DefaultSnapshot()
	noVersion.Version = ""
	assert.ErrorIs(t, noVersion.Validate(), ErrInvalidSnapshot)
}

func TestStale(t *testing.T) {
	snap := DefaultSnapshot()
	snap.LoadedAt = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	snap.MaxAge = 30 * 24 * time.Hour

	assert.False(t, snap.Stale(snap.LoadedAt.Add(29*24*time.Hour)))
	assert.True(t, snap.Stale(snap.LoadedAt.Add(31*24*time.Hour)))

	// No MaxAge means never stale.
	snap.MaxAge = 0
	assert.False(t, snap.Stale(snap.LoadedAt.Add(10000*time.Hour)))
}

func TestInferIncoterm(t *testing.T) {
	snap := DefaultSnapshot()

	assert.Equal(t, domain.IncotermCIF, snap.InferIncoterm(domain.TradeTypeImport, "INDIA"))
	assert.Equal(t, domain.IncotermFOB, snap.InferIncoterm(domain.TradeTypeExport, "ivory coast"))
	// Unlisted countries fall back to the customs convention.
	assert.Equal(t, domain.IncotermFOB, snap.InferIncoterm(domain.TradeTypeExport, "NARNIA"))
	assert.Equal(t, domain.IncotermCIF, snap.InferIncoterm(domain.TradeTypeImport, "NARNIA"))
}

func TestFXRateFor(t *testing.T) {
	snap := DefaultSnapshot()
	snap.FX = map[string][]FXRate{
		"INR": {
			{Currency: "INR", Date: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), RatePerUSD: 83.10},
			{Currency: "INR", Date: time.Date(2025, 5, 8, 0, 0, 0, 0, time.UTC), RatePerUSD: 83.40},
		},
	}

	rate, ok := snap.FXRateFor("inr", time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.InDelta(t, 83.40, rate, 1e-9)

	// Between entries: latest on or before the trade date.
	rate, ok = snap.FXRateFor("INR", time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.InDelta(t, 83.10, rate, 1e-9)

	// Exactly on an entry date.
	rate, ok = snap.FXRateFor("INR", time.Date(2025, 5, 8, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.InDelta(t, 83.40, rate, 1e-9)

	// Before any entry, or an unknown currency.
	_, ok = snap.FXRateFor("INR", time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
	assert.False(t, ok)
	_, ok = snap.FXRateFor("XOF", time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC))
	assert.False(t, ok)
}

func TestFreightRateFor(t *testing.T) {
	snap := DefaultSnapshot()
	when := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)

	rate, ok := snap.FreightRateFor("ABIDJAN", "TUTICORIN", "", when)
	require.True(t, ok)
	assert.InDelta(t, 42.50, rate, 1e-9)

	// Customs spellings match on containment.
	rate, ok = snap.FreightRateFor("PORT OF ABIDJAN", "TUTICORIN SEZ", "", when)
	require.True(t, ok)
	assert.InDelta(t, 42.50, rate, 1e-9)

	_, ok = snap.FreightRateFor("ROTTERDAM", "TUTICORIN", "", when)
	assert.False(t, ok)
	_, ok = snap.FreightRateFor("", "TUTICORIN", "", when)
	assert.False(t, ok)
}

func TestFreightRateForEffectiveDates(t *testing.T) {
	when := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	snap := &Snapshot{Freight: []FreightRate{
		{OriginPort: "ABIDJAN", DestinationPort: "TUTICORIN", RatePerMT: 40.00,
			EffectiveDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{OriginPort: "ABIDJAN", DestinationPort: "TUTICORIN", RatePerMT: 43.00,
			EffectiveDate: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)},
		{OriginPort: "ABIDJAN", DestinationPort: "TUTICORIN", RatePerMT: 47.00,
			EffectiveDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
	}}

	// Latest rate effective on or before the trade date; future rates
	// are invisible.
	rate, ok := snap.FreightRateFor("ABIDJAN", "TUTICORIN", "", when)
	require.True(t, ok)
	assert.InDelta(t, 43.00, rate, 1e-9)
}

func TestFreightRateForVesselClassPreference(t *testing.T) {
	when := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	snap := &Snapshot{Freight: []FreightRate{
		{OriginPort: "ABIDJAN", DestinationPort: "TUTICORIN", VesselClass: "HANDYSIZE", RatePerMT: 42.50},
		{OriginPort: "ABIDJAN", DestinationPort: "TUTICORIN", VesselClass: "SUPRAMAX", RatePerMT: 38.00},
	}}

	rate, ok := snap.FreightRateFor("ABIDJAN", "TUTICORIN", "SUPRAMAX", when)
	require.True(t, ok)
	assert.InDelta(t, 38.00, rate, 1e-9)

	// Unknown class still returns a rate for the corridor.
	_, ok = snap.FreightRateFor("ABIDJAN", "TUTICORIN", "VLCC", when)
	assert.True(t, ok)
}

func TestRouteRiskAndInsurance(t *testing.T) {
	snap := DefaultSnapshot()

	assert.Equal(t, "gulf_of_guinea", snap.RouteRisk("ABIDJAN", "TUTICORIN"))
	assert.Equal(t, "red_sea", snap.RouteRisk("DJIBOUTI", "KANDLA"))
	assert.Equal(t, "standard", snap.RouteRisk("SANTOS", "SHANGHAI"))

	// War-risk surcharge applies on the risky route.
	assert.InDelta(t, 400, snap.InsuranceFor(100000, "ABIDJAN", "TUTICORIN"), 1e-9)
	assert.InDelta(t, 150, snap.InsuranceFor(100000, "SANTOS", "SHANGHAI"), 1e-9)
}

func TestPortChargesFor(t *testing.T) {
	snap := DefaultSnapshot()

	assert.InDelta(t, 4.70, snap.PortChargesFor("TUTICORIN"), 1e-9)
	assert.InDelta(t, 4.70, snap.PortChargesFor("TUTICORIN PORT TRUST"), 1e-9)
	assert.InDelta(t, snap.DefaultPortCharge, snap.PortChargesFor("ROTTERDAM"), 1e-9)
	assert.Zero(t, snap.PortChargesFor(""))
}

func TestConvertToMT(t *testing.T) {
	snap := DefaultSnapshot()
	q := func(v float64) *float64 { return &v }

	tests := []struct {
		name       string
		qty        *float64
		unit       string
		hint       string
		wantMT     float64
		wantStatus domain.UnitStatus
	}{
		{"kilograms", q(25000), "KGS", "", 25, domain.UnitOK},
		{"tonnes", q(100), "MTS", "", 100, domain.UnitOK},
		{"quintals", q(50), "QTL", "", 5, domain.UnitOK},
		{"cashew bags", q(100), "BAGS", "raw cashew nuts", 8, domain.UnitOK},
		{"generic bags", q(100), "BAGS", "unknown produce", 5, domain.UnitAssumedBag},
		{"missing unit, kg magnitude", q(9000), "", "", 9, domain.UnitAssumedKG},
		{"missing unit, mt magnitude", q(150), "", "", 150, domain.UnitAssumedMT},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mt, status := snap.ConvertToMT(tt.qty, tt.unit, tt.hint)
			require.NotNil(t, mt)
			assert.InDelta(t, tt.wantMT, *mt, 1e-9)
			assert.Equal(t, tt.wantStatus, status)
		})
	}

	t.Run("unresolvable", func(t *testing.T) {
		mt, status := snap.ConvertToMT(q(1000), "", "")
		assert.Nil(t, mt)
		assert.Equal(t, domain.UnitUnresolvable, status)

		mt, status = snap.ConvertToMT(q(1000), "CARTONS", "")
		assert.Nil(t, mt)
		assert.Equal(t, domain.UnitUnresolvable, status)

		mt, status = snap.ConvertToMT(nil, "MT", "")
		assert.Nil(t, mt)
		assert.Equal(t, domain.UnitMissing, status)
	})
}

func TestClassify(t *testing.T) {
	snap := DefaultSnapshot()

	// Country-specific 8-digit mapping beats the wildcard prefix.
	m := snap.Classify("08013110", "INDIA")
	require.NotNil(t, m)
	assert.Equal(t, "HCT-0801-RCN-INSHELL", m.Entry.HCTID)
	assert.Equal(t, "HIGH", m.MatchConfidence)

	// Unknown reporting country falls back to the wildcard.
	m = snap.Classify("08013199", "BENIN")
	require.NotNil(t, m)
	assert.Equal(t, "HCT-0801-RCN-INSHELL", m.Entry.HCTID)

	// Longest prefix wins: 10063020 is basmati for India, not generic rice.
	m = snap.Classify("10063020", "INDIA")
	require.NotNil(t, m)
	assert.Equal(t, "HCT-1006-RICE-BASMATI", m.Entry.HCTID)

	m = snap.Classify("10064000", "INDIA")
	require.NotNil(t, m)
	assert.Equal(t, "HCT-1006-RICE-NONBASMATI", m.Entry.HCTID)

	assert.Nil(t, snap.Classify("99999999", "INDIA"))
	assert.Nil(t, snap.Classify("", "INDIA"))
}

func TestSeasonalWeight(t *testing.T) {
	snap := DefaultSnapshot()

	w, ok := snap.SeasonalWeight("HCT-0801-RCN-INSHELL", time.April)
	require.True(t, ok)
	assert.InDelta(t, 0.16, w, 1e-9)

	// No calendar configured: uniform weight, reported as such.
	w, ok = snap.SeasonalWeight("HCT-1801-COCOA", time.April)
	assert.False(t, ok)
	assert.InDelta(t, 1.0/12.0, w, 1e-9)
}

func TestBenchmarkFor(t *testing.T) {
	snap := DefaultSnapshot()
	snap.Benchmarks = map[string]float64{"HCT-0801-RCN-INSHELL|TUTICORIN": 1100}

	v, ok := snap.BenchmarkFor("HCT-0801-RCN-INSHELL", " tuticorin ")
	require.True(t, ok)
	assert.InDelta(t, 1100, v, 1e-9)

	_, ok = snap.BenchmarkFor("HCT-0801-RCN-INSHELL", "KANDLA")
	assert.False(t, ok)
}
