package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

func newTestResolver(seed ...domain.Entity) *Resolver {
	return NewResolver(Config{}, seed, nil)
}

func TestResolveIsIdempotent(t *testing.T) {
	r := newTestResolver()

	a := r.Resolve("OLAM INTERNATIONAL", "")
	b := r.Resolve("OLAM INTERNATIONAL", "")

	require.NotEmpty(t, a)
	assert.Equal(t, a, b)
	assert.Len(t, r.Entities(), 1)
}

func TestResolveStripsCorporateSuffixes(t *testing.T) {
	r := newTestResolver()

	a := r.Resolve("OLAM INTERNATIONAL", "")
	b := r.Resolve("Olam International Ltd.", "")
	c := r.Resolve("OLAM INTERNATIONAL PVT LTD", "")

	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
}

func TestResolveMergesSpellingDrift(t *testing.T) {
	r := newTestResolver()

	a := r.Resolve("GOLDEN AGRI RESOURCES", "")
	b := r.Resolve("GOLDEN AGRI RESURCES", "") // one dropped letter

	assert.Equal(t, a, b)

	e, ok := r.EntityByID(a)
	require.True(t, ok)
	assert.Equal(t, "GOLDEN AGRI RESOURCES", e.CanonicalName)
	assert.Contains(t, e.Aliases, "GOLDEN AGRI RESURCES")
}

func TestResolveNearMissCreatesEntityAndSignal(t *testing.T) {
	r := newTestResolver()
	var emitted []domain.Signal
	r.SetSignalSink(func(s domain.Signal) { emitted = append(emitted, s) })

	a := r.Resolve("CARGILL", "")
	// Scores in the review band against CARGILL: plausible but not safe
	// to merge automatically.
	b := r.Resolve("CARGIL INC", "")

	assert.NotEqual(t, a, b)
	require.Len(t, emitted, 1)
	assert.Equal(t, domain.SignalPossibleDuplicate, emitted[0].Type)
	assert.Equal(t, domain.SeverityLow, emitted[0].Severity)
	assert.Equal(t, b, emitted[0].Detail["new_entity_id"])
	assert.Equal(t, a, emitted[0].Detail["existing_entity_id"])
}

func TestResolveKeepsDistinctNamesApart(t *testing.T) {
	r := newTestResolver()
	var emitted []domain.Signal
	r.SetSignalSink(func(s domain.Signal) { emitted = append(emitted, s) })

	a := r.Resolve("BRAVO IMPORTS", "")
	b := r.Resolve("ZULU EXPORT HOUSE", "")

	assert.NotEqual(t, a, b)
	assert.Len(t, r.Entities(), 2)
	assert.Empty(t, emitted)
}

func TestResolveOverrideWins(t *testing.T) {
	r := newTestResolver()

	target := r.Resolve("ALPHA TRADING CO", "")
	r.AddOverride("TOTALLY DIFFERENT NAME", target)

	assert.Equal(t, target, r.Resolve("TOTALLY DIFFERENT NAME", ""))
}

func TestResolveExternalCode(t *testing.T) {
	r := newTestResolver()

	id := r.Resolve("ALPHA TRADING CO", "")
	r.RegisterCode("IEC-12345", id)

	// A wildly different declared name with the same registered code
	// still lands on the registered entity.
	assert.Equal(t, id, r.Resolve("UNRELATED SPELLING", "iec-12345"))
}

func TestResolveBindsFirstSeenCode(t *testing.T) {
	r := newTestResolver()

	// The first record carrying the code binds it; no RegisterCode call.
	id := r.Resolve("ALPHA TRADING CO", "IEC-777")

	// A dissimilar declared name with the same code lands on the bound
	// entity instead of minting a new one via the fuzzy path.
	assert.Equal(t, id, r.Resolve("COMPLETELY DIFFERENT HOUSE", "iec-777"))
	assert.Len(t, r.Entities(), 1)

	// A bound code is never reassigned by later resolutions.
	other := r.Resolve("ZULU EXPORT HOUSE", "")
	assert.NotEqual(t, id, other)
	r.Resolve("ZULU EXPORT HOUSE", "IEC-777")
	assert.Equal(t, id, r.Resolve("ANOTHER UNSEEN NAME", "IEC-777"))
}

func TestResolveEmptyName(t *testing.T) {
	r := newTestResolver()
	assert.Empty(t, r.Resolve("   ", ""))
	assert.Empty(t, r.Resolve("", "CODE-1"))
}

func TestResolverSeedRecognized(t *testing.T) {
	seed := domain.Entity{
		ID:            "ent-seed",
		CanonicalName: "DELTA COMMODITIES",
		Aliases:       []string{"DELTA COMMODITIES TRADING"},
		CreatedAt:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	r := newTestResolver(seed)

	assert.Equal(t, "ent-seed", r.Resolve("DELTA COMMODITIES", ""))
	assert.Equal(t, "ent-seed", r.Resolve("Delta Commodities Trading Ltd", ""))
}

func TestRecordCommodity(t *testing.T) {
	r := newTestResolver()
	id := r.Resolve("ALPHA TRADING CO", "")

	r.RecordCommodity(id, "HCT-0801-RCN-INSHELL")
	r.RecordCommodity(id, "HCT-0801-RCN-INSHELL")
	r.RecordCommodity(id, "HCT-1207-SESAME")

	e, ok := r.EntityByID(id)
	require.True(t, ok)
	assert.Equal(t, []string{"HCT-0801-RCN-INSHELL", "HCT-1207-SESAME"}, e.Commodities)
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Olam International Ltd.", "OLAM INTERNATIONAL"},
		{"ALPHA  TRADING   CO", "ALPHA TRADING"},
		{"ABIDJAN NUT EXPORTS S.A.R.L", "ABIDJAN NUT EXPORTS"},
		{"LTD", "LTD"}, // all stop tokens: keep rather than erase
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeName(tt.in), tt.in)
	}
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, similarity("CARGILL", "CARGILL"), 1e-9)
	// One edit across 21 characters.
	assert.InDelta(t, 1.0-1.0/21.0, similarity("GOLDEN AGRI RESOURCES", "GOLDEN AGRI RESURCES"), 1e-9)
	// Token overlap rescues reordered partial names.
	assert.InDelta(t, 2.0/3.0, similarity("OLAM AGRI", "AGRI OLAM INTERNATIONAL"), 1e-9)
	assert.Zero(t, similarity("", "CARGILL"))
}
