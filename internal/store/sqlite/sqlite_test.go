package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func storedRecord(id string, date time.Time, price float64) domain.NormalizedRecord {
	qty := 100.0
	total := price * qty
	return domain.NormalizedRecord{
		RecordID:      id,
		HCTID:         "HCT-0801-RCN-INSHELL",
		OriginCountry: "IVORY COAST",
		TradeDate:     date,
		QuantityMT:    &qty,
		FOBUSDTotal:   &total,
		FOBUSDPerMT:   &price,
		PriceStatus:   domain.PriceNormal,
	}
}

func TestNewRequiresPath(t *testing.T) {
	_, err := New("")
	require.Error(t, err)
}

func TestRecordsRoundTrip(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	recs := []domain.NormalizedRecord{
		storedRecord("A", time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC), 1000),
		storedRecord("B", time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC), 1010),
	}
	require.NoError(t, st.UpsertRecords(ctx, recs))

	got, err := st.ListRecords(ctx, "HCT-0801-RCN-INSHELL",
		time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].RecordID)
	require.NotNil(t, got[0].FOBUSDPerMT)
	assert.InDelta(t, 1000, *got[0].FOBUSDPerMT, 1e-9)

	// Re-upserting the same id overwrites instead of duplicating.
	recs[0].OriginCountry = "GHANA"
	require.NoError(t, st.UpsertRecords(ctx, recs[:1]))
	got, err = st.ListRecords(ctx, "HCT-0801-RCN-INSHELL",
		time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "GHANA", got[0].OriginCountry)
}

func TestListRecordsFiltersByDateAndCommodity(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	inRange := storedRecord("A", time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC), 1000)
	outOfRange := storedRecord("B", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), 1000)
	otherHCT := storedRecord("C", time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC), 1000)
	otherHCT.HCTID = "HCT-1207-SESAME"
	require.NoError(t, st.UpsertRecords(ctx, []domain.NormalizedRecord{inRange, outOfRange, otherHCT}))

	got, err := st.ListRecords(ctx, "HCT-0801-RCN-INSHELL",
		time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].RecordID)
}

func TestIPCPointsRoundTrip(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	price := 998.60
	p := domain.IPCPoint{
		HCTID:         "HCT-0801-RCN-INSHELL",
		OriginCountry: "IVORY COAST",
		Date:          time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC),
		PriceUSDPerMT: &price,
		SampleCount:   8,
		Confidence:    domain.ConfidenceMedium,
	}
	require.NoError(t, st.UpsertIPCPoints(ctx, []domain.IPCPoint{p}))

	// Same key upserts in place.
	price2 := 1001.0
	p.PriceUSDPerMT = &price2
	require.NoError(t, st.UpsertIPCPoints(ctx, []domain.IPCPoint{p}))

	got, err := st.ListIPCPoints(ctx, "HCT-0801-RCN-INSHELL", "IVORY COAST",
		time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].PriceUSDPerMT)
	assert.InDelta(t, 1001.0, *got[0].PriceUSDPerMT, 1e-9)
	assert.Equal(t, domain.ConfidenceMedium, got[0].Confidence)
}

func TestSignalsLifecycle(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	sig := domain.Signal{
		ID:        "sig-1",
		Type:      domain.SignalFlowVelocity,
		Severity:  domain.SeverityHigh,
		Headline:  "flows accelerating",
		HCTID:     "HCT-0801-RCN-INSHELL",
		EmittedAt: time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, st.InsertSignals(ctx, []domain.Signal{sig}))
	// Duplicate ids are ignored, not errors.
	require.NoError(t, st.InsertSignals(ctx, []domain.Signal{sig}))

	got, err := st.ListSignals(ctx, "", time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].Acknowledged)

	ok, err := st.AcknowledgeSignal(ctx, "sig-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = st.AcknowledgeSignal(ctx, "sig-unknown")
	require.NoError(t, err)
	assert.False(t, ok)

	got, err = st.ListSignals(ctx, "HCT-0801-RCN-INSHELL", time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Acknowledged)

	// Commodity filter excludes others.
	got, err = st.ListSignals(ctx, "HCT-1207-SESAME", time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEntitiesRoundTrip(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	entities := []domain.Entity{
		{
			ID:            "ent-1",
			CanonicalName: "ALPHA TRADING CO",
			Aliases:       []string{"ALPHA TRADING COMPANY"},
			CreatedAt:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:            "ent-2",
			CanonicalName: "BRAVO IMPORTS",
			CreatedAt:     time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	require.NoError(t, st.UpsertEntities(ctx, entities))

	got, err := st.ListEntities(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ent-1", got[0].ID)
	assert.Equal(t, []string{"ALPHA TRADING COMPANY"}, got[0].Aliases)

	// Alias growth persists through re-upsert.
	entities[0].Aliases = append(entities[0].Aliases, "ALPHA TRDG")
	require.NoError(t, st.UpsertEntities(ctx, entities[:1]))
	got, err = st.ListEntities(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Len(t, got[0].Aliases, 2)
}
