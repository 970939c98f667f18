package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sri0310-dev/tesseract/internal/entity"
	"github.com/sri0310-dev/tesseract/internal/metrics"
	"github.com/sri0310-dev/tesseract/internal/normalizer"
	"github.com/sri0310-dev/tesseract/internal/predictor"
	"github.com/sri0310-dev/tesseract/internal/refdata"
	"github.com/sri0310-dev/tesseract/internal/signals"
	"github.com/sri0310-dev/tesseract/internal/store"
	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

// capturingStore keeps the records Ingest persists so tests can inspect
// the resolved output.
type capturingStore struct {
	store.NopStore
	records []domain.NormalizedRecord
}

func (s *capturingStore) UpsertRecords(ctx context.Context, records []domain.NormalizedRecord) error {
	s.records = append(s.records, records...)
	return nil
}

func newTestService(t *testing.T, st store.Store) *Service {
	t.Helper()
	provider, err := refdata.NewProvider(refdata.DefaultSnapshot(), nil)
	require.NoError(t, err)
	return New(
		normalizer.New(normalizer.Options{}, nil),
		entity.NewResolver(entity.Config{}, nil, nil),
		metrics.NewEngine(metrics.Config{}, nil),
		signals.NewGenerator(signals.Config{}, nil),
		signals.NewTracker(signals.TrackerConfig{}),
		predictor.New(predictor.Config{}, nil),
		provider,
		st,
		nil,
		nil,
	)
}

func TestIngestResolvesPartiesByCode(t *testing.T) {
	st := &capturingStore{}
	svc := newTestService(t, st)

	// Two declarations from the same importer under names the fuzzy
	// matcher would never merge, tied together by the provider's stable
	// party code.
	raws := []domain.RawRecord{
		{
			RecordID:     "r1",
			ImporterName: "VKC NUTS PRIVATE LIMITED",
			PartyCode:    "IEC-0312045678",
			TradeDate:    "2025-05-10",
			TradeType:    domain.TradeTypeImport,
			TradeCountry: "INDIA",
			HSCode:       "8013100",
		},
		{
			RecordID:     "r2",
			ImporterName: "V K C",
			PartyCode:    "IEC-0312045678",
			TradeDate:    "2025-05-11",
			TradeType:    domain.TradeTypeImport,
			TradeCountry: "INDIA",
			HSCode:       "8013100",
		},
	}

	summary, err := svc.Ingest(context.Background(), raws)
	require.NoError(t, err)
	require.Len(t, st.records, 2)

	assert.NotEmpty(t, st.records[0].ConsigneeEntityID)
	assert.Equal(t, st.records[0].ConsigneeEntityID, st.records[1].ConsigneeEntityID)
	assert.Equal(t, "IEC-0312045678", st.records[0].ConsigneeCode)
	assert.Equal(t, 1, summary.EntitiesCreated)
	assert.Equal(t, 1, summary.EntitiesTotal)
}

func TestIngestCountsNewEntities(t *testing.T) {
	st := &capturingStore{}
	svc := newTestService(t, st)

	first, err := svc.Ingest(context.Background(), []domain.RawRecord{{
		RecordID:     "r1",
		ImporterName: "BRAVO IMPORTS",
		SupplierName: "ABIDJAN NUT EXPORTS",
		TradeDate:    "2025-05-10",
		TradeType:    domain.TradeTypeImport,
		TradeCountry: "INDIA",
	}})
	require.NoError(t, err)
	assert.Equal(t, 2, first.EntitiesCreated)
	assert.Equal(t, 2, first.EntitiesTotal)

	// A repeat batch resolves onto the existing entities.
	second, err := svc.Ingest(context.Background(), []domain.RawRecord{{
		RecordID:     "r2",
		ImporterName: "BRAVO IMPORTS LTD",
		SupplierName: "ABIDJAN NUT EXPORTS",
		TradeDate:    "2025-05-12",
		TradeType:    domain.TradeTypeImport,
		TradeCountry: "INDIA",
	}})
	require.NoError(t, err)
	assert.Equal(t, 0, second.EntitiesCreated)
	assert.Equal(t, 2, second.EntitiesTotal)
}
