package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

func buy(name, origin string, date time.Time, qty float64) domain.NormalizedRecord {
	r := rec(origin, "", date, 0, qty)
	r.Consignee = name
	return r
}

func TestMarketShares(t *testing.T) {
	e := NewEngine(Config{}, nil)

	resolved := buy("ALPHA TRADING CO", "IVORY COAST", d(2025, 5, 3), 60)
	resolved.ConsigneeEntityID = "ent-alpha"
	alias := buy("ALPHA TRADING COMPANY LTD", "IVORY COAST", d(2025, 5, 5), 20)
	alias.ConsigneeEntityID = "ent-alpha"
	recs := []domain.NormalizedRecord{
		resolved,
		alias,
		buy("BRAVO IMPORTS", "GHANA", d(2025, 5, 4), 20),
	}

	shares := e.MarketShares(recs, testHCT, RoleConsignee, d(2025, 5, 1), d(2025, 6, 1))

	require.Len(t, shares, 2)
	// Aliases resolved to the same entity aggregate into one row.
	assert.Equal(t, "ent-alpha", shares[0].EntityID)
	assert.InDelta(t, 80, shares[0].VolumeMT, 1e-9)
	assert.InDelta(t, 80, shares[0].SharePct, 1e-9)
	assert.Equal(t, 2, shares[0].RecordCount)

	assert.Equal(t, "BRAVO IMPORTS", shares[1].Name)
	assert.Empty(t, shares[1].EntityID)
	assert.InDelta(t, 20, shares[1].SharePct, 1e-9)
}

func TestDetectAnomalies(t *testing.T) {
	e := NewEngine(Config{}, nil)

	var recs []domain.NormalizedRecord
	// A year of steady history for two incumbents.
	for m := 0; m < 12; m++ {
		when := d(2024, 5, 15).AddDate(0, m, 0)
		recs = append(recs,
			buy("ALPHA TRADING CO", "IVORY COAST", when, 100),
			buy("BRAVO IMPORTS", "IVORY COAST", when, 100),
		)
	}
	// A party that used to matter and went quiet.
	recs = append(recs, buy("DELTA COMMODITIES", "IVORY COAST", d(2024, 9, 10), 100))
	// A party too small for its absence to mean anything.
	recs = append(recs, buy("ECHO AGENCIES", "IVORY COAST", d(2024, 9, 11), 10))
	// Current month: Alpha steady, Bravo surging, Charlie brand new.
	recs = append(recs,
		buy("ALPHA TRADING CO", "IVORY COAST", d(2025, 5, 6), 150),
		buy("BRAVO IMPORTS", "IVORY COAST", d(2025, 5, 7), 250),
		buy("CHARLIE VENTURES", "IVORY COAST", d(2025, 5, 8), 40),
	)

	anomalies := e.DetectAnomalies(recs, testHCT, RoleConsignee, d(2025, 5, 10))

	byKind := make(map[AnomalyKind][]CounterpartyAnomaly)
	for _, a := range anomalies {
		byKind[a.Kind] = append(byKind[a.Kind], a)
	}

	require.Len(t, byKind[AnomalyNewEntrant], 1)
	assert.Equal(t, "CHARLIE VENTURES", byKind[AnomalyNewEntrant][0].Name)
	assert.InDelta(t, 40, byKind[AnomalyNewEntrant][0].CurrentVolumeMT, 1e-9)

	require.Len(t, byKind[AnomalyVolumeSurge], 1)
	assert.Equal(t, "BRAVO IMPORTS", byKind[AnomalyVolumeSurge][0].Name)
	assert.InDelta(t, 100, byKind[AnomalyVolumeSurge][0].BaselineVolumeMT, 1e-9)

	require.Len(t, byKind[AnomalyWithdrawal], 1)
	assert.Equal(t, "DELTA COMMODITIES", byKind[AnomalyWithdrawal][0].Name)
	assert.Greater(t, byKind[AnomalyWithdrawal][0].HistoricalSharePct, 3.0)
}

func TestDetectOriginSwitching(t *testing.T) {
	e := NewEngine(Config{}, nil)

	recs := []domain.NormalizedRecord{
		// Prior quarter: Alpha sourced from Ghana, Bravo from Ivory Coast.
		buy("ALPHA TRADING CO", "GHANA", d(2024, 12, 10), 100),
		buy("ALPHA TRADING CO", "GHANA", d(2025, 1, 15), 100),
		buy("ALPHA TRADING CO", "IVORY COAST", d(2025, 1, 20), 30),
		buy("BRAVO IMPORTS", "IVORY COAST", d(2025, 1, 5), 100),
		// Current quarter: Alpha flipped, Bravo stayed put.
		buy("ALPHA TRADING CO", "IVORY COAST", d(2025, 3, 10), 120),
		buy("ALPHA TRADING CO", "GHANA", d(2025, 4, 1), 20),
		buy("BRAVO IMPORTS", "IVORY COAST", d(2025, 4, 5), 100),
	}

	switches := e.DetectOriginSwitching(recs, testHCT, RoleConsignee, d(2025, 5, 10))

	require.Len(t, switches, 1)
	assert.Equal(t, "ALPHA TRADING CO", switches[0].Name)
	assert.Equal(t, "GHANA", switches[0].FromOrigin)
	assert.Equal(t, "IVORY COAST", switches[0].ToOrigin)
}
