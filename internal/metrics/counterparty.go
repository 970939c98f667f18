package metrics

import (
	"sort"
	"time"

	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

// PartyRole selects which side of the trade to aggregate.
type PartyRole string

const (
	RoleConsignee PartyRole = "CONSIGNEE"
	RoleConsignor PartyRole = "CONSIGNOR"
)

// CounterpartyShare is one counterparty's slice of a commodity's flow.
type CounterpartyShare struct {
	EntityID    string  `json:"entity_id,omitempty"`
	Name        string  `json:"name"`
	VolumeMT    float64 `json:"volume_mt"`
	SharePct    float64 `json:"share_pct"`
	RecordCount int     `json:"record_count"`
}

// AnomalyKind classifies a counterparty structure change.
type AnomalyKind string

const (
	AnomalyNewEntrant  AnomalyKind = "NEW_ENTRANT"
	AnomalyWithdrawal  AnomalyKind = "WITHDRAWAL"
	AnomalyVolumeSurge AnomalyKind = "VOLUME_SURGE"
)

// CounterpartyAnomaly is a structural change worth surfacing.
type CounterpartyAnomaly struct {
	Kind              AnomalyKind `json:"kind"`
	EntityID          string      `json:"entity_id,omitempty"`
	Name              string      `json:"name"`
	HCTID             string      `json:"hct_id"`
	CurrentVolumeMT   float64     `json:"current_volume_mt"`
	BaselineVolumeMT  float64     `json:"baseline_volume_mt"`
	HistoricalSharePct float64    `json:"historical_share_pct,omitempty"`
}

// MarketShares aggregates volume by counterparty for a commodity over
// [start, end). Rows are keyed by resolved entity id where the record
// carries one, falling back to the raw declared name, and sorted by
// volume descending.
func (e *Engine) MarketShares(recs []domain.NormalizedRecord, hctID string, role PartyRole, start, end time.Time) []CounterpartyShare {
	type agg struct {
		name    string
		volume  float64
		records int
	}
	byKey := make(map[string]*agg)
	total := 0.0
	for _, r := range scope(recs, hctID, "", "", start, end) {
		key, name := partyKey(r, role)
		if key == "" {
			continue
		}
		a, ok := byKey[key]
		if !ok {
			a = &agg{name: name}
			byKey[key] = a
		}
		a.records++
		if r.QuantityMT != nil {
			a.volume += *r.QuantityMT
			total += *r.QuantityMT
		}
	}

	out := make([]CounterpartyShare, 0, len(byKey))
	for key, a := range byKey {
		row := CounterpartyShare{Name: a.name, VolumeMT: a.volume, RecordCount: a.records}
		if key != a.name {
			row.EntityID = key
		}
		if total > 0 {
			row.SharePct = a.volume / total * 100
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].VolumeMT == out[j].VolumeMT {
			return out[i].Name < out[j].Name
		}
		return out[i].VolumeMT > out[j].VolumeMT
	})
	return out
}

// DetectAnomalies compares the current month against the trailing year:
// entrants with no prior history, withdrawals of parties that held a
// meaningful historical share, and monthly volume surges over the
// trailing monthly average.
func (e *Engine) DetectAnomalies(recs []domain.NormalizedRecord, hctID string, role PartyRole, date time.Time) []CounterpartyAnomaly {
	monthStart := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := day(date).AddDate(0, 0, 1)
	histStart := monthStart.AddDate(-1, 0, 0)

	current := e.MarketShares(recs, hctID, role, monthStart, end)
	history := e.MarketShares(recs, hctID, role, histStart, monthStart)

	histByKey := make(map[string]CounterpartyShare, len(history))
	for _, h := range history {
		histByKey[shareKey(h)] = h
	}
	currByKey := make(map[string]CounterpartyShare, len(current))
	for _, c := range current {
		currByKey[shareKey(c)] = c
	}

	var out []CounterpartyAnomaly
	for _, c := range current {
		h, seen := histByKey[shareKey(c)]
		if !seen {
			out = append(out, CounterpartyAnomaly{
				Kind:            AnomalyNewEntrant,
				EntityID:        c.EntityID,
				Name:            c.Name,
				HCTID:           hctID,
				CurrentVolumeMT: c.VolumeMT,
			})
			continue
		}
		monthlyAvg := h.VolumeMT / 12
		if monthlyAvg > 0 && c.VolumeMT > e.cfg.SurgeMultiplier*monthlyAvg {
			out = append(out, CounterpartyAnomaly{
				Kind:             AnomalyVolumeSurge,
				EntityID:         c.EntityID,
				Name:             c.Name,
				HCTID:            hctID,
				CurrentVolumeMT:  c.VolumeMT,
				BaselineVolumeMT: monthlyAvg,
			})
		}
	}
	for _, h := range history {
		if _, active := currByKey[shareKey(h)]; active {
			continue
		}
		if h.SharePct >= e.cfg.WithdrawalSharePct {
			out = append(out, CounterpartyAnomaly{
				Kind:               AnomalyWithdrawal,
				EntityID:           h.EntityID,
				Name:               h.Name,
				HCTID:              hctID,
				BaselineVolumeMT:   h.VolumeMT,
				HistoricalSharePct: h.SharePct,
			})
		}
	}
	return out
}

// OriginSwitch records a counterparty whose dominant sourcing origin
// changed between the prior and current period.
type OriginSwitch struct {
	EntityID   string `json:"entity_id,omitempty"`
	Name       string `json:"name"`
	HCTID      string `json:"hct_id"`
	FromOrigin string `json:"from_origin"`
	ToOrigin   string `json:"to_origin"`
}

// DetectOriginSwitching finds counterparties whose top origin in the
// trailing quarter differs from their top origin in the quarter before.
func (e *Engine) DetectOriginSwitching(recs []domain.NormalizedRecord, hctID string, role PartyRole, date time.Time) []OriginSwitch {
	end := day(date).AddDate(0, 0, 1)
	mid := end.AddDate(0, -3, 0)
	start := mid.AddDate(0, -3, 0)

	currTop := topOriginByParty(scope(recs, hctID, "", "", mid, end), role)
	priorTop := topOriginByParty(scope(recs, hctID, "", "", start, mid), role)

	var out []OriginSwitch
	for key, curr := range currTop {
		prior, ok := priorTop[key]
		if !ok || prior.origin == curr.origin || prior.origin == "" || curr.origin == "" {
			continue
		}
		sw := OriginSwitch{Name: curr.name, HCTID: hctID, FromOrigin: prior.origin, ToOrigin: curr.origin}
		if key != curr.name {
			sw.EntityID = key
		}
		out = append(out, sw)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

type topOrigin struct {
	name   string
	origin string
}

func topOriginByParty(recs []domain.NormalizedRecord, role PartyRole) map[string]topOrigin {
	type key struct{ party, origin string }
	vols := make(map[key]float64)
	names := make(map[string]string)
	for _, r := range recs {
		pk, name := partyKey(r, role)
		if pk == "" || r.OriginCountry == "" || r.QuantityMT == nil {
			continue
		}
		vols[key{pk, r.OriginCountry}] += *r.QuantityMT
		names[pk] = name
	}
	best := make(map[string]topOrigin)
	bestVol := make(map[string]float64)
	for k, v := range vols {
		if v > bestVol[k.party] || (v == bestVol[k.party] && k.origin < best[k.party].origin) {
			best[k.party] = topOrigin{name: names[k.party], origin: k.origin}
			bestVol[k.party] = v
		}
	}
	return best
}

func partyKey(r domain.NormalizedRecord, role PartyRole) (key, name string) {
	switch role {
	case RoleConsignor:
		name = r.Consignor
		key = r.ConsignorEntityID
	default:
		name = r.Consignee
		key = r.ConsigneeEntityID
	}
	if key == "" {
		key = name
	}
	return key, name
}

func shareKey(s CounterpartyShare) string {
	if s.EntityID != "" {
		return s.EntityID
	}
	return s.Name
}
