package domain

import "time"

// EntityClass categorizes a counterparty by its role in the trade.
type EntityClass string

const (
	EntityMajorTrader    EntityClass = "MAJOR_TRADER"
	EntityRegionalTrader EntityClass = "REGIONAL_TRADER"
	EntityProcessor      EntityClass = "PROCESSOR"
	EntityEndUser        EntityClass = "END_USER"
	EntityGovernment     EntityClass = "GOVERNMENT"
	EntityUnclassified   EntityClass = "UNCLASSIFIED"
)

// Entity is a canonical counterparty. Aliases are appended as new
// spellings are observed and are never reassigned across entities; an
// alias, once bound, is immutable. Correcting a bad automatic match
// requires a manual override, not silent reassignment.
type Entity struct {
	ID            string      `json:"id"`
	CanonicalName string      `json:"canonical_name"`
	Aliases       []string    `json:"aliases,omitempty"`
	Class         EntityClass `json:"class"`
	Commodities   []string    `json:"commodities,omitempty"` // HCT ids historically traded
	CreatedAt     time.Time   `json:"created_at"`
}

// EntityActivity is a per-entity aggregate over a period, exposed to the
// UI/API layer alongside the entity graph.
type EntityActivity struct {
	EntityID       string   `json:"entity_id"`
	EntityName     string   `json:"entity_name"`
	VolumeMT       float64  `json:"volume_mt"`
	ValueUSD       float64  `json:"value_usd"`
	Shipments      int      `json:"shipments"`
	MarketSharePct float64  `json:"market_share_pct"`
	AvgPricePerMT  *float64 `json:"avg_price_per_mt,omitempty"`
	TopOrigins     []string `json:"top_origins,omitempty"`
	TopGrades      []string `json:"top_grades,omitempty"`
	TopPorts       []string `json:"top_ports,omitempty"`
}
