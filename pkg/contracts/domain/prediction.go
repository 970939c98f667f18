package domain

import "time"

// Direction is the predicted price direction.
type Direction string

const (
	DirectionUp      Direction = "UP"
	DirectionDown    Direction = "DOWN"
	DirectionNeutral Direction = "NEUTRAL"
)

// FeatureVector is the fixed per-(commodity, corridor, date) input to
// the directional predictor. Features are computed and stored even while
// the predictor is still in observation mode.
type FeatureVector struct {
	HCTID    string    `json:"hct_id"`
	Corridor string    `json:"corridor"`
	Date     time.Time `json:"date"`

	// Flow features.
	FVIRaw      *float64 `json:"fvi_raw,omitempty"`
	FVIAdjusted *float64 `json:"fvi_adjusted,omitempty"`

	// Price features.
	IPCUSDPerMT     *float64 `json:"ipc_usd_per_mt,omitempty"`
	IPCChange7dPct  *float64 `json:"ipc_change_7d_pct,omitempty"`
	PriceDispersion *float64 `json:"price_dispersion,omitempty"` // IQR/median

	// Basis and structure features.
	BasisUSDPerMT *float64 `json:"basis_usd_per_mt,omitempty"`
	CSSScore      *float64 `json:"css_score,omitempty"`

	// Supply/demand and seasonal features.
	SDDeltaPct     *float64 `json:"sd_delta_pct,omitempty"`
	SeasonalWeight *float64 `json:"seasonal_weight,omitempty"`

	// Volume features.
	VolumeRecentMT float64 `json:"volume_recent_mt"`
	SampleCount    int     `json:"sample_count"`
}

// Prediction is a direction/magnitude/confidence/horizon tuple. It is
// only emitted once the commodity has accumulated the configured minimum
// history; before that the predictor stores features and returns nothing.
type Prediction struct {
	HCTID        string    `json:"hct_id"`
	Corridor     string    `json:"corridor"`
	Date         time.Time `json:"date"`
	Direction    Direction `json:"direction"`
	MagnitudePct float64   `json:"magnitude_pct"`
	Confidence   float64   `json:"confidence"` // in [0,1]
	HorizonDays  int       `json:"horizon_days"`
}
