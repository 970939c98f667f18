package domain

import "time"

// Confidence grades the statistical reliability of a metric output.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
	ConfidenceNone   Confidence = "NONE"
)

// Rank orders confidence levels for comparisons (higher is better).
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	}
	return 0
}

// IPCPoint is one implied-price observation for a commodity×origin pair
// on a given date. Rows are overwritten only by reprocessing the same
// window; the computation is idempotent.
type IPCPoint struct {
	HCTID         string     `json:"hct_id"`
	OriginCountry string     `json:"origin_country"`
	Incoterm      Incoterm   `json:"incoterm"`
	Date          time.Time  `json:"date"`
	PriceUSDPerMT *float64   `json:"price_usd_per_mt,omitempty"`
	Confidence    Confidence `json:"confidence"`
	// DirectionalOnly marks results below the minimum sample count that
	// are still returned for trend reading but must not be quoted.
	DirectionalOnly bool      `json:"directional_only,omitempty"`
	SampleCount     int       `json:"sample_count"`
	VolumeMT        float64   `json:"volume_mt"`
	PriceIQR        *float64  `json:"price_iqr,omitempty"`
	PriceMin        *float64  `json:"price_min,omitempty"`
	PriceMax        *float64  `json:"price_max,omitempty"`
	PriceMean       *float64  `json:"price_mean,omitempty"`
	WindowStart     time.Time `json:"window_start"`
	WindowEnd       time.Time `json:"window_end"`
}

// FVISignal is the fixed severity ladder for flow velocity readings.
type FVISignal string

const (
	FVIStrongAcceleration   FVISignal = "STRONG_ACCELERATION"
	FVIModerateAcceleration FVISignal = "MODERATE_ACCELERATION"
	FVINormal               FVISignal = "NORMAL"
	FVIModerateDeceleration FVISignal = "MODERATE_DECELERATION"
	FVISevereDeceleration   FVISignal = "SEVERE_DECELERATION"
	FVINoBaseline           FVISignal = "NO_BASELINE"
	FVINoData               FVISignal = "NO_DATA"
)

// FVIPoint is a flow-velocity observation for a commodity corridor.
type FVIPoint struct {
	HCTID              string    `json:"hct_id"`
	OriginCountry      string    `json:"origin_country"`
	DestinationCountry string    `json:"destination_country,omitempty"`
	Date               time.Time `json:"date"`
	Raw                *float64  `json:"fvi_raw,omitempty"`
	Adjusted           *float64  `json:"fvi_adjusted,omitempty"`
	SeasonalFactor     *float64  `json:"seasonal_factor,omitempty"`
	Signal             FVISignal `json:"signal"`
	SignalAdjusted     FVISignal `json:"signal_adjusted,omitempty"`
	VolumeRecentMT     float64   `json:"volume_recent_mt"`
	VolumeBaselineMT   float64   `json:"volume_baseline_mt"`
	RecordsRecent      int       `json:"n_records_recent"`
	RecordsBaseline    int       `json:"n_records_baseline"`
}

// CSSPoint tracks origin-concentration change for a commodity: the ratio
// of the current-period HHI of origin shares to the same-quarter-prior-
// year HHI. A rising score signals tightening supply concentration.
type CSSPoint struct {
	HCTID        string    `json:"hct_id"`
	Date         time.Time `json:"date"`
	Score        *float64  `json:"score,omitempty"`
	CurrentHHI   float64   `json:"current_hhi"`
	PriorYearHHI float64   `json:"prior_year_hhi"`
	OriginCount  int       `json:"origin_count"`
}

// FABPoint is the freight-adjusted basis for a corridor: reconstructed
// CIF versus a published benchmark where one exists. For commodities
// with no benchmark the reconstructed CIF is the benchmark.
type FABPoint struct {
	HCTID               string     `json:"hct_id"`
	OriginCountry       string     `json:"origin_country"`
	OriginPort          string     `json:"origin_port"`
	DestinationPort     string     `json:"destination_port"`
	Date                time.Time  `json:"date"`
	FOBUSDPerMT         *float64   `json:"fob_usd_per_mt,omitempty"`
	FreightUSDPerMT     *float64   `json:"freight_usd_per_mt,omitempty"`
	InsuranceUSDPerMT   *float64   `json:"insurance_usd_per_mt,omitempty"`
	PortChargesUSDPerMT *float64   `json:"port_charges_usd_per_mt,omitempty"`
	ImpliedCIFUSDPerMT  *float64   `json:"implied_cif_usd_per_mt,omitempty"`
	BenchmarkUSDPerMT   *float64   `json:"benchmark_usd_per_mt,omitempty"`
	BasisUSDPerMT       *float64   `json:"basis_usd_per_mt,omitempty"`
	Confidence          Confidence `json:"confidence"`
	SampleCount         int        `json:"sample_count"`
}

// SDSignal is the supply/demand divergence ladder.
type SDSignal string

const (
	SDOverShipping  SDSignal = "OVER_SHIPPING"
	SDSlightlyOver  SDSignal = "SLIGHTLY_OVER"
	SDOnTrack       SDSignal = "ON_TRACK"
	SDSlightlyUnder SDSignal = "SLIGHTLY_UNDER"
	SDUnderShipping SDSignal = "UNDER_SHIPPING"
)

// CountryVolume is one row of an origin breakdown.
type CountryVolume struct {
	Country  string  `json:"country"`
	VolumeMT float64 `json:"volume_mt"`
	SharePct float64 `json:"share_pct"`
}

// SDTrackerEntry compares actual cumulative trade flow against a
// consensus estimate pro-rated by elapsed crop-year fraction.
type SDTrackerEntry struct {
	HCTID                string          `json:"hct_id"`
	Country              string          `json:"country"`
	Date                 time.Time       `json:"date"`
	ActualCumulativeMT   float64         `json:"actual_cumulative_mt"`
	ExpectedCumulativeMT float64         `json:"expected_cumulative_mt"`
	DeltaMT              float64         `json:"delta_mt"`
	DeltaPct             float64         `json:"delta_pct"`
	ConsensusAnnualMT    float64         `json:"consensus_annual_mt"`
	CropYearProgressPct  float64         `json:"crop_year_progress_pct"`
	Signal               SDSignal        `json:"signal"`
	Implication          string          `json:"implication"`
	CountryBreakdown     []CountryVolume `json:"country_breakdown,omitempty"`
	RecordCount          int             `json:"record_count"`
}

// GroundPriceObservation is an externally captured calibration anchor.
// It is consumed, never produced, by this engine.
type GroundPriceObservation struct {
	HCTID         string    `json:"hct_id"`
	PriceUSDPerMT float64   `json:"price_usd_per_mt"`
	Incoterm      Incoterm  `json:"incoterm"`
	Location      string    `json:"location"`
	Confidence    float64   `json:"confidence"`
	SourceType    string    `json:"source_type"`
	Date          time.Time `json:"date"`
}
