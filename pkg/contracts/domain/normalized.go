package domain

import "time"

// Incoterm is the resolved trade-term basis of a declared value.
type Incoterm string

const (
	IncotermFOB     Incoterm = "FOB"
	IncotermCIF     Incoterm = "CIF"
	IncotermUnknown Incoterm = "UNKNOWN"
)

// PriceStatus classifies the usability of a derived price.
type PriceStatus string

const (
	PriceNormal      PriceStatus = "NORMAL"
	PriceOutlier     PriceStatus = "OUTLIER"
	PriceMissing     PriceStatus = "MISSING"
	PriceSuspectLow  PriceStatus = "SUSPECT_LOW"
	PriceSuspectHigh PriceStatus = "SUSPECT_HIGH"
)

// Usable reports whether the price may contribute to price aggregates.
// Outliers are retained in the record stream; downstream aggregations
// decide whether to downweight them.
func (s PriceStatus) Usable() bool {
	return s == PriceNormal
}

// UnitStatus classifies the quantity conversion outcome.
type UnitStatus string

const (
	UnitOK           UnitStatus = "OK"
	UnitAssumedKG    UnitStatus = "ASSUMED_KG"
	UnitAssumedMT    UnitStatus = "ASSUMED_MT"
	UnitAssumedBag   UnitStatus = "ASSUMED_BAG_WEIGHT"
	UnitMissing      UnitStatus = "MISSING"
	UnitUnresolvable UnitStatus = "UNRESOLVABLE"
)

// Resolved reports whether a metric-tonne quantity was produced.
func (s UnitStatus) Resolved() bool {
	switch s {
	case UnitOK, UnitAssumedKG, UnitAssumedMT, UnitAssumedBag:
		return true
	}
	return false
}

// PriceSource labels which extraction path produced the USD price.
type PriceSource string

const (
	SourceFOBUSD        PriceSource = "FOB_USD"
	SourceTotalUSD      PriceSource = "TOTAL_VALUE_USD"
	SourceStdUnitPrice  PriceSource = "STD_UNIT_PRICE_X_QTY"
	SourceUnitPrice     PriceSource = "UNIT_PRICE_X_QTY"
	SourceLocalTotal    PriceSource = "LOCAL_TOTAL_CONVERTED"
	SourceLocalItemRate PriceSource = "LOCAL_ITEM_RATE_CONVERTED"
	SourceReferenceFX   PriceSource = "REFERENCE_FX_CONVERTED"
	SourceNone          PriceSource = "MISSING"
)

// FaultCode is a non-fatal, record-level degradation marker. Faults never
// drop a record: volume analytics must survive even when price analytics
// cannot.
type FaultCode string

const (
	FaultMissingPriceData  FaultCode = "MISSING_PRICE_DATA"
	FaultUnresolvableUnit  FaultCode = "UNRESOLVABLE_UNIT"
	FaultIncotermAmbiguous FaultCode = "INCOTERM_AMBIGUOUS"
	FaultBasisAssumed      FaultCode = "BASIS_ASSUMED"
	FaultOutlierPrice      FaultCode = "OUTLIER_PRICE"
	FaultUnclassifiedHS    FaultCode = "UNCLASSIFIED_HS_CODE"
	FaultReferenceStale    FaultCode = "REFERENCE_DATA_STALE"
)

// QualityEstimate is the structured output of the commodity-specific
// description parser combined with price-position heuristics.
type QualityEstimate struct {
	Grade       string   `json:"grade"`
	Confidence  float64  `json:"confidence"` // in [0,1]
	SignalsUsed []string `json:"signals_used,omitempty"`
	Details     string   `json:"details,omitempty"`
}

// NormalizedRecord is the one-to-one canonical derivative of a RawRecord.
//
// Invariant: FOBUSDPerMT and FOBUSDTotal are either both set with
// FOBUSDPerMT == FOBUSDTotal / QuantityMT (QuantityMT > 0), or the
// per-tonne price is nil. Unresolvable inputs yield nil, never a
// div-by-zero sentinel.
type NormalizedRecord struct {
	RecordID      string `json:"record_id"`
	DeclarationNo string `json:"declaration_no,omitempty"`
	BillNo        string `json:"bill_no,omitempty"`

	TradeDate    time.Time `json:"trade_date"`
	TradeType    TradeType `json:"trade_type"`
	TradeCountry string    `json:"trade_country"`

	Consignee         string `json:"consignee,omitempty"`
	Consignor         string `json:"consignor,omitempty"`
	ConsigneeCode     string `json:"consignee_code,omitempty"`
	ConsignorCode     string `json:"consignor_code,omitempty"`
	ConsigneeEntityID string `json:"consignee_entity_id,omitempty"`
	ConsignorEntityID string `json:"consignor_entity_id,omitempty"`

	OriginCountry      string `json:"origin_country,omitempty"`
	OriginPort         string `json:"origin_port,omitempty"`
	DestinationCountry string `json:"destination_country,omitempty"`
	DestinationPort    string `json:"destination_port,omitempty"`

	HSCode             string  `json:"hs_code,omitempty"`
	HSCode2            string  `json:"hs_code_2,omitempty"`
	HSCode4            string  `json:"hs_code_4,omitempty"`
	HCTID              string  `json:"hct_id,omitempty"`
	HCTName            string  `json:"hct_name"`
	HCTGroup           string  `json:"hct_group"`
	ProductDescription string  `json:"product_description,omitempty"`

	QuantityMT       *float64   `json:"quantity_mt,omitempty"`
	QuantityOriginal *float64   `json:"quantity_original,omitempty"`
	UnitOriginal     string     `json:"unit_original,omitempty"`
	UnitStatus       UnitStatus `json:"unit_status"`

	FOBUSDTotal      *float64    `json:"fob_usd_total,omitempty"`
	FOBUSDPerMT      *float64    `json:"fob_usd_per_mt,omitempty"`
	DeclaredIncoterm Incoterm    `json:"declared_incoterm"`
	PriceSource      PriceSource `json:"price_source"`
	PriceStatus      PriceStatus `json:"price_status"`
	CurrencyOriginal string      `json:"currency_original,omitempty"`

	Quality QualityEstimate `json:"quality_estimate"`

	// Normalization metadata: what was deducted to reach FOB.
	FreightDeductedUSD     *float64 `json:"freight_deducted_usd,omitempty"`
	InsuranceDeductedUSD   *float64 `json:"insurance_deducted_usd,omitempty"`
	PortChargesDeductedUSD *float64 `json:"port_charges_deducted_usd,omitempty"`

	Faults          []FaultCode `json:"faults,omitempty"`
	SnapshotVersion string      `json:"snapshot_version"`
	NormalizedAt    time.Time   `json:"normalized_at"`
}

// HasFault reports whether the record carries the given fault code.
func (n NormalizedRecord) HasFault(code FaultCode) bool {
	for _, f := range n.Faults {
		if f == code {
			return true
		}
	}
	return false
}

// PriceConsistent verifies the per-tonne/total/quantity invariant.
func (n NormalizedRecord) PriceConsistent() bool {
	if n.FOBUSDPerMT == nil {
		return true
	}
	if n.FOBUSDTotal == nil || n.QuantityMT == nil || *n.QuantityMT <= 0 {
		return false
	}
	diff := *n.FOBUSDPerMT - *n.FOBUSDTotal / *n.QuantityMT
	return diff < 1e-9 && diff > -1e-9
}
