package domain

import (
	"strings"
	"time"
)

// TradeType identifies the reporting direction of a customs declaration.
type TradeType string

const (
	TradeTypeExport TradeType = "EXPORT"
	TradeTypeImport TradeType = "IMPORT"
)

// RawRecord is a single customs declaration exactly as received from the
// upstream provider. It is immutable after ingestion; every derived
// artifact references it by RecordID. Optional numeric fields are pointers
// because the provider omits them inconsistently across trade types and
// reporting countries.
type RawRecord struct {
	RecordID      string `json:"record_id" validate:"required"`
	DeclarationNo string `json:"declaration_no,omitempty"`
	BillNo        string `json:"bill_no,omitempty"`

	// Parties. Import records carry importer/supplier, export records
	// carry exporter/buyer; the normalizer maps them to consignee and
	// consignor based on trade direction.
	ImporterName string `json:"importer_name,omitempty"`
	ExporterName string `json:"exporter_name,omitempty"`
	SupplierName string `json:"supplier_name,omitempty"`
	BuyerName    string `json:"buyer_name,omitempty"`
	PartyCode    string `json:"party_code,omitempty"` // stable external entity code, rarely present

	// Geography.
	OriginCountry      string `json:"origin_country,omitempty"`
	DestinationCountry string `json:"destination_country,omitempty"`
	DomesticPort       string `json:"domestic_port,omitempty"` // port in the reporting country
	ForeignPort        string `json:"foreign_port,omitempty"`
	PortOfShipment     string `json:"port_of_shipment,omitempty"`

	// Commodity.
	HSCode             string `json:"hs_code,omitempty"`
	ProductDescription string `json:"product_description,omitempty"`

	// Quantity. Std* fields are the provider's own standardization
	// attempt and act as a fallback when the primary pair fails.
	Quantity    *float64 `json:"quantity,omitempty"`
	Unit        string   `json:"unit,omitempty"`
	StdQuantity *float64 `json:"std_quantity,omitempty"`
	StdUnit     string   `json:"std_unit,omitempty"`

	// Value fields, in declining order of preference for price extraction.
	FOBValueUSD     *float64 `json:"fob_value_usd,omitempty"`
	TotalValueUSD   *float64 `json:"total_value_usd,omitempty"`
	StdUnitPriceUSD *float64 `json:"std_unit_price_usd,omitempty"`
	UnitPriceUSD    *float64 `json:"unit_price_usd,omitempty"`
	TotalValueLocal *float64 `json:"total_value_local,omitempty"`
	ItemRateLocal   *float64 `json:"item_rate_local,omitempty"`
	Currency        string   `json:"currency,omitempty"`
	ExchangeRate    *float64 `json:"exchange_rate,omitempty"` // declared local-per-USD rate

	// Reporting context.
	TradeDate    string    `json:"trade_date" validate:"required"`
	TradeType    TradeType `json:"trade_type" validate:"required,oneof=EXPORT IMPORT"`
	TradeCountry string    `json:"trade_country" validate:"required"`
}

// Date parses the declared trade date. Providers deliver either a plain
// ISO date or a full timestamp; only the date part is meaningful.
func (r RawRecord) Date() (time.Time, bool) {
	s := strings.TrimSpace(r.TradeDate)
	if len(s) >= 10 {
		s = s[:10]
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsExport reports whether the record was declared by the exporting side.
func (r RawRecord) IsExport() bool {
	return TradeType(strings.ToUpper(string(r.TradeType))) == TradeTypeExport
}
