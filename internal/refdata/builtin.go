package refdata

import (
	"time"

	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

// DefaultSnapshot returns the built-in reference tables. Operators
// override any of these through the YAML/xlsx loaders; the built-ins keep
// the engine usable out of the box and anchor the test fixtures.
func DefaultSnapshot() *Snapshot {
	return &Snapshot{
		Version:  "builtin-1",
		LoadedAt: time.Now().UTC(),

		Incoterms: map[IncotermKey]domain.Incoterm{
			{TradeType: "EXPORT", TradeCountry: "INDIA"}:       domain.IncotermFOB,
			{TradeType: "IMPORT", TradeCountry: "INDIA"}:       domain.IncotermCIF,
			{TradeType: "EXPORT", TradeCountry: "BRAZIL"}:      domain.IncotermFOB,
			{TradeType: "IMPORT", TradeCountry: "BANGLADESH"}:  domain.IncotermCIF,
			{TradeType: "IMPORT", TradeCountry: "VIETNAM"}:     domain.IncotermCIF,
			{TradeType: "EXPORT", TradeCountry: "VIETNAM"}:     domain.IncotermFOB,
			{TradeType: "IMPORT", TradeCountry: "NIGERIA"}:     domain.IncotermCIF,
			{TradeType: "EXPORT", TradeCountry: "NIGERIA"}:     domain.IncotermFOB,
			{TradeType: "EXPORT", TradeCountry: "ETHIOPIA"}:    domain.IncotermFOB,
			{TradeType: "EXPORT", TradeCountry: "IVORY COAST"}: domain.IncotermFOB,
			{TradeType: "EXPORT", TradeCountry: "GHANA"}:       domain.IncotermFOB,
			{TradeType: "EXPORT", TradeCountry: "TANZANIA"}:    domain.IncotermFOB,
			{TradeType: "IMPORT", TradeCountry: "USA"}:         domain.IncotermCIF,
			{TradeType: "IMPORT", TradeCountry: "INDONESIA"}:   domain.IncotermCIF,
			{TradeType: "EXPORT", TradeCountry: "INDONESIA"}:   domain.IncotermFOB,
			{TradeType: "IMPORT", TradeCountry: "PAKISTAN"}:    domain.IncotermCIF,
			{TradeType: "EXPORT", TradeCountry: "PAKISTAN"}:    domain.IncotermFOB,
			{TradeType: "IMPORT", TradeCountry: "SRI LANKA"}:   domain.IncotermCIF,
			{TradeType: "IMPORT", TradeCountry: "KENYA"}:       domain.IncotermCIF,
			{TradeType: "IMPORT", TradeCountry: "TURKEY"}:      domain.IncotermCIF,
			{TradeType: "EXPORT", TradeCountry: "TURKEY"}:      domain.IncotermFOB,
			{TradeType: "IMPORT", TradeCountry: "PHILIPPINES"}: domain.IncotermCIF,
			{TradeType: "EXPORT", TradeCountry: "PERU"}:        domain.IncotermFOB,
		},

		FX: map[string][]FXRate{},

		Freight: []FreightRate{
			{OriginPort: "ABIDJAN", DestinationPort: "TUTICORIN", VesselClass: "HANDYSIZE", RatePerMT: 42.50},
			{OriginPort: "ABIDJAN", DestinationPort: "MANGALORE", VesselClass: "HANDYSIZE", RatePerMT: 44.00},
			{OriginPort: "TEMA", DestinationPort: "TUTICORIN", VesselClass: "HANDYSIZE", RatePerMT: 40.00},
			{OriginPort: "LAGOS", DestinationPort: "TUTICORIN", VesselClass: "HANDYSIZE", RatePerMT: 45.00},
			{OriginPort: "DAR ES SALAAM", DestinationPort: "TUTICORIN", VesselClass: "HANDYSIZE", RatePerMT: 35.00},
			{OriginPort: "ABIDJAN", DestinationPort: "HO CHI MINH", VesselClass: "HANDYSIZE", RatePerMT: 55.00},
			{OriginPort: "TEMA", DestinationPort: "HO CHI MINH", VesselClass: "HANDYSIZE", RatePerMT: 53.00},
			{OriginPort: "DJIBOUTI", DestinationPort: "KANDLA", VesselClass: "HANDYSIZE", RatePerMT: 28.00},
			{OriginPort: "LAGOS", DestinationPort: "TIANJIN", VesselClass: "HANDYSIZE", RatePerMT: 60.00},
			{OriginPort: "LAGOS", DestinationPort: "QINGDAO", VesselClass: "HANDYSIZE", RatePerMT: 58.00},
			{OriginPort: "KAKINADA", DestinationPort: "LAGOS", VesselClass: "SUPRAMAX", RatePerMT: 48.00},
			{OriginPort: "KANDLA", DestinationPort: "LAGOS", VesselClass: "SUPRAMAX", RatePerMT: 46.00},
			{OriginPort: "KAKINADA", DestinationPort: "TEMA", VesselClass: "SUPRAMAX", RatePerMT: 47.00},
		},

		Insurance: map[string]InsuranceRate{
			"standard":       {RatePct: 0.0015},
			"gulf_of_guinea": {RatePct: 0.0015, WarRiskPct: 0.0025},
			"red_sea":        {RatePct: 0.0015, WarRiskPct: 0.005},
		},
		HighRiskPorts: map[string][]string{
			"gulf_of_guinea": {"LAGOS", "APAPA", "TEMA", "ABIDJAN", "LOME", "COTONOU"},
			"red_sea":        {"ADEN", "HODEIDAH", "DJIBOUTI", "PORT SUDAN"},
		},

		PortCharges: map[string]float64{
			"TUTICORIN":     4.70,
			"MANGALORE":     4.20,
			"KOCHI":         4.50,
			"KANDLA":        3.80,
			"MUMBAI":        5.20,
			"CHENNAI":       4.80,
			"KAKINADA":      3.50,
			"KRISHNAPATNAM": 3.80,
			"HO CHI MINH":   5.00,
			"HAI PHONG":     4.50,
			"LAGOS":         8.50,
			"APAPA":         8.50,
			"TEMA":          6.00,
			"ABIDJAN":       5.50,
			"DAR ES SALAAM": 6.50,
			"DJIBOUTI":      7.00,
			"TIANJIN":       4.00,
			"QINGDAO":       3.80,
			"SHANGHAI":      3.50,
		},
		DefaultPortCharge: 4.0,

		Units: map[string]float64{
			"KGS":       0.001,
			"KG":        0.001,
			"MTS":       1.0,
			"MT":        1.0,
			"TON":       1.0,
			"TONS":      1.0,
			"TONNE":     1.0,
			"TONNES":    1.0,
			"LONG TON":  1.01605,
			"SHORT TON": 0.907185,
			"LBS":       0.000453592,
			"QUINTAL":   0.1,
			"QTL":       0.1,
		},
		BagWeights: map[string]float64{
			"cashew": 0.08,
			"rice":   0.05,
			"cocoa":  0.06,
		},

		Taxonomy: []TaxonomyEntry{
			{
				HCTID: "HCT-0801-RCN-INSHELL", Name: "Raw Cashew Nuts (In Shell)",
				Group: "Cashew Complex", Supergroup: "Tree Nuts",
				HSMappings: []HSMapping{
					{Country: "*", HSCode: "080131", Confidence: "HIGH"},
					{Country: "INDIA", HSCode: "08013110", Confidence: "HIGH"},
					{Country: "INDIA", HSCode: "08013120", Confidence: "HIGH"},
					{Country: "VIETNAM", HSCode: "08013100", Confidence: "HIGH"},
					{Country: "IVORY COAST", HSCode: "080131", Confidence: "HIGH"},
				},
				QualityGrades: []string{"Premium", "Grade A", "Grade B"},
			},
			{
				HCTID: "HCT-0801-CASHEW-KERNEL", Name: "Cashew Kernels (Processed)",
				Group: "Cashew Complex", Supergroup: "Tree Nuts",
				HSMappings: []HSMapping{
					{Country: "*", HSCode: "080132", Confidence: "HIGH"},
					{Country: "INDIA", HSCode: "08013200", Confidence: "HIGH"},
					{Country: "VIETNAM", HSCode: "08013200", Confidence: "HIGH"},
				},
				QualityGrades: []string{"W180", "W210", "W240", "W320", "W450", "SW", "LWP", "SWP"},
			},
			{
				HCTID: "HCT-1207-SESAME", Name: "Sesame Seeds",
				Group: "Sesame", Supergroup: "Oilseeds",
				HSMappings: []HSMapping{
					{Country: "*", HSCode: "120740", Confidence: "HIGH"},
					{Country: "INDIA", HSCode: "12074000", Confidence: "HIGH"},
					{Country: "ETHIOPIA", HSCode: "120740", Confidence: "HIGH"},
					{Country: "NIGERIA", HSCode: "120740", Confidence: "HIGH"},
				},
				QualityGrades: []string{"Premium Hulled", "Hulled", "Natural"},
			},
			{
				HCTID: "HCT-1006-RICE-NONBASMATI", Name: "Rice (Non-Basmati)",
				Group: "Rice", Supergroup: "Grains & Cereals",
				HSMappings: []HSMapping{
					{Country: "*", HSCode: "1006", Confidence: "MEDIUM"},
					{Country: "INDIA", HSCode: "10063010", Confidence: "HIGH"},
					{Country: "INDIA", HSCode: "10063090", Confidence: "HIGH"},
					{Country: "VIETNAM", HSCode: "100630", Confidence: "HIGH"},
					{Country: "THAILAND", HSCode: "100630", Confidence: "HIGH"},
				},
				QualityGrades: []string{"5% Broken", "15% Broken", "25% Broken", "100% Broken", "Parboiled"},
			},
			{
				HCTID: "HCT-1006-RICE-BASMATI", Name: "Basmati Rice",
				Group: "Rice", Supergroup: "Grains & Cereals",
				HSMappings: []HSMapping{
					{Country: "INDIA", HSCode: "10063020", Confidence: "HIGH"},
					{Country: "PAKISTAN", HSCode: "100630", Confidence: "MEDIUM"},
				},
				QualityGrades: []string{"1121 Sella", "1121 Steam", "Sugandha", "Pusa"},
			},
			{
				HCTID: "HCT-1201-SOYBEAN", Name: "Soybeans",
				Group: "Soybeans", Supergroup: "Oilseeds",
				HSMappings: []HSMapping{
					{Country: "*", HSCode: "120190", Confidence: "HIGH"},
					{Country: "NIGERIA", HSCode: "12019000", Confidence: "HIGH"},
					{Country: "INDIA", HSCode: "12019000", Confidence: "HIGH"},
				},
				QualityGrades: []string{"Grade 1", "Grade 2", "Feed Grade"},
			},
			{
				HCTID: "HCT-1801-COCOA", Name: "Cocoa Beans",
				Group: "Cocoa", Supergroup: "Cocoa",
				HSMappings: []HSMapping{
					{Country: "*", HSCode: "180100", Confidence: "HIGH"},
				},
				QualityGrades: []string{"Grade I", "Grade II", "Sub-Grade"},
			},
			{
				HCTID: "HCT-1511-PALMOIL", Name: "Palm Oil",
				Group: "Palm Oil", Supergroup: "Vegetable Oils",
				HSMappings: []HSMapping{
					{Country: "*", HSCode: "151110", Confidence: "HIGH"},
					{Country: "*", HSCode: "151190", Confidence: "HIGH"},
				},
				QualityGrades: []string{"Crude (CPO)", "Refined (RPO)", "Olein", "Stearin"},
			},
			{
				HCTID: "HCT-5201-COTTON", Name: "Raw Cotton",
				Group: "Cotton", Supergroup: "Cotton",
				HSMappings: []HSMapping{
					{Country: "*", HSCode: "520100", Confidence: "HIGH"},
				},
				QualityGrades: []string{"S-6", "J-34", "MCU-5", "Shankar-6"},
			},
		},

		Seasonal: map[string]SeasonalPattern{
			"HCT-0801-RCN-INSHELL": {MonthlyWeights: map[int]float64{
				1: 0.06, 2: 0.08, 3: 0.14, 4: 0.16, 5: 0.14, 6: 0.10,
				7: 0.07, 8: 0.05, 9: 0.04, 10: 0.05, 11: 0.06, 12: 0.05,
			}},
			"HCT-1207-SESAME": {MonthlyWeights: map[int]float64{
				1: 0.10, 2: 0.09, 3: 0.09, 4: 0.08, 5: 0.06, 6: 0.07,
				7: 0.08, 8: 0.08, 9: 0.07, 10: 0.08, 11: 0.10, 12: 0.10,
			}},
			"HCT-1201-SOYBEAN": {MonthlyWeights: map[int]float64{
				1: 0.10, 2: 0.09, 3: 0.08, 4: 0.07, 5: 0.06, 6: 0.06,
				7: 0.07, 8: 0.07, 9: 0.08, 10: 0.09, 11: 0.12, 12: 0.11,
			}},
			"HCT-1006-RICE-NONBASMATI": {MonthlyWeights: map[int]float64{
				1: 0.10, 2: 0.10, 3: 0.10, 4: 0.09, 5: 0.08, 6: 0.07,
				7: 0.07, 8: 0.07, 9: 0.07, 10: 0.08, 11: 0.08, 12: 0.09,
			}},
		},

		Consensus:  map[string]ConsensusEstimate{},
		Benchmarks: map[string]float64{},
	}
}
