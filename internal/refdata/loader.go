package refdata

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

// snapshotFile is the on-disk YAML schema. Every section is optional;
// omitted sections keep the built-in defaults so operators can override
// a single table (say, the incoterm map) without restating the rest.
type snapshotFile struct {
	Version string `yaml:"version"`
	MaxAge  string `yaml:"max_age"`

	Incoterms []struct {
		TradeType    string `yaml:"trade_type"`
		TradeCountry string `yaml:"trade_country"`
		Incoterm     string `yaml:"incoterm"`
	} `yaml:"incoterms"`

	FXRates []struct {
		Currency   string  `yaml:"currency"`
		Date       string  `yaml:"date"`
		RatePerUSD float64 `yaml:"rate_per_usd"`
	} `yaml:"fx_rates"`

	FreightRates []struct {
		OriginPort      string  `yaml:"origin_port"`
		DestinationPort string  `yaml:"destination_port"`
		VesselClass     string  `yaml:"vessel_class"`
		RatePerMT       float64 `yaml:"rate_per_mt"`
		EffectiveDate   string  `yaml:"effective_date"`
	} `yaml:"freight_rates"`

	Insurance     map[string]InsuranceRate `yaml:"insurance_rates"`
	HighRiskPorts map[string][]string      `yaml:"high_risk_ports"`
	PortCharges   map[string]float64       `yaml:"port_charges"`
	Units         map[string]float64       `yaml:"unit_conversions"`
	BagWeights    map[string]float64       `yaml:"bag_weights"`

	Taxonomy []TaxonomyEntry            `yaml:"taxonomy"`
	Seasonal map[string]SeasonalPattern `yaml:"seasonal_calendars"`

	Consensus []struct {
		HCTID         string  `yaml:"hct_id"`
		AnnualMT      float64 `yaml:"annual_mt"`
		CropYearStart string  `yaml:"crop_year_start"`
	} `yaml:"consensus_estimates"`

	Benchmarks []struct {
		HCTID           string  `yaml:"hct_id"`
		DestinationPort string  `yaml:"destination_port"`
		CIFUSDPerMT     float64 `yaml:"cif_usd_per_mt"`
	} `yaml:"benchmarks"`
}

// LoadFile builds a Snapshot from a YAML reference-data file layered on
// top of the built-in defaults.
func LoadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference data: %w", err)
	}
	return parseSnapshot(data)
}

func parseSnapshot(data []byte) (*Snapshot, error) {
	var file snapshotFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse reference data: %w", err)
	}

	snap := DefaultSnapshot()
	snap.LoadedAt = time.Now().UTC()
	if file.Version != "" {
		snap.Version = file.Version
	}
	if file.MaxAge != "" {
		maxAge, err := time.ParseDuration(file.MaxAge)
		if err != nil {
			return nil, fmt.Errorf("parse max_age: %w", err)
		}
		snap.MaxAge = maxAge
	}

	if len(file.Incoterms) > 0 {
		snap.Incoterms = make(map[IncotermKey]domain.Incoterm, len(file.Incoterms))
		for _, row := range file.Incoterms {
			key := IncotermKey{
				TradeType:    strings.ToUpper(row.TradeType),
				TradeCountry: strings.ToUpper(row.TradeCountry),
			}
			snap.Incoterms[key] = domain.Incoterm(strings.ToUpper(row.Incoterm))
		}
	}

	if len(file.FXRates) > 0 {
		snap.FX = make(map[string][]FXRate)
		for _, row := range file.FXRates {
			d, err := parseDate(row.Date)
			if err != nil {
				return nil, fmt.Errorf("fx rate %s: %w", row.Currency, err)
			}
			cur := strings.ToUpper(row.Currency)
			snap.FX[cur] = append(snap.FX[cur], FXRate{Currency: cur, Date: d, RatePerUSD: row.RatePerUSD})
		}
		sortFX(snap.FX)
	}

	if len(file.FreightRates) > 0 {
		snap.Freight = snap.Freight[:0]
		for _, row := range file.FreightRates {
			fr := FreightRate{
				OriginPort:      strings.ToUpper(row.OriginPort),
				DestinationPort: strings.ToUpper(row.DestinationPort),
				VesselClass:     strings.ToUpper(row.VesselClass),
				RatePerMT:       row.RatePerMT,
			}
			if row.EffectiveDate != "" {
				d, err := parseDate(row.EffectiveDate)
				if err != nil {
					return nil, fmt.Errorf("freight rate %s-%s: %w", row.OriginPort, row.DestinationPort, err)
				}
				fr.EffectiveDate = d
			}
			snap.Freight = append(snap.Freight, fr)
		}
	}

	if len(file.Insurance) > 0 {
		snap.Insurance = file.Insurance
	}
	if len(file.HighRiskPorts) > 0 {
		snap.HighRiskPorts = file.HighRiskPorts
	}
	if len(file.PortCharges) > 0 {
		snap.PortCharges = upperKeys(file.PortCharges)
	}
	if len(file.Units) > 0 {
		snap.Units = upperKeys(file.Units)
	}
	if len(file.BagWeights) > 0 {
		snap.BagWeights = file.BagWeights
	}
	if len(file.Taxonomy) > 0 {
		snap.Taxonomy = file.Taxonomy
	}
	if len(file.Seasonal) > 0 {
		snap.Seasonal = file.Seasonal
	}

	if len(file.Consensus) > 0 {
		snap.Consensus = make(map[string]ConsensusEstimate, len(file.Consensus))
		for _, row := range file.Consensus {
			start, err := parseDate(row.CropYearStart)
			if err != nil {
				return nil, fmt.Errorf("consensus %s: %w", row.HCTID, err)
			}
			snap.Consensus[row.HCTID] = ConsensusEstimate{AnnualMT: row.AnnualMT, CropYearStart: start}
		}
	}
	if len(file.Benchmarks) > 0 {
		snap.Benchmarks = make(map[string]float64, len(file.Benchmarks))
		for _, row := range file.Benchmarks {
			snap.Benchmarks[row.HCTID+"|"+strings.ToUpper(row.DestinationPort)] = row.CIFUSDPerMT
		}
	}

	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

func upperKeys(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return out
}
