// Package refdata holds the versioned reference tables the normalization
// pipeline reads: incoterm defaults, FX rates, freight rates, insurance
// rates, port charges, unit conversions, the HS→HCT taxonomy, seasonal
// calendars and consensus estimates. A Snapshot is immutable once loaded;
// refreshes build a new Snapshot and swap it atomically so no computation
// ever observes a partially updated table.
package refdata

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

// ErrInvalidSnapshot is the only fatal condition this engine raises: a
// structurally unusable reference snapshot. Silently guessing conversions
// would corrupt every downstream number, so computation refuses to start.
var ErrInvalidSnapshot = errors.New("refdata: structurally invalid snapshot")

// IncotermKey is the composite lookup key for the incoterm table.
type IncotermKey struct {
	TradeType    string `yaml:"trade_type"`
	TradeCountry string `yaml:"trade_country"`
}

// FreightRate is one row of the freight reference table.
type FreightRate struct {
	OriginPort      string    `yaml:"origin_port"`
	DestinationPort string    `yaml:"destination_port"`
	VesselClass     string    `yaml:"vessel_class"`
	RatePerMT       float64   `yaml:"rate_per_mt"`
	EffectiveDate   time.Time `yaml:"effective_date"`
}

// FXRate is one (currency, date) exchange-rate entry, quoted as local
// units per USD.
type FXRate struct {
	Currency   string    `yaml:"currency"`
	Date       time.Time `yaml:"date"`
	RatePerUSD float64   `yaml:"rate_per_usd"`
}

// InsuranceRate is a marine cargo rate for a route-risk profile,
// expressed as fractions of cargo value.
type InsuranceRate struct {
	RatePct    float64 `yaml:"rate_pct"`
	WarRiskPct float64 `yaml:"war_risk_pct"`
}

// HSMapping binds an HS code prefix to a taxonomy entry for one country
// ("*" matches any reporting country).
type HSMapping struct {
	Country    string `yaml:"country"`
	HSCode     string `yaml:"hs_code"`
	Confidence string `yaml:"confidence"`
}

// TaxonomyEntry is one commodity in the unified taxonomy.
type TaxonomyEntry struct {
	HCTID         string      `yaml:"hct_id"`
	Name          string      `yaml:"name"`
	Group         string      `yaml:"group"`
	Supergroup    string      `yaml:"supergroup"`
	HSMappings    []HSMapping `yaml:"hs_mappings"`
	QualityGrades []string    `yaml:"quality_grades"`
}

// TaxonomyMatch is the result of classifying an HS code.
type TaxonomyMatch struct {
	Entry           *TaxonomyEntry
	MatchConfidence string
}

// SeasonalPattern carries the monthly flow weights for a commodity,
// used to strip normal seasonal acceleration out of the FVI.
type SeasonalPattern struct {
	MonthlyWeights map[int]float64 `yaml:"monthly_weights"`
}

// ConsensusEstimate is the annual production/trade estimate and crop-year
// start used by the supply/demand tracker.
type ConsensusEstimate struct {
	AnnualMT      float64   `yaml:"annual_mt"`
	CropYearStart time.Time `yaml:"crop_year_start"`
}

// Snapshot is one immutable version of every reference table.
type Snapshot struct {
	Version  string
	LoadedAt time.Time
	// MaxAge after which lookups still succeed but outputs carry a
	// data-quality warning. Zero disables staleness checks.
	MaxAge time.Duration

	Incoterms     map[IncotermKey]domain.Incoterm
	FX            map[string][]FXRate // keyed by currency, sorted by date
	Freight       []FreightRate
	Insurance     map[string]InsuranceRate
	HighRiskPorts map[string][]string // risk profile -> port names
	PortCharges   map[string]float64
	// DefaultPortCharge applies when a destination port has no entry.
	DefaultPortCharge float64

	Units      map[string]float64 // unit name -> MT factor
	BagWeights map[string]float64 // lower-case commodity keyword -> MT per bag

	Taxonomy  []TaxonomyEntry
	Seasonal  map[string]SeasonalPattern
	Consensus map[string]ConsensusEstimate
	// Benchmarks holds published CIF prices keyed "HCTID|DEST_PORT".
	// Absent for most covered commodities; FAB then exposes the
	// reconstructed CIF as the benchmark.
	Benchmarks map[string]float64
}

// Validate checks structural usability. A snapshot without a unit
// conversion table or taxonomy cannot normalize anything.
func (s *Snapshot) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil snapshot", ErrInvalidSnapshot)
	}
	if len(s.Units) == 0 {
		return fmt.Errorf("%w: unit conversion table is empty", ErrInvalidSnapshot)
	}
	if len(s.Taxonomy) == 0 {
		return fmt.Errorf("%w: commodity taxonomy is empty", ErrInvalidSnapshot)
	}
	if s.Version == "" {
		return fmt.Errorf("%w: missing version", ErrInvalidSnapshot)
	}
	return nil
}

// Stale reports whether the snapshot has outlived its MaxAge.
func (s *Snapshot) Stale(now time.Time) bool {
	if s.MaxAge <= 0 || s.LoadedAt.IsZero() {
		return false
	}
	return now.Sub(s.LoadedAt) > s.MaxAge
}

// InferIncoterm resolves the declared-value basis for a reporting context.
// The table is configuration, not code; absent entries fall back to the
// customs convention EXPORT→FOB, IMPORT→CIF.
func (s *Snapshot) InferIncoterm(tradeType domain.TradeType, tradeCountry string) domain.Incoterm {
	key := IncotermKey{
		TradeType:    strings.ToUpper(string(tradeType)),
		TradeCountry: strings.ToUpper(strings.TrimSpace(tradeCountry)),
	}
	if inc, ok := s.Incoterms[key]; ok {
		return inc
	}
	if key.TradeType == string(domain.TradeTypeExport) {
		return domain.IncotermFOB
	}
	return domain.IncotermCIF
}

// FXRateFor returns the reference exchange rate (local per USD) for a
// currency, using the latest entry dated on or before the trade date.
func (s *Snapshot) FXRateFor(currency string, date time.Time) (float64, bool) {
	rates := s.FX[strings.ToUpper(strings.TrimSpace(currency))]
	if len(rates) == 0 {
		return 0, false
	}
	// Entries are kept sorted ascending by date.
	idx := sort.Search(len(rates), func(i int) bool {
		return rates[i].Date.After(date)
	})
	if idx == 0 {
		return 0, false
	}
	return rates[idx-1].RatePerUSD, true
}

// FreightRateFor finds the freight rate for a port pair, preferring the
// requested vessel class and the nearest effective date on or before the
// trade date. Port names match on containment in either direction because
// customs data spells them inconsistently.
func (s *Snapshot) FreightRateFor(originPort, destPort, vesselClass string, date time.Time) (float64, bool) {
	o := strings.ToUpper(strings.TrimSpace(originPort))
	d := strings.ToUpper(strings.TrimSpace(destPort))
	if o == "" || d == "" {
		return 0, false
	}
	vc := strings.ToUpper(strings.TrimSpace(vesselClass))

	var best *FreightRate
	bestClassMatch := false
	for i := range s.Freight {
		fr := &s.Freight[i]
		if !portsMatch(fr.OriginPort, o) || !portsMatch(fr.DestinationPort, d) {
			continue
		}
		if !fr.EffectiveDate.IsZero() && fr.EffectiveDate.After(date) {
			continue
		}
		classMatch := vc != "" && strings.EqualFold(fr.VesselClass, vc)
		switch {
		case best == nil:
		case classMatch && !bestClassMatch:
		case classMatch == bestClassMatch && fr.EffectiveDate.After(best.EffectiveDate):
		default:
			continue
		}
		best = fr
		bestClassMatch = classMatch
	}
	if best == nil {
		return 0, false
	}
	return best.RatePerMT, true
}

func portsMatch(table, declared string) bool {
	t := strings.ToUpper(strings.TrimSpace(table))
	if t == "" || declared == "" {
		return false
	}
	return strings.Contains(declared, t) || strings.Contains(t, declared)
}

// RouteRisk returns the insurance risk profile for a port pair.
func (s *Snapshot) RouteRisk(originPort, destPort string) string {
	for _, port := range []string{originPort, destPort} {
		upper := strings.ToUpper(port)
		for profile, ports := range s.HighRiskPorts {
			for _, p := range ports {
				if p != "" && strings.Contains(upper, p) {
					return profile
				}
			}
		}
	}
	return "standard"
}

// InsuranceFor computes the insurance cost in USD for a cargo value on a
// route, combining the base rate with any war-risk surcharge.
func (s *Snapshot) InsuranceFor(cargoValueUSD float64, originPort, destPort string) float64 {
	profile := s.RouteRisk(originPort, destPort)
	rate, ok := s.Insurance[profile]
	if !ok {
		rate = s.Insurance["standard"]
	}
	return cargoValueUSD * (rate.RatePct + rate.WarRiskPct)
}

// PortChargesFor returns total port charges in USD/MT for a port.
func (s *Snapshot) PortChargesFor(port string) float64 {
	p := strings.ToUpper(strings.TrimSpace(port))
	if p == "" {
		return 0
	}
	for name, charge := range s.PortCharges {
		if strings.Contains(p, name) || strings.Contains(name, p) {
			return charge
		}
	}
	return s.DefaultPortCharge
}

// ConvertToMT converts a declared quantity to metric tonnes.
// Commodity-specific conversions (bags of known weight) take precedence
// over the generic unit table; a missing unit falls back to a magnitude
// heuristic. No conversion path yields a nil quantity, never a guess.
func (s *Snapshot) ConvertToMT(quantity *float64, unit, commodityHint string) (*float64, domain.UnitStatus) {
	if quantity == nil || *quantity <= 0 {
		return nil, domain.UnitMissing
	}
	qty := *quantity

	u := strings.ToUpper(strings.TrimSpace(unit))
	if u == "" {
		switch {
		case qty > 5000:
			mt := qty * 0.001
			return &mt, domain.UnitAssumedKG
		case qty < 200:
			return &qty, domain.UnitAssumedMT
		}
		return nil, domain.UnitUnresolvable
	}

	if factor, ok := s.Units[u]; ok {
		mt := qty * factor
		return &mt, domain.UnitOK
	}

	if u == "BAGS" || u == "BAG" {
		hint := strings.ToLower(commodityHint)
		for keyword, perBag := range s.BagWeights {
			if keyword != "" && strings.Contains(hint, keyword) {
				mt := qty * perBag
				return &mt, domain.UnitOK
			}
		}
		// Generic 50 kg bag, flagged as assumed.
		mt := qty * 0.05
		return &mt, domain.UnitAssumedBag
	}

	return nil, domain.UnitUnresolvable
}

// Classify resolves an HS code to a taxonomy entry, trying a
// country-specific mapping first and falling back to the wildcard.
// Prefixes match from most to least specific.
func (s *Snapshot) Classify(hsCode, country string) *TaxonomyMatch {
	hs := strings.TrimSpace(hsCode)
	if hs == "" {
		return nil
	}
	c := strings.ToUpper(strings.TrimSpace(country))

	if m := s.classifyPass(hs, func(mc string) bool { return mc == c }); m != nil {
		return m
	}
	return s.classifyPass(hs, func(mc string) bool { return mc == "*" })
}

func (s *Snapshot) classifyPass(hs string, countryOK func(string) bool) *TaxonomyMatch {
	var best *TaxonomyMatch
	bestLen := 0
	for i := range s.Taxonomy {
		entry := &s.Taxonomy[i]
		for _, m := range entry.HSMappings {
			if !countryOK(strings.ToUpper(m.Country)) {
				continue
			}
			if strings.HasPrefix(hs, m.HSCode) && len(m.HSCode) > bestLen {
				best = &TaxonomyMatch{Entry: entry, MatchConfidence: m.Confidence}
				bestLen = len(m.HSCode)
			}
		}
	}
	return best
}

// SeasonalWeight returns the historical flow weight of a calendar month
// for a commodity, or the uniform 1/12 when no calendar is configured.
func (s *Snapshot) SeasonalWeight(hctID string, month time.Month) (float64, bool) {
	pattern, ok := s.Seasonal[hctID]
	if !ok || len(pattern.MonthlyWeights) == 0 {
		return 1.0 / 12.0, false
	}
	if w, ok := pattern.MonthlyWeights[int(month)]; ok {
		return w, true
	}
	return 1.0 / 12.0, false
}

// ConsensusFor returns the consensus estimate for a commodity.
func (s *Snapshot) ConsensusFor(hctID string) (ConsensusEstimate, bool) {
	est, ok := s.Consensus[hctID]
	return est, ok
}

// BenchmarkFor returns a published CIF benchmark for a commodity at a
// destination port, when one exists.
func (s *Snapshot) BenchmarkFor(hctID, destPort string) (float64, bool) {
	v, ok := s.Benchmarks[hctID+"|"+strings.ToUpper(strings.TrimSpace(destPort))]
	return v, ok
}
