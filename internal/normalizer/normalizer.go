// Package normalizer turns raw customs declarations into canonical
// records: FOB-origin USD pricing, metric-tonne quantities, taxonomy
// classification and quality grades. Every failure mode degrades to a
// flagged field instead of dropping the record; volume analytics must
// survive even when price analytics cannot.
package normalizer

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sri0310-dev/tesseract/internal/refdata"
	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

// Options carries the tunables of the pipeline. Zero values are replaced
// by defaults in New.
type Options struct {
	// Suspect band for per-tonne prices, outside which the price is
	// flagged without waiting for the statistical outlier pass.
	SuspectLowUSDPerMT  float64
	SuspectHighUSDPerMT float64

	// Outlier pass configuration, see OutlierDetector.
	OutlierMADMultiplier  float64
	OutlierMinComparables int
	// Per-commodity multiplier overrides, keyed by HCT id. Thin markets
	// typically run wider bands than liquid ones.
	OutlierMultiplierByHCT map[string]float64

	// MaxWorkers bounds batch concurrency. Defaults to GOMAXPROCS.
	MaxWorkers int

	// Clock supplies NormalizedAt; injectable so a replay over the same
	// snapshot yields bit-identical records.
	Clock func() time.Time
}

func (o *Options) applyDefaults() {
	if o.SuspectLowUSDPerMT == 0 {
		o.SuspectLowUSDPerMT = 10
	}
	if o.SuspectHighUSDPerMT == 0 {
		o.SuspectHighUSDPerMT = 50000
	}
	if o.OutlierMADMultiplier == 0 {
		o.OutlierMADMultiplier = 3.0
	}
	if o.OutlierMinComparables == 0 {
		o.OutlierMinComparables = 5
	}
	if o.MaxWorkers <= 0 {
		o.MaxWorkers = runtime.GOMAXPROCS(0)
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
}

// Normalizer is the record-level pipeline. It is stateless between
// records; all reference lookups go against the snapshot captured for
// the call, which makes Normalize pure and replayable.
type Normalizer struct {
	opts    Options
	logger  *slog.Logger
	quality *QualityParser
}

// New creates a Normalizer.
func New(opts Options, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	opts.applyDefaults()
	return &Normalizer{
		opts:    opts,
		logger:  logger,
		quality: NewQualityParser(),
	}
}

// Normalize converts one raw record using the given snapshot. It never
// returns an error for malformed input: faults are recorded on the
// output and the record keeps flowing.
func (n *Normalizer) Normalize(raw domain.RawRecord, snap *refdata.Snapshot) domain.NormalizedRecord {
	tradeType := domain.TradeType(strings.ToUpper(string(raw.TradeType)))
	tradeCountry := strings.ToUpper(strings.TrimSpace(raw.TradeCountry))
	isExport := tradeType == domain.TradeTypeExport

	rec := domain.NormalizedRecord{
		RecordID:      raw.RecordID,
		DeclarationNo: raw.DeclarationNo,
		BillNo:        raw.BillNo,
		TradeType:     tradeType,
		TradeCountry:  tradeCountry,

		ProductDescription: raw.ProductDescription,
		QuantityOriginal:   raw.Quantity,
		UnitOriginal:       raw.Unit,
		CurrencyOriginal:   strings.ToUpper(strings.TrimSpace(raw.Currency)),

		SnapshotVersion: snap.Version,
		NormalizedAt:    n.opts.Clock().UTC(),
	}

	tradeDate, dateOK := raw.Date()
	if dateOK {
		rec.TradeDate = tradeDate
	}

	// Step 1: incoterm basis from the data-driven table.
	rec.DeclaredIncoterm = snap.InferIncoterm(tradeType, tradeCountry)

	// Step 2: best available USD price.
	priceUSD, source := extractPrice(raw, snap, tradeDate)
	rec.PriceSource = source

	// Step 3: commodity classification, with leading-zero repair for
	// integer-truncated HS codes (chapters 01-09).
	hs := repairHSCode(raw.HSCode)
	rec.HSCode = hs
	if len(hs) >= 2 {
		rec.HSCode2 = hs[:2]
	}
	if len(hs) >= 4 {
		rec.HSCode4 = hs[:4]
	}
	rec.HCTName = "Unclassified"
	rec.HCTGroup = "Unknown"
	if match := snap.Classify(hs, tradeCountry); match != nil {
		rec.HCTID = match.Entry.HCTID
		rec.HCTName = match.Entry.Name
		rec.HCTGroup = match.Entry.Group
	} else if hs != "" {
		rec.Faults = append(rec.Faults, domain.FaultUnclassifiedHS)
	}

	// Step 4: quantity standardization, with the provider's own
	// standardized pair as fallback.
	quantityMT, unitStatus := snap.ConvertToMT(raw.Quantity, raw.Unit, rec.HCTName)
	if !unitStatus.Resolved() && raw.StdQuantity != nil && raw.StdUnit != "" {
		quantityMT, unitStatus = snap.ConvertToMT(raw.StdQuantity, raw.StdUnit, rec.HCTName)
	}
	rec.QuantityMT = quantityMT
	rec.UnitStatus = unitStatus
	if unitStatus == domain.UnitUnresolvable {
		rec.Faults = append(rec.Faults, domain.FaultUnresolvableUnit)
	}

	// Step 5: geography by trade direction. For imports the domestic
	// port is the destination; for exports it is the origin.
	if isExport {
		rec.OriginCountry = tradeCountry
		rec.OriginPort = raw.DomesticPort
		rec.DestinationCountry = strings.ToUpper(strings.TrimSpace(raw.DestinationCountry))
		rec.DestinationPort = raw.ForeignPort
		rec.Consignee = firstNonEmpty(raw.BuyerName)
		rec.Consignor = raw.ExporterName
		// The provider's party code identifies the reporting side, which
		// on an export manifest is the consignor.
		rec.ConsignorCode = raw.PartyCode
	} else {
		rec.OriginCountry = strings.ToUpper(strings.TrimSpace(raw.OriginCountry))
		rec.OriginPort = firstNonEmpty(raw.PortOfShipment, raw.ForeignPort)
		rec.DestinationCountry = tradeCountry
		rec.DestinationPort = raw.DomesticPort
		rec.Consignee = raw.ImporterName
		rec.Consignor = raw.SupplierName
		rec.ConsigneeCode = raw.PartyCode
	}

	// Step 6: derive FOB.
	n.deriveFOB(&rec, snap, priceUSD)

	// Step 7: per-tonne price. Both outputs or neither; no div-by-zero
	// sentinel ever leaves this function.
	if rec.FOBUSDTotal != nil && rec.QuantityMT != nil && *rec.QuantityMT > 0 {
		perMT := *rec.FOBUSDTotal / *rec.QuantityMT
		rec.FOBUSDPerMT = &perMT
	}

	// Step 8: quality inference from the free-text description.
	rec.Quality = n.quality.Parse(raw.ProductDescription, rec.HCTID)
	if !rec.TradeDate.IsZero() {
		if w, known := snap.SeasonalWeight(rec.HCTID, rec.TradeDate.Month()); known && w > 1.0/12.0 {
			rec.Quality.SignalsUsed = append(rec.Quality.SignalsUsed, "seasonal_peak_origin")
		}
	}

	// Step 9: price status. The statistical outlier pass runs per batch;
	// here only missing data and the suspect band are judged.
	switch {
	case rec.FOBUSDTotal == nil || *rec.FOBUSDTotal == 0:
		rec.PriceStatus = domain.PriceMissing
		rec.Faults = append(rec.Faults, domain.FaultMissingPriceData)
	case rec.FOBUSDPerMT != nil && *rec.FOBUSDPerMT < n.opts.SuspectLowUSDPerMT:
		rec.PriceStatus = domain.PriceSuspectLow
	case rec.FOBUSDPerMT != nil && *rec.FOBUSDPerMT > n.opts.SuspectHighUSDPerMT:
		rec.PriceStatus = domain.PriceSuspectHigh
	default:
		rec.PriceStatus = domain.PriceNormal
	}

	if snap.Stale(rec.NormalizedAt) {
		rec.Faults = append(rec.Faults, domain.FaultReferenceStale)
	}

	return rec
}

// deriveFOB implements the incoterm resolution. CIF values shed freight,
// insurance and destination port charges; an UNKNOWN basis takes the CIF
// path only when both ports are present, otherwise it is treated as FOB
// with an assumed-basis fault and low confidence downstream.
func (n *Normalizer) deriveFOB(rec *domain.NormalizedRecord, snap *refdata.Snapshot, priceUSD *float64) {
	if priceUSD == nil {
		return
	}

	applyCIF := rec.DeclaredIncoterm == domain.IncotermCIF
	if rec.DeclaredIncoterm == domain.IncotermUnknown {
		if rec.OriginPort != "" && rec.DestinationPort != "" {
			applyCIF = true
			rec.Faults = append(rec.Faults, domain.FaultIncotermAmbiguous)
		} else {
			rec.Faults = append(rec.Faults, domain.FaultBasisAssumed)
		}
	}

	if !applyCIF {
		rec.FOBUSDTotal = priceUSD
		return
	}

	freightPerMT, haveFreight := snap.FreightRateFor(rec.OriginPort, rec.DestinationPort, "", rec.TradeDate)
	insurance := snap.InsuranceFor(*priceUSD, rec.OriginPort, rec.DestinationPort)
	portPerMT := snap.PortChargesFor(rec.DestinationPort)

	// Freight and port charges are per-MT rates; they scale by quantity
	// when the quantity resolved, otherwise they apply once per record.
	freight := 0.0
	portCharges := portPerMT
	if haveFreight {
		freight = freightPerMT
	}
	if rec.QuantityMT != nil && *rec.QuantityMT > 0 {
		if haveFreight {
			freight = freightPerMT * *rec.QuantityMT
		}
		portCharges = portPerMT * *rec.QuantityMT
	}

	fob := *priceUSD - freight - insurance - portCharges
	if fob < 0 {
		fob = 0
	}
	rec.FOBUSDTotal = &fob
	if haveFreight {
		rec.FreightDeductedUSD = &freight
	}
	rec.InsuranceDeductedUSD = &insurance
	rec.PortChargesDeductedUSD = &portCharges
}

// NormalizeBatch normalizes records concurrently against one captured
// snapshot, then runs the statistical outlier pass. Output order matches
// input order and the counts are always equal.
func (n *Normalizer) NormalizeBatch(ctx context.Context, raws []domain.RawRecord, snap *refdata.Snapshot) ([]domain.NormalizedRecord, error) {
	if snap == nil {
		return nil, fmt.Errorf("normalize batch: %w", refdata.ErrInvalidSnapshot)
	}
	start := time.Now()
	out := make([]domain.NormalizedRecord, len(raws))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(n.opts.MaxWorkers)
	for i := range raws {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			out[i] = n.Normalize(raws[i], snap)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("normalize batch: %w", err)
	}

	detector := NewOutlierDetector(n.opts.OutlierMADMultiplier, n.opts.OutlierMinComparables, n.opts.OutlierMultiplierByHCT)
	flagged := detector.Flag(out)

	n.logger.InfoContext(ctx, "batch normalized",
		"records", len(out),
		"outliers_flagged", flagged,
		"snapshot_version", snap.Version,
		"duration", time.Since(start),
	)
	return out, nil
}

// repairHSCode restores the leading zero that integer-typed HS codes
// lose: standard codes are 6 or 8 digits, so an odd length under 8
// means chapter 01-09 was truncated (8013100 -> 08013100).
func repairHSCode(hs string) string {
	s := strings.TrimSpace(hs)
	if s == "" {
		return ""
	}
	if isDigits(s) && len(s) < 8 && len(s)%2 == 1 {
		return "0" + s
	}
	return s
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
