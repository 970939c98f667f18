// Command normalize runs the normalization pipeline over a JSON file of
// raw trade records and writes the normalized output, for offline
// backfills and pipeline debugging.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/sri0310-dev/tesseract/internal/config"
	"github.com/sri0310-dev/tesseract/internal/infrastructure"
	"github.com/sri0310-dev/tesseract/internal/normalizer"
	"github.com/sri0310-dev/tesseract/internal/refdata"
	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "normalize: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	inPath := flag.String("in", "", "input JSON file of raw records (required)")
	outPath := flag.String("out", "", "output JSON file (default stdout)")
	snapshotFile := flag.String("refdata", "", "optional reference-data YAML overlay")
	workbookFile := flag.String("workbook", "", "optional freight/FX Excel workbook")
	flag.Parse()

	if *inPath == "" {
		flag.Usage()
		return fmt.Errorf("-in is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	snap := refdata.DefaultSnapshot()
	if *snapshotFile != "" {
		if snap, err = refdata.LoadFile(*snapshotFile); err != nil {
			return fmt.Errorf("load reference data: %w", err)
		}
	}
	if *workbookFile != "" {
		if err := refdata.LoadWorkbook(*workbookFile, snap); err != nil {
			return fmt.Errorf("load workbook: %w", err)
		}
	}

	data, err := os.ReadFile(*inPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	var raws []domain.RawRecord
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("parse input: %w", err)
	}

	norm := normalizer.New(normalizer.Options{
		SuspectLowUSDPerMT:     cfg.Normalizer.SuspectLowUSDPerMT,
		SuspectHighUSDPerMT:    cfg.Normalizer.SuspectHighUSDPerMT,
		OutlierMADMultiplier:   cfg.Normalizer.OutlierMADMultiplier,
		OutlierMinComparables:  cfg.Normalizer.OutlierMinComparables,
		OutlierMultiplierByHCT: cfg.Normalizer.OutlierMultiplierByHCT,
		MaxWorkers:             cfg.Normalizer.MaxWorkers,
	}, logger)

	recs, err := norm.NormalizeBatch(context.Background(), raws, snap)
	if err != nil {
		return fmt.Errorf("normalize: %w", err)
	}

	faulted, outliers := 0, 0
	for _, rec := range recs {
		if len(rec.Faults) > 0 {
			faulted++
		}
		if rec.PriceStatus == domain.PriceOutlier {
			outliers++
		}
	}

	out, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	if *outPath == "" {
		fmt.Println(string(out))
	} else if err := os.WriteFile(*outPath, out, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	fmt.Fprintf(os.Stderr, "normalized %d records (%d faulted, %d outliers), snapshot %s\n",
		len(recs), faulted, outliers, snap.Version)
	return nil
}
