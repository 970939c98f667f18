package refdata

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Sheet names expected in a reference workbook. Freight desks and FX
// providers deliver these tables as spreadsheets, so the loader accepts
// them natively instead of requiring a YAML transcription.
const (
	sheetFreight = "Freight"
	sheetFX      = "FX"
)

// LoadWorkbook overlays freight and FX tables from an xlsx workbook onto
// a snapshot. Missing sheets are skipped; a present sheet replaces the
// corresponding table wholesale.
func LoadWorkbook(path string, snap *Snapshot) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("open reference workbook: %w", err)
	}
	defer f.Close()

	if rows, err := f.GetRows(sheetFreight); err == nil && len(rows) > 1 {
		freight, err := parseFreightRows(rows)
		if err != nil {
			return fmt.Errorf("sheet %s: %w", sheetFreight, err)
		}
		snap.Freight = freight
	}

	if rows, err := f.GetRows(sheetFX); err == nil && len(rows) > 1 {
		fx, err := parseFXRows(rows)
		if err != nil {
			return fmt.Errorf("sheet %s: %w", sheetFX, err)
		}
		snap.FX = fx
	}

	return nil
}

// parseFreightRows expects a header row followed by
// origin_port | destination_port | vessel_class | rate_per_mt | effective_date.
func parseFreightRows(rows [][]string) ([]FreightRate, error) {
	out := make([]FreightRate, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) < 4 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: rate_per_mt: %w", i+2, err)
		}
		fr := FreightRate{
			OriginPort:      strings.ToUpper(strings.TrimSpace(row[0])),
			DestinationPort: strings.ToUpper(strings.TrimSpace(row[1])),
			VesselClass:     strings.ToUpper(strings.TrimSpace(row[2])),
			RatePerMT:       rate,
		}
		if len(row) > 4 && strings.TrimSpace(row[4]) != "" {
			d, err := parseCellDate(row[4])
			if err != nil {
				return nil, fmt.Errorf("row %d: effective_date: %w", i+2, err)
			}
			fr.EffectiveDate = d
		}
		out = append(out, fr)
	}
	return out, nil
}

// parseFXRows expects a header row followed by currency | date | rate_per_usd.
func parseFXRows(rows [][]string) (map[string][]FXRate, error) {
	out := make(map[string][]FXRate)
	for i, row := range rows[1:] {
		if len(row) < 3 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		d, err := parseCellDate(row[1])
		if err != nil {
			return nil, fmt.Errorf("row %d: date: %w", i+2, err)
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: rate_per_usd: %w", i+2, err)
		}
		cur := strings.ToUpper(strings.TrimSpace(row[0]))
		out[cur] = append(out[cur], FXRate{Currency: cur, Date: d, RatePerUSD: rate})
	}
	sortFX(out)
	return out, nil
}

// parseCellDate accepts ISO dates and the m/d/yy rendering excelize
// produces for date-formatted cells.
func parseCellDate(cell string) (time.Time, error) {
	s := strings.TrimSpace(cell)
	for _, layout := range []string{"2006-01-02", "1/2/06", "01-02-06", "2-Jan-06"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func sortFX(fx map[string][]FXRate) {
	for cur := range fx {
		rates := fx[cur]
		sort.Slice(rates, func(i, j int) bool { return rates[i].Date.Before(rates[j].Date) })
		fx[cur] = rates
	}
}
