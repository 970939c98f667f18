package normalizer

import (
	"time"

	"github.com/sri0310-dev/tesseract/internal/refdata"
	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

// extractPrice picks the best available USD total from a raw record.
//
// Priority order:
//  1. direct FOB USD total
//  2. total assessable value USD
//  3. standardized unit price USD x standardized quantity
//  4. unit price USD x quantity
//  5. local-currency total / declared exchange rate
//  6. local item rate x quantity / declared exchange rate
//  7. local-currency total / reference FX rate for (currency, date)
//
// The declared rate on the record wins over the reference table because
// it is the rate customs actually assessed at.
func extractPrice(raw domain.RawRecord, snap *refdata.Snapshot, tradeDate time.Time) (*float64, domain.PriceSource) {
	if v := positive(raw.FOBValueUSD); v != nil {
		return v, domain.SourceFOBUSD
	}
	if v := positive(raw.TotalValueUSD); v != nil {
		return v, domain.SourceTotalUSD
	}
	if raw.StdUnitPriceUSD != nil && raw.StdQuantity != nil {
		if v := positiveVal(*raw.StdUnitPriceUSD * *raw.StdQuantity); v != nil {
			return v, domain.SourceStdUnitPrice
		}
	}
	if raw.UnitPriceUSD != nil && raw.Quantity != nil {
		if v := positiveVal(*raw.UnitPriceUSD * *raw.Quantity); v != nil {
			return v, domain.SourceUnitPrice
		}
	}

	declaredRate := positive(raw.ExchangeRate)
	if raw.TotalValueLocal != nil && declaredRate != nil {
		if v := positiveVal(*raw.TotalValueLocal / *declaredRate); v != nil {
			return v, domain.SourceLocalTotal
		}
	}
	if raw.ItemRateLocal != nil && raw.Quantity != nil && declaredRate != nil {
		if v := positiveVal(*raw.ItemRateLocal * *raw.Quantity / *declaredRate); v != nil {
			return v, domain.SourceLocalItemRate
		}
	}

	// Reference FX fallback when the record declares no rate of its own.
	if raw.TotalValueLocal != nil && declaredRate == nil && raw.Currency != "" && !tradeDate.IsZero() {
		if rate, ok := snap.FXRateFor(raw.Currency, tradeDate); ok && rate > 0 {
			if v := positiveVal(*raw.TotalValueLocal / rate); v != nil {
				return v, domain.SourceReferenceFX
			}
		}
	}

	return nil, domain.SourceNone
}

func positive(p *float64) *float64 {
	if p == nil || *p <= 0 {
		return nil
	}
	v := *p
	return &v
}

func positiveVal(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}
