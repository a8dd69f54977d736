package currency

import (
	"fmt"
	"sort"
	"time"

	"github.com/erp/finstate/internal/domain/shared"
	"github.com/erp/finstate/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Rate is a conversion rate valid from its date until superseded by the
// next younger rate of the same pair
type Rate struct {
	shared.BaseEntity
	PairID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ValidFrom time.Time       `gorm:"not null"`
	Rate      decimal.Decimal `gorm:"type:decimal(18,8);not null"`
	Deleted   bool            `gorm:"not null;default:false"`
}

// Pair is a currency pair owning a time-ordered list of rates. The list is
// kept sorted descending by valid-from date; the active rate at a given
// date is the first entry whose valid-from is not after that date.
type Pair struct {
	shared.BaseEntity
	Source  valueobject.Currency `gorm:"size:3;not null"`
	Target  valueobject.Currency `gorm:"size:3;not null"`
	Rates   []Rate               `gorm:"foreignKey:PairID"`
	Deleted bool                 `gorm:"not null;default:false"`
}

// TableName maps the aggregate to its table
func (Pair) TableName() string {
	return "currency_pairs"
}

// TableName maps rates to their table
func (Rate) TableName() string {
	return "currency_rates"
}

// SortRates orders the rate list descending by valid-from date
func (p *Pair) SortRates() {
	sort.Slice(p.Rates, func(i, j int) bool {
		return p.Rates[i].ValidFrom.After(p.Rates[j].ValidFrom)
	})
}

// RateAt returns the rate effective at the given date: the first entry of
// the descending list whose valid-from date is not after atDate. When no
// such rate exists and fallbackToOldest is set, the chronologically
// earliest rate is returned together with fellBack=true so the caller can
// record the compliance caveat; this path serves historical invoices
// predating any recorded rate and must never be silent.
func (p *Pair) RateAt(atDate time.Time, fallbackToOldest bool) (rate *Rate, fellBack bool) {
	day := valueobject.TruncateToDay(atDate)
	var oldest *Rate
	for i := range p.Rates {
		r := &p.Rates[i]
		if r.Deleted {
			continue
		}
		if !valueobject.TruncateToDay(r.ValidFrom).After(day) {
			return r, false
		}
		oldest = r
	}
	if fallbackToOldest && oldest != nil {
		return oldest, true
	}
	return nil, false
}

// Matches reports whether the pair converts between the two currencies,
// and whether the stored rate has to be inverted for that direction
func (p *Pair) Matches(from, to valueobject.Currency) (ok, inverted bool) {
	if p.Source == from && p.Target == to {
		return true, false
	}
	if p.Source == to && p.Target == from {
		return true, true
	}
	return false, false
}

// ConversionWarning formats the warning recorded when a conversion is
// unavailable and the caller falls back to the original amount
func ConversionWarning(reference string, date time.Time, from, to valueobject.Currency) string {
	return fmt.Sprintf("%s (%s): %s → %s", reference, date.Format("2006-01-02"), from, to)
}
