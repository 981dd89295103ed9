package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/gyaneshwarpardhi/eventpulse/internal/event"
)

// Revenue holds the money indicators of an event.
type Revenue struct {
	Total decimal.Decimal `json:"total_revenue"`

	// TicketPrice is invalid (JSON null) when no credit was recorded.
	TicketPrice decimal.NullDecimal `json:"ticket_price"`
	Credits     int                 `json:"credits"`
	Reversals   int                 `json:"reversals"`
}

// signedAmount is the contribution of t to revenue: +amount for credits,
// -amount for reversals. t must have passed the validity filter.
func signedAmount(t event.Transaction) decimal.Decimal {
	if *t.Credit {
		return *t.Amount
	}
	return t.Amount.Neg()
}

// AggregateRevenue sums eligible transactions.
func AggregateRevenue(txs []event.Transaction) Revenue {
	r := Revenue{Total: decimal.Zero}
	credited := decimal.Zero
	for _, t := range txs {
		r.Total = r.Total.Add(signedAmount(t))
		if *t.Credit {
			credited = credited.Add(*t.Amount)
			r.Credits++
		} else {
			r.Reversals++
		}
	}
	if r.Credits > 0 {
		mean := credited.Div(decimal.NewFromInt(int64(r.Credits))).Round(2)
		r.TicketPrice = decimal.NewNullDecimal(mean)
	}
	return r
}
