package orders

import (
	"fmt"
)

// Pricing holds the checkout pricing constants. All arithmetic is integer
// minor-units; the tax rate is in basis points.
type Pricing struct {
	Currency          string
	ShippingFlatCents int64
	TaxRateBps        int64
}

type Totals struct {
	SubtotalCents int64       `json:"subtotal_cents"`
	ShippingCents int64       `json:"shipping_cents"`
	TaxCents      int64       `json:"tax_cents"`
	TotalCents    int64       `json:"total_cents"`
	Human         HumanTotals `json:"human"`
}

type HumanTotals struct {
	Subtotal string `json:"subtotal"`
	Shipping string `json:"shipping"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

// Quote prices a cart of quantity units at unitPriceCents each. Tax is
// rounded half-up on the subtotal.
func (p Pricing) Quote(unitPriceCents int64, quantity int) Totals {
	subtotal := unitPriceCents * int64(quantity)
	tax := (subtotal*p.TaxRateBps + 5000) / 10000
	total := subtotal + p.ShippingFlatCents + tax

	return Totals{
		SubtotalCents: subtotal,
		ShippingCents: p.ShippingFlatCents,
		TaxCents:      tax,
		TotalCents:    total,
		Human: HumanTotals{
			Subtotal: formatUSD(subtotal),
			Shipping: formatUSD(p.ShippingFlatCents),
			Tax:      formatUSD(tax),
			Total:    formatUSD(total),
		},
	}
}

func formatUSD(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
