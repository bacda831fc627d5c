package domain

import "github.com/shopspring/decimal"

// TaxRate is the flat sales tax applied to every cart.
var TaxRate = decimal.RequireFromString("0.07")

type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals derives subtotal, tax and total from cart lines. Values are
// exact; rounding to cents happens only when formatting.
func ComputeTotals(items []CartItem) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	tax := subtotal.Mul(TaxRate)
	return Totals{Subtotal: subtotal, Tax: tax, Total: subtotal.Add(tax)}
}

// OrderTotals is the two-decimal string form stored with purchases.
type OrderTotals struct {
	Subtotal   string `json:"subtotal"`
	Tax        string `json:"tax"`
	TotalPrice string `json:"totalPrice"`
}

func (t Totals) Fixed() OrderTotals {
	return OrderTotals{
		Subtotal:   t.Subtotal.StringFixed(2),
		Tax:        t.Tax.StringFixed(2),
		TotalPrice: t.Total.StringFixed(2),
	}
}
