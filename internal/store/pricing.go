package store

// Pricing holds the gateway-side shipping quote. All amounts are integer
// minor units; order totals proper are the backend's business.
type Pricing struct {
	ShippingFee     int64
	FreeShippingMin int64
}

// Shipping is free at or above the threshold (inclusive) and for an empty
// cart.
func (p Pricing) Shipping(subtotal int64) int64 {
	if subtotal == 0 || subtotal >= p.FreeShippingMin {
		return 0
	}
	return p.ShippingFee
}

type Summary struct {
	Count    int   `json:"count"`
	Subtotal int64 `json:"subtotal"`
	Shipping int64 `json:"shipping"`
	Total    int64 `json:"total"`
}
