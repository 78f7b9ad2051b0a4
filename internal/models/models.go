package models

// Price fields are integer minor units (e.g. cents). Currency math in this
// service never touches floating point.

type Product struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Slug    string `json:"slug"`
	Price   int64  `json:"price"`
	Image   string `json:"image"`
	InStock bool   `json:"in_stock"`
}

type CartLine struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Price     int64  `json:"price"`
	Image     string `json:"image"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity"`
}

// LineKey is the cart uniqueness key: the same product in a different size or
// color is a separate line.
type LineKey struct {
	ProductID string
	Size      string
	Color     string
}

func (l CartLine) Key() LineKey {
	return LineKey{ProductID: l.ProductID, Size: l.Size, Color: l.Color}
}

// CartRef is what the remote store needs to attach a line to an account.
type CartRef struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
	Quantity  int    `json:"quantity"`
}

func (l CartLine) Ref() CartRef {
	return CartRef{ProductID: l.ProductID, Size: l.Size, Color: l.Color, Quantity: l.Quantity}
}

type WishlistEntry struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Price     int64  `json:"price"`
	Image     string `json:"image"`
	InStock   bool   `json:"in_stock"`
}
