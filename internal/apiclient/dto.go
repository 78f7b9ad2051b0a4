package apiclient

import (
	"encoding/json"

	"github.com/trendora/storefront/internal/models"
)

// The shop backend is not consistent about shapes: images arrive either as a
// bare URL string or as an object with a url field, colors and sizes either
// as a label string or as an object with a name field. Everything is coerced
// into the canonical records here, at the ingress boundary, so nothing past
// this package branches on representation.

type flexImage string

func (f *flexImage) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexImage(s)
		return nil
	}
	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*f = flexImage(obj.URL)
	return nil
}

type flexLabel string

func (f *flexLabel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexLabel(s)
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*f = flexLabel(obj.Name)
	return nil
}

type productDTO struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Slug    string    `json:"slug"`
	Price   int64     `json:"price"`
	Image   flexImage `json:"image"`
	InStock bool      `json:"in_stock"`
}

func (p productDTO) toProduct() models.Product {
	return models.Product{
		ID:      p.ID,
		Name:    p.Name,
		Slug:    p.Slug,
		Price:   p.Price,
		Image:   string(p.Image),
		InStock: p.InStock,
	}
}

type cartLineDTO struct {
	ID       string     `json:"id"`
	Product  productDTO `json:"product"`
	Size     flexLabel  `json:"size"`
	Color    flexLabel  `json:"color"`
	Quantity int        `json:"quantity"`
}

func (l cartLineDTO) toLine() models.CartLine {
	return models.CartLine{
		ID:        l.ID,
		ProductID: l.Product.ID,
		Name:      l.Product.Name,
		Slug:      l.Product.Slug,
		Price:     l.Product.Price,
		Image:     string(l.Product.Image),
		Size:      string(l.Size),
		Color:     string(l.Color),
		Quantity:  l.Quantity,
	}
}

type wishlistEntryDTO struct {
	Product productDTO `json:"product"`
}

func (e wishlistEntryDTO) toEntry() models.WishlistEntry {
	return models.WishlistEntry{
		ProductID: e.Product.ID,
		Name:      e.Product.Name,
		Slug:      e.Product.Slug,
		Price:     e.Product.Price,
		Image:     string(e.Product.Image),
		InStock:   e.Product.InStock,
	}
}
