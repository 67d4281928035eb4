package output

import (
	"encoding/json"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spiffcs/storefront/internal/model"
)

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Pretty bool
}

// jsonProduct adds the resolved image URL to a product.
type jsonProduct struct {
	model.Product
	ImageURL string `json:"image_url,omitempty"`
}

// JSONListing is the JSON shape of a listing.
type JSONListing struct {
	Items       []jsonProduct `json:"items"`
	VisiblePage int           `json:"visible_page"`
	LastPage    int           `json:"last_page"`
	Count       int           `json:"count"`
}

type jsonCartLine struct {
	Product  model.Product   `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type jsonCart struct {
	Lines      []jsonCartLine  `json:"lines"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

func (f *JSONFormatter) encoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	if f.Pretty {
		enc.SetIndent("", "  ")
	}
	return enc
}

// Format outputs the listing as JSON
func (f *JSONFormatter) Format(l Listing, w io.Writer) error {
	out := JSONListing{
		Items:       make([]jsonProduct, 0, len(l.Items)),
		VisiblePage: l.VisiblePage,
		LastPage:    l.LastPage,
		Count:       len(l.Items),
	}
	for _, p := range l.Items {
		out.Items = append(out.Items, jsonProduct{Product: p, ImageURL: p.ImageURL(l.ImageBaseURL)})
	}
	return f.encoder(w).Encode(out)
}

// FormatCart outputs the cart as JSON
func (f *JSONFormatter) FormatCart(c CartSummary, w io.Writer) error {
	out := jsonCart{
		Lines:      make([]jsonCartLine, 0, len(c.Lines)),
		TotalItems: c.TotalItems,
		TotalPrice: c.TotalPrice,
	}
	for _, l := range c.Lines {
		out.Lines = append(out.Lines, jsonCartLine{Product: l.Product, Quantity: l.Quantity, Subtotal: l.Subtotal()})
	}
	return f.encoder(w).Encode(out)
}
