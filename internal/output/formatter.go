// Package output renders product listings and the cart for non-interactive
// commands.
package output

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spiffcs/storefront/internal/cart"
	"github.com/spiffcs/storefront/internal/model"
)

// Format represents the output format
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a format name. An empty name selects the table.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON, FormatMarkdown:
		return Format(s), nil
	default:
		return "", fmt.Errorf("invalid output format %q (valid: table, json, markdown)", s)
	}
}

// Listing is the visible part of the catalog at one point in time.
type Listing struct {
	Items        []model.Product
	VisiblePage  int
	LastPage     int
	ImageBaseURL string
}

// CartSummary is a snapshot of the cart for rendering.
type CartSummary struct {
	Lines      []cart.Line
	TotalItems int
	TotalPrice decimal.Decimal
}

// SummarizeCart takes a snapshot of c.
func SummarizeCart(c *cart.Cart) CartSummary {
	return CartSummary{
		Lines:      c.Items(),
		TotalItems: c.TotalItems(),
		TotalPrice: c.TotalPrice(),
	}
}

// Formatter defines the interface for output formatters
type Formatter interface {
	Format(l Listing, w io.Writer) error
	FormatCart(c CartSummary, w io.Writer) error
}

// NewFormatter creates a formatter for the specified format
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Pretty: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{}
	}
}
