package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/spiffcs/storefront/internal/format"
)

// MarkdownFormatter formats output as Markdown
type MarkdownFormatter struct{}

// escapeCell keeps pipes and newlines from breaking a table row.
func escapeCell(s string) string {
	return strings.ReplaceAll(format.SingleLine(s), "|", `\|`)
}

// Format outputs the listing as a Markdown table
func (f *MarkdownFormatter) Format(l Listing, w io.Writer) error {
	if len(l.Items) == 0 {
		fmt.Fprintln(w, "No products found.")
		return nil
	}

	fmt.Fprintf(w, "# Products (page %d of %d)\n\n", l.VisiblePage, l.LastPage)
	fmt.Fprintln(w, "| ID | Name | Price | Description |")
	fmt.Fprintln(w, "|---:|------|------:|-------------|")
	for _, p := range l.Items {
		name := escapeCell(p.Name)
		if u := p.ImageURL(l.ImageBaseURL); u != "" {
			name = fmt.Sprintf("[%s](%s)", name, u)
		}
		fmt.Fprintf(w, "| %d | %s | %s | %s |\n", p.ID, name, format.Price(p.Price), escapeCell(p.Description))
	}
	return nil
}

// FormatCart outputs the cart as a Markdown table
func (f *MarkdownFormatter) FormatCart(c CartSummary, w io.Writer) error {
	if len(c.Lines) == 0 {
		fmt.Fprintln(w, "Your cart is empty.")
		return nil
	}

	fmt.Fprintln(w, "| Product | Qty | Price | Subtotal |")
	fmt.Fprintln(w, "|---------|----:|------:|---------:|")
	for _, l := range c.Lines {
		fmt.Fprintf(w, "| %s | %d | %s | %s |\n", escapeCell(l.Product.Name), l.Quantity, format.Price(l.Product.Price), format.Price(l.Subtotal()))
	}
	fmt.Fprintf(w, "| **Total** | %d | | **%s** |\n", c.TotalItems, format.Price(c.TotalPrice))
	return nil
}
