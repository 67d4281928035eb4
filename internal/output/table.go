package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spiffcs/storefront/internal/format"
	"golang.org/x/term"
)

// Column widths
const (
	colID    = 6
	colName  = 32
	colPrice = 11
	colDesc  = 48
)

// TableFormatter formats output as a terminal table
type TableFormatter struct {
	// Hyperlinks forces OSC 8 links on or off; nil detects a terminal.
	Hyperlinks *bool
}

// hyperlink creates a clickable terminal hyperlink using OSC 8
func (f *TableFormatter) hyperlink(text, url string) string {
	if url == "" {
		return text
	}
	enabled := term.IsTerminal(int(os.Stdout.Fd()))
	if f.Hyperlinks != nil {
		enabled = *f.Hyperlinks
	}
	if !enabled {
		return text
	}
	return fmt.Sprintf("\033]8;;%s\033\\%s\033]8;;\033\\", url, text)
}

// Format outputs the listing as a table
func (f *TableFormatter) Format(l Listing, w io.Writer) error {
	if len(l.Items) == 0 {
		fmt.Fprintln(w, "No products found.")
		return nil
	}

	fmt.Fprintf(w, "%-*s  %-*s  %*s  %s\n",
		colID, "ID",
		colName, "Name",
		colPrice, "Price",
		"Description")
	fmt.Fprintln(w, strings.Repeat("-", colID+colName+colPrice+colDesc+6))

	for _, p := range l.Items {
		name := format.Fit(format.SingleLine(p.Name), colName)
		// pad before linking so escape codes do not count toward the width
		name = f.hyperlink(name, p.ImageURL(l.ImageBaseURL))

		price := fmt.Sprintf("%*s", colPrice, format.Price(p.Price))
		desc, _ := format.TruncateToWidth(format.SingleLine(p.Description), colDesc)

		fmt.Fprintf(w, "%-*d  %s  %s  %s\n",
			colID, p.ID,
			name,
			color.GreenString(price),
			desc,
		)
	}

	printFooter(l, w)
	return nil
}

func printFooter(l Listing, w io.Writer) {
	fmt.Fprintln(w)
	pages := fmt.Sprintf("pages 1-%d of %d", l.VisiblePage, l.LastPage)
	if l.VisiblePage == 1 {
		pages = fmt.Sprintf("page 1 of %d", l.LastPage)
	}
	fmt.Fprintf(w, "  %s %d products, %s\n", color.CyanString("●"), len(l.Items), pages)
	if l.VisiblePage < l.LastPage {
		fmt.Fprintf(w, "  %s\n", color.HiBlackString("use --page %d or --all to see more", l.VisiblePage+1))
	}
}

// FormatCart outputs the cart as a table
func (f *TableFormatter) FormatCart(c CartSummary, w io.Writer) error {
	if len(c.Lines) == 0 {
		fmt.Fprintln(w, "Your cart is empty.")
		return nil
	}

	for _, l := range c.Lines {
		fmt.Fprintf(w, "%-*s  %3dx %*s  %*s\n",
			colName, format.Fit(format.SingleLine(l.Product.Name), colName),
			l.Quantity,
			colPrice, format.Price(l.Product.Price),
			colPrice, format.Price(l.Subtotal()),
		)
	}
	fmt.Fprintln(w, strings.Repeat("-", colName+colPrice*2+10))
	fmt.Fprintf(w, "%-*s  %4d %*s  %s\n",
		colName, "Total",
		c.TotalItems,
		colPrice, "",
		color.New(color.Bold).Sprintf("%*s", colPrice, format.Price(c.TotalPrice)),
	)
	return nil
}
