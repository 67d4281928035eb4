package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spiffcs/storefront/internal/format"
)

const (
	defaultWidth = 80
	priceWidth   = 10
	qtyWidth     = 5
)

// View renders the model.
func (m CatalogModel) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	switch m.pane {
	case paneDetail:
		b.WriteString(m.renderDetail())
	case paneCart:
		b.WriteString(m.renderCart())
	default:
		b.WriteString(m.renderList())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

func (m CatalogModel) viewWidth() int {
	if m.width == 0 {
		return defaultWidth
	}
	return m.width
}

func (m CatalogModel) renderHeader() string {
	left := titleStyle.Render("Storefront")
	if m.username != "" {
		left += dimStyle.Render("  " + m.username)
	}
	right := inCartStyle.Render(m.cartBadge())

	gap := m.viewWidth() - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 2 {
		gap = 2
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m CatalogModel) nameWidth() int {
	w := m.viewWidth() - 2 - priceWidth - qtyWidth - 2
	if w < 10 {
		return 10
	}
	return w
}

func (m CatalogModel) renderList() string {
	var b strings.Builder
	nameW := m.nameWidth()

	header := "  " + format.PadRight("Product", nameW) + " " +
		fmt.Sprintf("%*s", priceWidth, "Price") + " " + fmt.Sprintf("%*s", qtyWidth, "Cart")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	items := m.snap.Items
	if len(items) == 0 {
		msg := "No products"
		if m.loading {
			msg = "Loading products..."
		}
		b.WriteString(emptyStyle.Render(msg))
		b.WriteString("\n")
		return b.String()
	}

	start, end := calculateScrollWindow(m.cursor, len(items), m.visibleRows())
	for i := start; i < end; i++ {
		p := items[i]

		qty := ""
		if n := m.cart.Quantity(p.ID); n > 0 {
			qty = fmt.Sprintf("×%d", n)
		}

		name := format.Fit(format.SingleLine(p.Name), nameW)
		price := fmt.Sprintf("%*s", priceWidth, format.Price(p.Price))
		inCart := fmt.Sprintf("%*s", qtyWidth, qty)

		if i == m.cursor {
			row := cursorStyle.Render(">") + " " + selectedStyle.Render(name+" "+price+" "+inCart)
			b.WriteString(row)
		} else {
			b.WriteString("  " + name + " " + priceStyle.Render(price) + " " + inCartStyle.Render(inCart))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (m CatalogModel) renderDetail() string {
	p, ok := m.selected()
	if !ok {
		return emptyStyle.Render("Nothing selected") + "\n"
	}

	width := m.viewWidth() - 4
	var b strings.Builder
	b.WriteString(titleStyle.Render(p.Name))
	b.WriteString("\n")
	b.WriteString(priceStyle.Render(format.Price(p.Price)))
	if n := m.cart.Quantity(p.ID); n > 0 {
		b.WriteString(inCartStyle.Render(fmt.Sprintf("  (%d in cart)", n)))
	}
	b.WriteString("\n\n")
	if p.Description != "" {
		b.WriteString(lipgloss.NewStyle().Width(width - 4).Render(p.Description))
		b.WriteString("\n\n")
	}
	if p.ImagePath != "" {
		b.WriteString(dimStyle.Render("Image: " + p.ImageURL(m.imageBaseURL)))
		b.WriteString("\n")
	}

	return panelStyle.Width(width).Render(b.String()) + "\n"
}

func (m CatalogModel) renderCart() string {
	lines := m.cart.Items()
	if len(lines) == 0 {
		return emptyStyle.Render("Your cart is empty") + "\n"
	}

	var b strings.Builder
	nameW := m.nameWidth()

	header := "  " + format.PadRight("Product", nameW) + " " +
		fmt.Sprintf("%*s", qtyWidth, "Qty") + " " + fmt.Sprintf("%*s", priceWidth, "Subtotal")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	start, end := calculateScrollWindow(m.cartCursor, len(lines), m.visibleRows()-2)
	for i := start; i < end; i++ {
		l := lines[i]
		name := format.Fit(format.SingleLine(l.Product.Name), nameW)
		qty := fmt.Sprintf("%*d", qtyWidth, l.Quantity)
		sub := fmt.Sprintf("%*s", priceWidth, format.Price(l.Subtotal()))

		if i == m.cartCursor {
			b.WriteString(cursorStyle.Render(">") + " " + selectedStyle.Render(name+" "+qty+" "+sub))
		} else {
			b.WriteString("  " + name + " " + qty + " " + priceStyle.Render(sub))
		}
		b.WriteString("\n")
	}

	b.WriteString(separatorStyle.Render(strings.Repeat("─", nameW+priceWidth+qtyWidth+4)))
	b.WriteString("\n")
	total := fmt.Sprintf("%d items, total %s", m.cart.TotalItems(), format.Price(m.cart.TotalPrice()))
	b.WriteString("  " + headerStyle.Render(total))
	b.WriteString("\n")

	return b.String()
}

func (m CatalogModel) renderFooter() string {
	var parts []string

	if s := m.pageSummary(); s != "" && m.pane == paneList {
		parts = append(parts, dimStyle.Render(s))
	}
	switch {
	case m.loading:
		parts = append(parts, m.spinner.View()+" Loading...")
	case m.err != nil:
		parts = append(parts, errorStyle.Render(m.err.Error())+dimStyle.Render(" (r to retry)"))
	}
	if m.status != "" {
		parts = append(parts, statusStyle.Render(m.status))
	}

	return strings.Join(parts, "  ") + "\n" + m.help.View(m.keys)
}

// calculateScrollWindow returns the [start, end) range of rows to render so
// that cursor stays visible within height rows.
func calculateScrollWindow(cursor, total, height int) (int, int) {
	if height < 1 {
		height = 1
	}
	if total <= height {
		return 0, total
	}

	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	end := start + height
	if end > total {
		end = total
		start = end - height
	}
	return start, end
}
