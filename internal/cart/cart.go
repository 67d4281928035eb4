// Package cart is the client-side shopping cart. It lives for the duration
// of a session and is never persisted.
package cart

import (
	"github.com/shopspring/decimal"
	"github.com/spiffcs/storefront/internal/model"
)

// Line is one product in the cart.
type Line struct {
	Product  model.Product
	Quantity int
}

// Subtotal returns price times quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart maps product ids to lines, keeping insertion order for display.
// A Cart is owned by a single view and is not safe for concurrent use.
type Cart struct {
	lines map[int]*Line
	order []int
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{lines: make(map[int]*Line)}
}

// Add inserts p with qty, or increments the quantity if p is already in the
// cart. A non-positive qty is ignored.
func (c *Cart) Add(p model.Product, qty int) {
	if qty <= 0 {
		return
	}
	if l, ok := c.lines[p.ID]; ok {
		l.Quantity += qty
		return
	}
	c.lines[p.ID] = &Line{Product: p, Quantity: qty}
	c.order = append(c.order, p.ID)
}

// UpdateQuantity sets the quantity of a product already in the cart.
// A quantity of zero or less removes it.
func (c *Cart) UpdateQuantity(id, qty int) {
	l, ok := c.lines[id]
	if !ok {
		return
	}
	if qty <= 0 {
		c.Remove(id)
		return
	}
	l.Quantity = qty
}

// Remove drops a product from the cart.
func (c *Cart) Remove(id int) {
	if _, ok := c.lines[id]; !ok {
		return
	}
	delete(c.lines, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = make(map[int]*Line)
	c.order = nil
}

// Quantity returns how many of a product are in the cart.
func (c *Cart) Quantity(id int) int {
	if l, ok := c.lines[id]; ok {
		return l.Quantity
	}
	return 0
}

// Items returns the cart lines in the order they were first added.
func (c *Cart) Items() []Line {
	out := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.lines[id])
	}
	return out
}

// Len returns the number of distinct products.
func (c *Cart) Len() int {
	return len(c.order)
}

// TotalItems returns the sum of all quantities.
func (c *Cart) TotalItems() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// TotalPrice returns the sum of all line subtotals.
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, id := range c.order {
		total = total.Add(c.lines[id].Subtotal())
	}
	return total
}
