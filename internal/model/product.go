// Package model contains domain types for the storefront application.
// These types mirror the shop API's JSON payloads.
package model

import (
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Products are never mutated after they are
// decoded from a page response.
type Product struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	ImagePath   string          `json:"picture"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
}

// Page is one server-paginated slice of the product catalog.
type Page struct {
	Items       []Product `json:"data"`
	CurrentPage int       `json:"current_page"`
	LastPage    int       `json:"last_page"`
	PerPage     int       `json:"per_page"`
	Total       int       `json:"total"`
}

// HasNext reports whether the server knows about a page after this one.
func (p *Page) HasNext() bool {
	return p.CurrentPage < p.LastPage
}

// ImageURL joins the product's image path onto base.
// An empty base returns the path unchanged.
func (p Product) ImageURL(base string) string {
	if base == "" || p.ImagePath == "" {
		return p.ImagePath
	}
	if base[len(base)-1] == '/' && p.ImagePath[0] == '/' {
		return base + p.ImagePath[1:]
	}
	return base + p.ImagePath
}
