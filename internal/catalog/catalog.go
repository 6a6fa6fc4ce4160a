// Package catalog serves the product list the storefront sells from.
package catalog

import (
	"sort"
	"strings"
)

type Variant struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Price int64  `json:"price"`
}

type Product struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	Images      []string  `json:"images"`
	Category    string    `json:"category"`
	Brand       string    `json:"brand"`
	Variants    []Variant `json:"variants,omitempty"`
}

// ListPrice is the price shown in listings: the first variant's price when
// the product has variants, the product price otherwise.
func (p Product) ListPrice() int64 {
	if len(p.Variants) > 0 && p.Variants[0].Price > 0 {
		return p.Variants[0].Price
	}
	return p.Price
}

// Variant finds a variant by id.
func (p Product) Variant(id string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

type SortOrder string

const (
	SortRelevance SortOrder = "relevance"
	SortPriceLow  SortOrder = "price-low"
	SortPriceHigh SortOrder = "price-high"
	SortName      SortOrder = "name"
	SortBrand     SortOrder = "brand"
)

// Query filters and orders a product listing. Zero values disable a filter.
type Query struct {
	Text       string
	Brands     []string
	Categories []string
	MinPrice   int64
	MaxPrice   int64
	Sort       SortOrder
}

type Catalog struct {
	products []Product
	byID     map[string]int
}

func New(products []Product) *Catalog {
	c := &Catalog{
		products: make([]Product, len(products)),
		byID:     make(map[string]int, len(products)),
	}
	copy(c.products, products)
	for i, p := range c.products {
		c.byID[p.ID] = i
	}
	return c
}

// Default returns the catalog backed by DefaultProducts.
func Default() *Catalog {
	return New(DefaultProducts)
}

func (c *Catalog) Products() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Catalog) Product(id string) (Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// PriceFor resolves the unit price for a product, or one of its variants when
// variantID is set.
func (c *Catalog) PriceFor(productID, variantID string) (int64, bool) {
	p, ok := c.Product(productID)
	if !ok {
		return 0, false
	}
	if variantID == "" {
		return p.Price, true
	}
	v, ok := p.Variant(variantID)
	if !ok {
		return 0, false
	}
	return v.Price, true
}

func (c *Catalog) Brands() []string {
	return c.distinct(func(p Product) string { return p.Brand })
}

func (c *Catalog) Categories() []string {
	return c.distinct(func(p Product) string { return p.Category })
}

func (c *Catalog) distinct(field func(Product) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range c.products {
		v := field(p)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Search applies q to the catalog. Relevance keeps catalog order.
func (c *Catalog) Search(q Query) []Product {
	text := strings.ToLower(strings.TrimSpace(q.Text))

	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		if text != "" && !matchesText(p, text) {
			continue
		}
		if len(q.Brands) > 0 && !contains(q.Brands, p.Brand) {
			continue
		}
		if len(q.Categories) > 0 && !contains(q.Categories, p.Category) {
			continue
		}
		price := p.ListPrice()
		if q.MinPrice > 0 && price < q.MinPrice {
			continue
		}
		if q.MaxPrice > 0 && price > q.MaxPrice {
			continue
		}
		out = append(out, p)
	}

	switch q.Sort {
	case SortPriceLow:
		sort.SliceStable(out, func(i, j int) bool { return out[i].ListPrice() < out[j].ListPrice() })
	case SortPriceHigh:
		sort.SliceStable(out, func(i, j int) bool { return out[i].ListPrice() > out[j].ListPrice() })
	case SortName:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	case SortBrand:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Brand < out[j].Brand })
	}
	return out
}

func matchesText(p Product, text string) bool {
	for _, f := range []string{p.Title, p.Brand, p.Category, p.Description} {
		if strings.Contains(strings.ToLower(f), text) {
			return true
		}
	}
	return false
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if strings.EqualFold(x, v) {
			return true
		}
	}
	return false
}
