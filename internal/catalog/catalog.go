package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/noah-isme/toko-checkout/internal/pricing"
)

// Catalog is an immutable, validated product index. It is safe for concurrent use.
type Catalog struct {
	products []Product
	byCode   map[string]int
}

// New validates products and indexes them by product code.
func New(products []Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]Product, 0, len(products)),
		byCode:   make(map[string]int, len(products)),
	}
	for _, p := range products {
		p.ProductCode = strings.TrimSpace(p.ProductCode)
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, exists := c.byCode[p.ProductCode]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProduct, p.ProductCode)
		}
		c.byCode[p.ProductCode] = len(c.products)
		c.products = append(c.products, p)
	}
	return c, nil
}

// Load reads products from src and builds a Catalog.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	products, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	return New(products)
}

// Len returns the number of products.
func (c *Catalog) Len() int { return len(c.products) }

// Codes returns every product code in catalog order.
func (c *Catalog) Codes() []string {
	codes := make([]string, 0, len(c.products))
	for _, p := range c.products {
		codes = append(codes, p.ProductCode)
	}
	return codes
}

// Products returns a copy of the product list in catalog order.
func (c *Catalog) Products() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Get looks up a product by exact code.
func (c *Catalog) Get(code string) (Product, bool) {
	i, ok := c.byCode[code]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// Resolve turns product codes into line items in request order. Codes the
// catalog does not know are left out of items and returned in unknown.
func (c *Catalog) Resolve(codes []string) (items []pricing.LineItem, unknown []string) {
	items = make([]pricing.LineItem, 0, len(codes))
	for _, code := range codes {
		p, ok := c.Get(code)
		if !ok {
			unknown = append(unknown, code)
			continue
		}
		items = append(items, p.LineItem())
	}
	return items, unknown
}
