package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-checkout/internal/pricing"
)

var (
	// ErrInvalidProduct is returned when a catalog entry is missing data or has a negative price.
	ErrInvalidProduct = errors.New("catalog: invalid product")
	// ErrDuplicateProduct is returned when two catalog entries share a product code.
	ErrDuplicateProduct = errors.New("catalog: duplicate product code")
)

// Product is a catalog entry.
type Product struct {
	Name        string           `json:"name" validate:"required"`
	Price       *decimal.Decimal `json:"price" validate:"required,gte=0"`
	ProductCode string           `json:"productCode" validate:"required"`
}

// LineItem converts the product into an engine line item.
func (p Product) LineItem() pricing.LineItem {
	item := pricing.LineItem{Name: p.Name, ProductCode: p.ProductCode}
	if p.Price != nil {
		item.Price = *p.Price
	}
	return item
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// Validate reports the first invalid field of p.
func (p Product) Validate() error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %q field %s failed %s", ErrInvalidProduct, p.ProductCode, verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidProduct, err)
	}
	return nil
}

// DecodeProducts reads a JSON array of products.
func DecodeProducts(r io.Reader) ([]Product, error) {
	var products []Product
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&products); err != nil {
		return nil, fmt.Errorf("catalog: decode products: %w", err)
	}
	return products, nil
}
