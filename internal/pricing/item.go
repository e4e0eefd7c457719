package pricing

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrInvalidItem is the sentinel wrapped by ItemError.
var ErrInvalidItem = errors.New("pricing: invalid line item")

// LineItem is one purchased product occurrence.
type LineItem struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
	ProductCode string          `json:"productCode" validate:"required"`
}

// ItemError reports which line item failed validation and why.
type ItemError struct {
	Index  int
	Field  string
	Reason string
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("pricing: item %d: %s %s", e.Index, e.Field, e.Reason)
}

// Unwrap lets callers match ErrInvalidItem with errors.Is.
func (e *ItemError) Unwrap() error { return ErrInvalidItem }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// ValidateItems checks every item and returns the first failure.
func ValidateItems(items []LineItem) error {
	for i, it := range items {
		if strings.TrimSpace(it.ProductCode) == "" {
			return &ItemError{Index: i, Field: "productCode", Reason: "is required"}
		}
		if err := validate.Struct(it); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				return &ItemError{Index: i, Field: jsonName(verrs[0].Field()), Reason: reasonFor(verrs[0].Tag())}
			}
			return fmt.Errorf("%w: item %d: %v", ErrInvalidItem, i, err)
		}
	}
	return nil
}

func jsonName(field string) string {
	switch field {
	case "ProductCode":
		return "productCode"
	case "Price":
		return "price"
	default:
		return strings.ToLower(field)
	}
}

func reasonFor(tag string) string {
	switch tag {
	case "required":
		return "is required"
	case "gte":
		return "must not be negative"
	default:
		return "is invalid"
	}
}
