package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidRules is returned when a rule configuration cannot be used by the engine.
var ErrInvalidRules = errors.New("pricing: invalid rules")

// RuleKind identifies one of the closed set of discount rules.
type RuleKind int

const (
	// Percent10 discounts each item by the first percentage tier.
	Percent10 RuleKind = iota
	// Percent15 discounts each item by the second percentage tier.
	Percent15
	// Percent20 discounts each item by the third percentage tier.
	Percent20
	// BulkBuy charges one of every two items sharing an offer.
	BulkBuy
	// Package takes a fixed amount off the combined package subtotal.
	Package
	// None charges full price.
	None
)

// Kinds lists every rule kind in evaluation order.
var Kinds = [...]RuleKind{Percent10, Percent15, Percent20, BulkBuy, Package, None}

func (k RuleKind) String() string {
	switch k {
	case Percent10:
		return "percent_10"
	case Percent15:
		return "percent_15"
	case Percent20:
		return "percent_20"
	case BulkBuy:
		return "bulk_buy_2_get_1"
	case Package:
		return "package"
	case None:
		return "none"
	default:
		return "unknown"
	}
}

// BulkStrategy selects how bulk-buy items are charged.
type BulkStrategy string

const (
	// BulkGrouped evaluates every distinct product code as its own offer.
	BulkGrouped BulkStrategy = "grouped"
	// BulkRanked ranks all bulk-buy items by price and gives away the cheapest.
	BulkRanked BulkStrategy = "ranked"
)

// ParseBulkStrategy maps a configuration value onto a BulkStrategy.
func ParseBulkStrategy(value string) (BulkStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(BulkGrouped):
		return BulkGrouped, nil
	case string(BulkRanked):
		return BulkRanked, nil
	default:
		return "", fmt.Errorf("%w: unknown bulk strategy %q", ErrInvalidRules, value)
	}
}

// PercentTier binds a product-code prefix to a percentage discount.
type PercentTier struct {
	Prefix  string
	Percent decimal.Decimal
}

// Rules is the immutable parameter set for the rule catalog.
type Rules struct {
	Percent10 PercentTier
	Percent15 PercentTier
	Percent20 PercentTier

	BulkBuyPrefix string
	BulkStrategy  BulkStrategy

	PackagePrefix   string
	PackageDiscount decimal.Decimal

	// PointsDivisor is the spend needed for one loyalty point outside the percent tiers.
	PointsDivisor decimal.Decimal

	Threshold        decimal.Decimal
	ThresholdPercent decimal.Decimal
}

// DefaultRules returns the standard store rules.
func DefaultRules() Rules {
	return Rules{
		Percent10:        PercentTier{Prefix: "DIS_10", Percent: decimal.NewFromInt(10)},
		Percent15:        PercentTier{Prefix: "DIS_15", Percent: decimal.NewFromInt(15)},
		Percent20:        PercentTier{Prefix: "DIS_20", Percent: decimal.NewFromInt(20)},
		BulkBuyPrefix:    "BULK_BUY_2_GET_1",
		BulkStrategy:     BulkGrouped,
		PackagePrefix:    "PACKAGE_20",
		PackageDiscount:  decimal.NewFromInt(20),
		PointsDivisor:    decimal.NewFromInt(5),
		Threshold:        decimal.NewFromInt(500),
		ThresholdPercent: decimal.NewFromInt(5),
	}
}

// Prefix returns the product-code prefix for kind. None has no prefix.
func (r Rules) Prefix(kind RuleKind) string {
	switch kind {
	case Percent10:
		return r.Percent10.Prefix
	case Percent15:
		return r.Percent15.Prefix
	case Percent20:
		return r.Percent20.Prefix
	case BulkBuy:
		return r.BulkBuyPrefix
	case Package:
		return r.PackagePrefix
	default:
		return ""
	}
}

// Validate checks that the rules describe a usable, unambiguous catalog.
func (r Rules) Validate() error {
	hundred := decimal.NewFromInt(100)
	for _, tier := range []PercentTier{r.Percent10, r.Percent15, r.Percent20} {
		if !tier.Percent.IsPositive() || tier.Percent.GreaterThanOrEqual(hundred) {
			return fmt.Errorf("%w: percent for %q must be between 0 and 100", ErrInvalidRules, tier.Prefix)
		}
	}
	if !r.PointsDivisor.IsPositive() {
		return fmt.Errorf("%w: points divisor must be positive", ErrInvalidRules)
	}
	if r.PackageDiscount.IsNegative() {
		return fmt.Errorf("%w: package discount must not be negative", ErrInvalidRules)
	}
	if r.Threshold.IsNegative() {
		return fmt.Errorf("%w: threshold must not be negative", ErrInvalidRules)
	}
	if r.ThresholdPercent.IsNegative() || r.ThresholdPercent.GreaterThan(hundred) {
		return fmt.Errorf("%w: threshold percent must be between 0 and 100", ErrInvalidRules)
	}
	if _, err := ParseBulkStrategy(string(r.BulkStrategy)); err != nil {
		return err
	}

	// Prefixes must be non-empty and mutually non-prefixing so an item can only match one rule.
	prefixes := make([]string, 0, len(Kinds)-1)
	for _, kind := range Kinds {
		if kind == None {
			continue
		}
		p := r.Prefix(kind)
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: prefix for %s is required", ErrInvalidRules, kind)
		}
		prefixes = append(prefixes, p)
	}
	for i, a := range prefixes {
		for j, b := range prefixes {
			if i != j && strings.HasPrefix(a, b) {
				return fmt.Errorf("%w: prefix %q overlaps %q", ErrInvalidRules, a, b)
			}
		}
	}
	return nil
}

func (r Rules) percentFor(kind RuleKind) decimal.Decimal {
	switch kind {
	case Percent10:
		return r.Percent10.Percent
	case Percent15:
		return r.Percent15.Percent
	case Percent20:
		return r.Percent20.Percent
	default:
		return decimal.Zero
	}
}
