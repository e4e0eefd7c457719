package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BucketTotal is the per-rule contribution to a checkout.
type BucketTotal struct {
	Kind   RuleKind
	Items  int
	Price  decimal.Decimal
	Points decimal.Decimal
}

// Result is the outcome of a checkout.
type Result struct {
	TotalPrice     decimal.Decimal
	LoyaltyPoints  decimal.Decimal
	Subtotal       decimal.Decimal
	GlobalDiscount decimal.Decimal
	Buckets        []BucketTotal
}

// Engine computes checkouts for a fixed rule set. It holds no mutable state
// and is safe for concurrent use.
type Engine struct {
	rules      Rules
	evaluators [len(Kinds)]Evaluator
}

// NewEngine validates rules and builds the evaluator for every rule kind.
func NewEngine(rules Rules) (*Engine, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{rules: rules}
	for _, kind := range Kinds {
		switch kind {
		case Percent10, Percent15, Percent20:
			e.evaluators[kind] = PercentEvaluator{Percent: rules.percentFor(kind)}
		case BulkBuy:
			if rules.BulkStrategy == BulkRanked {
				e.evaluators[kind] = RankedBulkEvaluator{Divisor: rules.PointsDivisor}
			} else {
				e.evaluators[kind] = GroupedBulkEvaluator{Divisor: rules.PointsDivisor}
			}
		case Package:
			e.evaluators[kind] = PackageEvaluator{Discount: rules.PackageDiscount, Divisor: rules.PointsDivisor}
		case None:
			e.evaluators[kind] = FullPriceEvaluator{Divisor: rules.PointsDivisor}
		default:
			return nil, fmt.Errorf("%w: no evaluator for %s", ErrInvalidRules, kind)
		}
	}
	return e, nil
}

// Rules returns the rule set the engine was built with.
func (e *Engine) Rules() Rules { return e.rules }

// Checkout validates items, prices every rule bucket, and applies the global
// threshold discount to the grand total. Loyalty points are never discounted.
func (e *Engine) Checkout(items []LineItem) (Result, error) {
	if err := ValidateItems(items); err != nil {
		return Result{}, err
	}
	buckets := Classify(items, e.rules)

	var grand Totals
	res := Result{Buckets: make([]BucketTotal, 0, len(buckets))}
	for _, b := range buckets {
		t := e.evaluators[b.Kind].Evaluate(b.Items)
		grand = grand.Add(t)
		res.Buckets = append(res.Buckets, BucketTotal{Kind: b.Kind, Items: len(b.Items), Price: t.Price, Points: t.Points})
	}

	res.Subtotal = grand.Price
	res.TotalPrice = e.applyThreshold(grand.Price)
	res.GlobalDiscount = res.Subtotal.Sub(res.TotalPrice)
	res.LoyaltyPoints = grand.Points
	return res, nil
}

func (e *Engine) applyThreshold(subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.GreaterThan(e.rules.Threshold) {
		return subtotal
	}
	factor := decimal.NewFromInt(1).Sub(e.rules.ThresholdPercent.Div(hundred))
	return subtotal.Mul(factor)
}
