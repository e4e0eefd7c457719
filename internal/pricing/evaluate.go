package pricing

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Totals is the charged price and the loyalty points earned by a bucket.
type Totals struct {
	Price  decimal.Decimal
	Points decimal.Decimal
}

// Add returns the elementwise sum of t and o.
func (t Totals) Add(o Totals) Totals {
	return Totals{Price: t.Price.Add(o.Price), Points: t.Points.Add(o.Points)}
}

// Evaluator prices a single rule bucket.
type Evaluator interface {
	Evaluate(items []LineItem) Totals
}

// PercentEvaluator charges price × (1 − P/100) and awards price / P points per item.
type PercentEvaluator struct {
	Percent decimal.Decimal
}

func (e PercentEvaluator) Evaluate(items []LineItem) Totals {
	factor := decimal.NewFromInt(1).Sub(e.Percent.Div(hundred))
	var t Totals
	for _, it := range items {
		t.Price = t.Price.Add(it.Price.Mul(factor))
		t.Points = t.Points.Add(it.Price.Div(e.Percent))
	}
	return t
}

// FullPriceEvaluator charges full price and awards price / Divisor points per item.
type FullPriceEvaluator struct {
	Divisor decimal.Decimal
}

func (e FullPriceEvaluator) Evaluate(items []LineItem) Totals {
	var t Totals
	for _, it := range items {
		t.Price = t.Price.Add(it.Price)
		t.Points = t.Points.Add(it.Price.Div(e.Divisor))
	}
	return t
}

// ChargeableUnits returns how many of n bulk-buy units are paid for.
func ChargeableUnits(n int) int {
	free := n / 2
	if free == 0 {
		return n
	}
	return n - free
}

// GroupedBulkEvaluator treats each distinct product code as an independent offer.
// Points are computed once on the bucket subtotal.
type GroupedBulkEvaluator struct {
	Divisor decimal.Decimal
}

func (e GroupedBulkEvaluator) Evaluate(items []LineItem) Totals {
	var subtotal decimal.Decimal
	for _, g := range GroupByCode(items) {
		if len(g.Items) == 0 {
			continue
		}
		units := decimal.NewFromInt(int64(ChargeableUnits(len(g.Items))))
		subtotal = subtotal.Add(g.Items[0].Price.Mul(units))
	}
	return Totals{Price: subtotal, Points: subtotal.Div(e.Divisor)}
}

// RankedBulkEvaluator ranks every bulk-buy item by price, most expensive first,
// and charges only the top ChargeableUnits of them regardless of product code.
type RankedBulkEvaluator struct {
	Divisor decimal.Decimal
}

func (e RankedBulkEvaluator) Evaluate(items []LineItem) Totals {
	ranked := make([]LineItem, len(items))
	copy(ranked, items)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Price.GreaterThan(ranked[j].Price)
	})
	charged := ranked[:ChargeableUnits(len(ranked))]
	return FullPriceEvaluator{Divisor: e.Divisor}.Evaluate(charged)
}

// PackageEvaluator takes a fixed Discount off the combined subtotal when the
// subtotal covers it. Points are earned on the undiscounted subtotal.
type PackageEvaluator struct {
	Discount decimal.Decimal
	Divisor  decimal.Decimal
}

func (e PackageEvaluator) Evaluate(items []LineItem) Totals {
	t := FullPriceEvaluator{Divisor: e.Divisor}.Evaluate(items)
	if t.Price.GreaterThanOrEqual(e.Discount) {
		t.Price = t.Price.Sub(e.Discount)
	}
	return t
}
