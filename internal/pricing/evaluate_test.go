package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func li(price, code string) LineItem {
	return LineItem{Name: code, Price: decimal.RequireFromString(price), ProductCode: code}
}

func TestClassifyPartitionsEveryItem(t *testing.T) {
	items := []LineItem{
		li("1", "DIS_10-A"),
		li("1", "DIS_15-B"),
		li("1", "DIS_20-C"),
		li("1", "BULK_BUY_2_GET_1-D"),
		li("1", "PACKAGE_20_E"),
		li("1", "dis_10-lower"),
		li("1", "X-DIS_10"),
	}
	buckets := Classify(items, DefaultRules())

	total := 0
	for kind, b := range buckets {
		require.Equal(t, RuleKind(kind), b.Kind)
		total += len(b.Items)
	}
	require.Equal(t, len(items), total)
	require.Len(t, buckets[Percent10].Items, 1)
	require.Len(t, buckets[Percent15].Items, 1)
	require.Len(t, buckets[Percent20].Items, 1)
	require.Len(t, buckets[BulkBuy].Items, 1)
	require.Len(t, buckets[Package].Items, 1)
	require.Len(t, buckets[None].Items, 2, "matching is case-sensitive and anchored at the start")
}

func TestGroupByCodeKeepsOrder(t *testing.T) {
	a1 := li("1", "B-A")
	b1 := li("2", "B-B")
	a2 := LineItem{Name: "second", Price: decimal.NewFromInt(1), ProductCode: "B-A"}

	groups := GroupByCode([]LineItem{a1, b1, a2})
	require.Len(t, groups, 2)
	require.Equal(t, "B-A", groups[0].Code)
	require.Equal(t, []LineItem{a1, a2}, groups[0].Items)
	require.Equal(t, "B-B", groups[1].Code)
}

func TestChargeableUnits(t *testing.T) {
	expected := map[int]int{0: 0, 1: 1, 2: 1, 3: 2, 4: 2, 5: 3, 9: 5}
	for n, want := range expected {
		require.Equal(t, want, ChargeableUnits(n), "n=%d", n)
	}
}

func TestPercentEvaluatorUsesUndiscountedPriceForPoints(t *testing.T) {
	got := PercentEvaluator{Percent: decimal.NewFromInt(20)}.Evaluate([]LineItem{li("40", "DIS_20"), li("60", "DIS_20")})
	require.Equal(t, "80", got.Price.String())
	require.Equal(t, "5", got.Points.String())

	empty := PercentEvaluator{Percent: decimal.NewFromInt(10)}.Evaluate(nil)
	require.True(t, empty.Price.IsZero())
	require.True(t, empty.Points.IsZero())
}

func TestGroupedBulkPointsOnSubtotal(t *testing.T) {
	items := []LineItem{li("10", "B-X"), li("10", "B-X"), li("7", "B-Y")}
	got := GroupedBulkEvaluator{Divisor: decimal.NewFromInt(5)}.Evaluate(items)
	require.Equal(t, "17", got.Price.String())
	require.Equal(t, "3.4", got.Points.String())
}

func TestRankedBulkDoesNotReorderInput(t *testing.T) {
	items := []LineItem{li("1", "B-1"), li("3", "B-3"), li("2", "B-2")}
	got := RankedBulkEvaluator{Divisor: decimal.NewFromInt(5)}.Evaluate(items)
	require.Equal(t, "5", got.Price.String())
	require.Equal(t, "B-1", items[0].ProductCode)
}

func TestPackageEvaluatorNeverNegative(t *testing.T) {
	e := PackageEvaluator{Discount: decimal.NewFromInt(20), Divisor: decimal.NewFromInt(5)}

	under := e.Evaluate([]LineItem{li("15", "P")})
	require.Equal(t, "15", under.Price.String())
	require.Equal(t, "3", under.Points.String())

	exact := e.Evaluate([]LineItem{li("20", "P")})
	require.True(t, exact.Price.IsZero())

	none := e.Evaluate(nil)
	require.True(t, none.Price.IsZero())
}
