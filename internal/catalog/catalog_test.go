package catalog_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-checkout/internal/catalog"
)

func price(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func TestEmbeddedCatalog(t *testing.T) {
	c, err := catalog.Load(context.Background(), catalog.EmbeddedSource{})
	require.NoError(t, err)
	require.Equal(t, 12, c.Len())

	codes := c.Codes()
	require.Equal(t, "CHAIR_RED", codes[0])
	require.Equal(t, "DIS_10-CHAIR_BLUE", codes[1])
}

func TestResolveDropsUnknownCodes(t *testing.T) {
	c, err := catalog.New([]catalog.Product{
		{Name: "foo", Price: price("25.99"), ProductCode: "BULK_BUY_2_GET_1-FOO"},
		{Name: "bar", Price: price("10"), ProductCode: "DIS_10"},
	})
	require.NoError(t, err)

	items, unknown := c.Resolve([]string{"BULK_BUY_2_GET_1-FOO", "NOPE", "DIS_10", "BULK_BUY_2_GET_1-FOO"})
	require.Len(t, items, 3)
	require.Equal(t, []string{"NOPE"}, unknown)
	require.Equal(t, "DIS_10", items[1].ProductCode)
	require.Equal(t, "25.99", items[2].Price.String())
}

func TestNewRejectsInvalidProducts(t *testing.T) {
	cases := map[string]catalog.Product{
		"missing price": {Name: "x", ProductCode: "X"},
		"negative":      {Name: "x", Price: price("-1"), ProductCode: "X"},
		"missing code":  {Name: "x", Price: price("1")},
		"missing name":  {Price: price("1"), ProductCode: "X"},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := catalog.New([]catalog.Product{p})
			require.ErrorIs(t, err, catalog.ErrInvalidProduct)
		})
	}
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := catalog.New([]catalog.Product{
		{Name: "a", Price: price("1"), ProductCode: "X"},
		{Name: "b", Price: price("2"), ProductCode: " X "},
	})
	require.ErrorIs(t, err, catalog.ErrDuplicateProduct)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"foo","price":"10","productCode":"DIS_10"}]`), 0o600))

	c, err := catalog.Load(context.Background(), catalog.FileSource{Path: path})
	require.NoError(t, err)
	p, ok := c.Get("DIS_10")
	require.True(t, ok)
	require.True(t, p.Price.Equal(decimal.NewFromInt(10)))

	_, err = catalog.Load(context.Background(), catalog.FileSource{Path: filepath.Join(t.TempDir(), "missing.json")})
	require.Error(t, err)
}

func TestDecodeProductsRejectsUnknownFields(t *testing.T) {
	_, err := catalog.DecodeProducts(strings.NewReader(`[{"name":"foo","price":1,"productCode":"A","stock":3}]`))
	require.Error(t, err)
}

func TestLoadPropagatesSourceErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := catalog.Load(context.Background(), catalog.SourceFunc(func(context.Context) ([]catalog.Product, error) {
		return nil, boom
	}))
	require.ErrorIs(t, err, boom)
}
