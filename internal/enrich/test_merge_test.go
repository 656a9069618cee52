package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"catalognorm/internal/record"
	"catalognorm/internal/schema"
	"catalognorm/internal/tester"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

func attrs(t *testing.T, s string) record.Attributes {
	t.Helper()
	a, err := record.DecodeAttributes([]byte(s))
	require.NoError(t, err)
	return a
}

type productFunc func(ctx context.Context, id string) (record.Attributes, error)

func (f productFunc) Product(ctx context.Context, id string) (record.Attributes, error) {
	return f(ctx, id)
}

type pricingFunc func(ctx context.Context, id string) (float64, error)

func (f pricingFunc) Price(ctx context.Context, id string) (float64, error) { return f(ctx, id) }

func TestMerge_Precedence(t *testing.T) {
	products := StaticProducts{Items: map[string]record.Attributes{
		"A1": attrs(t, `{"objectID":"WRONG","name":"Hub","color":"White","price":1,"currency":"EUR","weight":0.5}`),
	}}
	pricing := StaticPricing{Prices: map[string]float64{"A1": 12.5}}
	m := NewMerger(products, pricing, nil)

	in := Input{
		ObjectID:   "A1",
		Attributes: attrs(t, `{"objectID":"A1","name":"Old","category":"Smart Home","legacySku":"x"}`),
		Stock:      record.StockLow,
	}
	rec, err := m.Merge(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "A1", rec.ObjectID)
	assert.Equal(t, "Hub", rec.Name)
	assert.Equal(t, record.Of("Smart Home"), rec.Category)
	assert.Equal(t, record.Of("white"), rec.Color)
	assert.Equal(t, record.Of(12.5), rec.Price)
	assert.Equal(t, record.Of(0.5), rec.Weight)
	assert.Empty(t, rec.Currency)
	assert.Equal(t, record.StockLow, rec.Stock)
	assert.True(t, rec.InStock)
	assert.False(t, rec.Description.Valid)
	tester.NoErr(t, schema.CheckCanonical(rec))

	b, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "legacySku")
}

func TestMerge_InStockFollowsTierWhenAbsent(t *testing.T) {
	m := NewMerger(StaticProducts{Default: attrs(t, `{"name":"Hub"}`)}, StaticPricing{Prices: map[string]float64{"B": 3}}, nil)
	rec, err := m.Merge(context.Background(), Input{ObjectID: "B", Stock: record.StockOut})
	require.NoError(t, err)
	assert.False(t, rec.InStock)

	m = NewMerger(StaticProducts{Default: attrs(t, `{"name":"Hub","inStock":true}`)}, StaticPricing{Prices: map[string]float64{"B": 3}}, nil)
	rec, err = m.Merge(context.Background(), Input{ObjectID: "B", Stock: record.StockOut})
	require.NoError(t, err)
	assert.True(t, rec.InStock)
}

func TestMerge_LookupFailureIsFatal(t *testing.T) {
	boom := errors.New("boom")
	cases := []struct {
		name     string
		products ProductSource
		pricing  PricingSource
		lookup   Lookup
	}{
		{"product", StaticProducts{}, StaticPricing{Prices: map[string]float64{"C": 1}}, LookupProduct},
		{"pricing", StaticProducts{Default: attrs(t, `{"name":"x"}`)}, pricingFunc(func(context.Context, string) (float64, error) { return 0, boom }), LookupPricing},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := NewMerger(c.products, c.pricing, nil).Merge(context.Background(), Input{ObjectID: "C"})
			le := tester.ErrAs[*EnrichmentLookupError](t, err)
			assert.Equal(t, c.lookup, le.Lookup)
			assert.Equal(t, "C", le.ObjectID)
		})
	}
}

func TestMerge_FirstFailureCancelsSibling(t *testing.T) {
	products := productFunc(func(context.Context, string) (record.Attributes, error) {
		return nil, errors.New("down")
	})
	pricing := pricingFunc(func(ctx context.Context, _ string) (float64, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	_, err := NewMerger(products, pricing, nil).Merge(context.Background(), Input{ObjectID: "D"})
	le := tester.ErrAs[*EnrichmentLookupError](t, err)
	assert.Equal(t, LookupProduct, le.Lookup)
}

func TestMerge_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewMerger(StaticProducts{Default: attrs(t, `{"name":"x"}`)}, StaticPricing{Prices: map[string]float64{"E": 1}}, nil)
	_, err := m.Merge(ctx, Input{ObjectID: "E"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMerge_BadProductTypesViolateSchema(t *testing.T) {
	m := NewMerger(StaticProducts{Default: attrs(t, `{"name":"x","weight":"heavy"}`)}, StaticPricing{Prices: map[string]float64{"F": 1}}, nil)
	_, err := m.Merge(context.Background(), Input{ObjectID: "F"})
	tester.ErrAs[*schema.SchemaViolationError](t, err)
}
