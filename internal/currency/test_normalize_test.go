package currency

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalognorm/internal/record"
	"catalognorm/internal/schema"
	"catalognorm/internal/upstream"
)

type countingRates struct {
	rate  float64
	err   error
	calls atomic.Int32
	from  string
	to    string
}

func (c *countingRates) Rate(ctx context.Context, from, to string) (float64, error) {
	c.calls.Add(1)
	c.from, c.to = from, to
	return c.rate, c.err
}

func priced(price float64, cur string) record.CanonicalRecord {
	return record.CanonicalRecord{ObjectID: "sku-1", Name: "Hub", Price: record.Of(price), Currency: cur, InStock: true}
}

func TestNormalize_BaseCurrencyStripsFieldWithoutLookup(t *testing.T) {
	rates := &countingRates{}
	out, fb, err := NewNormalizer(rates, nil).Normalize(context.Background(), priced(100, "USD"))
	require.NoError(t, err)
	assert.Nil(t, fb)
	assert.Equal(t, record.Of(100.0), out.Price)
	assert.Empty(t, out.Currency)
	assert.Zero(t, rates.calls.Load())

	b, err := json.Marshal(out)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.NotContains(t, m, "currency")
	assert.Equal(t, 100.0, m["price"])
}

func TestNormalize_ConvertsWithRate(t *testing.T) {
	rates := &countingRates{rate: 1.08}
	out, fb, err := NewNormalizer(rates, nil).Normalize(context.Background(), priced(100, "EUR"))
	require.NoError(t, err)
	assert.Nil(t, fb)
	assert.Equal(t, record.Of(108.0), out.Price)
	assert.Empty(t, out.Currency)
	assert.Equal(t, int32(1), rates.calls.Load())
	assert.Equal(t, "EUR", rates.from)
	assert.Equal(t, schema.BaseCurrency, rates.to)
	assert.Equal(t, "sku-1", out.ObjectID)
}

func TestNormalize_LookupFailureNullsPriceAndKeepsCurrency(t *testing.T) {
	for name, lookupErr := range map[string]error{
		"non-success": &upstream.ServiceError{Service: "currencyapi", StatusCode: http.StatusUnprocessableEntity, Message: "invalid base"},
		"missing USD": ErrRateUnavailable,
	} {
		rates := &countingRates{err: lookupErr}
		out, fb, err := NewNormalizer(rates, nil).Normalize(context.Background(), priced(100, "EUR"))
		require.NoError(t, err, name)
		require.NotNil(t, fb, name)
		assert.False(t, out.Price.Valid, name)
		assert.Equal(t, "EUR", out.Currency, name)
		assert.Equal(t, "EUR", fb.Currency, name)
		assert.Equal(t, "sku-1", fb.ObjectID, name)
		assert.Equal(t, int32(1), rates.calls.Load(), name)
		assert.True(t, out.Flagged(), name)
		require.NoError(t, schema.CheckCanonical(out), name)

		b, err := json.Marshal(out)
		require.NoError(t, err)
		assert.JSONEq(t, `{"objectID":"sku-1","name":"Hub","description":null,"price":null,"currency":"EUR","manufacturer":null,"category":null,"inStock":true,"weight":null,"dimensions":null,"color":null}`, string(b))
	}
}

func TestNormalize_CanonicalizesCodeOnFallback(t *testing.T) {
	rates := &countingRates{err: ErrRateUnavailable}
	out, fb, err := NewNormalizer(rates, nil).Normalize(context.Background(), priced(100, " eur\n"))
	require.NoError(t, err)
	require.NotNil(t, fb)
	assert.Equal(t, "EUR", rates.from)
	assert.Equal(t, "EUR", out.Currency)
	assert.Equal(t, "EUR", fb.Currency)
	assert.False(t, out.Price.Valid)
	require.NoError(t, schema.CheckCanonical(out))
}

func TestNormalize_CanceledContextAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rates := RateFunc(func(ctx context.Context, from, to string) (float64, error) {
		cancel()
		return 0, &upstream.ServiceError{Service: "currencyapi", Err: context.Canceled}
	})
	_, fb, err := NewNormalizer(rates, nil).Normalize(ctx, priced(100, "EUR"))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Nil(t, fb)
}

func TestNormalize_OutputInvariant(t *testing.T) {
	cases := []struct {
		in    record.CanonicalRecord
		rates RateProvider
	}{
		{priced(10, "usd"), &countingRates{}},
		{priced(10, ""), &countingRates{}},
		{priced(10, "GBP"), &countingRates{rate: 1.27}},
		{priced(10, "JPY"), &countingRates{err: ErrRateUnavailable}},
	}
	for _, c := range cases {
		out, _, err := NewNormalizer(c.rates, nil).Normalize(context.Background(), c.in)
		require.NoError(t, err)
		ok := out.Currency == "" || !out.Price.Valid
		assert.True(t, ok, "currency %q must imply null price", out.Currency)
		require.NoError(t, schema.CheckCanonical(out))
	}
}

func TestConvert_Rounding(t *testing.T) {
	assert.Equal(t, 108.0, Convert(100, 1.08))
	assert.Equal(t, 0.67, Convert(1, 0.666666))
	assert.Equal(t, 1.01, Convert(1.005, 1))
	assert.Equal(t, 161.99, Convert(149.99, 1.08))
}
