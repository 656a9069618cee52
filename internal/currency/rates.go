package currency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"catalognorm/internal/upstream"
)

// DefaultCurrencyAPIURL is the currencyapi.com v3 endpoint.
const DefaultCurrencyAPIURL = "https://api.currencyapi.com/v3"

// ErrRateUnavailable is returned when a lookup succeeded but did not carry
// a usable rate for the target currency.
var ErrRateUnavailable = errors.New("currency: target rate missing from response")

// RateProvider returns how many units of to one unit of from is worth.
type RateProvider interface {
	Rate(ctx context.Context, from, to string) (float64, error)
}

// RateFunc adapts a function to RateProvider.
type RateFunc func(ctx context.Context, from, to string) (float64, error)

func (f RateFunc) Rate(ctx context.Context, from, to string) (float64, error) {
	return f(ctx, from, to)
}

// CurrencyAPIClient looks up the latest rates on currencyapi.com.
type CurrencyAPIClient struct {
	http   *resty.Client
	apiKey string
}

// ClientOptions configures NewCurrencyAPIClient.
type ClientOptions struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func NewCurrencyAPIClient(opts ClientOptions) *CurrencyAPIClient {
	base := opts.BaseURL
	if strings.TrimSpace(base) == "" {
		base = DefaultCurrencyAPIURL
	}
	return &CurrencyAPIClient{
		http:   upstream.NewClient(upstream.Options{BaseURL: base, Timeout: opts.Timeout}),
		apiKey: opts.APIKey,
	}
}

type latestResponse struct {
	Data map[string]*struct {
		Code  string   `json:"code"`
		Value *float64 `json:"value"`
	} `json:"data"`
}

// Rate issues exactly one request for the from-to rate.
func (c *CurrencyAPIClient) Rate(ctx context.Context, from, to string) (float64, error) {
	var out latestResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"apikey":        c.apiKey,
			"currencies":    to,
			"base_currency": from,
		}).
		SetResult(&out).
		Get("/latest")
	if err := upstream.Check("currencyapi", resp, err); err != nil {
		return 0, err
	}
	entry, ok := out.Data[to]
	if !ok || entry == nil || entry.Value == nil || *entry.Value <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrRateUnavailable, to)
	}
	return *entry.Value, nil
}

// CachedProvider memoizes successful lookups for a bounded time. Failures
// are never cached.
type CachedProvider struct {
	next  RateProvider
	cache *expirable.LRU[string, float64]
}

func NewCachedProvider(next RateProvider, size int, ttl time.Duration) *CachedProvider {
	if size <= 0 {
		size = 256
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedProvider{next: next, cache: expirable.NewLRU[string, float64](size, nil, ttl)}
}

func (c *CachedProvider) Rate(ctx context.Context, from, to string) (float64, error) {
	key := from + "/" + to
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}
	v, err := c.next.Rate(ctx, from, to)
	if err != nil {
		return 0, err
	}
	c.cache.Add(key, v)
	return v, nil
}
