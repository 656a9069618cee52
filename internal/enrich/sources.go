package enrich

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"catalognorm/internal/record"
	"catalognorm/internal/upstream"
)

var (
	ErrNotFound     = errors.New("enrich: no data for identifier")
	ErrPriceMissing = errors.New("enrich: pricing response has no price")
)

// SourceOptions configures the HTTP sources.
type SourceOptions struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// ProductClient fetches GET {base}/products/{objectID}.
type ProductClient struct{ http *resty.Client }

func NewProductClient(opts SourceOptions) *ProductClient {
	return &ProductClient{http: upstream.NewClient(upstream.Options{
		BaseURL: opts.BaseURL, Token: opts.Token, Timeout: opts.Timeout,
	})}
}

func (c *ProductClient) Product(ctx context.Context, objectID string) (record.Attributes, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("objectID", objectID).
		Get("/products/{objectID}")
	if err := upstream.Check("products", resp, err); err != nil {
		return nil, err
	}
	attrs, err := record.DecodeAttributes(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("products: decode %s: %w", objectID, err)
	}
	return attrs, nil
}

// PricingClient fetches GET {base}/prices/{objectID}, which answers {"price": n}.
type PricingClient struct{ http *resty.Client }

func NewPricingClient(opts SourceOptions) *PricingClient {
	return &PricingClient{http: upstream.NewClient(upstream.Options{
		BaseURL: opts.BaseURL, Token: opts.Token, Timeout: opts.Timeout,
	})}
}

func (c *PricingClient) Price(ctx context.Context, objectID string) (float64, error) {
	var out struct {
		Price *float64 `json:"price"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("objectID", objectID).
		SetResult(&out).
		Get("/prices/{objectID}")
	if err := upstream.Check("pricing", resp, err); err != nil {
		return 0, err
	}
	if out.Price == nil {
		return 0, ErrPriceMissing
	}
	return *out.Price, nil
}

// StaticProducts serves product attributes from memory. Default, when set,
// answers identifiers missing from Items.
type StaticProducts struct {
	Items   map[string]record.Attributes
	Default record.Attributes
}

func (s StaticProducts) Product(ctx context.Context, objectID string) (record.Attributes, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a, ok := s.Items[objectID]; ok {
		return a, nil
	}
	if s.Default != nil {
		return s.Default, nil
	}
	return nil, ErrNotFound
}

// StaticPricing serves prices from memory. Default, when non-nil, answers
// identifiers missing from Prices.
type StaticPricing struct {
	Prices  map[string]float64
	Default *float64
}

func (s StaticPricing) Price(ctx context.Context, objectID string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if p, ok := s.Prices[objectID]; ok {
		return p, nil
	}
	if s.Default != nil {
		return *s.Default, nil
	}
	return 0, ErrNotFound
}

// SampleProduct is the product served by the local static source.
func SampleProduct() record.Attributes {
	attrs, _ := record.DecodeAttributes([]byte(`{
		"name": "Smart Home Hub",
		"description": "Control all your smart devices from one central hub",
		"price": 149.99,
		"currency": "USD",
		"manufacturer": "TechConnect",
		"category": "Smart Home",
		"weight": 0.5,
		"dimensions": "4x4x2",
		"color": "White"
	}`))
	return attrs
}
