package enrich

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureYAML = `
products:
  A1:
    name: Smart Home Hub
    color: White
    weight: 0.5
    inStock: false
prices:
  A1: 139.5
`

func TestLoadFixtures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixtureYAML), 0o600))

	products, pricing, err := LoadFixtures(path)
	require.NoError(t, err)

	a, err := products.Product(context.Background(), "A1")
	require.NoError(t, err)
	assert.JSONEq(t, `"Smart Home Hub"`, string(a["name"]))
	assert.JSONEq(t, `0.5`, string(a["weight"]))

	_, err = products.Product(context.Background(), "B2")
	assert.ErrorIs(t, err, ErrNotFound)

	p, err := pricing.Price(context.Background(), "A1")
	require.NoError(t, err)
	assert.Equal(t, 139.5, p)

	rec, err := NewMerger(products, pricing, nil).Merge(context.Background(), Input{ObjectID: "A1"})
	require.NoError(t, err)
	assert.False(t, rec.InStock)
	assert.Equal(t, "Smart Home Hub", rec.Name)
}

func TestParseFixtures_Invalid(t *testing.T) {
	_, _, err := ParseFixtures([]byte("products: [1, 2"))
	assert.Error(t, err)
}
