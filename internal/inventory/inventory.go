// Package inventory derives a stock tier from per-warehouse counts.
package inventory

import (
	"encoding/json"
	"fmt"
	"math"

	"catalognorm/internal/record"
)

// WarehousesField is the raw-record field holding per-warehouse counts.
const WarehousesField = "warehouses"

// LowStockThreshold is the smallest total classified as in stock.
const LowStockThreshold = 10

// Total sums all counts, saturating at the int bounds. A nil map totals zero.
func Total(m record.WarehouseStockMap) int {
	total := 0
	for _, n := range m {
		total = addSat(total, n)
	}
	return total
}

func addSat(a, b int) int {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return math.MaxInt
	case b < 0 && a < math.MinInt-b:
		return math.MinInt
	}
	return a + b
}

// Classify maps the total stock to a tier: 0 is out, 1..9 is low and 10 or
// more is in. Negative totals are treated as out.
func Classify(m record.WarehouseStockMap) record.StockTier {
	total := Total(m)
	switch {
	case total <= 0:
		return record.StockOut
	case total < LowStockThreshold:
		return record.StockLow
	default:
		return record.StockIn
	}
}

// Split removes the warehouses field from attrs and returns its counts.
// attrs is modified in place; a missing or null field yields a nil map.
func Split(attrs record.Attributes) (record.WarehouseStockMap, error) {
	raw, ok := attrs[WarehousesField]
	delete(attrs, WarehousesField)
	if !ok || string(raw) == "null" {
		return nil, nil
	}
	var m record.WarehouseStockMap
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("inventory: invalid %s: %w", WarehousesField, err)
	}
	return m, nil
}
