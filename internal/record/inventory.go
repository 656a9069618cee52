package record

// StockTier is the discrete stock level derived from warehouse counts.
type StockTier string

const (
	StockOut StockTier = "out"
	StockLow StockTier = "low"
	StockIn  StockTier = "in"
)

func (t StockTier) Valid() bool {
	switch t {
	case StockOut, StockLow, StockIn:
		return true
	}
	return false
}

// WarehouseStockMap maps a warehouse identifier to its stock count.
type WarehouseStockMap map[string]int
