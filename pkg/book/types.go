package book

type Side int8

const (
	Buy  Side = 1
	Sell Side = -1
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// ParseSide maps the wire representation ("buy"/"sell") to a Side.
func ParseSide(s string) (Side, bool) {
	switch s {
	case "buy":
		return Buy, true
	case "sell":
		return Sell, true
	default:
		return 0, false
	}
}

type Status int8

const (
	StatusActive Status = iota
	StatusFilled
	StatusCancelled
)

func (st Status) String() string {
	switch st {
	case StatusActive:
		return "active"
	case StatusFilled:
		return "filled"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Order is the canonical ledger record of a placed order. Orders are
// append-only: once Status leaves StatusActive the record is immutable and
// is never deleted.
type Order struct {
	ID        uint64 `json:"id"`
	Owner     string `json:"owner"` // opaque authenticated principal
	Pair      string `json:"pair"`
	Side      Side   `json:"side"`
	Qty       uint64 `json:"qty"`       // base units
	Price     uint64 `json:"price"`     // fixed-point, scaled by params.PricePrecision
	CreatedAt uint64 `json:"createdAt"` // ledger height at creation
	Status    Status `json:"status"`
}

// PriceQuote is the per-pair oracle state. It exists only after the first
// trade on the pair. Volume24h and Change24h are overwritten by each trade,
// not maintained as rolling windows.
type PriceQuote struct {
	Pair      string `json:"pair"`
	Price     uint64 `json:"price"`
	UpdatedAt uint64 `json:"updatedAt"` // ledger height of last trade
	Volume24h uint64 `json:"volume24h"`
	Change24h int64  `json:"change24h"`
}

// DepthLevel aggregates outstanding volume at one (pair, price) level. It is
// derived state, written in the same atomic step as the order that changes it.
type DepthLevel struct {
	Pair       string `json:"pair"`
	Price      uint64 `json:"price"`
	BuyVolume  uint64 `json:"buyVolume"`
	SellVolume uint64 `json:"sellVolume"`
}

// MarketState is the process-wide ledger scalars: initialized once at
// deployment, mutated by every committed operation, never reset.
type MarketState struct {
	NextOrderID uint64 `json:"nextOrderId"` // monotonic, starts at 1, never reused
	Active      bool   `json:"active"`      // gate on new order placement
	TotalVolume uint64 `json:"totalVolume"`
	Height      uint64 `json:"height"` // ledger counter, advances per committed op
}

// Trade is the result of a successful execution. Fee is computed at the
// protocol rate on the trade notional; it is reported, not settled (balance
// custody is an external collaborator).
type Trade struct {
	BuyOrderID  uint64 `json:"buyOrderId"`
	SellOrderID uint64 `json:"sellOrderId"`
	Pair        string `json:"pair"`
	Price       uint64 `json:"price"` // buyer's limit price
	Qty         uint64 `json:"qty"`
	Fee         uint64 `json:"fee"`
	Height      uint64 `json:"height"`
}

// LiquiditySummary reports what a ProvideMarketLiquidity call committed.
type LiquiditySummary struct {
	Pair       string   `json:"pair"`
	BuyOrders  []uint64 `json:"buyOrders"`
	SellOrders []uint64 `json:"sellOrders"`
	BuyQty     uint64   `json:"buyQty"`
	SellQty    uint64   `json:"sellQty"`
	BuyPrices  []uint64 `json:"buyPrices"`
	SellPrices []uint64 `json:"sellPrices"`
}

// Snapshot is the full persisted state, used to restore an engine at boot.
type Snapshot struct {
	Orders []*Order
	Quotes []*PriceQuote
	Depth  []*DepthLevel
	State  *MarketState
}
