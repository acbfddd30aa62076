package api

import "github.com/seqdex/seqdex/pkg/book"

// Request/response payloads for the REST surface.

type PlaceOrderRequest struct {
	Pair     string `json:"pair"`
	Side     string `json:"side"` // "buy" | "sell"
	Quantity uint64 `json:"quantity"`
	Price    uint64 `json:"price"`
}

type PlaceOrderResponse struct {
	OrderID uint64 `json:"orderId"`
}

type CancelOrderRequest struct {
	OrderID uint64 `json:"orderId"`
}

type ExecuteTradeRequest struct {
	BuyOrderID  uint64 `json:"buyOrderId"`
	SellOrderID uint64 `json:"sellOrderId"`
}

type ProvideLiquidityRequest struct {
	Pair         string `json:"pair"`
	BaseQuantity uint64 `json:"baseQuantity"`
	SpreadBps    uint64 `json:"spreadBps"`
	MaxExposure  uint64 `json:"maxExposure"`
}

type SetMarketActiveRequest struct {
	Active bool `json:"active"`
}

type OrderInfo struct {
	ID        uint64 `json:"id"`
	Owner     string `json:"owner"`
	Pair      string `json:"pair"`
	Side      string `json:"side"`
	Quantity  uint64 `json:"quantity"`
	Price     uint64 `json:"price"`
	CreatedAt uint64 `json:"createdAt"`
	Status    string `json:"status"`
}

type DepthSnapshot struct {
	Pair   string            `json:"pair"`
	Levels []book.DepthLevel `json:"levels"`
	Height uint64            `json:"height"`
}

type StatusResponse struct {
	Height      uint64 `json:"height"`
	NextOrderID uint64 `json:"nextOrderId"`
	Active      bool   `json:"active"`
	TotalVolume uint64 `json:"totalVolume"`
}

type ErrorResponse struct {
	Code    uint32 `json:"code,omitempty"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WSEvent is the envelope broadcast on the websocket stream. Channel is one
// of "orders", "trades", "quotes"; Data is the event payload.
type WSEvent struct {
	Channel string `json:"channel"`
	Type    string `json:"type"`
	Data    any    `json:"data"`
}

type WSSubscribeRequest struct {
	Op       string   `json:"op"` // "subscribe" | "unsubscribe"
	Channels []string `json:"channels"`
}

func orderInfo(o book.Order) OrderInfo {
	return OrderInfo{
		ID:        o.ID,
		Owner:     o.Owner,
		Pair:      o.Pair,
		Side:      o.Side.String(),
		Quantity:  o.Qty,
		Price:     o.Price,
		CreatedAt: o.CreatedAt,
		Status:    o.Status.String(),
	}
}
