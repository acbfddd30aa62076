package book

import "github.com/seqdex/seqdex/params"

// Pure validation and pricing helpers. No state, no side effects; the engine
// composes these inside its atomic operations.

// OrderParamsValid reports whether an order's size and price pass the
// protocol bounds. The market-active gate is checked separately by the
// engine so callers can tell "invalid order" from "market closed".
func OrderParamsValid(qty, price uint64) bool {
	return qty >= params.MinOrderSize && price > 0
}

// PairValid bounds the trading-pair symbol.
func PairValid(pair string) bool {
	return pair != "" && len(pair) <= params.MaxPairLen
}

// WeightedPrice returns the pair's last quoted price adjusted for market
// impact: quantities above the large-order threshold pay a flat premium.
// Returns 0 when the pair has never traded. Advisory only - it sizes the
// liquidity ladder, it is not enforced on direct limit orders.
func WeightedPrice(quote *PriceQuote, qty uint64) uint64 {
	if quote == nil {
		return 0
	}
	if qty > params.LargeOrderThreshold {
		return quote.Price + quote.Price*params.LargeOrderPremiumBps/10000
	}
	return quote.Price
}

// TradeFee computes the flat protocol fee on a trade's notional value.
// Reported on trade events; settlement is an external collaborator.
func TradeFee(price, qty uint64) uint64 {
	notional := price * qty / params.PricePrecision
	return notional * params.TradingFeeBps / 10000
}

func minQty(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
