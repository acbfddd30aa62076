package book

import "github.com/seqdex/seqdex/params"

// ladderLevels is the number of price levels quoted on each side of the
// reference price.
const ladderLevels = 3

// ProvideMarketLiquidity places a symmetric ladder of resting orders around
// the pair's current reference price, acting as an automated market maker
// for the caller.
//
// Ladder shape: ladderLevels levels per side. Level i (1-based) sits at the
// reference price offset by spreadBps*i/ladderLevels basis points, so the
// outermost level carries the full requested spread. baseQty is split evenly
// across levels with the remainder on the innermost. If baseQty exceeds
// maxExposure, every level is scaled down proportionally so the per-side
// commitment stays within the budget. A level whose quantity exceeds the
// large-order threshold quotes around the weighted (impact-adjusted)
// reference instead.
//
// The whole ladder is validated before the first placement, so a rejection
// leaves no orders behind; each accepted level then goes through the normal
// placement path and inherits its invariants.
func (e *Engine) ProvideMarketLiquidity(pair string, baseQty, spreadBps, maxExposure uint64, caller string) (LiquiditySummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if maxExposure == 0 {
		return LiquiditySummary{}, ErrInvalidOrder
	}
	if spreadBps > params.MaxSlippageBps {
		return LiquiditySummary{}, ErrSlippageExceeded
	}
	if !e.state.Active {
		return LiquiditySummary{}, ErrMarketClosed
	}
	if !PairValid(pair) {
		return LiquiditySummary{}, ErrInvalidOrder
	}
	quote, ok := e.quotes[pair]
	if !ok {
		// no trade history means no reference price to quote around
		return LiquiditySummary{}, ErrInvalidPrice
	}

	qtys := splitLadderQty(baseQty, maxExposure)

	type level struct {
		qty       uint64
		buyPrice  uint64
		sellPrice uint64
	}
	levels := make([]level, 0, ladderLevels)
	for i := uint64(1); i <= ladderLevels; i++ {
		qty := qtys[i-1]
		if qty < params.MinOrderSize {
			return LiquiditySummary{}, ErrInvalidOrder
		}
		ref := WeightedPrice(quote, qty)
		offset := ref * spreadBps * i / (10000 * ladderLevels)
		if offset >= ref {
			return LiquiditySummary{}, ErrInvalidPrice
		}
		levels = append(levels, level{qty: qty, buyPrice: ref - offset, sellPrice: ref + offset})
	}

	summary := LiquiditySummary{Pair: pair}
	for _, lv := range levels {
		id, err := e.placeLocked(pair, Buy, lv.qty, lv.buyPrice, caller)
		if err != nil {
			return LiquiditySummary{}, err
		}
		summary.BuyOrders = append(summary.BuyOrders, id)
		summary.BuyPrices = append(summary.BuyPrices, lv.buyPrice)
		summary.BuyQty += lv.qty
	}
	for _, lv := range levels {
		id, err := e.placeLocked(pair, Sell, lv.qty, lv.sellPrice, caller)
		if err != nil {
			return LiquiditySummary{}, err
		}
		summary.SellOrders = append(summary.SellOrders, id)
		summary.SellPrices = append(summary.SellPrices, lv.sellPrice)
		summary.SellQty += lv.qty
	}

	e.log.Infow("liquidity_provided",
		"pair", pair, "buy_qty", summary.BuyQty, "sell_qty", summary.SellQty,
		"levels", ladderLevels, "spread_bps", spreadBps)
	return summary, nil
}

// splitLadderQty divides baseQty evenly across the ladder levels (remainder
// to the innermost level), then scales every level down proportionally if
// the per-side total would exceed maxExposure.
func splitLadderQty(baseQty, maxExposure uint64) [ladderLevels]uint64 {
	var qtys [ladderLevels]uint64
	per := baseQty / ladderLevels
	rem := baseQty % ladderLevels
	for i := range qtys {
		qtys[i] = per
	}
	qtys[0] += rem

	if baseQty > maxExposure {
		for i := range qtys {
			qtys[i] = qtys[i] * maxExposure / baseQty
		}
	}
	return qtys
}
