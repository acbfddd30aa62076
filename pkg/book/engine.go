package book

import (
	"sync"

	"go.uber.org/zap"

	"github.com/seqdex/seqdex/params"
)

// Store is the write-through persistence hook. Each method receives every
// entity touched by one committed operation so the implementation can write
// them in a single atomic batch. A nil Store runs the engine in-memory only.
type Store interface {
	PersistPlace(o *Order, lvl *DepthLevel, st *MarketState) error
	PersistTrade(buy, sell *Order, q *PriceQuote, levels []*DepthLevel, st *MarketState) error
	PersistCancel(o *Order, lvl *DepthLevel, st *MarketState) error
	PersistState(st *MarketState) error
}

// Engine is the order book state machine: the order ledger, market depth
// ledger, price oracle state and market scalars behind one lock. Every
// public operation is atomic - it validates fully, persists the touched
// entities, then applies them, so a rejected or failed call leaves no
// partial state.
//
// Calls are totally ordered by the lock; the monotonic order-ID and height
// counters give every order a creation order consistent with call order.
type Engine struct {
	mu  sync.Mutex
	log *zap.SugaredLogger

	store        Store
	releaseDepth bool

	orders map[uint64]*Order
	quotes map[string]*PriceQuote
	depth  *depthLedger
	state  MarketState
}

func NewEngine(proto params.Protocol, store Store, log *zap.SugaredLogger) *Engine {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Engine{
		log:          log,
		store:        store,
		releaseDepth: proto.DepthReleaseOnClose,
		orders:       make(map[uint64]*Order),
		quotes:       make(map[string]*PriceQuote),
		depth:        newDepthLedger(),
		state:        MarketState{NextOrderID: 1, Active: true},
	}
}

// Restore loads a persisted snapshot into a fresh engine. Must be called
// before the engine serves operations.
func (e *Engine) Restore(snap *Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, o := range snap.Orders {
		cp := *o
		e.orders[o.ID] = &cp
	}
	for _, q := range snap.Quotes {
		cp := *q
		e.quotes[q.Pair] = &cp
	}
	for _, lvl := range snap.Depth {
		e.depth.put(*lvl)
	}
	if snap.State != nil {
		e.state = *snap.State
	}
}

// PlaceOrder allocates the next order ID, records the order as active and
// adds its quantity to the depth level for (pair, price). The ID counter is
// advanced only after validation passes, so rejected placements do not
// consume IDs.
func (e *Engine) PlaceOrder(pair string, side Side, qty, price uint64, caller string) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.placeLocked(pair, side, qty, price, caller)
}

func (e *Engine) placeLocked(pair string, side Side, qty, price uint64, caller string) (uint64, error) {
	if !e.state.Active {
		return 0, ErrMarketClosed
	}
	if !PairValid(pair) || (side != Buy && side != Sell) {
		return 0, ErrInvalidOrder
	}
	if !OrderParamsValid(qty, price) {
		return 0, ErrInvalidOrder
	}

	st := e.state
	st.Height++
	order := &Order{
		ID:        st.NextOrderID,
		Owner:     caller,
		Pair:      pair,
		Side:      side,
		Qty:       qty,
		Price:     price,
		CreatedAt: st.Height,
		Status:    StatusActive,
	}
	st.NextOrderID++
	lvl := addedVolume(e.depth.level(pair, price), side, qty)

	if e.store != nil {
		if err := e.store.PersistPlace(order, &lvl, &st); err != nil {
			return 0, err
		}
	}

	e.orders[order.ID] = order
	e.depth.put(lvl)
	e.state = st

	e.log.Infow("order_placed",
		"id", order.ID, "pair", pair, "side", side.String(),
		"qty", qty, "price", price, "height", st.Height)
	return order.ID, nil
}

// ExecuteTrade crosses two resting orders. The trade price is the buy
// order's limit price - a deliberate asymmetry carried from the ledger
// contract that favors the seller in a crossing match. Both orders close
// fully even when their quantities differ; the excess on the larger order
// is discarded, not re-queued (no partial fills).
//
// Hardening over the original contract: the buy order must be side buy, the
// sell order side sell, and both must be on the same pair. Mismatches
// reject before any state change.
func (e *Engine) ExecuteTrade(buyID, sellID uint64) (Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	buy, ok := e.orders[buyID]
	if !ok {
		return Trade{}, ErrOrderNotFound
	}
	sell, ok := e.orders[sellID]
	if !ok {
		return Trade{}, ErrOrderNotFound
	}
	if buy.Status != StatusActive || sell.Status != StatusActive {
		return Trade{}, ErrInvalidOrder
	}
	if buy.Side != Buy || sell.Side != Sell || buy.Pair != sell.Pair {
		return Trade{}, ErrInvalidOrder
	}
	if buy.Price < sell.Price {
		return Trade{}, ErrInvalidPrice
	}

	qty := minQty(buy.Qty, sell.Qty)
	price := buy.Price

	st := e.state
	st.Height++
	st.TotalVolume += qty

	quote := PriceQuote{
		Pair:      buy.Pair,
		Price:     price,
		UpdatedAt: st.Height,
		Volume24h: qty, // replaced per trade, not a rolling window
	}
	if prev, ok := e.quotes[buy.Pair]; ok {
		quote.Change24h = int64(price) - int64(prev.Price)
	}

	filledBuy := *buy
	filledBuy.Status = StatusFilled
	filledSell := *sell
	filledSell.Status = StatusFilled

	// Depth aggregates are left stale by default (the contract never
	// decrements them); the release policy reconciles them instead.
	var released []*DepthLevel
	if e.releaseDepth {
		bl := releasedVolume(e.depth.level(buy.Pair, buy.Price), Buy, buy.Qty)
		if sell.Price == buy.Price {
			// both orders rest on the same level: fold into one write
			bl = releasedVolume(bl, Sell, sell.Qty)
			released = []*DepthLevel{&bl}
		} else {
			sl := releasedVolume(e.depth.level(sell.Pair, sell.Price), Sell, sell.Qty)
			released = []*DepthLevel{&bl, &sl}
		}
	}

	trade := Trade{
		BuyOrderID:  buyID,
		SellOrderID: sellID,
		Pair:        buy.Pair,
		Price:       price,
		Qty:         qty,
		Fee:         TradeFee(price, qty),
		Height:      st.Height,
	}

	if e.store != nil {
		if err := e.store.PersistTrade(&filledBuy, &filledSell, &quote, released, &st); err != nil {
			return Trade{}, err
		}
	}

	*buy = filledBuy
	*sell = filledSell
	e.quotes[quote.Pair] = &quote
	for _, lvl := range released {
		e.depth.put(*lvl)
	}
	e.state = st

	e.log.Infow("trade_executed",
		"pair", trade.Pair, "buy", buyID, "sell", sellID,
		"price", price, "qty", qty, "fee", trade.Fee, "height", st.Height)
	return trade, nil
}

// CancelOrder marks an active order cancelled. Only the order's owner may
// cancel; the record stays on the ledger in its terminal state.
func (e *Engine) CancelOrder(id uint64, caller string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, ok := e.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	if order.Owner != caller {
		return ErrNotAuthorized
	}
	if order.Status != StatusActive {
		return ErrInvalidOrder
	}

	st := e.state
	st.Height++

	cancelled := *order
	cancelled.Status = StatusCancelled

	var lvl *DepthLevel
	if e.releaseDepth {
		l := releasedVolume(e.depth.level(order.Pair, order.Price), order.Side, order.Qty)
		lvl = &l
	}

	if e.store != nil {
		if err := e.store.PersistCancel(&cancelled, lvl, &st); err != nil {
			return err
		}
	}

	*order = cancelled
	if lvl != nil {
		e.depth.put(*lvl)
	}
	e.state = st

	e.log.Infow("order_cancelled", "id", id, "pair", order.Pair, "height", st.Height)
	return nil
}

// CurrentPrice returns the pair's quote, or false if the pair has never
// traded. Read-only: no height advance, no fee.
func (e *Engine) CurrentPrice(pair string) (PriceQuote, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	q, ok := e.quotes[pair]
	if !ok {
		return PriceQuote{}, false
	}
	return *q, true
}

// Order returns the ledger record for an order ID.
func (e *Engine) Order(id uint64) (Order, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	o, ok := e.orders[id]
	if !ok {
		return Order{}, false
	}
	return *o, true
}

// Depth returns the pair's depth levels sorted by price ascending.
func (e *Engine) Depth(pair string) []DepthLevel {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.depth.list(pair)
}

// State returns a copy of the market scalars.
func (e *Engine) State() MarketState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// SetMarketActive flips the placement gate. Admin operation; advances the
// ledger height like any other committed write.
func (e *Engine) SetMarketActive(active bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.state
	st.Active = active
	st.Height++
	if e.store != nil {
		if err := e.store.PersistState(&st); err != nil {
			return err
		}
	}
	e.state = st
	e.log.Infow("market_active_set", "active", active, "height", st.Height)
	return nil
}
