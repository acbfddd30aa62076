package book

import "sort"

// depthLedger keys (pair, price) -> aggregated level. Levels are derived
// state: the engine mutates them in the same atomic step as the order that
// changes them, never independently.
type depthLedger struct {
	levels map[string]map[uint64]*DepthLevel // pair -> price -> level
}

func newDepthLedger() *depthLedger {
	return &depthLedger{levels: make(map[string]map[uint64]*DepthLevel)}
}

// level returns the existing level or a zero level ready to be committed.
// The returned struct is a copy; the engine writes it back via put.
func (d *depthLedger) level(pair string, price uint64) DepthLevel {
	if byPrice, ok := d.levels[pair]; ok {
		if lvl, ok := byPrice[price]; ok {
			return *lvl
		}
	}
	return DepthLevel{Pair: pair, Price: price}
}

func (d *depthLedger) put(lvl DepthLevel) {
	byPrice, ok := d.levels[lvl.Pair]
	if !ok {
		byPrice = make(map[uint64]*DepthLevel)
		d.levels[lvl.Pair] = byPrice
	}
	cp := lvl
	byPrice[lvl.Price] = &cp
}

// list returns the pair's levels sorted by price ascending.
func (d *depthLedger) list(pair string) []DepthLevel {
	byPrice := d.levels[pair]
	out := make([]DepthLevel, 0, len(byPrice))
	for _, lvl := range byPrice {
		out = append(out, *lvl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out
}

// addedVolume returns a copy of the level with qty added to the given side.
func addedVolume(lvl DepthLevel, side Side, qty uint64) DepthLevel {
	if side == Buy {
		lvl.BuyVolume += qty
	} else {
		lvl.SellVolume += qty
	}
	return lvl
}

// releasedVolume returns a copy of the level with qty removed from the given
// side, saturating at zero. Only used under the depth-release policy.
func releasedVolume(lvl DepthLevel, side Side, qty uint64) DepthLevel {
	if side == Buy {
		if qty > lvl.BuyVolume {
			qty = lvl.BuyVolume
		}
		lvl.BuyVolume -= qty
	} else {
		if qty > lvl.SellVolume {
			qty = lvl.SellVolume
		}
		lvl.SellVolume -= qty
	}
	return lvl
}
