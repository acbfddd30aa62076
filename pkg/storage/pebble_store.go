package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/seqdex/seqdex/pkg/book"
)

// PebbleStore persists the ledger tables: orders by ID, quotes by pair,
// depth by (pair, price) and the market scalars. Each engine operation's
// writes go through a single pebble batch so the stored state never holds a
// half-applied operation.
type PebbleStore struct {
	db *pebble.DB
}

func NewPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) Close() error { return s.db.Close() }

// keys: o:<8-byte-id>, q:<pair>, d:<pair>:<8-byte-price>, ms
func orderKey(id uint64) []byte {
	k := make([]byte, 2, 10)
	copy(k, "o:")
	return binary.BigEndian.AppendUint64(k, id)
}

func quoteKey(pair string) []byte { return append([]byte("q:"), pair...) }

func depthKey(pair string, price uint64) []byte {
	k := append([]byte("d:"), pair...)
	k = append(k, ':')
	return binary.BigEndian.AppendUint64(k, price)
}

func stateKey() []byte { return []byte("ms") }

// keyUpperBound returns the smallest key greater than every key with the
// given prefix, for iterator bounds.
func keyUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

func setJSON(b *pebble.Batch, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %T: %w", v, err)
	}
	return b.Set(key, data, nil)
}

func (s *PebbleStore) PersistPlace(o *book.Order, lvl *book.DepthLevel, st *book.MarketState) error {
	b := s.db.NewBatch()
	defer b.Close()
	if err := setJSON(b, orderKey(o.ID), o); err != nil {
		return err
	}
	if err := setJSON(b, depthKey(lvl.Pair, lvl.Price), lvl); err != nil {
		return err
	}
	if err := setJSON(b, stateKey(), st); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

func (s *PebbleStore) PersistTrade(buy, sell *book.Order, q *book.PriceQuote, levels []*book.DepthLevel, st *book.MarketState) error {
	b := s.db.NewBatch()
	defer b.Close()
	if err := setJSON(b, orderKey(buy.ID), buy); err != nil {
		return err
	}
	if err := setJSON(b, orderKey(sell.ID), sell); err != nil {
		return err
	}
	if err := setJSON(b, quoteKey(q.Pair), q); err != nil {
		return err
	}
	for _, lvl := range levels {
		if err := setJSON(b, depthKey(lvl.Pair, lvl.Price), lvl); err != nil {
			return err
		}
	}
	if err := setJSON(b, stateKey(), st); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

func (s *PebbleStore) PersistCancel(o *book.Order, lvl *book.DepthLevel, st *book.MarketState) error {
	b := s.db.NewBatch()
	defer b.Close()
	if err := setJSON(b, orderKey(o.ID), o); err != nil {
		return err
	}
	if lvl != nil {
		if err := setJSON(b, depthKey(lvl.Pair, lvl.Price), lvl); err != nil {
			return err
		}
	}
	if err := setJSON(b, stateKey(), st); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

func (s *PebbleStore) PersistState(st *book.MarketState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	return s.db.Set(stateKey(), data, pebble.Sync)
}

var _ book.Store = (*PebbleStore)(nil)

// LoadSnapshot reads the full persisted state for engine restore at boot.
// Returns an empty snapshot (nil State) on a fresh database.
func (s *PebbleStore) LoadSnapshot() (*book.Snapshot, error) {
	snap := &book.Snapshot{}

	if err := s.scanPrefix([]byte("o:"), func(val []byte) error {
		var o book.Order
		if err := json.Unmarshal(val, &o); err != nil {
			return fmt.Errorf("unmarshal order: %w", err)
		}
		snap.Orders = append(snap.Orders, &o)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := s.scanPrefix([]byte("q:"), func(val []byte) error {
		var q book.PriceQuote
		if err := json.Unmarshal(val, &q); err != nil {
			return fmt.Errorf("unmarshal quote: %w", err)
		}
		snap.Quotes = append(snap.Quotes, &q)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := s.scanPrefix([]byte("d:"), func(val []byte) error {
		var lvl book.DepthLevel
		if err := json.Unmarshal(val, &lvl); err != nil {
			return fmt.Errorf("unmarshal depth level: %w", err)
		}
		snap.Depth = append(snap.Depth, &lvl)
		return nil
	}); err != nil {
		return nil, err
	}

	val, closer, err := s.db.Get(stateKey())
	if err == nil {
		defer closer.Close()
		var st book.MarketState
		if err := json.Unmarshal(val, &st); err != nil {
			return nil, fmt.Errorf("unmarshal market state: %w", err)
		}
		snap.State = &st
	} else if err != pebble.ErrNotFound {
		return nil, err
	}

	return snap, nil
}

func (s *PebbleStore) scanPrefix(prefix []byte, fn func(val []byte) error) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		if err := fn(iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}
