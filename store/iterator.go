package store

import (
	"bytes"

	"github.com/google/btree"
	"github.com/iov-one/harvest/errors"
)

// collectRange returns a snapshot of all cached items within [start, end).
// A nil start or end means the range is unbounded on that side.
func collectRange(bt *btree.BTree, start, end []byte, reverse bool) []btree.Item {
	var items []btree.Item
	collect := func(item btree.Item) bool {
		items = append(items, item)
		return true
	}

	switch {
	case start == nil && end == nil:
		bt.Ascend(collect)
	case start == nil:
		bt.AscendLessThan(bkey{end}, collect)
	case end == nil:
		bt.AscendGreaterOrEqual(bkey{start}, collect)
	default:
		bt.AscendRange(bkey{start}, bkey{end}, collect)
	}

	if reverse {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}
	return items
}

// cacheIterator merges the cached items with the parent iterator. Cached
// items shadow the parent entries with the same key, deleted items hide
// them.
type cacheIterator struct {
	cached  []btree.Item
	idx     int
	parent  Iterator
	reverse bool

	// peeked parent element
	pKey, pVal []byte
	pLoaded    bool
	pDone      bool
}

var _ Iterator = (*cacheIterator)(nil)

func newCacheIterator(cached []btree.Item, parent Iterator, reverse bool) *cacheIterator {
	return &cacheIterator{
		cached:  cached,
		parent:  parent,
		reverse: reverse,
	}
}

func (it *cacheIterator) peekParent() error {
	if it.pLoaded || it.pDone {
		return nil
	}
	k, v, err := it.parent.Next()
	switch {
	case err == nil:
		it.pKey, it.pVal, it.pLoaded = k, v, true
	case errors.ErrIteratorDone.Is(err):
		it.pDone = true
	default:
		return err
	}
	return nil
}

func (it *cacheIterator) Next() (key, value []byte, err error) {
	for {
		if err := it.peekParent(); err != nil {
			return nil, nil, err
		}

		if it.idx >= len(it.cached) {
			if it.pDone {
				return nil, nil, errors.ErrIteratorDone
			}
			it.pLoaded = false
			return it.pKey, it.pVal, nil
		}

		item := it.cached[it.idx]
		if !it.pDone {
			cmp := bytes.Compare(item.(keyer).Key(), it.pKey)
			if it.reverse {
				cmp = -cmp
			}
			if cmp > 0 {
				it.pLoaded = false
				return it.pKey, it.pVal, nil
			}
			if cmp == 0 {
				// Cached entry overwrites the parent one.
				it.pLoaded = false
			}
		}

		it.idx++
		if set, ok := item.(setItem); ok {
			return set.key, set.value, nil
		}
		// Deleted item, continue with the next one.
	}
}

func (it *cacheIterator) Release() {
	it.cached = nil
	it.parent.Release()
}
