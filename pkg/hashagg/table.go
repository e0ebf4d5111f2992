package hashagg

import (
	"github.com/tidwall/btree"
)

// groupKey is a grouping key. All null keys form one group.
type groupKey struct {
	Null bool
	Val  int64
}

func keyLess(a, b groupKey) bool {
	if a.Null != b.Null {
		return a.Null
	}
	return a.Val < b.Val
}

type groupEntry struct {
	key groupKey
	ord int
}

// groupTable assigns dense ordinals to keys in insertion order.
type groupTable struct {
	index *btree.BTreeG[groupEntry]
	keys  []groupKey
}

func newGroupTable() *groupTable {
	return &groupTable{
		index: btree.NewBTreeG[groupEntry](func(a, b groupEntry) bool {
			return keyLess(a.key, b.key)
		}),
	}
}

func (table *groupTable) lookup(key groupKey) (int, bool) {
	e, has := table.index.Get(groupEntry{key: key})
	return e.ord, has
}

// insert adds an absent key under the next ordinal, count() before the call.
func (table *groupTable) insert(key groupKey) int {
	ord := len(table.keys)
	table.index.Set(groupEntry{key: key, ord: ord})
	table.keys = append(table.keys, key)
	return ord
}

func (table *groupTable) count() int {
	return len(table.keys)
}

func (table *groupTable) clear() {
	table.index.Clear()
	table.keys = nil
}
