package cfr

import (
	"hash/fnv"
	"sync"
)

const (
	tableShardCount = 64
	tableShardMask  = tableShardCount - 1
)

type tableShard struct {
	mu      sync.RWMutex
	entries map[InfoSetKey]*Minimizer
}

// Table is a concurrent map from InfoSetKey to Minimizer, sharded by a hash
// of the key so that lookups for unrelated infosets never contend on the
// same lock. Grounded on the teacher's RegretTable: same shard count, same
// get-or-create-under-shard-lock discipline, generalized from a Hold'em
// bucket key to the opaque InfoSetKey used across every game in this repo.
type Table struct {
	shards [tableShardCount]*tableShard
}

// NewTable allocates an empty table.
func NewTable() *Table {
	t := &Table{}
	for i := range t.shards {
		t.shards[i] = &tableShard{entries: make(map[InfoSetKey]*Minimizer)}
	}
	return t
}

func (t *Table) shardFor(key InfoSetKey) *tableShard {
	return t.shards[hashKey(key)&tableShardMask]
}

func hashKey(key InfoSetKey) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return h.Sum64()
}

// Get returns the Minimizer for key, creating it on first access.
func (t *Table) Get(key InfoSetKey) *Minimizer {
	shard := t.shardFor(key)

	shard.mu.RLock()
	m, ok := shard.entries[key]
	shard.mu.RUnlock()
	if ok {
		return m
	}

	shard.mu.Lock()
	defer shard.mu.Unlock()
	if m, ok = shard.entries[key]; ok {
		return m
	}
	m = &Minimizer{player: -1}
	shard.entries[key] = m
	return m
}

// Size returns the number of distinct infosets visited so far.
func (t *Table) Size() int {
	n := 0
	for _, shard := range t.shards {
		shard.mu.RLock()
		n += len(shard.entries)
		shard.mu.RUnlock()
	}
	return n
}

// Range calls fn for every (key, minimizer) pair in the table. fn must not
// call back into the table.
func (t *Table) Range(fn func(InfoSetKey, *Minimizer)) {
	for _, shard := range t.shards {
		shard.mu.RLock()
		for k, m := range shard.entries {
			fn(k, m)
		}
		shard.mu.RUnlock()
	}
}

// Keys returns every visited infoset key, in no particular order.
func (t *Table) Keys() []InfoSetKey {
	keys := make([]InfoSetKey, 0, t.Size())
	t.Range(func(k InfoSetKey, _ *Minimizer) {
		keys = append(keys, k)
	})
	return keys
}
