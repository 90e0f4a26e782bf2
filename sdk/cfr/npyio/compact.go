package npyio

import (
	"fmt"

	"github.com/opencoff/go-chd"
)

// loadFactor trades hash-table size for construction time; 0.9 is the
// value the go-chd README recommends for "keys known up front, built once".
const loadFactor = 0.9

// Compactor maps a fixed set of InfoSetKeys (as opaque strings) to dense row
// indices [0, N), via a minimal perfect hash over the key set, so a
// checkpoint's regret/average-policy rows can be packed into a dense .npy
// array instead of one row per arbitrary sparse key. The key list itself is
// still persisted alongside the array (spec §6.2's checkpoint sidecar) since
// a perfect hash recovers an index from a key but not a key from an index
// for keys outside the exact set it was built from.
type Compactor struct {
	keys []string // index -> key
	h    *chd.CHD
}

// BuildCompactor constructs a minimal perfect hash over keys. keys must be
// unique; Index/Key are only meaningful for members of this exact set.
func BuildCompactor(keys []string) (*Compactor, error) {
	b := chd.NewBuilder()
	for _, k := range keys {
		b.Add([]byte(k))
	}
	h, err := b.Freeze(loadFactor)
	if err != nil {
		return nil, fmt.Errorf("npyio: building perfect hash over %d keys: %w", len(keys), err)
	}

	ordered := make([]string, len(keys))
	for _, k := range keys {
		ordered[h.Find([]byte(k))] = k
	}
	return &Compactor{keys: ordered, h: h}, nil
}

// Index returns key's dense row index.
func (c *Compactor) Index(key string) int { return int(c.h.Find([]byte(key))) }

// Key returns the InfoSetKey stored at row idx.
func (c *Compactor) Key(idx int) string { return c.keys[idx] }

// Len returns the number of distinct keys the compactor was built over.
func (c *Compactor) Len() int { return len(c.keys) }

// Keys returns every key in index order, for writing the checkpoint
// sidecar's key list.
func (c *Compactor) Keys() []string { return append([]string(nil), c.keys...) }
