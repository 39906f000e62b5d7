// Package dedupe implements duplicate elimination over decoded records.
//
// Dedupe collapses duplicates inside one chunk; Reconciler applies the same
// policy across the ordered concatenation of deduplicated chunks, which is
// what makes the result independent of the chunk size; Sort imposes the
// optional final order.
//
// Output order is always the order of each key's first occurrence. The
// retention policy only chooses which occurrence's values fill that slot:
//
//   - KeepFirst: the earliest record for the key
//   - KeepLast : the latest record for the key
package dedupe

import (
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"

	"csvdedupe/internal/record"
)

// Policy selects the surviving occurrence within a duplicate group.
type Policy int

const (
	KeepFirst Policy = iota
	KeepLast
)

func (p Policy) String() string {
	if p == KeepLast {
		return "last"
	}
	return "first"
}

// ParsePolicy accepts "first"/"last" (case-insensitive; "keep-" prefix
// tolerated). An empty string yields KeepFirst.
func ParsePolicy(s string) (Policy, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "keep-") {
	case "", "first":
		return KeepFirst, nil
	case "last":
		return KeepLast, nil
	}
	return KeepFirst, fmt.Errorf("unknown retention policy %q (want first or last)", s)
}

// Index maps each distinct key to one slot in first-occurrence order.
// The zero value is not usable; call NewIndex.
type Index struct {
	key    record.KeySpec
	policy Policy

	slots    []record.Record
	byHash   map[xxh3.Uint128]int
	overflow map[string]int // keys whose hash collided with a different key
	buf      []byte
}

// NewIndex returns an empty Index sized for about hint distinct keys.
func NewIndex(k record.KeySpec, p Policy, hint int) *Index {
	if hint < 0 {
		hint = 0
	}
	return &Index{
		key:    k,
		policy: p,
		slots:  make([]record.Record, 0, hint),
		byHash: make(map[xxh3.Uint128]int, hint),
	}
}

// Add offers r to the index. It reports whether r opened a new slot.
func (ix *Index) Add(r record.Record) bool {
	var h xxh3.Uint128
	h, ix.buf = ix.key.Hash(ix.buf, r)

	i, ok := ix.byHash[h]
	if !ok {
		ix.byHash[h] = len(ix.slots)
		ix.slots = append(ix.slots, r)
		return true
	}
	if !ix.key.Equal(ix.slots[i], r) {
		// Hash collision with a different key.
		if ix.overflow == nil {
			ix.overflow = make(map[string]int)
		}
		k := string(ix.buf)
		j, ok := ix.overflow[k]
		if !ok {
			ix.overflow[k] = len(ix.slots)
			ix.slots = append(ix.slots, r)
			return true
		}
		i = j
	}
	if ix.policy == KeepLast {
		ix.slots[i] = r
	}
	return false
}

// Len is the number of distinct keys seen.
func (ix *Index) Len() int { return len(ix.slots) }

// Rows returns the surviving records in first-occurrence order. The index
// must not be used after Rows.
func (ix *Index) Rows() []record.Record {
	out := ix.slots
	ix.slots = nil
	ix.byHash = nil
	ix.overflow = nil
	return out
}

// Dedupe returns the records of chunk that represent each distinct key
// under k and p. It is pure: chunk is not modified and no state is shared
// between calls, so distinct chunks may be processed concurrently.
func Dedupe(chunk []record.Record, k record.KeySpec, p Policy) []record.Record {
	ix := NewIndex(k, p, len(chunk))
	for _, r := range chunk {
		ix.Add(r)
	}
	return ix.Rows()
}
