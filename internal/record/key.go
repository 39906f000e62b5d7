package record

import (
	"encoding/binary"
	"strings"

	"github.com/zeebo/xxh3"

	"csvdedupe/internal/dderr"
)

// KeyFunc appends the duplicate-matching key of r to dst and returns the
// extended slice. Fields are length-prefixed so that ("ab","c") and
// ("a","bc") never produce the same bytes.
type KeyFunc func(dst []byte, r Record) []byte

// KeySpec selects which fields make up a record's duplicate key. The zero
// value is not usable; build one with AllFields or Fields.
type KeySpec struct {
	names []string
	cols  []int
	fn    KeyFunc
}

// AllFields matches duplicates on the whole row.
func AllFields() KeySpec {
	return KeySpec{fn: appendAll}
}

// Fields matches duplicates on the named columns, in the given order. Every
// name must exist in s; an unknown name is a config error.
func Fields(s *Schema, names ...string) (KeySpec, error) {
	if len(names) == 0 {
		return KeySpec{}, dderr.Config(dderr.CodeInvalidOption, "key columns must not be empty")
	}
	cols := make([]int, 0, len(names))
	var missing []string
	for _, n := range names {
		i, ok := s.Index(n)
		if !ok {
			missing = append(missing, n)
			continue
		}
		cols = append(cols, i)
	}
	if len(missing) > 0 {
		return KeySpec{}, dderr.Config(dderr.CodeUnknownColumn,
			"key column(s) not in header: %s", strings.Join(quoteAll(missing), ", "))
	}
	ns := make([]string, len(names))
	copy(ns, names)
	return KeySpec{names: ns, cols: cols, fn: appendCols(cols)}, nil
}

// All reports whether the key is the whole row.
func (k KeySpec) All() bool { return k.cols == nil }

// Names returns the configured key column names, or nil for AllFields.
func (k KeySpec) Names() []string { return k.names }

// AppendKey appends r's encoded key to dst.
func (k KeySpec) AppendKey(dst []byte, r Record) []byte { return k.fn(dst, r) }

// Key returns r's encoded key as a string.
func (k KeySpec) Key(r Record) string { return string(k.fn(nil, r)) }

// Hash returns the 128-bit xxh3 digest of r's key. buf is scratch space and
// may be nil; the possibly-grown buffer is returned for reuse.
func (k KeySpec) Hash(buf []byte, r Record) (xxh3.Uint128, []byte) {
	buf = k.fn(buf[:0], r)
	return xxh3.Hash128(buf), buf
}

// Equal reports whether a and b have the same key.
func (k KeySpec) Equal(a, b Record) bool {
	if k.cols == nil {
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
		return true
	}
	for _, c := range k.cols {
		if a[c] != b[c] {
			return false
		}
	}
	return true
}

func appendAll(dst []byte, r Record) []byte {
	for _, v := range r {
		dst = appendField(dst, v)
	}
	return dst
}

func appendCols(cols []int) KeyFunc {
	return func(dst []byte, r Record) []byte {
		for _, c := range cols {
			dst = appendField(dst, r[c])
		}
		return dst
	}
}

func appendField(dst []byte, v string) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(v)))
	return append(dst, v...)
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = "'" + s + "'"
	}
	return out
}
