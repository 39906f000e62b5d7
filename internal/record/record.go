// Package record defines the row model shared by every stage of a run: the
// header-derived Schema, immutable Records, and the KeySpec used to decide
// whether two records are duplicates.
package record

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Record is one decoded data row. Values are positional and aligned to the
// run's Schema. Records are never modified after the source emits them.
type Record []string

// Schema is the ordered set of field names taken from the header row.
type Schema struct {
	names []string
	index map[string]int
}

// NewSchema builds a Schema from a header row. Lookups are NFC-normalised
// and whitespace-trimmed so that a requested column matches its header cell
// regardless of Unicode composition. When a name repeats, the first
// occurrence wins lookups.
func NewSchema(header []string) *Schema {
	names := make([]string, len(header))
	copy(names, header)
	idx := make(map[string]int, len(names))
	for i, n := range names {
		k := CanonicalName(n)
		if _, dup := idx[k]; !dup {
			idx[k] = i
		}
	}
	return &Schema{names: names, index: idx}
}

// CanonicalName is the lookup form of a column name.
func CanonicalName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Names returns the header cells in file order. The slice must not be modified.
func (s *Schema) Names() []string { return s.names }

// Len is the number of fields every record must carry.
func (s *Schema) Len() int { return len(s.names) }

// Index returns the position of the named field.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[CanonicalName(name)]
	return i, ok
}
