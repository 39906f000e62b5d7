package dedupe

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"csvdedupe/internal/record"
)

// Direction is the sort direction.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// ParseDirection accepts asc/ascending and desc/descending. Empty means
// Ascending.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return Ascending, fmt.Errorf("unknown sort direction %q (want asc or desc)", s)
}

// SortSpec orders rows by one column. A nil *SortSpec means no sort.
type SortSpec struct {
	Column    string
	Index     int
	Direction Direction
}

// Sort orders rows in place by spec and returns them. The sort is stable, so
// rows with equal sort values keep their first-occurrence order. A nil spec
// leaves rows untouched.
func Sort(rows []record.Record, spec *SortSpec) []record.Record {
	if spec == nil || len(rows) < 2 {
		return rows
	}
	col := spec.Index
	desc := spec.Direction == Descending

	// Parse each value once; comparing parsed keys avoids re-parsing in the
	// O(n log n) comparisons.
	type keyed struct {
		r   record.Record
		num float64
		isN bool
	}
	ks := make([]keyed, len(rows))
	for i, r := range rows {
		n, ok := parseNumber(r[col])
		ks[i] = keyed{r: r, num: n, isN: ok}
	}

	slices.SortStableFunc(ks, func(a, b keyed) int {
		av, bv := a.r[col], b.r[col]
		// Empty values are missing and always go last.
		switch {
		case av == "" && bv == "":
			return 0
		case av == "":
			return 1
		case bv == "":
			return -1
		}
		c := compareParsed(av, bv, a.num, b.num, a.isN, b.isN)
		if desc {
			return -c
		}
		return c
	})

	for i := range ks {
		rows[i] = ks[i].r
	}
	return rows
}

// Compare orders two non-empty field values: numbers (anything
// strconv.ParseFloat accepts, except NaN) compare numerically and sort before
// text; text compares byte-wise.
func Compare(a, b string) int {
	an, aok := parseNumber(a)
	bn, bok := parseNumber(b)
	return compareParsed(a, b, an, bn, aok, bok)
}

func compareParsed(a, b string, an, bn float64, aok, bok bool) int {
	switch {
	case aok && bok:
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		}
		return 0
	case aok:
		return -1
	case bok:
		return 1
	}
	return strings.Compare(a, b)
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
