package dedupe

import (
	"reflect"
	"testing"

	"csvdedupe/internal/record"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2", "10", -1},      // numeric, not lexicographic
		{"10", "2", 1},       //
		{"1.50", "1.5", 0},   // numerically equal
		{"-3", "2", -1},      //
		{"9", "apple", -1},   // numbers before text
		{"apple", "9", 1},    //
		{"apple", "banana", -1},
		{"B", "a", -1}, // byte-wise
		{"NaN", "1", 1}, // NaN is text
	}
	for _, tt := range tests {
		if got := Compare(tt.a, tt.b); got != tt.want {
			t.Errorf("Compare(%q,%q)=%d; want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func col0(rs []record.Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r[0]
	}
	return out
}

func TestSortAscendingDescendingEmptiesLast(t *testing.T) {
	mk := func() []record.Record {
		return rows(
			[]string{"10"}, []string{""}, []string{"2"}, []string{"b"}, []string{"a"}, []string{"2.0"},
		)
	}

	asc := Sort(mk(), &SortSpec{Column: "v", Index: 0, Direction: Ascending})
	if got, want := col0(asc), []string{"2", "2.0", "10", "a", "b", ""}; !reflect.DeepEqual(got, want) {
		t.Fatalf("asc: got %v want %v", got, want)
	}

	desc := Sort(mk(), &SortSpec{Column: "v", Index: 0, Direction: Descending})
	if got, want := col0(desc), []string{"b", "a", "10", "2", "2.0", ""}; !reflect.DeepEqual(got, want) {
		t.Fatalf("desc: got %v want %v", got, want)
	}
}

func TestSortStable(t *testing.T) {
	in := rows(
		[]string{"1", "first"},
		[]string{"0", "x"},
		[]string{"1", "second"},
	)
	got := Sort(in, &SortSpec{Index: 0})
	if got[1][1] != "first" || got[2][1] != "second" {
		t.Fatalf("equal keys must keep input order: %v", got)
	}
}

func TestSortNilSpecIsIdentity(t *testing.T) {
	in := rows([]string{"b"}, []string{"a"})
	got := Sort(in, nil)
	if got[0][0] != "b" {
		t.Fatalf("nil spec must not reorder: %v", got)
	}
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{"": Ascending, "asc": Ascending, "DESC": Descending, "descending": Descending} {
		got, err := ParseDirection(in)
		if err != nil || got != want {
			t.Fatalf("ParseDirection(%q)=%v,%v", in, got, err)
		}
	}
	if _, err := ParseDirection("up"); err == nil {
		t.Fatalf("expected error")
	}
}
