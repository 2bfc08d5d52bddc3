package domain

import (
	"reflect"
	"testing"
)

func TestCompareIDs(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"numeric by value", "2", "10", -1},
		{"numeric equal", "10", "10", 0},
		{"numeric greater", "100", "20", 1},
		{"leading zero tie-break", "01", "1", -1},
		{"numeric before text", "9", "A", -1},
		{"text after numeric", "A", "9", 1},
		{"lexical text", "A", "B", -1},
		{"lexical mixed", "sw10", "sw2", -1},
		{"negative numbers", "-1", "0", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompareIDs(tt.a, tt.b); got != tt.want {
				t.Errorf("CompareIDs(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSortIDs(t *testing.T) {
	ids := []string{"10", "core", "2", "access", "1"}
	SortIDs(ids)

	want := []string{"1", "2", "10", "access", "core"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("expected %v, got %v", want, ids)
	}
}
