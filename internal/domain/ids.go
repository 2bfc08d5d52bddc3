package domain

import (
	"sort"
	"strconv"
	"strings"
)

// CompareIDs orders identifiers naturally. Two integer ids compare by value,
// integers sort before non-integers, and everything else compares lexically.
// It returns -1, 0 or +1.
func CompareIDs(a, b string) int {
	ai, aErr := strconv.ParseInt(a, 10, 64)
	bi, bErr := strconv.ParseInt(b, 10, 64)

	switch {
	case aErr == nil && bErr == nil:
		if ai < bi {
			return -1
		}
		if ai > bi {
			return 1
		}
		// "01" and "1" are distinct ids with equal value
		return strings.Compare(a, b)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	}
	return strings.Compare(a, b)
}

// SortIDs sorts ids in place using CompareIDs
func SortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		return CompareIDs(ids[i], ids[j]) < 0
	})
}
