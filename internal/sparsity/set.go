// Package sparsity implements set-based sparsity pattern algebra.
//
// A Pattern holds, for every row, the sorted set of columns with a
// structural nonzero. The composition operations accumulate into a
// caller-supplied result (R += ...) and never modify their operands.
package sparsity

import "slices"

// Set is a sorted, duplicate-free set of indices.
type Set []int

// NewSet builds a set from arbitrary values.
func NewSet(values ...int) Set {
	s := slices.Clone(values)
	slices.Sort(s)
	return slices.Compact(s)
}

// Range returns the set {lo, lo+1, ..., hi-1}.
func Range(lo, hi int) Set {
	if hi <= lo {
		return nil
	}
	s := make(Set, 0, hi-lo)
	for i := lo; i < hi; i++ {
		s = append(s, i)
	}
	return s
}

// Len returns the number of elements.
func (s Set) Len() int {
	return len(s)
}

// Contains reports whether v is in the set.
func (s Set) Contains(v int) bool {
	_, found := slices.BinarySearch(s, v)
	return found
}

// Min returns the smallest element. Panics on an empty set.
func (s Set) Min() int {
	return s[0]
}

// Max returns the largest element. Panics on an empty set.
func (s Set) Max() int {
	return s[len(s)-1]
}

// Insert adds v to the set.
func (s *Set) Insert(v int) {
	n := len(*s)
	if n == 0 || (*s)[n-1] < v {
		*s = append(*s, v)
		return
	}
	i, found := slices.BinarySearch(*s, v)
	if !found {
		*s = slices.Insert(*s, i, v)
	}
}

// InsertAll adds every element of other to the set.
func (s *Set) InsertAll(other Set) {
	if len(other) == 0 {
		return
	}
	if len(*s) == 0 {
		*s = slices.Clone(other)
		return
	}
	*s = s.Union(other)
}

// Union returns a new set with the elements of both sets.
func (s Set) Union(other Set) Set {
	out := make(Set, 0, len(s)+len(other))
	i, j := 0, 0
	for i < len(s) && j < len(other) {
		switch {
		case s[i] < other[j]:
			out = append(out, s[i])
			i++
		case s[i] > other[j]:
			out = append(out, other[j])
			j++
		default:
			out = append(out, s[i])
			i++
			j++
		}
	}
	out = append(out, s[i:]...)
	return append(out, other[j:]...)
}

// Intersection returns a new set with the elements present in both sets.
func (s Set) Intersection(other Set) Set {
	var out Set
	i, j := 0, 0
	for i < len(s) && j < len(other) {
		switch {
		case s[i] < other[j]:
			i++
		case s[i] > other[j]:
			j++
		default:
			out = append(out, s[i])
			i++
			j++
		}
	}
	return out
}

// Equal reports whether both sets hold the same elements.
func (s Set) Equal(other Set) bool {
	return slices.Equal(s, other)
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	return slices.Clone(s)
}

// Intersects reports whether a and b share an element.
//
// Disjoint value ranges are rejected in constant time; otherwise the smaller
// set is scanned against the larger one.
func Intersects(a, b Set) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	if a.Max() < b.Min() || a.Min() > b.Max() {
		return false
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	for _, v := range a {
		if b.Contains(v) {
			return true
		}
	}
	return false
}

// Compare orders sets by size and then lexicographically.
// It returns -1, 0 or 1.
func Compare(a, b Set) int {
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return slices.Compare(a, b)
}
