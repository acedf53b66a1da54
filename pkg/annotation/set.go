// Package annotation holds the term-set types shared by the loaders and the
// evaluator.
package annotation

import (
	"sort"
	"strings"
)

// Set is an unordered set of ontology term IDs.
type Set map[string]struct{}

// NewSet builds a set from the given term IDs. Duplicates collapse.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s Set) Add(id string) {
	s[id] = struct{}{}
}

func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s Set) Len() int {
	return len(s)
}

// AddAll unions other into s.
func (s Set) AddAll(other Set) {
	for id := range other {
		s[id] = struct{}{}
	}
}

// Intersect returns a new set holding the terms present in both sets.
func (s Set) Intersect(other Set) Set {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(Set, len(small))
	for id := range small {
		if _, ok := large[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

// Difference returns a new set holding the terms of s absent from other.
func (s Set) Difference(other Set) Set {
	out := make(Set, len(s))
	for id := range s {
		if _, ok := other[id]; !ok {
			out[id] = struct{}{}
		}
	}
	return out
}

// Clone copies s. A nil set clones to an empty one.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s Set) String() string {
	return "{" + strings.Join(s.Sorted(), ", ") + "}"
}
