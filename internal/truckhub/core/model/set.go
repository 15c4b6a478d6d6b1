package model

import (
	"maps"
	"slices"
)

// Set is a set of ids.
type Set map[string]struct{}

func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s Set) Insert(id string) {
	s[id] = struct{}{}
}

func (s Set) Delete(id string) {
	delete(s, id)
}

// Clone copies s. Cloning a nil set yields an empty set.
func (s Set) Clone() Set {
	c := make(Set, len(s))
	maps.Copy(c, s)
	return c
}

// Sorted returns the members in ascending order.
func (s Set) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}
