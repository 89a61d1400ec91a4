package resolve

import "sort"

// Set is an unordered collection of field names.
type Set map[string]struct{}

// NewSet builds a Set from names.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, name := range names {
		s[name] = struct{}{}
	}
	return s
}

// Has reports whether name is a member. A nil Set has no members.
func (s Set) Has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s[name]
	return ok
}

// Add inserts names into the set.
func (s Set) Add(names ...string) {
	for _, name := range names {
		s[name] = struct{}{}
	}
}

// Union returns a new Set holding the members of s and every other set.
func (s Set) Union(others ...Set) Set {
	out := make(Set, len(s))
	for name := range s {
		out[name] = struct{}{}
	}
	for _, other := range others {
		for name := range other {
			out[name] = struct{}{}
		}
	}
	return out
}

// Names returns the members sorted alphabetically.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
