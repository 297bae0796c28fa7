package collection

import "sort"

// EntrySet is a set of normalized absolute folder paths.
type EntrySet map[string]struct{}

// NewEntrySet returns a set holding the given paths as-is.
func NewEntrySet(entries ...string) EntrySet {
	s := make(EntrySet, len(entries))
	for _, e := range entries {
		s.Add(e)
	}
	return s
}

// Add inserts path into the set.
func (s EntrySet) Add(path string) {
	s[path] = struct{}{}
}

// Contains reports whether path is in the set.
func (s EntrySet) Contains(path string) bool {
	_, ok := s[path]
	return ok
}

// Len returns the number of entries.
func (s EntrySet) Len() int {
	return len(s)
}

// Sorted returns the entries in lexical order.
func (s EntrySet) Sorted() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
