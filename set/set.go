// Package set is a string set with deterministic, sorted listing.
package set

import "sort"

type Set map[string]struct{}

func New(elements ...string) Set {
	set := make(Set)
	for _, e := range elements {
		set.Add(e)
	}
	return set
}

func (set Set) Add(str string) {
	set[str] = struct{}{}
}

func (set Set) Has(str string) bool {
	_, ok := set[str]
	return ok
}

func (set Set) Len() int {
	return len(set)
}

// Sort returns the elements in sorted order.
func (set Set) Sort() (elements []string) {
	for element := range set {
		elements = append(elements, element)
	}
	sort.Strings(elements)
	return
}
