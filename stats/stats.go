// Package stats counts observations by label for audit reports.
package stats

import (
	"fmt"
	"sort"
	"strings"
)

type Tally map[string]int

func New() Tally {
	return make(Tally)
}

func (t Tally) Add(label string) {
	t[label]++
}

func (t Tally) Count(label string) int {
	return t[label]
}

func (t Tally) Total() (total int) {
	for _, count := range t {
		total += count
	}
	return
}

// String renders one "label: count" line per label, sorted by label.
func (t Tally) String() (str string) {
	labels := make([]string, 0, len(t))
	for label := range t {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		str += fmt.Sprintf("%s: %d\n", label, t[label])
	}
	str = strings.TrimSuffix(str, "\n")
	return
}
