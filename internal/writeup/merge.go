package writeup

import (
	"slices"
	"strings"
)

// Merge returns the union of current and incoming keyed by path, with
// incoming items replacing current ones. The result is sorted; neither input
// is modified.
func Merge(current, incoming []Item) []Item {
	byPath := make(map[string]Item, len(current)+len(incoming))
	for _, it := range current {
		byPath[it.Path] = it
	}
	for _, it := range incoming {
		byPath[it.Path] = it
	}

	merged := make([]Item, 0, len(byPath))
	for _, it := range byPath {
		merged = append(merged, it)
	}
	Sort(merged)
	return merged
}

// Sort orders items by category, then title, case-insensitively.
// Path breaks remaining ties so the order is total.
func Sort(items []Item) {
	slices.SortFunc(items, Compare)
}

// Compare orders two items the way Sort does.
func Compare(a, b Item) int {
	if c := compareFold(a.Category, b.Category); c != 0 {
		return c
	}
	if c := compareFold(a.Title, b.Title); c != 0 {
		return c
	}
	return strings.Compare(a.Path, b.Path)
}

func compareFold(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// Counts tallies items per badge.
func Counts(items []Item) map[Badge]int {
	counts := make(map[Badge]int, len(Badges))
	for _, it := range items {
		counts[it.Badge]++
	}
	return counts
}

// Categories returns the distinct categories of items in sorted order.
// items must already be sorted.
func Categories(items []Item) []string {
	var cats []string
	for _, it := range items {
		if len(cats) == 0 || cats[len(cats)-1] != it.Category {
			cats = append(cats, it.Category)
		}
	}
	return cats
}

// Filter returns the items matching badge and category. Empty arguments
// match everything; category comparison ignores case.
func Filter(items []Item, badge Badge, category string) []Item {
	var out []Item
	for _, it := range items {
		if badge != "" && it.Badge != badge {
			continue
		}
		if category != "" && !strings.EqualFold(it.Category, category) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// ParseBadge parses a badge name case-insensitively.
func ParseBadge(s string) (Badge, bool) {
	for _, b := range Badges {
		if strings.EqualFold(string(b), s) {
			return b, true
		}
	}
	return "", false
}
