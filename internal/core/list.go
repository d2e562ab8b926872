package core

import "sort"

// GroupByCategory partitions items into per-category groups. Within a
// group, unfound items come before found ones, then newest (highest id)
// first. The fold is pure; callers pass in whatever the store returned.
func GroupByCategory(items []Item) map[string][]Item {
	groups := make(map[string][]Item)
	for _, it := range items {
		groups[it.Category] = append(groups[it.Category], it)
	}
	for _, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].Found != group[j].Found {
				return !group[i].Found
			}
			return group[i].ID > group[j].ID
		})
	}
	return groups
}

// SortedCategories returns the group keys in ascending alphabetical
// order, which is the order the list view renders sections in.
func SortedCategories(groups map[string][]Item) []string {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TotalCents sums cost×quantity over all items.
func TotalCents(items []Item) int64 {
	var total int64
	for _, it := range items {
		total += it.Cost.Cents * it.Quantity
	}
	return total
}
