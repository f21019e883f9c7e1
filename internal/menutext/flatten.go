package menutext

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FlatItem pairs an item with the name of the category that owns it. It is the
// shape menus are stored in.
type FlatItem struct {
	Category string
	Item     Item
}

// Flatten lists every item in source order next to its category name.
func Flatten(categories []Category) []FlatItem {
	var flat []FlatItem
	for _, c := range categories {
		for _, it := range c.Items {
			flat = append(flat, FlatItem{Category: c.Name, Item: it})
		}
	}
	return flat
}

// Section is a named run of values sharing a category.
type Section[T any] struct {
	Name  string
	Items []T
}

// GroupBy collects values under the category name returned by category.
// Sections keep the order in which their first value appears; an empty name
// becomes DefaultCategory.
func GroupBy[T any](values []T, category func(T) string) []Section[T] {
	out := make([]Section[T], 0)
	index := make(map[string]int)
	for _, v := range values {
		name := category(v)
		if name == "" {
			name = DefaultCategory
		}
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, Section[T]{Name: name})
		}
		out[i].Items = append(out[i].Items, v)
	}
	return out
}

// Group rebuilds categories from flat items. Categories keep the order in
// which their first item appears.
func Group(flat []FlatItem) []Category {
	sections := GroupBy(flat, func(f FlatItem) string { return f.Category })
	out := make([]Category, 0, len(sections))
	for _, sec := range sections {
		c := Category{Name: sec.Name, Items: make([]Item, 0, len(sec.Items))}
		for _, f := range sec.Items {
			c.Items = append(c.Items, f.Item)
		}
		out = append(out, c)
	}
	return out
}

// ParsePrice turns a normalised "RM 8.50" price back into an amount. Anything
// unreadable is zero, the same as a line that had no price.
func ParsePrice(price string) decimal.Decimal {
	s := strings.TrimSpace(price)
	if len(s) >= 2 && strings.EqualFold(s[:2], "RM") {
		s = strings.TrimSpace(s[2:])
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatPrice renders an amount in the "RM 8.50" form produced by Parse.
func FormatPrice(d decimal.Decimal) string {
	return "RM " + d.StringFixed(2)
}

// CountItems returns the total number of items across categories.
func CountItems(categories []Category) int {
	n := 0
	for _, c := range categories {
		n += len(c.Items)
	}
	return n
}
