package catalog

import "strings"

// Filter applies all non-empty criteria and returns matching items.
type Filter struct {
	Tag      string
	Category string
	Kind     Kind
	Search   string // matches name, nameEn, summary or any tag
	Archived *bool  // nil matches both
}

// Apply returns the subset of items matching all non-empty filter fields.
func (f Filter) Apply(items []Item) []Item {
	var out []Item
	for _, it := range items {
		if f.Tag != "" && !hasTag(it, f.Tag) {
			continue
		}
		if f.Category != "" && !strings.EqualFold(it.Category, f.Category) {
			continue
		}
		if f.Kind != "" && it.Type != f.Kind {
			continue
		}
		if f.Archived != nil && it.Archived != *f.Archived {
			continue
		}
		if f.Search != "" && !matchesSearch(it, f.Search) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// ByID returns the first item with the given ID, or nil.
func ByID(items []Item, id string) *Item {
	for i := range items {
		if items[i].ID == id {
			return &items[i]
		}
	}
	return nil
}

// TagCounts returns how many items carry each tag.
func TagCounts(items []Item) map[string]int {
	counts := map[string]int{}
	for _, it := range items {
		for _, t := range it.Tags {
			counts[t]++
		}
	}
	return counts
}

func hasTag(it Item, tag string) bool {
	tag = strings.ToLower(tag)
	for _, t := range it.Tags {
		if strings.ToLower(t) == tag {
			return true
		}
	}
	return false
}

func matchesSearch(it Item, q string) bool {
	q = strings.ToLower(q)
	for _, field := range []string{it.Name, it.NameEn, it.Summary, it.ID} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	for _, t := range it.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}
