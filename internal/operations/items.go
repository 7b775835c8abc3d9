package operations

import (
	"slices"
	"strings"

	"github.com/blackwell-systems/stashctl/internal/catalog"
	"github.com/blackwell-systems/stashctl/internal/errs"
	"github.com/blackwell-systems/stashctl/internal/layout"
)

// Get reads one item, light or full.
func (s *Service) Get(id string, full bool) (*catalog.Item, error) {
	return s.store.Read(id, full)
}

// Items returns the light records in index order. Index entries without a
// record are skipped.
func (s *Service) Items() ([]catalog.Item, error) {
	ids, err := s.index.List()
	if err != nil {
		return nil, err
	}
	items := make([]catalog.Item, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		it, err := s.store.Read(id, false)
		if err != nil {
			if errs.IsNotFound(err) || errs.CodeOf(err) == errs.CodeInvalidInput {
				s.log.WithField("item", id).Warn("indexed item has no record")
				continue
			}
			return nil, err
		}
		items = append(items, *it)
	}
	return items, nil
}

// List returns the items matching f.
func (s *Service) List(f catalog.Filter) ([]catalog.Item, error) {
	items, err := s.Items()
	if err != nil {
		return nil, err
	}
	return f.Apply(items), nil
}

// Delete removes the record pair, the image directory and every index
// entry for id. Deleting a missing item succeeds.
func (s *Service) Delete(id string) error {
	if err := layout.ValidateID(id); err != nil {
		return err
	}
	if err := s.store.Delete(id); err != nil {
		return err
	}
	if err := s.images.Remove(id); err != nil {
		return err
	}
	if err := s.index.Remove(id); err != nil {
		return err
	}
	s.log.WithField("item", id).Info("item deleted")
	return nil
}

// TagUsage pairs a registered tag with the number of items carrying it.
type TagUsage struct {
	catalog.Tag
	Count int `json:"count"`
}

// Tags returns registered tags with usage counts, plus any tag used by an
// item but missing from the registry.
func (s *Service) Tags() ([]TagUsage, error) {
	c, err := s.registry.Load()
	if err != nil {
		return nil, err
	}
	items, err := s.Items()
	if err != nil {
		return nil, err
	}
	counts := catalog.TagCounts(items)

	out := make([]TagUsage, 0, len(c.Tags))
	for _, t := range c.Tags {
		out = append(out, TagUsage{Tag: t, Count: counts[t.ID]})
		delete(counts, t.ID)
	}
	for _, it := range items {
		for _, t := range it.Tags {
			if n, ok := counts[t]; ok {
				out = append(out, TagUsage{Tag: catalog.Tag{ID: t, Name: t}, Count: n})
				delete(counts, t)
			}
		}
	}
	return out, nil
}

// RenameTag replaces tag from with to on every item and in the registry.
// It returns the number of items changed.
func (s *Service) RenameTag(from, to string) (int, error) {
	from = strings.ToLower(strings.TrimSpace(from))
	to = strings.ToLower(strings.TrimSpace(to))
	if from == "" || to == "" {
		return 0, errs.Invalid("rename tag", "both tag names are required")
	}
	if from == to {
		return 0, nil
	}

	items, err := s.Items()
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, it := range items {
		if !slices.Contains(it.Tags, from) {
			continue
		}
		_, err := s.store.Update(it.ID, func(rec *catalog.Item) error {
			for i, t := range rec.Tags {
				if t == from {
					rec.Tags[i] = to
				}
			}
			return nil
		})
		if err != nil {
			return changed, err
		}
		changed++
	}

	c, err := s.registry.Load()
	if err != nil {
		return changed, err
	}
	hasTo := c.HasTag(to)
	tags := make([]catalog.Tag, 0, len(c.Tags)+1)
	for _, t := range c.Tags {
		if t.ID == from {
			if hasTo {
				continue
			}
			t, hasTo = catalog.Tag{ID: to, Name: to}, true
		}
		tags = append(tags, t)
	}
	if !hasTo {
		tags = append(tags, catalog.Tag{ID: to, Name: to})
	}
	c.Tags = tags
	if err := s.registry.Save(c); err != nil {
		return changed, err
	}
	s.log.WithField("from", from).WithField("to", to).WithField("items", changed).Info("tag renamed")
	return changed, nil
}
