package operations

import (
	"context"
	"path"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/blackwell-systems/stashctl/internal/catalog"
)

// UpdateRequest patches an item. Nil fields are left alone; a pointer to
// "" clears an optional field.
type UpdateRequest struct {
	Name        *string
	NameEn      *string
	URL         *string
	Summary     *string
	Description *string
	Notes       *string
	Homepage    *string
	Category    *string
	Tags        *[]string
	Archived    *bool
	GitHub      *catalog.GitHubMeta

	// AddImages are ingested and appended after the existing images.
	AddImages []string
	// RefetchContent replaces originalContent with a fresh copy.
	RefetchContent bool
}

// Update applies req to the item and stamps updatedAt.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*catalog.Item, error) {
	current, err := s.store.Read(id, true)
	if err != nil {
		return nil, err
	}
	log := s.log.WithField("item", id)

	var content *string
	if req.RefetchContent && current.URL != "" {
		html, err := s.meta.Content(ctx, current.URL, current.Type)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.WithError(err).Warn("could not refetch original content, keeping the stored copy")
		} else {
			content = &html
		}
	}

	var newImages []string
	var newThumb string
	if len(req.AddImages) > 0 {
		start := nextOrdinal(current.Images)
		res, err := s.images.IngestFrom(ctx, req.AddImages, id, start)
		if err != nil {
			return nil, err
		}
		newImages, newThumb = res.Images, res.Thumbnail
		log.WithFields(logrus.Fields{"count": len(newImages), "from": start}).Info("appended images")
	}

	updated, err := s.store.Update(id, func(it *catalog.Item) error {
		applyPatch(it, req)
		if len(newImages) > 0 {
			it.Images = append(it.Images, newImages...)
			if it.Thumbnail == nil {
				thumb := newThumb
				if thumb == "" {
					thumb = newImages[0]
				}
				it.Thumbnail = &thumb
			}
		}
		if content != nil {
			it.OriginalContent = content
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.Tags != nil {
		if added, err := s.registry.AddTags(updated.Tags); err != nil {
			log.WithError(err).Warn("could not register tags")
		} else if len(added) > 0 {
			log.WithField("tags", added).Info("registered new tags")
		}
	}
	log.Info("item updated")
	return updated, nil
}

func applyPatch(it *catalog.Item, req UpdateRequest) {
	setString := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	setOptional := func(dst **string, v *string) {
		if v != nil {
			*dst = catalog.StringPtr(*v)
		}
	}
	setString(&it.Name, req.Name)
	setString(&it.NameEn, req.NameEn)
	setString(&it.URL, req.URL)
	setString(&it.Summary, req.Summary)
	setString(&it.Category, req.Category)
	setOptional(&it.Description, req.Description)
	setOptional(&it.Notes, req.Notes)
	setOptional(&it.Homepage, req.Homepage)
	if req.Tags != nil {
		it.Tags = catalog.NormalizeTags(*req.Tags)
	}
	if req.Archived != nil {
		it.Archived = *req.Archived
	}
	if req.GitHub != nil {
		gh := *req.GitHub
		it.GitHub = &gh
	}
}

// nextOrdinal returns one past the highest N among images named N.ext, or
// len(images)+1 if that is larger.
func nextOrdinal(images []string) int {
	highest := len(images)
	for _, img := range images {
		base := path.Base(img)
		stem := strings.TrimSuffix(base, path.Ext(base))
		if n, err := strconv.Atoi(stem); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1
}
