package operations

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/blackwell-systems/stashctl/internal/catalog"
	"github.com/blackwell-systems/stashctl/internal/errs"
	"github.com/blackwell-systems/stashctl/internal/layout"
	"github.com/blackwell-systems/stashctl/internal/metadata"
)

// AddRequest describes a new item. Empty fields are filled from the URL's
// metadata when it is fetched.
type AddRequest struct {
	URL         string
	ID          string
	Type        catalog.Kind
	Name        string
	NameEn      string
	Summary     string
	Description string
	Notes       string
	Homepage    string
	Category    string
	Tags        []string // nil means use the repository topics
	Images      []string // URLs, local paths or github: references

	// GitHub carries statistics the caller already has; it wins over
	// fetched ones.
	GitHub *catalog.GitHubMeta

	// SkipMetadata builds the item from the request alone.
	SkipMetadata bool
	// FetchContent stores the README or article body as originalContent.
	FetchContent bool
}

// Add creates an item: it resolves metadata, ingests images, writes the
// record pair, prepends the id to the index and registers new tags.
func (s *Service) Add(ctx context.Context, req AddRequest) (*catalog.Item, error) {
	draft, err := s.draft(ctx, req)
	if err != nil {
		return nil, err
	}
	it := merge(draft, req)
	if it.Name == "" {
		return nil, errs.Invalid("add item", "name is required")
	}

	switch {
	case req.ID != "":
		it.ID = req.ID
	case it.ID == "":
		it.ID = catalog.GenerateID(it.Name)
	}
	if err := layout.ValidateID(it.ID); err != nil {
		return nil, err
	}
	if s.store.Exists(it.ID) {
		return nil, errs.Invalid("add item", fmt.Sprintf("item %q already exists", it.ID))
	}

	log := s.log.WithFields(logrus.Fields{"item": it.ID, "type": it.Type})

	if err := s.addImages(ctx, it, req, draft, log); err != nil {
		return nil, err
	}

	if req.FetchContent && it.URL != "" {
		content, err := s.meta.Content(ctx, it.URL, it.Type)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.WithError(err).Warn("could not fetch original content")
		} else {
			it.OriginalContent = &content
		}
	}

	now := s.timestamp()
	it.CreatedAt, it.UpdatedAt = now, now

	if err := s.store.Save(it.ID, it); err != nil {
		return nil, err
	}
	if err := s.index.Insert(it.ID); err != nil {
		return nil, err
	}
	if added, err := s.registry.AddTags(it.Tags); err != nil {
		log.WithError(err).Warn("could not register tags")
	} else if len(added) > 0 {
		log.WithField("tags", added).Info("registered new tags")
	}

	log.WithField("images", len(it.Images)).Info("item added")
	return it, nil
}

// draft fetches metadata for req.URL. Lookup failures other than a missing
// repository degrade to a bare draft.
func (s *Service) draft(ctx context.Context, req AddRequest) (*catalog.Item, error) {
	kind := req.Type
	if kind == "" {
		kind = catalog.KindArticle
		if _, ok := metadata.ParseGitHubURL(req.URL); ok {
			kind = catalog.KindRepo
		}
	}
	bare := &catalog.Item{Type: kind, URL: req.URL, Images: []string{}}

	if req.SkipMetadata || req.URL == "" || s.meta == nil {
		return bare, nil
	}
	it, err := s.meta.Parse(ctx, req.URL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		switch errs.CodeOf(err) {
		case errs.CodeNotFound, errs.CodeInvalidInput:
			return nil, err
		}
		s.log.WithField("url", req.URL).WithError(err).Warn("metadata unavailable, continuing without it")
		return bare, nil
	}
	if req.Type != "" {
		it.Type = req.Type
	}
	return it, nil
}

func merge(draft *catalog.Item, req AddRequest) *catalog.Item {
	it := *draft
	it.Images = []string{}
	it.Thumbnail = nil
	if it.URL == "" {
		it.URL = req.URL
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&it.Name, req.Name)
	set(&it.NameEn, req.NameEn)
	set(&it.Summary, req.Summary)
	set(&it.Category, req.Category)
	if it.NameEn == "" {
		it.NameEn = it.Name
	}
	if req.Description != "" {
		it.Description = &req.Description
	}
	if req.Notes != "" {
		it.Notes = &req.Notes
	}
	if req.Homepage != "" {
		it.Homepage = &req.Homepage
	}
	if it.Category == "" && it.Type == catalog.KindArticle {
		it.Category = "article"
	}
	if req.GitHub != nil {
		gh := *req.GitHub
		it.GitHub = &gh
	}

	switch {
	case req.Tags != nil:
		it.Tags = catalog.NormalizeTags(req.Tags)
	case it.GitHub != nil:
		it.Tags = catalog.NormalizeTags(it.GitHub.Topics)
	default:
		it.Tags = []string{}
	}
	it.Archived = false
	it.OriginalContent = nil
	return &it
}

// addImages ingests the requested images. Without explicit images the
// draft's preview image is tried, and its failure is not fatal.
func (s *Service) addImages(ctx context.Context, it *catalog.Item, req AddRequest, draft *catalog.Item, log logrus.FieldLogger) error {
	sources, optional := req.Images, false
	if len(sources) == 0 && len(draft.Images) > 0 {
		sources, optional = draft.Images, true
	}
	if len(sources) == 0 {
		return nil
	}

	res, err := s.images.Ingest(ctx, sources, it.ID)
	if err != nil {
		if optional && ctx.Err() == nil {
			log.WithError(err).Warn("preview image could not be stored")
			return nil
		}
		return err
	}
	it.Images = res.Images
	it.Thumbnail = catalog.StringPtr(res.Thumbnail)
	return nil
}
