package metadata

import (
	"context"
	"strings"

	"github.com/blackwell-systems/stashctl/internal/catalog"
)

// ArticleInfo returns a draft article item. Pages that cannot be fetched
// still yield a placeholder record; only cancellation is an error.
func (f *Fetcher) ArticleInfo(ctx context.Context, rawURL string) (*catalog.Item, error) {
	meta, err := f.pages.ArticleMeta(ctx, rawURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		f.log.WithField("url", rawURL).WithError(err).Warn("article metadata unavailable")
		return &catalog.Item{
			ID:      catalog.GenerateID(rawURL),
			Type:    catalog.KindArticle,
			Name:    ArticleName,
			URL:     rawURL,
			Summary: NoDescription,
			Images:  []string{},
		}, nil
	}

	title := strings.TrimSpace(meta.Title)
	if title == "" {
		title = UnknownTitle
	}
	summary := strings.TrimSpace(meta.Description)
	if summary == "" {
		summary = NoDescription
	}
	it := &catalog.Item{
		ID:      catalog.GenerateID(title),
		Type:    catalog.KindArticle,
		Name:    title,
		URL:     rawURL,
		Summary: summary,
		Images:  []string{},
	}
	if meta.Image != "" {
		it.Images = []string{meta.Image}
		it.Thumbnail = catalog.StringPtr(meta.Image)
	}
	return it, nil
}

// Content returns the HTML stored as originalContent: the README for
// repositories, the readable body for articles.
func (f *Fetcher) Content(ctx context.Context, rawURL string, kind catalog.Kind) (string, error) {
	if kind == catalog.KindRepo {
		return f.Readme(ctx, rawURL)
	}
	return f.pages.ArticleContent(ctx, rawURL)
}
