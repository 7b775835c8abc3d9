package scrape

import (
	"context"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Article is the head metadata of a web page.
type Article struct {
	Title       string
	Description string
	Image       string // absolute, empty when the page has no og:image
}

// ArticleMeta reads og:title, og:description and og:image, falling back to
// <title> and the description meta tag.
func (s *Scraper) ArticleMeta(ctx context.Context, rawURL string) (*Article, error) {
	p, err := s.fetch(ctx, rawURL, BotUserAgent)
	if err != nil {
		return nil, err
	}
	doc := p.doc

	a := &Article{
		Title:       attr(doc, `meta[property="og:title"]`, "content"),
		Description: attr(doc, `meta[property="og:description"]`, "content"),
		Image:       attr(doc, `meta[property="og:image"]`, "content"),
	}
	if a.Title == "" {
		a.Title = text(doc, "title")
	}
	if a.Description == "" {
		a.Description = attr(doc, `meta[name="description"]`, "content")
	}
	if a.Image != "" {
		if ref, err := url.Parse(a.Image); err == nil {
			a.Image = p.url.ResolveReference(ref).String()
		}
	}
	return a, nil
}

// Page chrome dropped before looking for the article body.
const chromeSelector = "script, style, nav, header, footer, aside, .ads, .comments, .sidebar"

// Candidate containers, most specific first.
var contentSelectors = []string{
	"article", ".article", ".post-content", ".entry-content", ".content",
	".markdown-body", ".post", "main", "#content", ".main-content",
}

const minContentRunes = 200

// ArticleContent extracts the readable body of a page as HTML with
// absolute image and link targets. Links open in a new tab.
func (s *Scraper) ArticleContent(ctx context.Context, rawURL string) (string, error) {
	p, err := s.fetch(ctx, rawURL, s.userAgent)
	if err != nil {
		return "", err
	}
	doc := p.doc
	doc.Find(chromeSelector).Remove()

	var content string
	for _, selector := range contentSelectors {
		sel := doc.Find(selector)
		if sel.Length() == 0 {
			continue
		}
		if utf8.RuneCountInString(strings.TrimSpace(sel.Text())) > minContentRunes {
			content, _ = sel.First().Html()
			break
		}
	}
	if content == "" {
		content, _ = doc.Find("body").First().Html()
	}

	origin := p.url.Scheme + "://" + p.url.Host
	return rewriteFragment(content, func(attrName, val string) string {
		if strings.HasPrefix(val, "/") {
			return origin + val
		}
		return origin + "/" + val
	}, true), nil
}
