package scrape

import (
	"context"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RepoPage is what a repository's public page reveals without the API.
// Empty strings mean the page did not show the value.
type RepoPage struct {
	Description string
	Homepage    string
	Stars       int
	Forks       int
	Language    string
	License     string
	Topics      []string
	LastUpdate  string // YYYY-MM-DD
	ReadmeHTML  string // links already absolute
}

var readmeSelectors = []string{
	"article.markdown-body",
	".markdown-body",
	`[data-target="readme-toc.content"]`,
}

// RepoPage scrapes github.com/{owner}/{repo}.
func (s *Scraper) RepoPage(ctx context.Context, owner, repo string) (*RepoPage, error) {
	p, err := s.fetch(ctx, s.githubBase+"/"+owner+"/"+repo, s.userAgent)
	if err != nil {
		return nil, err
	}
	doc := p.doc

	rp := &RepoPage{
		Description: attr(doc, `meta[property="og:description"]`, "content"),
		Homepage:    attr(doc, `a[data-analytics-event*="homepage"]`, "href"),
		Stars:       counter(doc.Find("#repo-stars-counter-star").First()),
		Forks:       counter(doc.Find("#repo-network-counter").First()),
		Language:    text(doc, `[itemprop="programmingLanguage"]`),
		License:     text(doc, `a[href*="/blob/"][href*="LICENSE"]`),
		Topics:      []string{},
	}
	if rp.Description == "" {
		rp.Description = text(doc, "p.f4.my-3")
	}
	doc.Find("a.topic-tag").Each(func(_ int, sel *goquery.Selection) {
		if t := strings.TrimSpace(sel.Text()); t != "" {
			rp.Topics = append(rp.Topics, t)
		}
	})
	if dt := attr(doc, "relative-time", "datetime"); dt != "" {
		rp.LastUpdate, _, _ = strings.Cut(dt, "T")
	}

	for _, sel := range readmeSelectors {
		if html, err := doc.Find(sel).First().Html(); err == nil && strings.TrimSpace(html) != "" {
			rp.ReadmeHTML = RewriteReadme(html, owner, repo)
			break
		}
	}

	s.log.WithField("repo", owner+"/"+repo).Debug("scraped repository page")
	return rp, nil
}

// counter reads a GitHub counter. The title carries the exact figure
// ("1,234"); the text is abbreviated ("1.2k").
func counter(sel *goquery.Selection) int {
	if title, ok := sel.Attr("title"); ok {
		if n, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(title), ",", "")); err == nil {
			return n
		}
	}
	return parseCount(sel.Text())
}

func parseCount(s string) int {
	s = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	mult := 1.0
	switch {
	case strings.HasSuffix(s, "k"):
		mult, s = 1e3, strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		mult, s = 1e6, strings.TrimSuffix(s, "m")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int(f*mult + 0.5)
}
