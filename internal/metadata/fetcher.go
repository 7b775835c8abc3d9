// Package metadata builds draft catalog records from a URL, using the GitHub
// API for repositories and falling back to page scraping when the API
// refuses service.
package metadata

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blackwell-systems/stashctl/internal/catalog"
	"github.com/blackwell-systems/stashctl/internal/errs"
	"github.com/blackwell-systems/stashctl/internal/github"
	"github.com/blackwell-systems/stashctl/internal/logging"
	"github.com/blackwell-systems/stashctl/internal/scrape"
)

// Placeholders used when a source has nothing better.
const (
	NoDescription = "暂无描述"
	UnknownTitle  = "未知标题"
	ArticleName   = "文章"
)

// GitHubAPI is the part of the GitHub client the fetcher uses.
type GitHubAPI interface {
	GetRepo(ctx context.Context, owner, repo string) (*github.Repo, error)
	GetReadmeHTML(ctx context.Context, owner, repo string) (string, error)
	GetRateLimit(ctx context.Context) (*github.RateLimit, error)
}

// PageScraper is the HTML fallback.
type PageScraper interface {
	RepoPage(ctx context.Context, owner, repo string) (*scrape.RepoPage, error)
	ArticleMeta(ctx context.Context, url string) (*scrape.Article, error)
	ArticleContent(ctx context.Context, url string) (string, error)
}

// Fetcher resolves URLs into draft items.
type Fetcher struct {
	api   GitHubAPI
	pages PageScraper
	log   logrus.FieldLogger
	now   func() time.Time
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets the logger; the default discards.
func WithLogger(l logrus.FieldLogger) Option { return func(f *Fetcher) { f.log = l } }

// WithClock overrides the time source used for missing dates.
func WithClock(now func() time.Time) Option { return func(f *Fetcher) { f.now = now } }

// New creates a Fetcher. api may be nil, in which case repositories are
// always scraped.
func New(api GitHubAPI, pages PageScraper, opts ...Option) *Fetcher {
	f := &Fetcher{api: api, pages: pages, log: logging.Discard(), now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

var githubURLRe = regexp.MustCompile(`github\.com/([^/]+)/([^/?#]+)`)

// RepoRef names a GitHub repository.
type RepoRef struct {
	Owner string
	Repo  string
}

func (r RepoRef) String() string { return r.Owner + "/" + r.Repo }

// URL is the canonical web address of the repository.
func (r RepoRef) URL() string { return "https://github.com/" + r.Owner + "/" + r.Repo }

// ParseGitHubURL extracts owner and repository from anything containing
// github.com/{owner}/{repo}. A trailing .git is dropped.
func ParseGitHubURL(raw string) (RepoRef, bool) {
	m := githubURLRe.FindStringSubmatch(raw)
	if m == nil {
		return RepoRef{}, false
	}
	return RepoRef{Owner: m[1], Repo: strings.TrimSuffix(m[2], ".git")}, true
}

// Parse returns repository metadata for GitHub URLs and article metadata
// for anything else.
func (f *Fetcher) Parse(ctx context.Context, rawURL string) (*catalog.Item, error) {
	if _, ok := ParseGitHubURL(rawURL); ok {
		return f.RepoInfo(ctx, rawURL)
	}
	return f.ArticleInfo(ctx, rawURL)
}

// useFallback reports whether an API error should send us to the page.
func useFallback(err error) bool {
	return github.IsQuotaError(err)
}

func (f *Fetcher) today() string { return catalog.Date(f.now()) }

func apiError(op, target string, err error) error {
	if errors.Is(err, github.ErrNotFound) {
		return errs.NotFound(op, target, err)
	}
	if errs.CodeOf(err) != "" {
		return err
	}
	return errs.Fetch(op, target, err)
}
