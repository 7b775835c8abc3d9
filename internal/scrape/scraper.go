// Package scrape reads metadata and readable content out of HTML pages. It
// backs the GitHub API when the quota runs out and handles plain articles.
package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"

	"github.com/blackwell-systems/stashctl/internal/errs"
	"github.com/blackwell-systems/stashctl/internal/logging"
)

const (
	// BrowserUserAgent is sent to GitHub pages and article bodies.
	BrowserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
	// BotUserAgent is sent when only the page head is needed.
	BotUserAgent = "Mozilla/5.0 (compatible; Bot/1.0)"

	DefaultGitHubBase = "https://github.com"
	DefaultTimeout    = 30 * time.Second
)

// Scraper fetches pages with a fresh collector per call.
type Scraper struct {
	userAgent  string
	timeout    time.Duration
	transport  http.RoundTripper
	githubBase string
	log        logrus.FieldLogger
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithUserAgent overrides BrowserUserAgent.
func WithUserAgent(ua string) Option {
	return func(s *Scraper) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithTransport replaces the HTTP transport.
func WithTransport(rt http.RoundTripper) Option { return func(s *Scraper) { s.transport = rt } }

// WithGitHubBase points repository page lookups at another host.
func WithGitHubBase(base string) Option {
	return func(s *Scraper) { s.githubBase = strings.TrimRight(base, "/") }
}

// WithLogger sets the logger; the default discards.
func WithLogger(l logrus.FieldLogger) Option { return func(s *Scraper) { s.log = l } }

// New creates a Scraper.
func New(opts ...Option) *Scraper {
	s := &Scraper{
		userAgent:  BrowserUserAgent,
		timeout:    DefaultTimeout,
		githubBase: DefaultGitHubBase,
		log:        logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// page is a fetched HTML document and the URL it was served from.
type page struct {
	doc *goquery.Selection
	url *url.URL
}

func (s *Scraper) fetch(ctx context.Context, rawURL, userAgent string) (*page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := colly.NewCollector(colly.UserAgent(userAgent))
	c.SetRequestTimeout(s.timeout)
	if s.transport != nil {
		c.WithTransport(s.transport)
	}

	var (
		result page
		status int
	)
	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})
	c.OnHTML("html", func(e *colly.HTMLElement) {
		if result.doc == nil {
			result.doc = e.DOM
			result.url = e.Request.URL
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		status = r.StatusCode
	})

	err := c.Visit(rawURL)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		if status == http.StatusNotFound {
			return nil, errs.NotFound("fetch page", rawURL, err)
		}
		return nil, errs.Fetch("fetch page", rawURL, err)
	}
	if result.doc == nil {
		return nil, errs.Fetch("parse page", rawURL, fmt.Errorf("response is not an HTML document"))
	}
	s.log.WithFields(logrus.Fields{"url": rawURL, "status": status}).Debug("scraped page")
	return &result, nil
}

// attr returns the trimmed attribute of the first match.
func attr(doc *goquery.Selection, selector, name string) string {
	v, _ := doc.Find(selector).First().Attr(name)
	return strings.TrimSpace(v)
}

func text(doc *goquery.Selection, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().Text())
}
