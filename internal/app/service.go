package app

import (
	"net/http"

	"github.com/blackwell-systems/stashctl/internal/github"
	"github.com/blackwell-systems/stashctl/internal/ingest"
	"github.com/blackwell-systems/stashctl/internal/layout"
	"github.com/blackwell-systems/stashctl/internal/metadata"
	"github.com/blackwell-systems/stashctl/internal/operations"
	"github.com/blackwell-systems/stashctl/internal/scrape"
)

// newService wires the site, the GitHub client, the page scraper and the
// image ingestor from cfg.
func newService() *operations.Service {
	l := layout.OS(cfg.Site.Root)
	gh := github.New(cfg.GitHub.Token, cfg.GitHub.APIBase)

	pages := scrape.New(
		scrape.WithUserAgent(cfg.Fetch.UserAgent),
		scrape.WithTimeout(cfg.Fetch.Timeout),
		scrape.WithLogger(logger),
	)
	meta := metadata.New(gh, pages, metadata.WithLogger(logger))

	images := ingest.New(l,
		ingest.WithHTTPClient(&http.Client{Timeout: cfg.Fetch.Timeout}),
		ingest.WithUserAgent(cfg.Fetch.UserAgent),
		ingest.WithGitHub(gh),
		ingest.WithLogger(logger),
	)

	if !gh.HasToken() {
		logger.Debugf("no GitHub token in $%s, using the anonymous API quota", cfg.GitHub.TokenEnv)
	}

	return operations.New(l, images, meta,
		operations.WithLogger(logger),
		operations.WithRefresh(cfg.Refresh.Delay, cfg.Refresh.MinRemaining),
	)
}
