package metadata

import (
	"context"
	"fmt"

	"github.com/blackwell-systems/stashctl/internal/catalog"
	"github.com/blackwell-systems/stashctl/internal/errs"
	"github.com/blackwell-systems/stashctl/internal/github"
	"github.com/blackwell-systems/stashctl/internal/scrape"
)

// RepoInfo returns a draft repository item: id, names, url, homepage,
// summary and GitHub statistics. Images and timestamps are left to the
// caller.
func (f *Fetcher) RepoInfo(ctx context.Context, rawURL string) (*catalog.Item, error) {
	ref, ok := ParseGitHubURL(rawURL)
	if !ok {
		return nil, errs.Invalid("repo info", fmt.Sprintf("not a GitHub repository URL: %q", rawURL))
	}
	log := f.log.WithField("repo", ref.String())

	if f.api != nil {
		repo, err := f.api.GetRepo(ctx, ref.Owner, ref.Repo)
		if err == nil {
			return itemFromAPI(ref, repo), nil
		}
		if !useFallback(err) {
			return nil, apiError("repo info", ref.String(), err)
		}
		log.WithError(err).Warn("GitHub API refused, scraping repository page")
	}

	page, err := f.pages.RepoPage(ctx, ref.Owner, ref.Repo)
	if err != nil {
		return nil, err
	}
	return f.itemFromPage(ref, page), nil
}

func itemFromAPI(ref RepoRef, r *github.Repo) *catalog.Item {
	name := r.Name
	if name == "" {
		name = ref.Repo
	}
	url := r.HTMLURL
	if url == "" {
		url = ref.URL()
	}
	summary := r.Description
	if summary == "" {
		summary = NoDescription
	}
	return &catalog.Item{
		ID:       catalog.RepoID(ref.Owner, ref.Repo),
		Type:     catalog.KindRepo,
		Name:     name,
		NameEn:   name,
		URL:      url,
		Homepage: catalog.StringPtr(r.Homepage),
		Summary:  summary,
		GitHub: &catalog.GitHubMeta{
			Stars:      r.StargazersCount,
			Forks:      r.ForksCount,
			Language:   catalog.StringPtr(r.Language),
			License:    licenseOf(r),
			LastUpdate: catalog.Date(r.UpdatedAt),
			Topics:     append([]string{}, r.Topics...),
			CreatedAt:  catalog.Date(r.CreatedAt),
		},
	}
}

func licenseOf(r *github.Repo) *string {
	if r.License == nil {
		return nil
	}
	return catalog.StringPtr(r.License.SPDXID)
}

func (f *Fetcher) itemFromPage(ref RepoRef, p *scrape.RepoPage) *catalog.Item {
	summary := p.Description
	if summary == "" {
		summary = NoDescription
	}
	lastUpdate := p.LastUpdate
	if lastUpdate == "" {
		lastUpdate = f.today()
	}
	return &catalog.Item{
		ID:       catalog.RepoID(ref.Owner, ref.Repo),
		Type:     catalog.KindRepo,
		Name:     ref.Repo,
		NameEn:   ref.Repo,
		URL:      ref.URL(),
		Homepage: catalog.StringPtr(p.Homepage),
		Summary:  summary,
		GitHub: &catalog.GitHubMeta{
			Stars:      p.Stars,
			Forks:      p.Forks,
			Language:   catalog.StringPtr(p.Language),
			License:    catalog.StringPtr(p.License),
			LastUpdate: lastUpdate,
			Topics:     append([]string{}, p.Topics...),
			// The page does not show a creation date.
			CreatedAt: lastUpdate,
		},
	}
}

// Stats is the refreshable subset of GitHubMeta.
type Stats struct {
	Stars      int
	Forks      int
	Language   *string
	License    *string
	LastUpdate string
}

// Apply merges s into m, keeping topics and createdAt.
func (s *Stats) Apply(m *catalog.GitHubMeta) {
	m.Stars = s.Stars
	m.Forks = s.Forks
	m.Language = s.Language
	m.License = s.License
	m.LastUpdate = s.LastUpdate
}

// RepoStats fetches current statistics for a repository URL.
func (f *Fetcher) RepoStats(ctx context.Context, rawURL string) (*Stats, error) {
	ref, ok := ParseGitHubURL(rawURL)
	if !ok {
		return nil, errs.Invalid("repo stats", fmt.Sprintf("not a GitHub repository URL: %q", rawURL))
	}

	if f.api != nil {
		repo, err := f.api.GetRepo(ctx, ref.Owner, ref.Repo)
		if err == nil {
			return &Stats{
				Stars:      repo.StargazersCount,
				Forks:      repo.ForksCount,
				Language:   catalog.StringPtr(repo.Language),
				License:    licenseOf(repo),
				LastUpdate: catalog.Date(repo.UpdatedAt),
			}, nil
		}
		if !useFallback(err) {
			return nil, apiError("repo stats", ref.String(), err)
		}
		f.log.WithField("repo", ref.String()).WithError(err).Warn("GitHub API refused, scraping repository page")
	}

	page, err := f.pages.RepoPage(ctx, ref.Owner, ref.Repo)
	if err != nil {
		return nil, err
	}
	lastUpdate := page.LastUpdate
	if lastUpdate == "" {
		lastUpdate = f.today()
	}
	return &Stats{
		Stars:      page.Stars,
		Forks:      page.Forks,
		Language:   catalog.StringPtr(page.Language),
		License:    catalog.StringPtr(page.License),
		LastUpdate: lastUpdate,
	}, nil
}

// Readme returns the rendered README of a repository with absolute links.
func (f *Fetcher) Readme(ctx context.Context, rawURL string) (string, error) {
	ref, ok := ParseGitHubURL(rawURL)
	if !ok {
		return "", errs.Invalid("readme", fmt.Sprintf("not a GitHub repository URL: %q", rawURL))
	}

	if f.api != nil {
		html, err := f.api.GetReadmeHTML(ctx, ref.Owner, ref.Repo)
		if err == nil {
			return scrape.RewriteReadme(html, ref.Owner, ref.Repo), nil
		}
		if !useFallback(err) {
			return "", apiError("readme", ref.String(), err)
		}
		f.log.WithField("repo", ref.String()).WithError(err).Warn("GitHub API refused, scraping README")
	}

	page, err := f.pages.RepoPage(ctx, ref.Owner, ref.Repo)
	if err != nil {
		return "", err
	}
	if page.ReadmeHTML == "" {
		return "", errs.NotFound("readme", ref.String(), fmt.Errorf("page has no README"))
	}
	return page.ReadmeHTML, nil
}

// RateLimit reports the GitHub API quota.
func (f *Fetcher) RateLimit(ctx context.Context) (*github.RateLimit, error) {
	if f.api == nil {
		return nil, errs.Invalid("rate limit", "no GitHub client configured")
	}
	rl, err := f.api.GetRateLimit(ctx)
	if err != nil {
		return nil, apiError("rate limit", "rate_limit", err)
	}
	return rl, nil
}
