package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/stashctl/internal/errs"
)

const repoHTML = `<!DOCTYPE html><html><head>
<meta property="og:description" content="A tiny tool">
</head><body>
<a data-analytics-event='{"label":"homepage"}' href="https://tool.dev">tool.dev</a>
<span id="repo-stars-counter-star" title="1,234">1.2k</span>
<span id="repo-network-counter">3.4k</span>
<span itemprop="programmingLanguage">Go</span>
<a href="/octo/tool/blob/main/LICENSE">MIT license</a>
<a class="topic-tag">cli</a><a class="topic-tag"> go </a>
<relative-time datetime="2024-03-05T10:00:00Z">Mar 5</relative-time>
<article class="markdown-body"><p><img src="./docs/shot.png"></p><a href="CONTRIBUTING.md">guide</a><a href="#install">install</a></article>
</body></html>`

func serve(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRepoPage(t *testing.T) {
	var gotPath, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotUA = r.URL.Path, r.UserAgent()
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(repoHTML))
	}))
	defer srv.Close()

	s := New(WithGitHubBase(srv.URL + "/"))
	rp, err := s.RepoPage(context.Background(), "octo", "tool")
	require.NoError(t, err)

	assert.Equal(t, "/octo/tool", gotPath)
	assert.Equal(t, BrowserUserAgent, gotUA)
	assert.Equal(t, "A tiny tool", rp.Description)
	assert.Equal(t, "https://tool.dev", rp.Homepage)
	assert.Equal(t, 1234, rp.Stars)
	assert.Equal(t, 3400, rp.Forks)
	assert.Equal(t, "Go", rp.Language)
	assert.Equal(t, "MIT license", rp.License)
	assert.Equal(t, []string{"cli", "go"}, rp.Topics)
	assert.Equal(t, "2024-03-05", rp.LastUpdate)
	assert.Contains(t, rp.ReadmeHTML, `src="https://raw.githubusercontent.com/octo/tool/HEAD/docs/shot.png"`)
	assert.Contains(t, rp.ReadmeHTML, `href="https://github.com/octo/tool/blob/HEAD/CONTRIBUTING.md"`)
	assert.Contains(t, rp.ReadmeHTML, `href="#install"`)
}

func TestRepoPage_NotFound(t *testing.T) {
	srv := serve(t, "<html><body>nope</body></html>", http.StatusNotFound)
	_, err := New(WithGitHubBase(srv.URL)).RepoPage(context.Background(), "o", "r")
	assert.True(t, errs.IsNotFound(err), "err = %v", err)
}

func TestRepoPage_ServerError(t *testing.T) {
	srv := serve(t, "boom", http.StatusInternalServerError)
	_, err := New(WithGitHubBase(srv.URL)).RepoPage(context.Background(), "o", "r")
	assert.Equal(t, errs.CodeFetch, errs.CodeOf(err))
}

func TestArticleMeta_NotHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"title": "not a page"}`))
	}))
	t.Cleanup(srv.Close)
	_, err := New().ArticleMeta(context.Background(), srv.URL)
	assert.Equal(t, errs.CodeFetch, errs.CodeOf(err), "err = %v", err)
}

func TestArticleMeta(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head>
<title> Fallback title </title>
<meta name="description" content="plain description">
<meta property="og:image" content="/img/cover.png">
</head><body></body></html>`))
	}))
	defer srv.Close()

	a, err := New().ArticleMeta(context.Background(), srv.URL+"/posts/1")
	require.NoError(t, err)
	assert.Equal(t, BotUserAgent, gotUA)
	assert.Equal(t, "Fallback title", a.Title)
	assert.Equal(t, "plain description", a.Description)
	assert.Equal(t, srv.URL+"/img/cover.png", a.Image)
}

func TestArticleMeta_PrefersOpenGraph(t *testing.T) {
	srv := serve(t, `<html><head><title>T</title>
<meta property="og:title" content="OG title">
<meta property="og:description" content="OG description">
</head></html>`, http.StatusOK)

	a, err := New().ArticleMeta(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "OG title", a.Title)
	assert.Equal(t, "OG description", a.Description)
	assert.Empty(t, a.Image)
}

func TestArticleContent_PicksFirstSubstantialContainer(t *testing.T) {
	long := strings.Repeat("word ", 60)
	srv := serve(t, `<html><body>
<nav>menu</nav>
<article>short</article>
<div class="post-content"><p>`+long+`</p><img src="pic.png"><a href="/about">about</a><a href="#top">top</a><script>evil()</script></div>
</body></html>`, http.StatusOK)

	html, err := New().ArticleContent(context.Background(), srv.URL+"/blog/post")
	require.NoError(t, err)
	assert.Contains(t, html, long)
	assert.NotContains(t, html, "short")
	assert.NotContains(t, html, "evil()")
	assert.Contains(t, html, `src="`+srv.URL+`/pic.png"`)
	assert.Contains(t, html, `href="`+srv.URL+`/about"`)
	assert.Contains(t, html, `href="#top"`)
	assert.Equal(t, 2, strings.Count(html, `target="_blank"`))
}

func TestArticleContent_FallsBackToBody(t *testing.T) {
	srv := serve(t, `<html><body><header>site</header><p>just a paragraph</p></body></html>`, http.StatusOK)
	html, err := New().ArticleContent(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, html, "just a paragraph")
	assert.NotContains(t, html, "site")
}

func TestFetch_CanceledContext(t *testing.T) {
	srv := serve(t, repoHTML, http.StatusOK)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().ArticleMeta(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRewriteReadme(t *testing.T) {
	out := RewriteReadme(`<img src="/a.png"><img src="data:image/png;base64,xx"><a href="mailto:x@y.z">m</a><a href="https://e.com">e</a>`, "o", "r")
	assert.Contains(t, out, `src="https://raw.githubusercontent.com/o/r/HEAD/a.png"`)
	assert.Contains(t, out, `src="data:image/png;base64,xx"`)
	assert.Contains(t, out, `href="mailto:x@y.z"`)
	assert.Contains(t, out, `href="https://e.com"`)
	assert.NotContains(t, out, "_blank")
}

func TestParseCount(t *testing.T) {
	cases := map[string]int{"12": 12, "1.2k": 1200, "3K": 3000, "1,024": 1024, "2.5m": 2500000, "": 0, "n/a": 0}
	for in, want := range cases {
		assert.Equal(t, want, parseCount(in), in)
	}
}
