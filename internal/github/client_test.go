package github_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blackwell-systems/stashctl/internal/github"
)

func newServer(t *testing.T, h http.HandlerFunc) *github.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return github.New("tok", srv.URL+"/")
}

func TestGetRepo(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/octo/hello" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		_, _ = w.Write([]byte(`{
			"name": "hello", "html_url": "https://github.com/octo/hello",
			"stargazers_count": 42, "forks_count": 7, "language": "Go",
			"license": {"spdx_id": "MIT"}, "topics": ["cli"],
			"created_at": "2020-01-02T03:04:05Z", "updated_at": "2024-05-06T07:08:09Z"
		}`))
	})

	repo, err := c.GetRepo(context.Background(), "octo", "hello")
	if err != nil {
		t.Fatalf("GetRepo: %v", err)
	}
	if repo.StargazersCount != 42 || repo.ForksCount != 7 {
		t.Errorf("stars/forks = %d/%d", repo.StargazersCount, repo.ForksCount)
	}
	if repo.License == nil || repo.License.SPDXID != "MIT" {
		t.Errorf("License = %+v", repo.License)
	}
	if repo.UpdatedAt.Year() != 2024 {
		t.Errorf("UpdatedAt = %v", repo.UpdatedAt)
	}
}

func TestGetRepo_StatusMapping(t *testing.T) {
	cases := []struct {
		status    int
		remaining string
		want      error
	}{
		{http.StatusNotFound, "", github.ErrNotFound},
		{http.StatusUnauthorized, "", github.ErrUnauthorized},
		{http.StatusForbidden, "12", github.ErrForbidden},
		{http.StatusForbidden, "0", github.ErrRateLimited},
		{http.StatusTooManyRequests, "", github.ErrRateLimited},
	}
	for _, tc := range cases {
		c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			if tc.remaining != "" {
				w.Header().Set("X-RateLimit-Remaining", tc.remaining)
			}
			w.WriteHeader(tc.status)
		})
		_, err := c.GetRepo(context.Background(), "o", "r")
		if !errors.Is(err, tc.want) {
			t.Errorf("status %d: err = %v, want %v", tc.status, err, tc.want)
		}
	}
}

func TestIsQuotaError(t *testing.T) {
	if !github.IsQuotaError(github.ErrRateLimited) || !github.IsQuotaError(github.ErrForbidden) {
		t.Error("IsQuotaError should accept forbidden and rate-limited")
	}
	if github.IsQuotaError(github.ErrNotFound) {
		t.Error("IsQuotaError(ErrNotFound) = true")
	}
}

func TestGetRateLimit(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rate": {"limit": 5000, "remaining": 4321, "reset": 1700000000}}`))
	})
	rl, err := c.GetRateLimit(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rl.Remaining != 4321 || rl.Limit != 5000 {
		t.Errorf("rate = %+v", rl)
	}
	if rl.Reset.Unix() != 1700000000 {
		t.Errorf("Reset = %v", rl.Reset)
	}
}

func TestGetRawContent(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/o/r/contents/docs/logo.png" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("ref") != "main" {
			t.Errorf("ref = %q", r.URL.Query().Get("ref"))
		}
		if r.Header.Get("Accept") != "application/vnd.github.raw" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		_, _ = w.Write([]byte("PNGDATA"))
	})
	data, err := c.GetRawContent(context.Background(), "o", "r", "docs/logo.png", "main")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "PNGDATA" {
		t.Errorf("data = %q", data)
	}
}

func TestGetReadmeHTML(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/vnd.github.html" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		_, _ = w.Write([]byte("<h1>Hello</h1>"))
	})
	html, err := c.GetReadmeHTML(context.Background(), "o", "r")
	if err != nil {
		t.Fatal(err)
	}
	if html != "<h1>Hello</h1>" {
		t.Errorf("html = %q", html)
	}
}

func TestAnonymousClientSendsNoAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("unexpected Authorization header")
		}
		_, _ = w.Write([]byte(`{"rate": {"limit": 60, "remaining": 60, "reset": 0}}`))
	}))
	defer srv.Close()

	c := github.New("", srv.URL)
	if c.HasToken() {
		t.Error("HasToken() = true for empty token")
	}
	if _, err := c.GetRateLimit(context.Background()); err != nil {
		t.Fatal(err)
	}
}
