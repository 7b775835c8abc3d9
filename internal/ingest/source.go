package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/blackwell-systems/stashctl/internal/errs"
	"github.com/blackwell-systems/stashctl/internal/github"
)

// Source holds an acquired input ready for processing.
type Source struct {
	// Input is the string the caller passed; it doubles as the format hint.
	Input string
	// Name is a filename guess, used only for logging.
	Name string
	Data []byte
}

// RawContentGetter fetches a file from a GitHub repository.
type RawContentGetter interface {
	GetRawContent(ctx context.Context, owner, repo, path, ref string) ([]byte, error)
}

// githubPathRe matches "github:owner/repo@ref:path/to/image.png"
var githubPathRe = regexp.MustCompile(`^github:([^/]+)/([^@]+)@([^:]+):(.+)$`)

// acquire reads the bytes behind input. Supported forms:
//
//	/path/to/image.png                 local file
//	https://example.com/a.png          HTTP URL
//	github:owner/repo@ref:docs/a.png   file in a GitHub repository
func (in *Ingestor) acquire(ctx context.Context, input string) (*Source, error) {
	switch {
	case strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://"):
		return in.resolveHTTP(ctx, input)
	case strings.HasPrefix(input, "github:"):
		return in.resolveGitHub(ctx, input)
	default:
		return in.resolveFile(input)
	}
}

func (in *Ingestor) resolveFile(path string) (*Source, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errs.NotFound("read image", path, err)
		}
		return nil, errs.IO("read image", path, err)
	}
	if fi.IsDir() {
		return nil, errs.IO("read image", path, fmt.Errorf("is a directory"))
	}
	if fi.Size() > in.maxBytes {
		return nil, errs.IO("read image", path, fmt.Errorf("file is %d bytes, limit is %d", fi.Size(), in.maxBytes))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.IO("read image", path, err)
	}
	return &Source{Input: path, Name: filepath.Base(path), Data: data}, nil
}

func (in *Ingestor) resolveHTTP(ctx context.Context, url string) (*Source, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Fetch("fetch image", url, err)
	}
	req.Header.Set("User-Agent", in.userAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := in.client.Do(req)
	if err != nil {
		return nil, errs.Fetch("fetch image", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errs.Fetch("fetch image", url, fmt.Errorf("status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, in.maxBytes+1))
	if err != nil {
		return nil, errs.Fetch("fetch image", url, err)
	}
	if int64(len(data)) > in.maxBytes {
		return nil, errs.Fetch("fetch image", url, fmt.Errorf("body exceeds %d bytes", in.maxBytes))
	}
	return &Source{Input: url, Name: guessFilenameFromURL(url), Data: data}, nil
}

func (in *Ingestor) resolveGitHub(ctx context.Context, input string) (*Source, error) {
	m := githubPathRe.FindStringSubmatch(input)
	if m == nil {
		return nil, errs.Invalid("fetch image", fmt.Sprintf("invalid github: path %q, expected github:owner/repo@ref:path/to/file", input))
	}
	if in.github == nil {
		return nil, errs.Invalid("fetch image", "github: sources need a GitHub token")
	}
	owner, repo, ref, path := m[1], m[2], m[3], m[4]

	data, err := in.github.GetRawContent(ctx, owner, repo, path, ref)
	if err != nil {
		if errors.Is(err, github.ErrNotFound) {
			return nil, errs.NotFound("fetch image", input, err)
		}
		return nil, errs.Fetch("fetch image", input, err)
	}
	return &Source{Input: input, Name: filepath.Base(path), Data: data}, nil
}

func guessFilenameFromURL(rawURL string) string {
	if idx := strings.IndexAny(rawURL, "?#"); idx >= 0 {
		rawURL = rawURL[:idx]
	}
	rawURL = strings.TrimRight(rawURL, "/")
	base := filepath.Base(rawURL)
	if base == "" || base == "." || base == "/" || strings.HasSuffix(base, ":") {
		return "download"
	}
	return base
}
