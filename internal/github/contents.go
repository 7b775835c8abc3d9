package github

import (
	"context"
	"net/url"
	"strings"
)

// GetRawContent downloads a file from a repository at ref.
func (c *Client) GetRawContent(ctx context.Context, owner, repo, path, ref string) ([]byte, error) {
	u := c.url("repos", owner, repo, "contents", strings.TrimPrefix(path, "/"))
	if ref != "" {
		u += "?ref=" + url.QueryEscape(ref)
	}
	return c.getRaw(ctx, u, "application/vnd.github.raw")
}

// GetReadmeHTML returns the repository README rendered to HTML by GitHub.
func (c *Client) GetReadmeHTML(ctx context.Context, owner, repo string) (string, error) {
	data, err := c.getRaw(ctx, c.url("repos", owner, repo, "readme"), "application/vnd.github.html")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
