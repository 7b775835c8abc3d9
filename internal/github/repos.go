package github

import (
	"context"
	"time"
)

// Repo is the subset of repository metadata the catalog records.
type Repo struct {
	Name            string    `json:"name"`
	FullName        string    `json:"full_name"`
	HTMLURL         string    `json:"html_url"`
	Description     string    `json:"description"`
	Homepage        string    `json:"homepage"`
	StargazersCount int       `json:"stargazers_count"`
	ForksCount      int       `json:"forks_count"`
	Language        string    `json:"language"`
	License         *License  `json:"license"`
	Topics          []string  `json:"topics"`
	Archived        bool      `json:"archived"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// License is a repository license as reported by the API.
type License struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	SPDXID string `json:"spdx_id"`
}

// GetRepo fetches repository metadata. Returns ErrNotFound if absent.
func (c *Client) GetRepo(ctx context.Context, owner, repo string) (*Repo, error) {
	var r Repo
	if err := c.getJSON(ctx, c.url("repos", owner, repo), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// RateLimit is the core API quota.
type RateLimit struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"-"`
	ResetUnix int64     `json:"reset"`
}

// GetRateLimit reports the remaining core quota. The endpoint itself does
// not count against it.
func (c *Client) GetRateLimit(ctx context.Context) (*RateLimit, error) {
	var body struct {
		Rate RateLimit `json:"rate"`
	}
	if err := c.getJSON(ctx, c.url("rate_limit"), &body); err != nil {
		return nil, err
	}
	rl := body.Rate
	rl.Reset = time.Unix(rl.ResetUnix, 0)
	return &rl, nil
}
