package catalog

import (
	"strings"
	"time"
)

// Kind distinguishes repositories from articles.
type Kind string

const (
	KindRepo    Kind = "repo"
	KindArticle Kind = "article"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool { return k == KindRepo || k == KindArticle }

// Item is one curated entry. Field order is the on-disk key order.
// Pointer fields serialize as null when unset.
type Item struct {
	ID              string      `json:"id"`
	Type            Kind        `json:"type"`
	Name            string      `json:"name"`
	NameEn          string      `json:"nameEn"`
	URL             string      `json:"url"`
	Homepage        *string     `json:"homepage"`
	Summary         string      `json:"summary"`
	Description     *string     `json:"description"`
	Notes           *string     `json:"notes"`
	Images          []string    `json:"images"`
	Thumbnail       *string     `json:"thumbnail"`
	Category        string      `json:"category"`
	Tags            []string    `json:"tags"`
	GitHub          *GitHubMeta `json:"github"`
	Archived        bool        `json:"archived"`
	CreatedAt       string      `json:"createdAt"`
	UpdatedAt       string      `json:"updatedAt"`
	OriginalContent *string     `json:"originalContent"`
}

// GitHubMeta holds repository statistics. Dates are YYYY-MM-DD.
type GitHubMeta struct {
	Stars      int      `json:"stars"`
	Forks      int      `json:"forks"`
	Language   *string  `json:"language"`
	License    *string  `json:"license"`
	LastUpdate string   `json:"lastUpdate"`
	Topics     []string `json:"topics"`
	CreatedAt  string   `json:"createdAt"`
}

// lightItem hides OriginalContent: the shallower field wins over the
// embedded one and is omitted when nil.
type lightItem struct {
	*Item
	OriginalContent *string `json:"originalContent,omitempty"`
}

// Light returns the record as written to the light variant.
func (it *Item) Light() any {
	return lightItem{Item: it}
}

// Normalize fills empty collections so they serialize as [] and cleans tags.
func (it *Item) Normalize() {
	if it.Images == nil {
		it.Images = []string{}
	}
	it.Tags = NormalizeTags(it.Tags)
	if it.GitHub != nil && it.GitHub.Topics == nil {
		it.GitHub.Topics = []string{}
	}
}

// NormalizeTags lowercases and trims tags, dropping empties and duplicates
// while keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// SplitList splits operator input on ASCII and full-width commas.
func SplitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '，' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Timestamp formats t the way item records store createdAt/updatedAt.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// Date formats t as YYYY-MM-DD.
func Date(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// StringPtr returns nil for "" and &s otherwise.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns *p or "".
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
