package catalog

import (
	"strings"

	"github.com/google/uuid"
)

const (
	maxSlugLen = 30
	suffixLen  = 6
)

// Slugify lowercases s and collapses runs of anything outside [a-z0-9]
// into single dashes, trimmed and cut to max runes.
func Slugify(s string, max int) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if len(slug) > max {
		slug = strings.TrimSuffix(slug[:max], "-")
	}
	return slug
}

// GenerateID derives an id from a display name plus a random suffix.
func GenerateID(name string) string {
	slug := Slugify(name, maxSlugLen)
	if slug == "" {
		slug = "item"
	}
	return slug + "-" + randomSuffix()
}

// RepoID is the deterministic id of a GitHub repository.
func RepoID(owner, repo string) string {
	return strings.ToLower(owner + "-" + repo)
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLen]
}
