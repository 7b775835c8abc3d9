// Package layout resolves where catalog data and image assets live under a
// site root. The ingestor and the item store both go through it, so the
// on-disk layout is defined once.
package layout

import (
	"fmt"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/blackwell-systems/stashctl/internal/errs"
)

const (
	dataDir        = "data"
	itemsDir       = "data/items"
	indexFile      = "data/collections.json"
	categoriesFile = "data/categories.json"
	imagesDir      = "assets/images"

	// PublicImagePrefix is the URL prefix assets are served under.
	PublicImagePrefix = "/assets/images"
)

// Layout is a site root. All paths it returns are relative to FS.
type Layout struct {
	fs billy.Filesystem
}

// New wraps an existing filesystem rooted at the site directory.
func New(fs billy.Filesystem) *Layout {
	return &Layout{fs: fs}
}

// OS returns a Layout over the directory root on the local disk.
func OS(root string) *Layout {
	return New(osfs.New(root))
}

// FS returns the underlying filesystem.
func (l *Layout) FS() billy.Filesystem { return l.fs }

// Root returns the filesystem root as reported by billy.
func (l *Layout) Root() string { return l.fs.Root() }

func (l *Layout) DataDir() string        { return dataDir }
func (l *Layout) ItemsDir() string       { return itemsDir }
func (l *Layout) IndexFile() string      { return indexFile }
func (l *Layout) CategoriesFile() string { return categoriesFile }
func (l *Layout) ImagesDir() string      { return imagesDir }

// LightFile is the record without originalContent.
func (l *Layout) LightFile(id string) string {
	return path.Join(itemsDir, id+".json")
}

// FullFile is the record including originalContent.
func (l *Layout) FullFile(id string) string {
	return path.Join(itemsDir, id+".full.json")
}

// ImageDir is the per-item asset directory.
func (l *Layout) ImageDir(id string) string {
	return path.Join(imagesDir, id)
}

// StagingDir sits next to ImageDir and holds assets until an ingestion
// commits.
func (l *Layout) StagingDir(id string) string {
	return path.Join(imagesDir, ".staging-"+id)
}

// PublicImagePath is the URL path stored in item records for an asset.
func (l *Layout) PublicImagePath(id, name string) string {
	return PublicImagePrefix + "/" + id + "/" + name
}

// LocalImagePath maps a public asset path back to a filesystem path. The
// second return is false for paths outside the asset prefix.
func (l *Layout) LocalImagePath(public string) (string, bool) {
	prefix := PublicImagePrefix + "/"
	if len(public) <= len(prefix) || public[:len(prefix)] != prefix {
		return "", false
	}
	return path.Join(imagesDir, public[len(prefix):]), true
}

// ValidateID rejects ids that cannot be used as a single path segment.
func ValidateID(id string) error {
	switch {
	case id == "":
		return errs.Invalid("validate id", "item id is empty")
	case strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") || strings.Contains(id, ".."):
		return errs.Invalid("validate id", fmt.Sprintf("item id %q is not a valid path segment", id))
	}
	return nil
}
