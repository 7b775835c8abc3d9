package catalog

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/go-git/go-billy/v5/util"

	"github.com/blackwell-systems/stashctl/internal/errs"
	"github.com/blackwell-systems/stashctl/internal/layout"
	stashutil "github.com/blackwell-systems/stashctl/internal/util"
)

// Index is the ordered id list in collections.json, most recent first.
// Every mutation rewrites the whole file.
type Index struct {
	layout *layout.Layout
}

// NewIndex creates an Index under l.
func NewIndex(l *layout.Layout) *Index {
	return &Index{layout: l}
}

// List returns the ids in order. A missing index is empty.
func (x *Index) List() ([]string, error) {
	name := x.layout.IndexFile()
	data, err := util.ReadFile(x.layout.FS(), name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, errs.IO("read index", name, err)
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, errs.IO("parse index", name, err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// Insert places id at the front.
func (x *Index) Insert(id string) error {
	ids, err := x.List()
	if err != nil {
		return err
	}
	return x.write(append([]string{id}, ids...))
}

// Remove drops every occurrence of id. Removing an absent id succeeds.
func (x *Index) Remove(id string) error {
	ids, err := x.List()
	if err != nil {
		return err
	}
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return x.write(out)
}

// Contains reports whether id is listed.
func (x *Index) Contains(id string) (bool, error) {
	ids, err := x.List()
	if err != nil {
		return false, err
	}
	for _, existing := range ids {
		if existing == id {
			return true, nil
		}
	}
	return false, nil
}

// Replace writes ids as the whole index.
func (x *Index) Replace(ids []string) error {
	return x.write(ids)
}

// Ensure creates an empty index if none exists.
func (x *Index) Ensure() error {
	if stashutil.Exists(x.layout.FS(), x.layout.IndexFile()) {
		return nil
	}
	return x.write([]string{})
}

func (x *Index) write(ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	if err := stashutil.WriteJSON(x.layout.FS(), x.layout.IndexFile(), ids); err != nil {
		return errs.IO("write index", x.layout.IndexFile(), err)
	}
	return nil
}
