package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5/util"

	"github.com/blackwell-systems/stashctl/internal/errs"
	"github.com/blackwell-systems/stashctl/internal/layout"
	stashutil "github.com/blackwell-systems/stashctl/internal/util"
)

// Store persists item records as a light/full file pair.
type Store struct {
	layout *layout.Layout
	now    func() time.Time
}

// NewStore creates a Store under l.
func NewStore(l *layout.Layout) *Store {
	return &Store{layout: l, now: time.Now}
}

// SetClock overrides the time source used for updatedAt.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// Save writes both variants of it. Both documents are encoded before either
// file is touched, and each file is replaced by rename.
func (s *Store) Save(id string, it *Item) error {
	if err := layout.ValidateID(id); err != nil {
		return err
	}
	if it.ID == "" {
		it.ID = id
	}
	if it.ID != id {
		return errs.Invalid("save item", fmt.Sprintf("record id %q does not match %q", it.ID, id))
	}
	it.Normalize()

	full, err := stashutil.MarshalPretty(it)
	if err != nil {
		return errs.IO("encode item", id, err)
	}
	light, err := stashutil.MarshalPretty(it.Light())
	if err != nil {
		return errs.IO("encode item", id, err)
	}

	fs := s.layout.FS()
	if err := stashutil.EnsureDir(fs, s.layout.ItemsDir()); err != nil {
		return errs.IO("create items dir", s.layout.ItemsDir(), err)
	}
	if err := stashutil.WriteFileAtomic(fs, s.layout.FullFile(id), full); err != nil {
		return errs.IO("write item", s.layout.FullFile(id), err)
	}
	if err := stashutil.WriteFileAtomic(fs, s.layout.LightFile(id), light); err != nil {
		return errs.IO("write item", s.layout.LightFile(id), err)
	}
	return nil
}

// Read loads the light variant, or the full one when full is set.
func (s *Store) Read(id string, full bool) (*Item, error) {
	if err := layout.ValidateID(id); err != nil {
		return nil, err
	}
	name := s.layout.LightFile(id)
	if full {
		name = s.layout.FullFile(id)
	}
	var it Item
	if err := stashutil.ReadJSON(s.layout.FS(), name, &it); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errs.NotFound("read item", name, err)
		}
		return nil, errs.IO("read item", name, err)
	}
	return &it, nil
}

// Update reads the full record, applies fn, stamps updatedAt and saves.
func (s *Store) Update(id string, fn func(*Item) error) (*Item, error) {
	it, err := s.Read(id, true)
	if err != nil {
		return nil, err
	}
	if err := fn(it); err != nil {
		return nil, err
	}
	it.ID = id
	it.UpdatedAt = Timestamp(s.now())
	if err := s.Save(id, it); err != nil {
		return nil, err
	}
	return it, nil
}

// Delete removes both variants. Missing files are not an error.
func (s *Store) Delete(id string) error {
	if err := layout.ValidateID(id); err != nil {
		return err
	}
	fs := s.layout.FS()
	for _, name := range []string{s.layout.LightFile(id), s.layout.FullFile(id)} {
		if err := stashutil.Remove(fs, name); err != nil {
			return errs.IO("delete item", name, err)
		}
	}
	return nil
}

// Exists reports whether the light variant exists.
func (s *Store) Exists(id string) bool {
	return stashutil.Exists(s.layout.FS(), s.layout.LightFile(id))
}

// HasFull reports whether the full variant exists.
func (s *Store) HasFull(id string) bool {
	return stashutil.Exists(s.layout.FS(), s.layout.FullFile(id))
}

// IDs lists ids that have at least one record file, sorted.
func (s *Store) IDs() ([]string, error) {
	fs := s.layout.FS()
	entries, err := fs.ReadDir(s.layout.ItemsDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, errs.IO("list items", s.layout.ItemsDir(), err)
	}
	seen := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(strings.TrimSuffix(name, ".json"), ".full")
		seen[id] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// ReadRaw returns the bytes of a variant as stored.
func (s *Store) ReadRaw(id string, full bool) ([]byte, error) {
	if err := layout.ValidateID(id); err != nil {
		return nil, err
	}
	name := s.layout.LightFile(id)
	if full {
		name = s.layout.FullFile(id)
	}
	data, err := util.ReadFile(s.layout.FS(), name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errs.NotFound("read item", name, err)
		}
		return nil, errs.IO("read item", name, err)
	}
	return data, nil
}
