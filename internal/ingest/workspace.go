package ingest

import (
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/blackwell-systems/stashctl/internal/errs"
	"github.com/blackwell-systems/stashctl/internal/layout"
	stashutil "github.com/blackwell-systems/stashctl/internal/util"
)

// workspace scopes one ingestion. Assets are staged next to the item
// directory and only moved into it on commit. Rollback removes the staging
// area and, when this ingestion created the item directory, that too.
type workspace struct {
	fs      billy.Filesystem
	final   string
	staging string
	created bool
	staged  []string
	done    bool
}

func openWorkspace(l *layout.Layout, itemID string) (*workspace, error) {
	fs := l.FS()
	ws := &workspace{
		fs:      fs,
		final:   l.ImageDir(itemID),
		staging: l.StagingDir(itemID),
	}

	if !stashutil.Exists(fs, ws.final) {
		if err := stashutil.EnsureDir(fs, ws.final); err != nil {
			return nil, errs.IO("create image dir", ws.final, err)
		}
		ws.created = true
	}

	// leftovers from an interrupted run
	if err := stashutil.RemoveAll(fs, ws.staging); err != nil {
		ws.rollback()
		return nil, errs.IO("clear staging dir", ws.staging, err)
	}
	if err := stashutil.EnsureDir(fs, ws.staging); err != nil {
		ws.rollback()
		return nil, errs.IO("create staging dir", ws.staging, err)
	}
	return ws, nil
}

func (w *workspace) write(name string, data []byte) error {
	p := path.Join(w.staging, name)
	if err := util.WriteFile(w.fs, p, data, 0644); err != nil {
		return errs.IO("write asset", p, err)
	}
	w.staged = append(w.staged, name)
	return nil
}

// commit moves staged assets into the item directory. A staged thumbnail
// replaces any thumb.* already there, whatever its extension.
func (w *workspace) commit() error {
	for _, name := range w.staged {
		if strings.HasPrefix(name, "thumb.") {
			if err := w.removeThumbnails(); err != nil {
				return err
			}
			break
		}
	}

	for _, name := range w.staged {
		src := path.Join(w.staging, name)
		dst := path.Join(w.final, name)
		if err := w.fs.Rename(src, dst); err != nil {
			return errs.IO("commit asset", dst, err)
		}
	}
	w.done = true
	if err := stashutil.RemoveAll(w.fs, w.staging); err != nil {
		return errs.IO("remove staging dir", w.staging, err)
	}
	return nil
}

func (w *workspace) removeThumbnails() error {
	entries, err := w.fs.ReadDir(w.final)
	if err != nil {
		return errs.IO("list image dir", w.final, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "thumb.") {
			continue
		}
		p := path.Join(w.final, e.Name())
		if err := stashutil.Remove(w.fs, p); err != nil {
			return errs.IO("remove old thumbnail", p, err)
		}
	}
	return nil
}

// rollback is a no-op after a successful commit.
func (w *workspace) rollback() {
	if w.done {
		return
	}
	_ = stashutil.RemoveAll(w.fs, w.staging)
	if w.created {
		_ = stashutil.RemoveAll(w.fs, w.final)
	}
	w.done = true
}
