package server

import (
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-git/go-billy/v5"
)

// FileServer conveniently sets up a http.FileServer handler to serve
// static files from a http.FileSystem.
func FileServer(r chi.Router, prefix string, root http.FileSystem) {
	if strings.ContainsAny(prefix, "{}*") {
		panic("FileServer does not permit URL parameters.")
	}

	if prefix != "/" && prefix[len(prefix)-1] != '/' {
		r.Get(prefix, http.RedirectHandler(prefix+"/", http.StatusMovedPermanently).ServeHTTP)
		prefix += "/"
	}
	prefix += "*"

	r.Get(prefix, func(w http.ResponseWriter, req *http.Request) {
		rctx := chi.RouteContext(req.Context())
		pathPrefix := strings.TrimSuffix(rctx.RoutePattern(), "/*")
		fs := http.StripPrefix(pathPrefix, http.FileServer(root))
		fs.ServeHTTP(w, req)
	})
}

// siteFS serves files from the site's billy filesystem, so the preview
// works on whatever backs the layout.
type siteFS struct {
	fs   billy.Filesystem
	base string
}

// Sub returns the subtree rooted at dir.
func (s siteFS) Sub(dir string) siteFS {
	return siteFS{fs: s.fs, base: path.Join(s.base, dir)}
}

// Open implements http.FileSystem.
func (s siteFS) Open(name string) (http.File, error) {
	name = path.Join(s.base, path.Clean("/"+name))
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		name = "."
	}
	fi, err := s.fs.Stat(name)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return &siteDir{fs: s.fs, name: name, info: fi}, nil
	}
	f, err := s.fs.Open(name)
	if err != nil {
		return nil, err
	}
	return &siteFile{File: f, info: fi}, nil
}

type siteFile struct {
	billy.File
	info os.FileInfo
}

func (f *siteFile) Stat() (fs.FileInfo, error) { return f.info, nil }

func (f *siteFile) Readdir(int) ([]fs.FileInfo, error) {
	return nil, &fs.PathError{Op: "readdir", Path: f.Name(), Err: fs.ErrInvalid}
}

// siteDir is an open directory. Reads fail; http.FileServer only lists
// it or looks for index.html inside.
type siteDir struct {
	fs   billy.Filesystem
	name string
	info os.FileInfo
	read bool
}

func (d *siteDir) Close() error { return nil }

func (d *siteDir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.name, Err: fs.ErrInvalid}
}

func (d *siteDir) Seek(int64, int) (int64, error) { return 0, nil }

func (d *siteDir) Stat() (fs.FileInfo, error) { return d.info, nil }

func (d *siteDir) Readdir(count int) ([]fs.FileInfo, error) {
	if d.read {
		return nil, nil
	}
	d.read = true
	return d.fs.ReadDir(d.name)
}
