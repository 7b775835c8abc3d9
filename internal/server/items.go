package server

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/blackwell-systems/stashctl/internal/catalog"
	"github.com/blackwell-systems/stashctl/internal/errs"
	"github.com/blackwell-systems/stashctl/internal/metadata"
	"github.com/blackwell-systems/stashctl/internal/operations"
)

// handleGetCollections returns the index as stored.
func (s *Server) handleGetCollections(w http.ResponseWriter, r *http.Request) {
	ids, err := s.svc.Index().List()
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ids)
}

// handleGetCategories returns the category and tag registry.
func (s *Server) handleGetCategories(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.Registry().Load()
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// handleGetTags returns tags with usage counts.
func (s *Server) handleGetTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.svc.Tags()
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tags)
}

// handleGetItems returns light records in index order, optionally filtered
// by tag, category, type or search text.
func (s *Server) handleGetItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := catalog.Filter{
		Tag:      q.Get("tag"),
		Category: q.Get("category"),
		Kind:     catalog.Kind(q.Get("type")),
		Search:   q.Get("q"),
	}
	switch q.Get("archived") {
	case "1", "true":
		f.Archived = boolPtr(true)
	case "0", "false":
		f.Archived = boolPtr(false)
	}

	items, err := s.svc.List(f)
	if err != nil {
		respondErr(w, err)
		return
	}
	if items == nil {
		items = []catalog.Item{}
	}
	lights := make([]any, len(items))
	for i := range items {
		lights[i] = items[i].Light()
	}
	respondJSON(w, http.StatusOK, lights)
}

// handleGetItem returns one record; ?full=1 selects the full variant.
func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	full := r.URL.Query().Get("full")
	data, err := s.svc.Store().ReadRaw(id, full == "1" || full == "true")
	if err != nil {
		respondErr(w, err)
		return
	}
	respondRaw(w, data)
}

type parseRequest struct {
	URL  string       `json:"url"`
	Type catalog.Kind `json:"type"`
}

// handleParseURL resolves a URL into a draft item without saving it.
func (s *Server) handleParseURL(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		respondError(w, http.StatusBadRequest, "url is required")
		return
	}
	it, err := s.svc.Metadata().Parse(r.Context(), req.URL)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, it.Light())
}

// handleFetchContent returns the README or article body for a URL.
func (s *Server) handleFetchContent(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		respondError(w, http.StatusBadRequest, "url is required")
		return
	}
	kind := req.Type
	if _, ok := metadata.ParseGitHubURL(req.URL); ok {
		kind = catalog.KindRepo
	}
	content, err := s.svc.Metadata().Content(r.Context(), req.URL, kind)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"content": content})
}

// itemPayload is the body of POST /api/items, sent either as JSON or as
// the "data" field of a multipart form.
type itemPayload struct {
	ID           string              `json:"id"`
	Type         catalog.Kind        `json:"type"`
	Name         string              `json:"name"`
	NameEn       string              `json:"nameEn"`
	URL          string              `json:"url"`
	Homepage     string              `json:"homepage"`
	Summary      string              `json:"summary"`
	Description  string              `json:"description"`
	Notes        string              `json:"notes"`
	Category     string              `json:"category"`
	Tags         []string            `json:"tags"`
	GitHub       *catalog.GitHubMeta `json:"github"`
	ImageURLs    []string            `json:"imageUrls"`
	FetchContent *bool               `json:"fetchContent"`
}

// handleCreateItem stores a new item. The client has already parsed the
// URL, so no metadata is fetched; the original content is unless
// fetchContent is false.
func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var p itemPayload
	uploads, cleanup, err := s.readPayload(r, &p)
	defer cleanup()
	if err != nil {
		respondErr(w, err)
		return
	}

	if err := checkImageURLs(p.ImageURLs); err != nil {
		respondErr(w, err)
		return
	}

	kind := p.Type
	if kind == "" {
		kind = catalog.KindRepo
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	req := operations.AddRequest{
		URL:          p.URL,
		ID:           p.ID,
		Type:         kind,
		Name:         p.Name,
		NameEn:       p.NameEn,
		Summary:      p.Summary,
		Description:  p.Description,
		Notes:        p.Notes,
		Homepage:     p.Homepage,
		Category:     p.Category,
		Tags:         tags,
		Images:       append(p.ImageURLs, uploads...),
		GitHub:       p.GitHub,
		SkipMetadata: true,
		FetchContent: p.FetchContent == nil || *p.FetchContent,
	}
	it, err := s.svc.Add(r.Context(), req)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "id": it.ID})
}

// updatePayload is the body of PUT /api/items/{id}. Absent fields are left
// alone.
type updatePayload struct {
	Name           *string             `json:"name"`
	NameEn         *string             `json:"nameEn"`
	URL            *string             `json:"url"`
	Homepage       *string             `json:"homepage"`
	Summary        *string             `json:"summary"`
	Description    *string             `json:"description"`
	Notes          *string             `json:"notes"`
	Category       *string             `json:"category"`
	Tags           *[]string           `json:"tags"`
	Archived       *bool               `json:"archived"`
	GitHub         *catalog.GitHubMeta `json:"github"`
	ImageURLs      []string            `json:"imageUrls"`
	RefetchContent bool                `json:"refetchContent"`
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var p updatePayload
	uploads, cleanup, err := s.readPayload(r, &p)
	defer cleanup()
	if err != nil {
		respondErr(w, err)
		return
	}
	if err := checkImageURLs(p.ImageURLs); err != nil {
		respondErr(w, err)
		return
	}

	it, err := s.svc.Update(r.Context(), id, operations.UpdateRequest{
		Name:           p.Name,
		NameEn:         p.NameEn,
		URL:            p.URL,
		Summary:        p.Summary,
		Description:    p.Description,
		Notes:          p.Notes,
		Homepage:       p.Homepage,
		Category:       p.Category,
		Tags:           p.Tags,
		Archived:       p.Archived,
		GitHub:         p.GitHub,
		AddImages:      append(p.ImageURLs, uploads...),
		RefetchContent: p.RefetchContent,
	})
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "item": it})
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(chi.URLParam(r, "id")); err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// readPayload decodes v from a JSON body or from the "data" field of a
// multipart form. Uploaded "files" are spooled to a temporary directory
// and their paths returned; cleanup removes them and is always non-nil.
func (s *Server) readPayload(r *http.Request, v any) ([]string, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		return nil, noop, decodeJSON(r, v)
	}

	r.Body = http.MaxBytesReader(nil, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		return nil, noop, errs.Invalid("parse form", err.Error())
	}
	if data := r.FormValue("data"); data != "" {
		if err := json.Unmarshal([]byte(data), v); err != nil {
			return nil, noop, errs.Invalid("decode data field", err.Error())
		}
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		return nil, noop, nil
	}
	dir, err := os.MkdirTemp("", "stashctl-upload-")
	if err != nil {
		return nil, noop, errs.IO("create upload dir", "", err)
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			s.log.WithError(err).Warn("could not remove upload dir")
		}
	}

	paths := make([]string, 0, len(headers))
	for i, fh := range headers {
		p, err := spool(dir, i, fh)
		if err != nil {
			return nil, cleanup, err
		}
		paths = append(paths, p)
	}
	return paths, cleanup, nil
}

// spool copies one upload to dir, keeping its extension as a format hint.
func spool(dir string, i int, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", errs.IO("open upload", fh.Filename, err)
	}
	defer src.Close()

	name := filepath.Join(dir, strconv.Itoa(i)+strings.ToLower(filepath.Ext(fh.Filename)))
	dst, err := os.Create(name)
	if err != nil {
		return "", errs.IO("spool upload", fh.Filename, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", errs.IO("spool upload", fh.Filename, err)
	}
	if err := dst.Close(); err != nil {
		return "", errs.IO("spool upload", fh.Filename, err)
	}
	return name, nil
}

// checkImageURLs keeps API clients to remote sources. Local files reach the
// server as multipart uploads only.
func checkImageURLs(urls []string) error {
	for _, u := range urls {
		switch {
		case strings.HasPrefix(u, "http://"), strings.HasPrefix(u, "https://"), strings.HasPrefix(u, "github:"):
		default:
			return errs.Invalid("image urls", fmt.Sprintf("%q is not an http(s) or github: source", u))
		}
	}
	return nil
}

func boolPtr(b bool) *bool { return &b }
