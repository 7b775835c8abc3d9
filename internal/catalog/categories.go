package catalog

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/blackwell-systems/stashctl/internal/errs"
	"github.com/blackwell-systems/stashctl/internal/layout"
	stashutil "github.com/blackwell-systems/stashctl/internal/util"
)

// Category is a top-level grouping shown on the site.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// Tag is a registered tag. Older registries stored bare strings; both
// shapes decode.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (t *Tag) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t.ID, t.Name = s, s
		return nil
	}
	type plain Tag
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*t = Tag(p)
	if t.Name == "" {
		t.Name = t.ID
	}
	return nil
}

// Categories is the content of categories.json.
type Categories struct {
	Categories []Category `json:"categories"`
	Tags       []Tag      `json:"tags"`
}

// DefaultCategories is the registry a fresh site starts with.
func DefaultCategories() *Categories {
	return &Categories{
		Categories: []Category{
			{ID: "flutter", Name: "Flutter", Icon: "🇫🇮"},
			{ID: "iOS", Name: "iOS", Icon: "🍎"},
			{ID: "unity", Name: "Unity", Icon: "🎮"},
			{ID: "vue", Name: "Vue", Icon: "🖼️"},
			{ID: "mini", Name: "小程序", Icon: "📱"},
			{ID: "tools", Name: "工具", Icon: "🔧"},
			{ID: "ai", Name: "AI/ML", Icon: "🤖"},
			{ID: "article", Name: "技术文章", Icon: "📝"},
		},
		Tags: []Tag{},
	}
}

// Category returns the category with the given id, or nil.
func (c *Categories) Category(id string) *Category {
	for i := range c.Categories {
		if c.Categories[i].ID == id {
			return &c.Categories[i]
		}
	}
	return nil
}

// HasTag reports whether id is registered.
func (c *Categories) HasTag(id string) bool {
	for _, t := range c.Tags {
		if t.ID == id {
			return true
		}
	}
	return false
}

// Registry reads and writes categories.json.
type Registry struct {
	layout *layout.Layout
}

// NewRegistry creates a Registry under l.
func NewRegistry(l *layout.Layout) *Registry {
	return &Registry{layout: l}
}

// Load returns the registry, or the defaults when the file is missing.
func (r *Registry) Load() (*Categories, error) {
	name := r.layout.CategoriesFile()
	var c Categories
	if err := stashutil.ReadJSON(r.layout.FS(), name, &c); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultCategories(), nil
		}
		return nil, errs.IO("read categories", name, err)
	}
	if c.Categories == nil {
		c.Categories = []Category{}
	}
	if c.Tags == nil {
		c.Tags = []Tag{}
	}
	return &c, nil
}

// Save writes c.
func (r *Registry) Save(c *Categories) error {
	if err := stashutil.WriteJSON(r.layout.FS(), r.layout.CategoriesFile(), c); err != nil {
		return errs.IO("write categories", r.layout.CategoriesFile(), err)
	}
	return nil
}

// Ensure writes the defaults if no registry exists yet.
func (r *Registry) Ensure() error {
	if stashutil.Exists(r.layout.FS(), r.layout.CategoriesFile()) {
		return nil
	}
	return r.Save(DefaultCategories())
}

// AddTags registers tags not seen before and returns the ones added. The
// file is only rewritten when something changed.
func (r *Registry) AddTags(tags []string) ([]string, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	c, err := r.Load()
	if err != nil {
		return nil, err
	}
	var added []string
	for _, t := range NormalizeTags(tags) {
		if c.HasTag(t) {
			continue
		}
		c.Tags = append(c.Tags, Tag{ID: t, Name: t})
		added = append(added, t)
	}
	if len(added) == 0 {
		return nil, nil
	}
	return added, r.Save(c)
}
