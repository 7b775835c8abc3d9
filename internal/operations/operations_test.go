package operations_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/stashctl/internal/catalog"
	"github.com/blackwell-systems/stashctl/internal/errs"
	"github.com/blackwell-systems/stashctl/internal/github"
	"github.com/blackwell-systems/stashctl/internal/ingest"
	"github.com/blackwell-systems/stashctl/internal/layout"
	"github.com/blackwell-systems/stashctl/internal/metadata"
	"github.com/blackwell-systems/stashctl/internal/operations"
)

type fakeMeta struct {
	draft     *catalog.Item
	parseErr  error
	stats     map[string]*metadata.Stats
	content   string
	remaining int
}

func (f *fakeMeta) Parse(ctx context.Context, url string) (*catalog.Item, error) {
	if f.parseErr != nil {
		return nil, f.parseErr
	}
	d := *f.draft
	return &d, nil
}

func (f *fakeMeta) RepoStats(ctx context.Context, url string) (*metadata.Stats, error) {
	if s, ok := f.stats[url]; ok {
		return s, nil
	}
	return nil, errs.Fetch("repo stats", url, errors.New("unreachable"))
}

func (f *fakeMeta) Content(ctx context.Context, url string, kind catalog.Kind) (string, error) {
	return f.content, nil
}

func (f *fakeMeta) RateLimit(ctx context.Context) (*github.RateLimit, error) {
	return &github.RateLimit{Limit: 5000, Remaining: f.remaining, Reset: time.Unix(0, 0)}, nil
}

var clock = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC) }

func newService(t *testing.T, meta *fakeMeta) (*operations.Service, *layout.Layout) {
	t.Helper()
	l := layout.New(memfs.New())
	svc := operations.New(l, ingest.New(l), meta,
		operations.WithClock(clock),
		operations.WithRefresh(0, 10))
	require.NoError(t, svc.Init())
	return svc, l
}

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 120, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	p := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0644))
	return p
}

func repoDraft() *catalog.Item {
	lang := "Go"
	return &catalog.Item{
		ID: "octo-hello", Type: catalog.KindRepo, Name: "hello", NameEn: "hello",
		URL: "https://github.com/octo/hello", Summary: "says hello",
		GitHub: &catalog.GitHubMeta{Stars: 3, Language: &lang, Topics: []string{"CLI", "go"},
			LastUpdate: "2024-01-01", CreatedAt: "2020-01-01"},
	}
}

func TestInit_WritesEmptyIndexAndDefaults(t *testing.T) {
	_, l := newService(t, &fakeMeta{})
	data, err := util.ReadFile(l.FS(), l.IndexFile())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
	c, err := catalog.NewRegistry(l).Load()
	require.NoError(t, err)
	assert.NotNil(t, c.Category("ai"))
}

func TestAdd_Repo(t *testing.T) {
	svc, l := newService(t, &fakeMeta{draft: repoDraft(), content: "<h1>readme</h1>"})
	shot := writePNG(t, 1600, 900)

	it, err := svc.Add(context.Background(), operations.AddRequest{
		URL:          "https://github.com/octo/hello",
		Category:     "tools",
		Images:       []string{shot},
		FetchContent: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "octo-hello", it.ID)
	assert.Equal(t, []string{"/assets/images/octo-hello/1.jpg"}, it.Images)
	assert.Equal(t, "/assets/images/octo-hello/thumb.jpg", catalog.Deref(it.Thumbnail))
	assert.Equal(t, []string{"cli", "go"}, it.Tags)
	assert.Equal(t, "2025-03-04T05:06:07.000Z", it.CreatedAt)
	assert.Equal(t, it.CreatedAt, it.UpdatedAt)

	ids, err := svc.Index().List()
	require.NoError(t, err)
	assert.Equal(t, []string{"octo-hello"}, ids)

	full, err := svc.Get("octo-hello", true)
	require.NoError(t, err)
	assert.Equal(t, "<h1>readme</h1>", catalog.Deref(full.OriginalContent))

	light, err := util.ReadFile(l.FS(), l.LightFile("octo-hello"))
	require.NoError(t, err)
	assert.NotContains(t, string(light), "originalContent")

	c, err := svc.Registry().Load()
	require.NoError(t, err)
	assert.True(t, c.HasTag("cli"))
	assert.True(t, c.HasTag("go"))
}

func TestAdd_PrependsToIndex(t *testing.T) {
	svc, _ := newService(t, &fakeMeta{})
	for _, name := range []string{"First", "Second"} {
		_, err := svc.Add(context.Background(), operations.AddRequest{Name: name, SkipMetadata: true, ID: strings.ToLower(name)})
		require.NoError(t, err)
	}
	ids, _ := svc.Index().List()
	assert.Equal(t, []string{"second", "first"}, ids)
}

func TestAdd_RejectsDuplicate(t *testing.T) {
	svc, _ := newService(t, &fakeMeta{draft: repoDraft()})
	_, err := svc.Add(context.Background(), operations.AddRequest{URL: "https://github.com/octo/hello"})
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), operations.AddRequest{URL: "https://github.com/octo/hello"})
	assert.Equal(t, errs.CodeInvalidInput, errs.CodeOf(err))
}

func TestAdd_MetadataFailureFallsBack(t *testing.T) {
	svc, _ := newService(t, &fakeMeta{parseErr: errs.Fetch("parse", "u", errors.New("down"))})

	_, err := svc.Add(context.Background(), operations.AddRequest{URL: "https://blog.dev/post"})
	assert.Equal(t, errs.CodeInvalidInput, errs.CodeOf(err), "name is required without metadata")

	it, err := svc.Add(context.Background(), operations.AddRequest{URL: "https://blog.dev/post", Name: "A Post"})
	require.NoError(t, err)
	assert.Equal(t, catalog.KindArticle, it.Type)
	assert.Equal(t, "article", it.Category)
	assert.Equal(t, "A Post", it.NameEn)
	assert.Regexp(t, `^a-post-[0-9a-f]{6}$`, it.ID)
}

func TestAdd_MissingRepositoryIsAnError(t *testing.T) {
	svc, _ := newService(t, &fakeMeta{parseErr: errs.NotFound("repo info", "o/r", github.ErrNotFound)})
	_, err := svc.Add(context.Background(), operations.AddRequest{URL: "https://github.com/o/r"})
	assert.True(t, errs.IsNotFound(err))
}

func TestAdd_ImageFailureWritesNothing(t *testing.T) {
	svc, l := newService(t, &fakeMeta{draft: repoDraft()})
	_, err := svc.Add(context.Background(), operations.AddRequest{
		URL:    "https://github.com/octo/hello",
		Images: []string{filepath.Join(t.TempDir(), "missing.png")},
	})
	assert.True(t, errs.IsNotFound(err))
	assert.False(t, svc.Store().Exists("octo-hello"))
	_, statErr := l.FS().Stat(l.ImageDir("octo-hello"))
	assert.True(t, os.IsNotExist(statErr))
	ids, _ := svc.Index().List()
	assert.Empty(t, ids)
}

func TestAdd_PreviewImageFailureIsTolerated(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	draft := &catalog.Item{ID: "post-abc123", Type: catalog.KindArticle, Name: "Post",
		URL: "https://blog.dev/post", Summary: "s", Images: []string{srv.URL + "/og.png"}}
	svc, _ := newService(t, &fakeMeta{draft: draft})

	it, err := svc.Add(context.Background(), operations.AddRequest{URL: "https://blog.dev/post"})
	require.NoError(t, err)
	assert.Empty(t, it.Images)
	assert.Nil(t, it.Thumbnail)
}

func TestUpdate_PatchesAndAppendsImages(t *testing.T) {
	svc, _ := newService(t, &fakeMeta{draft: repoDraft(), content: "new readme"})
	_, err := svc.Add(context.Background(), operations.AddRequest{
		URL: "https://github.com/octo/hello", Images: []string{writePNG(t, 40, 30)}, Notes: "keep me",
	})
	require.NoError(t, err)

	summary, empty, archived := "updated", "", true
	tags := []string{"Rust"}
	it, err := svc.Update(context.Background(), "octo-hello", operations.UpdateRequest{
		Summary:        &summary,
		Notes:          &empty,
		Archived:       &archived,
		Tags:           &tags,
		AddImages:      []string{writePNG(t, 20, 20)},
		RefetchContent: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "updated", it.Summary)
	assert.Nil(t, it.Notes)
	assert.True(t, it.Archived)
	assert.Equal(t, []string{"rust"}, it.Tags)
	assert.Equal(t, []string{
		"/assets/images/octo-hello/1.jpg",
		"/assets/images/octo-hello/2.jpg",
	}, it.Images)
	assert.Equal(t, "/assets/images/octo-hello/thumb.jpg", catalog.Deref(it.Thumbnail))
	assert.Equal(t, "new readme", catalog.Deref(it.OriginalContent))
	assert.Equal(t, "hello", it.Name)

	c, _ := svc.Registry().Load()
	assert.True(t, c.HasTag("rust"))
}

func TestUpdate_SetsThumbnailWhenAbsent(t *testing.T) {
	svc, _ := newService(t, &fakeMeta{})
	_, err := svc.Add(context.Background(), operations.AddRequest{Name: "bare", ID: "bare", SkipMetadata: true})
	require.NoError(t, err)

	it, err := svc.Update(context.Background(), "bare", operations.UpdateRequest{AddImages: []string{writePNG(t, 10, 10)}})
	require.NoError(t, err)
	assert.Equal(t, []string{"/assets/images/bare/1.jpg"}, it.Images)
	assert.Equal(t, "/assets/images/bare/thumb.jpg", catalog.Deref(it.Thumbnail))
}

func TestUpdate_Missing(t *testing.T) {
	svc, _ := newService(t, &fakeMeta{})
	_, err := svc.Update(context.Background(), "ghost", operations.UpdateRequest{})
	assert.True(t, errs.IsNotFound(err))
}

func TestDelete(t *testing.T) {
	svc, l := newService(t, &fakeMeta{draft: repoDraft()})
	_, err := svc.Add(context.Background(), operations.AddRequest{
		URL: "https://github.com/octo/hello", Images: []string{writePNG(t, 10, 10)},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete("octo-hello"))
	assert.False(t, svc.Store().Exists("octo-hello"))
	assert.False(t, svc.Store().HasFull("octo-hello"))
	_, statErr := l.FS().Stat(l.ImageDir("octo-hello"))
	assert.True(t, os.IsNotExist(statErr))
	ids, _ := svc.Index().List()
	assert.Empty(t, ids)

	require.NoError(t, svc.Delete("octo-hello"), "second delete is a no-op")
	assert.Error(t, svc.Delete("../etc"))
}

func TestList_SkipsDanglingIndexEntries(t *testing.T) {
	svc, _ := newService(t, &fakeMeta{})
	_, err := svc.Add(context.Background(), operations.AddRequest{Name: "one", ID: "one", Tags: []string{"x"}, SkipMetadata: true})
	require.NoError(t, err)
	require.NoError(t, svc.Index().Insert("ghost"))

	items, err := svc.List(catalog.Filter{Tag: "x"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "one", items[0].ID)
}

func TestTags(t *testing.T) {
	svc, _ := newService(t, &fakeMeta{})
	_, err := svc.Add(context.Background(), operations.AddRequest{Name: "a", ID: "a", Tags: []string{"go", "cli"}, SkipMetadata: true})
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), operations.AddRequest{Name: "b", ID: "b", Tags: []string{"go"}, SkipMetadata: true})
	require.NoError(t, err)

	usage, err := svc.Tags()
	require.NoError(t, err)
	counts := map[string]int{}
	for _, u := range usage {
		counts[u.ID] = u.Count
	}
	assert.Equal(t, map[string]int{"go": 2, "cli": 1}, counts)
}

func seedRepos(t *testing.T, svc *operations.Service) {
	t.Helper()
	for _, req := range []operations.AddRequest{
		{ID: "a-one", Name: "one", URL: "https://github.com/a/one", Type: catalog.KindRepo, SkipMetadata: true},
		{ID: "post", Name: "post", URL: "https://blog.dev/post", SkipMetadata: true},
		{ID: "a-two", Name: "two", URL: "https://github.com/a/two", Type: catalog.KindRepo, SkipMetadata: true,
			GitHub: &catalog.GitHubMeta{Stars: 1, Topics: []string{"keep"}, CreatedAt: "2019-09-09"}},
	} {
		_, err := svc.Add(context.Background(), req)
		require.NoError(t, err)
	}
}

func TestBatchRefresh(t *testing.T) {
	meta := &fakeMeta{remaining: 100, stats: map[string]*metadata.Stats{
		"https://github.com/a/two": {Stars: 42, Forks: 7, LastUpdate: "2025-03-01"},
	}}
	svc, _ := newService(t, meta)
	seedRepos(t, svc)

	var events []operations.Event
	sum, err := svc.BatchRefresh(context.Background(), func(e operations.Event) { events = append(events, e) })
	require.NoError(t, err)
	assert.Equal(t, operations.RefreshSummary{Total: 2, Updated: 1, Failed: 1}, sum)

	require.Len(t, events, 4)
	assert.Equal(t, operations.EventStart, events[0].Type)
	assert.Equal(t, 2, events[0].Total)
	assert.Equal(t, "a-two", events[1].ID, "index order is most recent first")
	assert.True(t, *events[1].Success)
	assert.Equal(t, 42, events[1].Stars)
	assert.False(t, *events[2].Success)
	assert.NotEmpty(t, events[2].Message)
	assert.Equal(t, operations.EventDone, events[3].Type)

	it, err := svc.Get("a-two", true)
	require.NoError(t, err)
	assert.Equal(t, 42, it.GitHub.Stars)
	assert.Equal(t, []string{"keep"}, it.GitHub.Topics)
	assert.Equal(t, "2019-09-09", it.GitHub.CreatedAt)
	assert.Equal(t, "2025-03-04T05:06:07.000Z", it.UpdatedAt)
}

func TestBatchRefresh_PausesBetweenEntries(t *testing.T) {
	const delay = 40 * time.Millisecond
	meta := &fakeMeta{remaining: 100, stats: map[string]*metadata.Stats{}}
	l := layout.New(memfs.New())
	svc := operations.New(l, ingest.New(l), meta,
		operations.WithClock(clock),
		operations.WithRefresh(delay, 10))
	require.NoError(t, svc.Init())
	for _, name := range []string{"one", "two", "three"} {
		url := "https://github.com/a/" + name
		meta.stats[url] = &metadata.Stats{Stars: 1}
		_, err := svc.Add(context.Background(), operations.AddRequest{
			ID: "a-" + name, Name: name, URL: url, Type: catalog.KindRepo, SkipMetadata: true,
		})
		require.NoError(t, err)
	}

	var progress []time.Time
	var done time.Time
	start := time.Now()
	sum, err := svc.BatchRefresh(context.Background(), func(e operations.Event) {
		switch e.Type {
		case operations.EventProgress:
			progress = append(progress, time.Now())
		case operations.EventDone:
			done = time.Now()
		}
	})
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Updated)

	require.Len(t, progress, 3)
	for i := 1; i < len(progress); i++ {
		assert.GreaterOrEqual(t, progress[i].Sub(progress[i-1]), delay, "gap before entry %d", i+1)
	}
	assert.GreaterOrEqual(t, done.Sub(start), 2*delay)
	assert.Less(t, done.Sub(progress[2]), delay, "no pause after the last entry")
}

func TestBatchRefresh_QuotaGate(t *testing.T) {
	svc, _ := newService(t, &fakeMeta{remaining: 3})
	seedRepos(t, svc)

	called := false
	_, err := svc.BatchRefresh(context.Background(), func(operations.Event) { called = true })
	assert.Equal(t, errs.CodeRateLimited, errs.CodeOf(err))
	assert.False(t, called)
}

func TestBatchRefresh_Canceled(t *testing.T) {
	svc, _ := newService(t, &fakeMeta{remaining: 100})
	seedRepos(t, svc)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.BatchRefresh(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVerify(t *testing.T) {
	svc, l := newService(t, &fakeMeta{})
	_, err := svc.Add(context.Background(), operations.AddRequest{
		ID: "good", Name: "good", SkipMetadata: true, Images: []string{writePNG(t, 10, 10)},
	})
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), operations.AddRequest{ID: "orphan", Name: "orphan", SkipMetadata: true})
	require.NoError(t, err)

	require.NoError(t, svc.Index().Replace([]string{"good", "ghost", "good"}))
	require.NoError(t, l.FS().Remove(l.FullFile("orphan")))
	require.NoError(t, l.FS().Remove("assets/images/good/thumb.jpg"))

	issues, err := svc.Verify(false)
	require.NoError(t, err)
	kinds := map[string]string{}
	for _, is := range issues {
		kinds[is.Kind] = is.ID
		assert.False(t, is.Fixed)
	}
	assert.Equal(t, map[string]string{
		operations.IssueDuplicate:         "good",
		operations.IssueMissingRecord:     "ghost",
		operations.IssueOrphanRecord:      "orphan",
		operations.IssueMissingFull:       "orphan",
		operations.IssueDanglingThumbnail: "good",
	}, kinds)

	_, err = svc.Verify(true)
	require.NoError(t, err)

	issues, err = svc.Verify(false)
	require.NoError(t, err)
	assert.Empty(t, issues)

	ids, _ := svc.Index().List()
	assert.Equal(t, []string{"good", "orphan"}, ids)
	assert.True(t, svc.Store().HasFull("orphan"))
	it, _ := svc.Get("good", false)
	assert.Nil(t, it.Thumbnail)
	assert.Len(t, it.Images, 1)
}

func TestRenameTag(t *testing.T) {
	svc, _ := newService(t, &fakeMeta{})
	for _, id := range []string{"a", "b"} {
		_, err := svc.Add(context.Background(), operations.AddRequest{ID: id, Name: id, Tags: []string{"js", id}, SkipMetadata: true})
		require.NoError(t, err)
	}

	n, err := svc.RenameTag("JS", "javascript")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	it, err := svc.Get("a", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"javascript", "a"}, it.Tags)

	c, err := svc.Registry().Load()
	require.NoError(t, err)
	assert.False(t, c.HasTag("js"))
	assert.True(t, c.HasTag("javascript"))

	_, err = svc.RenameTag("", "x")
	assert.Equal(t, errs.CodeInvalidInput, errs.CodeOf(err))
}
