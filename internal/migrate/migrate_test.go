package migrate_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/blackwell-systems/stashctl/internal/catalog"
	"github.com/blackwell-systems/stashctl/internal/errs"
	"github.com/blackwell-systems/stashctl/internal/layout"
	"github.com/blackwell-systems/stashctl/internal/migrate"
)

func write(t *testing.T, l *layout.Layout, name, body string) {
	t.Helper()
	if err := util.WriteFile(l.FS(), name, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

func read(t *testing.T, l *layout.Layout, name string) string {
	t.Helper()
	data, err := util.ReadFile(l.FS(), name)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(data)
}

// --- FlattenIndex ---

func TestFlattenIndex_ItemsObject(t *testing.T) {
	l := layout.New(memfs.New())
	old := `{"items": [{"id": "b", "name": "B"}, {"id": "a", "name": "A"}], "total": 2}`
	write(t, l, l.IndexFile(), old)
	write(t, l, l.LightFile("b"), `{"id": "b", "name": "B"}`)

	r, err := migrate.New(l, nil, nil).FlattenIndex()
	if err != nil {
		t.Fatalf("FlattenIndex: %v", err)
	}
	if got := read(t, l, l.IndexFile()); got != "[\n  \"b\",\n  \"a\"\n]" {
		t.Errorf("index = %q", got)
	}
	if got := read(t, l, l.IndexFile()+migrate.BackupSuffix); got != old {
		t.Errorf("backup = %q, want original", got)
	}
	if len(r.Missing) != 1 || r.Missing[0] != "a" {
		t.Errorf("Missing = %v, want [a]", r.Missing)
	}
	if !r.Changed() {
		t.Error("Changed() = false")
	}
}

func TestFlattenIndex_ItemIDsObject(t *testing.T) {
	l := layout.New(memfs.New())
	write(t, l, l.IndexFile(), `{"lastUpdated": "x", "total": 1, "itemIds": ["only"]}`)

	if _, err := migrate.New(l, nil, nil).FlattenIndex(); err != nil {
		t.Fatal(err)
	}
	ids, err := catalog.NewIndex(l).List()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "only" {
		t.Errorf("ids = %v", ids)
	}
}

func TestFlattenIndex_AlreadyFlat(t *testing.T) {
	l := layout.New(memfs.New())
	write(t, l, l.IndexFile(), `["x"]`)
	r, err := migrate.New(l, nil, nil).FlattenIndex()
	if err != nil {
		t.Fatal(err)
	}
	if r.Changed() || r.Backup != "" {
		t.Errorf("flat index should be left alone: %+v", r)
	}
	if _, err := l.FS().Stat(l.IndexFile() + migrate.BackupSuffix); err == nil {
		t.Error("backup written for a flat index")
	}
}

func TestFlattenIndex_Missing(t *testing.T) {
	l := layout.New(memfs.New())
	r, err := migrate.New(l, nil, nil).FlattenIndex()
	if err != nil || r.Changed() {
		t.Errorf("missing index: r=%+v err=%v", r, err)
	}
}

func TestFlattenIndex_Unrecognized(t *testing.T) {
	l := layout.New(memfs.New())
	write(t, l, l.IndexFile(), `{"something": "else"}`)
	_, err := migrate.New(l, nil, nil).FlattenIndex()
	if errs.CodeOf(err) != errs.CodeInvalidInput {
		t.Errorf("err = %v, want invalid input", err)
	}
}

// --- SplitRecords ---

func TestSplitRecords(t *testing.T) {
	l := layout.New(memfs.New())
	write(t, l, l.LightFile("with"), `{"id": "with", "type": "article", "name": "W", "originalContent": "<p>body</p>"}`)
	write(t, l, l.LightFile("without"), `{"id": "without", "type": "repo", "name": "N"}`)
	write(t, l, l.LightFile("done"), `{"id": "done", "name": "D"}`)
	write(t, l, l.FullFile("done"), `{"id": "done", "name": "D", "originalContent": null}`)

	ledger, err := migrate.OpenLedger(filepath.Join(t.TempDir(), "ledger.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	r, err := migrate.New(l, ledger, nil).SplitRecords()
	if err != nil {
		t.Fatalf("SplitRecords: %v", err)
	}
	if len(r.Migrated) != 2 || len(r.Skipped) != 1 || len(r.Failed) != 0 {
		t.Errorf("report = %+v", r)
	}

	light := read(t, l, l.LightFile("with"))
	if strings.Contains(light, "originalContent") {
		t.Errorf("light variant still has content: %s", light)
	}
	if full := read(t, l, l.FullFile("with")); !strings.Contains(full, `"originalContent": "<p>body</p>"`) {
		t.Errorf("full variant lost content: %s", full)
	}
	if full := read(t, l, l.FullFile("without")); !strings.Contains(full, `"originalContent": null`) {
		t.Errorf("full variant should carry null content: %s", full)
	}
	if got := read(t, l, l.FullFile("done")); got != `{"id": "done", "name": "D", "originalContent": null}` {
		t.Errorf("already split record was rewritten: %s", got)
	}

	done, err := ledger.Recorded(migrate.StepSplitRecords, l.Root())
	if err != nil || !done["with"] || !done["without"] {
		t.Errorf("ledger should record migrated items, done=%v err=%v", done, err)
	}
	if done["done"] {
		t.Error("skipped item recorded in ledger")
	}
}

func TestSplitRecords_LedgerListsEachItemOnce(t *testing.T) {
	l := layout.New(memfs.New())
	write(t, l, l.LightFile("a"), `{"id": "a", "name": "A"}`)
	ledger, err := migrate.OpenLedger(filepath.Join(t.TempDir(), "ledger.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	m := migrate.New(l, ledger, nil)
	if _, err := m.SplitRecords(); err != nil {
		t.Fatal(err)
	}
	// A lost full variant is rebuilt without a second ledger entry.
	if err := l.FS().Remove(l.FullFile("a")); err != nil {
		t.Fatal(err)
	}
	r, err := m.SplitRecords()
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Migrated) != 1 {
		t.Errorf("report = %+v", r)
	}
	if got := read(t, l, l.FullFile("a")); !strings.Contains(got, `"originalContent": null`) {
		t.Errorf("full variant not rebuilt: %s", got)
	}
	entries, err := ledger.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("ledger entries = %+v, want one", entries)
	}
}

func TestRun_IsIdempotent(t *testing.T) {
	l := layout.New(memfs.New())
	write(t, l, l.IndexFile(), `{"items": [{"id": "a"}]}`)
	write(t, l, l.LightFile("a"), `{"id": "a", "name": "A"}`)

	m := migrate.New(l, nil, nil)
	if _, err := m.Run(); err != nil {
		t.Fatal(err)
	}
	reports, err := m.Run()
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range reports {
		if r.Changed() {
			t.Errorf("second run changed %s: %+v", r.Step, r)
		}
	}
}

// --- Ledger ---

func TestLedger_AppendAndEntries(t *testing.T) {
	l, err := migrate.OpenLedger(filepath.Join(t.TempDir(), "sub", "ledger.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	entries, err := l.Entries()
	if err != nil || len(entries) != 0 {
		t.Fatalf("empty ledger: %v %v", entries, err)
	}
	if err := l.Append(migrate.LedgerEntry{Step: "s", Site: "/site", ItemID: "x"}); err != nil {
		t.Fatal(err)
	}
	entries, err = l.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ItemID != "x" || entries[0].Timestamp.IsZero() {
		t.Errorf("entries = %+v", entries)
	}
	if done, _ := l.Recorded("s", "/other"); done["x"] {
		t.Error("Recorded should match on site")
	}
	if done, _ := l.Recorded("s", "/site"); !done["x"] {
		t.Error("Recorded missed the entry")
	}
}
