package util_test

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	stashutil "github.com/blackwell-systems/stashctl/internal/util"
)

func TestMarshalPretty_NoHTMLEscapeNoNewline(t *testing.T) {
	got, err := stashutil.MarshalPretty(map[string]string{"html": "<p>a & b</p>"})
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"html\": \"<p>a & b</p>\"\n}"
	if string(got) != want {
		t.Errorf("MarshalPretty = %q, want %q", got, want)
	}
}

func TestMarshalPretty_LineSeparatorsStayRaw(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a\u2028b\u2029c", "\"a\u2028b\u2029c\""},
		{`keep \u2028 text`, `"keep \\u2028 text"`},
		{"tab\tand \u2029", "\"tab\\tand \u2029\""},
	}
	for _, tt := range tests {
		got, err := stashutil.MarshalPretty(tt.in)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != tt.want {
			t.Errorf("MarshalPretty(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMarshalPretty_EmptyArray(t *testing.T) {
	got, err := stashutil.MarshalPretty([]string{})
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "[]" {
		t.Errorf("MarshalPretty([]) = %q, want %q", got, "[]")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	fs := memfs.New()
	if err := stashutil.WriteFileAtomic(fs, "a/b/c.json", []byte("one")); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	if err := stashutil.WriteFileAtomic(fs, "a/b/c.json", []byte("two")); err != nil {
		t.Fatalf("WriteFileAtomic overwrite: %v", err)
	}
	got, err := util.ReadFile(fs, "a/b/c.json")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "two" {
		t.Errorf("content = %q, want %q", got, "two")
	}
	if stashutil.Exists(fs, "a/b/c.json.tmp") {
		t.Error("temp file left behind")
	}
}

func TestRemoveAll_Missing(t *testing.T) {
	if err := stashutil.RemoveAll(memfs.New(), "nope"); err != nil {
		t.Errorf("RemoveAll(missing) = %v, want nil", err)
	}
}

func TestRemove_Missing(t *testing.T) {
	if err := stashutil.Remove(memfs.New(), "nope.json"); err != nil {
		t.Errorf("Remove(missing) = %v, want nil", err)
	}
}

func TestReadJSON_RoundTrip(t *testing.T) {
	fs := memfs.New()
	if err := stashutil.WriteJSON(fs, "x.json", []string{"b", "a"}); err != nil {
		t.Fatal(err)
	}
	var got []string
	if err := stashutil.ReadJSON(fs, "x.json", &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "b" {
		t.Errorf("ReadJSON = %v", got)
	}
}

func TestShortSHA256(t *testing.T) {
	const want = "e3b0c44298fc"
	if got := stashutil.ShortSHA256(nil); got != want {
		t.Errorf("ShortSHA256(nil) = %q, want %q", got, want)
	}
}
