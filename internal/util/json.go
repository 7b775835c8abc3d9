package util

import (
	"bytes"
	"encoding/json"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// MarshalPretty encodes v with two-space indentation. HTML characters and
// the U+2028/U+2029 separators are left unescaped and no trailing newline is
// written, matching the files the static site already ships.
func MarshalPretty(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return unescapeSeparators(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// unescapeSeparators turns the \u2028 and \u2029 escapes encoding/json always
// writes back into raw runes. Escape sequences are consumed in pairs so an
// escaped backslash followed by "u2028" is left alone.
func unescapeSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		c := data[i]
		if c != '\\' || i+1 >= len(data) {
			out = append(out, c)
			continue
		}
		if rest := data[i+1:]; bytes.HasPrefix(rest, []byte("u2028")) || bytes.HasPrefix(rest, []byte("u2029")) {
			if rest[4] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			continue
		}
		out = append(out, c, data[i+1])
		i++
	}
	return out
}

// ReadJSON decodes the JSON file name on fs into v.
func ReadJSON(fs billy.Filesystem, name string, v any) error {
	data, err := util.ReadFile(fs, name)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// WriteJSON pretty-prints v and writes it atomically.
func WriteJSON(fs billy.Filesystem, name string, v any) error {
	data, err := MarshalPretty(v)
	if err != nil {
		return err
	}
	return WriteFileAtomic(fs, name, data)
}
