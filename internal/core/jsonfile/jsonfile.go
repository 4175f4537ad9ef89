// Package jsonfile reads JSON documents from disk and reports failures as
// lasterror kinds carrying the offending path.
package jsonfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/nightconcept/pkgconn/internal/core/lasterror"
)

// Document is a parsed JSON file.
type Document struct {
	Path  string
	Raw   []byte
	Value any
}

// Load reads and parses the JSON file at path. Missing and empty files
// yield lasterror.ErrNotFound, invalid UTF-8 lasterror.ErrEncoding and
// malformed content lasterror.ErrSyntax.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return nil, lasterror.File(lasterror.CodeNotFound, path)
	}
	return Parse(path, data)
}

// Parse parses data as the contents of path.
func Parse(path string, data []byte) (*Document, error) {
	if !utf8.Valid(data) {
		return nil, lasterror.File(lasterror.CodeNotUTF8, path)
	}
	if !gjson.ValidBytes(data) {
		return nil, lasterror.New(lasterror.CodeNotJSON, map[string]string{
			"file": path,
			"msg":  syntaxMessage(data),
		})
	}
	return &Document{
		Path:  path,
		Raw:   data,
		Value: gjson.ParseBytes(data).Value(),
	}, nil
}

// Object returns the document as a JSON object. ok is false for any other
// top-level value.
func (d *Document) Object() (map[string]any, bool) {
	if d == nil {
		return nil, false
	}
	obj, ok := d.Value.(map[string]any)
	return obj, ok
}

// syntaxMessage describes where data stops being valid JSON.
func syntaxMessage(data []byte) string {
	var v any
	err := json.Unmarshal(data, &v)
	var synErr *json.SyntaxError
	if errors.As(err, &synErr) {
		line, col := position(data, synErr.Offset)
		return fmt.Sprintf("Parse error on line %d, column %d: %s", line, col, synErr.Error())
	}
	if err != nil {
		return err.Error()
	}
	return "unexpected content"
}

func position(data []byte, offset int64) (line, col int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line, col = 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
