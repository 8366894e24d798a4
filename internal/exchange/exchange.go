// Package exchange reads and writes the JSON import/export file format.
package exchange

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"github.com/christopherklint97/punchr/internal/punch"
)

// FileName is the default export file name for a date-key.
func FileName(date string) string {
	return "time_tracker_" + date + ".json"
}

// Decode parses an import payload. The payload must be a JSON array whose
// elements are objects carrying every required record field.
func Decode(r io.Reader) ([]punch.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, punch.Import("reading payload: %v", err)
	}
	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return nil, punch.Import("payload is not valid JSON")
	}
	if len(data) == 0 || data[0] != '[' {
		return nil, punch.Import("payload is not an array of records")
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, punch.Import("decoding array: %v", err)
	}

	records := make([]punch.Record, 0, len(items))
	for i, item := range items {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
			return nil, punch.Import("element %d is not an object", i)
		}
		for _, f := range punch.RequiredFields {
			if v, ok := fields[f]; !ok || string(v) == "null" {
				return nil, punch.Import("element %d is missing %q", i, f)
			}
		}

		var rec punch.Record
		if err := json.Unmarshal(item, &rec); err != nil {
			return nil, punch.Import("element %d: %v", i, err)
		}
		if err := rec.Validate(); err != nil {
			return nil, punch.Import("element %d: %v", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadFile decodes the import file at path.
func ReadFile(path string) ([]punch.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, punch.Import("opening %s: %v", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Encode writes records as a pretty-printed JSON array.
func Encode(w io.Writer, records []punch.Record) error {
	if records == nil {
		records = []punch.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing records: %w", err)
	}
	return nil
}

// WriteFile atomically writes the export file at path.
func WriteFile(path string, records []punch.Record) error {
	var buf bytes.Buffer
	if err := Encode(&buf, records); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating export directory: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Schema returns the JSON Schema of the file format.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{DoNotReference: true, RequiredFromJSONSchemaTags: true}
	item := r.Reflect(&punch.Wire{})
	item.Version = ""

	return &jsonschema.Schema{
		Version:     jsonschema.Version,
		Title:       "punchr records",
		Description: "Punch records as exported by punchr export and accepted by punchr import.",
		Type:        "array",
		Items:       item,
	}
}
