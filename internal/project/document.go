package project

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rogersnm/copista/internal/fileutil"
)

// SchemaVersion is written to every persisted file.
const SchemaVersion = 1

const versionKey = "version"

// migrations[v] upgrades a raw document from version v to v+1 in place.
var migrations = map[int]func(doc map[string]json.RawMessage) error{
	// Version 0 files predate the version field; the layout is unchanged.
	0: func(doc map[string]json.RawMessage) error { return nil },
}

// readSection loads path and decodes doc[key] into out. It reports
// found=false, with out untouched, when the key is absent, null, or an
// empty array/object.
func readSection(op, path, key string, out any) (found bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, newError(KindNotFound, op, path, fmt.Errorf("%s does not exist in the project", filepath.Base(path)))
		}
		return false, newError(KindIO, op, path, err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return false, newError(KindParse, op, path, fmt.Errorf("reading %s: %w", filepath.Base(path), err))
	}
	if err := migrate(doc); err != nil {
		return false, newError(KindParse, op, path, err)
	}

	raw, ok := doc[key]
	if !ok || isEmptyJSON(raw) {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, newError(KindParse, op, path, fmt.Errorf("decoding %s: %w", key, err))
	}
	return true, nil
}

func migrate(doc map[string]json.RawMessage) error {
	version := 0
	if raw, ok := doc[versionKey]; ok {
		if err := json.Unmarshal(raw, &version); err != nil {
			return fmt.Errorf("invalid schema version: %w", err)
		}
	}
	if version > SchemaVersion {
		return fmt.Errorf("unsupported schema version %d (this build reads up to %d)", version, SchemaVersion)
	}
	for v := version; v < SchemaVersion; v++ {
		step, ok := migrations[v]
		if !ok {
			return fmt.Errorf("no migration from schema version %d", v)
		}
		if err := step(doc); err != nil {
			return fmt.Errorf("migrating from schema version %d: %w", v, err)
		}
	}
	return nil
}

func isEmptyJSON(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "[]", "{}":
		return true
	}
	return false
}

// writeSection writes {"<key>": v, "version": N} to path.
func writeSection(op, path, key string, v any) error {
	doc := map[string]any{
		key:        v,
		versionKey: SchemaVersion,
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return newError(KindIO, op, path, fmt.Errorf("encoding %s: %w", key, err))
	}
	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0644); err != nil {
		return newError(KindIO, op, path, err)
	}
	return nil
}
