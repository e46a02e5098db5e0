package remedy

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Fallback is returned for every label the table has no entry for.
const Fallback = "No specific remedy available for this condition."

// Table maps a raw disease label to advisory text. It is read-only after
// construction and safe for concurrent use.
type Table struct {
	entries map[string]string
	source  string
}

// New builds a table from an in-memory map. The map is copied.
func New(entries map[string]string) *Table {
	t := &Table{entries: make(map[string]string, len(entries))}
	for k, v := range entries {
		t.entries[k] = v
	}
	return t
}

// Empty returns a table that answers every lookup with Fallback.
func Empty() *Table {
	return New(nil)
}

// Load reads a remedies resource. JSON is the default; .yaml and .yml files
// are decoded as YAML. On any failure it returns an empty table together with
// the error, so callers can log and keep serving.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Empty(), errors.Wrapf(err, "read remedies %s", path)
	}

	entries := make(map[string]string)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &entries)
	default:
		err = json.Unmarshal(data, &entries)
	}
	if err != nil {
		return Empty(), errors.Wrapf(err, "parse remedies %s", path)
	}

	t := New(entries)
	t.source = path
	return t, nil
}

// Lookup returns the remedy for a raw label, or Fallback. A nil table behaves
// like an empty one.
func (t *Table) Lookup(label string) string {
	if t == nil {
		return Fallback
	}
	if remedy, ok := t.entries[label]; ok {
		return remedy
	}
	return Fallback
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Source is the path the table was loaded from, empty if it was not loaded
// from disk.
func (t *Table) Source() string {
	if t == nil {
		return ""
	}
	return t.source
}
