package pastebuf

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Metadata is the sidecar record written next to a save-buffer target's
// raw bytes, carrying the fields a bare byte file can't: the buffer's
// name and creation time, so load-buffer round-trips both (spec.md §8's
// round-trip law covers content; the sidecar preserves the rest).
type Metadata struct {
	Name    string    `yaml:"name"`
	Created time.Time `yaml:"created"`
}

// SaveToFile writes buffer b's raw bytes to path and its metadata to
// path+".meta.yaml".
func SaveToFile(b *Buffer, path string) error {
	if err := os.WriteFile(path, b.Data, 0o600); err != nil {
		return fmt.Errorf("save buffer %q: %w", b.Name, err)
	}
	meta, err := yaml.Marshal(Metadata{Name: b.Name, Created: b.Created})
	if err != nil {
		return fmt.Errorf("marshal buffer metadata: %w", err)
	}
	if err := os.WriteFile(path+".meta.yaml", meta, 0o600); err != nil {
		return fmt.Errorf("save buffer metadata %q: %w", b.Name, err)
	}
	return nil
}

// LoadFromFile reads a buffer's raw bytes from path, restoring its name
// and creation time from the sidecar if present; if no sidecar exists,
// the buffer is named after the base path and timestamped now.
func LoadFromFile(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load buffer %q: %w", path, err)
	}
	meta := Metadata{Name: path, Created: time.Now()}
	if raw, err := os.ReadFile(path + ".meta.yaml"); err == nil {
		if err := yaml.Unmarshal(raw, &meta); err != nil {
			return nil, fmt.Errorf("parse buffer metadata %q: %w", path, err)
		}
	}
	return &Buffer{Name: meta.Name, Data: data, Created: meta.Created}, nil
}
