package builder

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// ManifestVersion is the manifest format written by this package.
const ManifestVersion = 1

// ManifestFilename is the name of the manifest inside a build directory.
const ManifestFilename = "manifest.json"

// Array describes one container in a build directory.
type Array struct {
	Name       string   `json:"name"`
	File       string   `json:"file"`
	DataType   string   `json:"data_type"`
	Codec      string   `json:"codec"`
	Dimensions []uint64 `json:"dimensions"`
	Chunks     []uint64 `json:"chunks"`
	Size       int64    `json:"size"`
}

// Manifest lists the containers in a build directory.
type Manifest struct {
	Version   int       `json:"version"`
	Arrays    []Array   `json:"arrays"`
	BuiltAt   time.Time `json:"built_at"`
	SourceURL string    `json:"source_url,omitempty"`
}

// Lookup returns the array with the given name.
func (m *Manifest) Lookup(name string) (Array, bool) {
	for _, a := range m.Arrays {
		if a.Name == name {
			return a, true
		}
	}
	return Array{}, false
}

// Put adds a, replacing any array with the same name. Arrays stay sorted by
// name.
func (m *Manifest) Put(a Array) {
	i, found := slices.BinarySearchFunc(m.Arrays, a.Name, func(x Array, name string) int {
		switch {
		case x.Name < name:
			return -1
		case x.Name > name:
			return 1
		}
		return 0
	})
	if found {
		m.Arrays[i] = a
		return
	}
	m.Arrays = slices.Insert(m.Arrays, i, a)
}

// WriteManifest writes the manifest to the output directory.
func WriteManifest(dir string, m *Manifest) error {
	path := filepath.Join(dir, ManifestFilename)
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// ReadManifest reads the manifest from a data directory.
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFilename)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest decodes a manifest read from any store.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

// readOrCreateManifest reads dir's manifest, or returns an empty one if the
// directory has none yet.
func readOrCreateManifest(dir string) (*Manifest, error) {
	m, err := ReadManifest(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return &Manifest{Version: ManifestVersion}, nil
	}
	return m, err
}
