package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// ManifestEntry represents one exported resource in the output manifest.
type ManifestEntry struct {
	File      string `json:"file"`
	Instance  string `json:"instance"`
	Meshes    int    `json:"meshes"`
	Vertices  int    `json:"vertices"`
	Triangles int    `json:"triangles"`
	OBJ       string `json:"obj,omitempty"`
	Preview   string `json:"preview,omitempty"`
}

// WriteManifest writes the exported resources of all successful results to
// path as JSON.
func WriteManifest(path string, results []Result) error {
	entries := []ManifestEntry{}
	for _, r := range results {
		if !r.Success {
			continue
		}
		for _, rr := range r.Resources {
			entries = append(entries, ManifestEntry{
				File:      filepath.Base(r.File),
				Instance:  fmt.Sprintf("%016x", rr.Instance),
				Meshes:    rr.Meshes,
				Vertices:  rr.Vertices,
				Triangles: rr.Triangles,
				OBJ:       rr.OBJ,
				Preview:   rr.Preview,
			})
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errors.Wrap(err, "manifest")
	}
	return errors.Wrap(os.WriteFile(path, data, 0o644), "manifest")
}

// FindPackages lists the files in dir whose names match the glob pattern,
// sorted by name.
func FindPackages(dir, pattern string) ([]string, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, errors.Wrapf(err, "pattern %q", pattern)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "list packages")
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(pattern, e.Name()); ok {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
