package modpack

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// indexFile mirrors the packwiz index.toml layout. Only entries flagged as
// metafiles are mod definitions; plain files (configs, resource packs) are
// listed without the flag.
type indexFile struct {
	Files []struct {
		File     string `toml:"file"`
		Metafile bool   `toml:"metafile"`
	} `toml:"files"`
}

// ListDefinitions enumerates the definition files under dir in
// deterministic order.
//
// If dir contains an index.toml, its metafile entries are returned in index
// order. Otherwise dir is walked for *.toml files (excluding index.toml and
// pack.toml) in lexicographic order. Both orders are stable across runs for
// the same input set, keeping the emitted manifest diff-stable.
//
// Failures here are storage failures and abort the run.
func ListDefinitions(dir string) ([]string, error) {
	indexPath := filepath.Join(dir, "index.toml")
	if data, err := os.ReadFile(indexPath); err == nil {
		return listFromIndex(dir, indexPath, data)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", indexPath, err)
	}
	return listFromScan(dir)
}

func listFromIndex(dir, indexPath string, data []byte) ([]string, error) {
	var idx indexFile
	if err := toml.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", indexPath, err)
	}

	var paths []string
	for _, f := range idx.Files {
		if f.Metafile && f.File != "" {
			paths = append(paths, filepath.Join(dir, filepath.FromSlash(f.File)))
		}
	}
	return paths, nil
}

func listFromScan(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if !strings.HasSuffix(name, ".toml") || name == "index.toml" || name == "pack.toml" {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}
