package dataset

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const cacheVersion = "v1"

var errStaleCache = errors.New("stale cache")

type cachedTable struct {
	Version string
	Table   Table
}

func (l *Loader) cacheFilename(source string) string {
	abs, err := filepath.Abs(source)
	if err != nil {
		abs = source
	}
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(abs)
	return filepath.Join(l.CacheDir, fmt.Sprintf("%s_%s.gob", name, cacheVersion))
}

func (l *Loader) saveToCache(table *Table) error {
	if err := os.MkdirAll(l.CacheDir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(l.CacheDir, "table-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(cachedTable{Version: cacheVersion, Table: *table}); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), l.cacheFilename(table.Source))
}

// loadFromCache returns the cached table only when it was built from a file
// with the same modification time and size as info.
func (l *Loader) loadFromCache(source string, info os.FileInfo) (*Table, error) {
	file, err := os.Open(l.cacheFilename(source))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var cached cachedTable
	if err := gob.NewDecoder(file).Decode(&cached); err != nil {
		return nil, err
	}

	if cached.Version != cacheVersion ||
		!cached.Table.ModTime.Equal(info.ModTime()) ||
		cached.Table.Size != info.Size() {
		return nil, errStaleCache
	}

	table := cached.Table
	table.Source = source
	return &table, nil
}
