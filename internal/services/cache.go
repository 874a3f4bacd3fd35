package services

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
)

const cacheVersion = "v2"

// Cache keeps parsed datasets on disk as snappy-compressed gob so restarts
// skip CSV parsing while the source file is unchanged.
type Cache struct {
	dir string
}

func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

type cacheEntry struct {
	Version string
	Source  string
	Dataset Dataset
}

func (c *Cache) filename(csvPath, encoding string) string {
	key := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(csvPath)
	return filepath.Join(c.dir, fmt.Sprintf("%s_%s_%s.gob.sz", key, encoding, cacheVersion))
}

func (c *Cache) Save(csvPath, encoding string, ds *Dataset) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return err
	}

	file, err := os.Create(c.filename(csvPath, encoding))
	if err != nil {
		return err
	}
	defer file.Close()

	w := snappy.NewBufferedWriter(file)
	entry := cacheEntry{Version: cacheVersion, Source: csvPath, Dataset: *ds}
	if err := gob.NewEncoder(w).Encode(&entry); err != nil {
		w.Close()
		return fmt.Errorf("encode cache: %w", err)
	}
	return w.Close()
}

// Load returns the cached dataset for csvPath, or an error when there is
// none or the source file was modified after the cache was written.
func (c *Cache) Load(csvPath, encoding string) (*Dataset, error) {
	filename := c.filename(csvPath, encoding)

	cacheInfo, err := os.Stat(filename)
	if err != nil {
		return nil, err
	}
	srcInfo, err := os.Stat(csvPath)
	if err != nil {
		return nil, err
	}
	if !srcInfo.ModTime().Before(cacheInfo.ModTime()) {
		return nil, fmt.Errorf("cache is stale")
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var entry cacheEntry
	if err := gob.NewDecoder(snappy.NewReader(file)).Decode(&entry); err != nil {
		return nil, fmt.Errorf("decode cache: %w", err)
	}
	if entry.Version != cacheVersion || entry.Source != csvPath {
		return nil, fmt.Errorf("cache version mismatch")
	}

	return &entry.Dataset, nil
}
