// Package cache persists parsed region record sets as gzip-compressed gob
// files so later runs can skip re-parsing the archives.
package cache

import (
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/accident-data-etl/internal/domain"
	"github.com/couchcryptid/accident-data-etl/internal/observability"
	"github.com/klauspost/compress/gzip"
)

// DefaultTemplate names cache files; %s is replaced by the region code.
const DefaultTemplate = "data_%s.gob.gz"

// Cache stores one entry per region in a folder. Entries never expire.
type Cache struct {
	dir      string
	template string
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New creates a Cache writing into dir with file names built from template.
func New(dir, template string, logger *slog.Logger, metrics *observability.Metrics) *Cache {
	if template == "" {
		template = DefaultTemplate
	}
	return &Cache{
		dir:      dir,
		template: template,
		logger:   logger,
		metrics:  metrics,
	}
}

// Path returns the deterministic cache file path of a region.
func (c *Cache) Path(region domain.Region) string {
	return filepath.Join(c.dir, fmt.Sprintf(c.template, region))
}

// Load returns the cached record set of a region. A missing file is a miss;
// an unreadable or undecodable file is also a miss and is left for the next
// Store to overwrite.
func (c *Cache) Load(region domain.Region) (*domain.RecordSet, bool) {
	path := c.Path(region)
	rs, err := c.read(path)
	switch {
	case err == nil:
		c.metrics.CacheLookups.WithLabelValues("hit").Inc()
		c.logger.Debug("cache hit", "region", region, "path", path, "rows", rs.Len())
		return rs, true
	case errors.Is(err, os.ErrNotExist):
		c.metrics.CacheLookups.WithLabelValues("miss").Inc()
		c.logger.Debug("cache miss", "region", region, "path", path)
	default:
		c.metrics.CacheLookups.WithLabelValues("corrupt").Inc()
		c.logger.Warn("ignoring unreadable cache entry", "region", region, "path", path, "error", err)
	}
	return nil, false
}

// Read decodes the entry of a region and reports why it cannot be used.
// Unlike Load it records no metrics.
func (c *Cache) Read(region domain.Region) (*domain.RecordSet, error) {
	return c.read(c.Path(region))
}

func (c *Cache) read(path string) (*domain.RecordSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("creating gzip reader: %w", err)
	}
	defer zr.Close()

	var rs domain.RecordSet
	if err := gob.NewDecoder(zr).Decode(&rs); err != nil {
		return nil, fmt.Errorf("decoding record set: %w", err)
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return &rs, nil
}

// Store writes the record set of a region, replacing any previous entry.
// The file is written next to its destination and renamed into place.
func (c *Cache) Store(region domain.Region, rs *domain.RecordSet) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	path := c.Path(region)
	tmp, err := os.CreateTemp(c.dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}

	success := false
	defer func() {
		tmp.Close()
		if !success {
			os.Remove(tmp.Name())
		}
	}()

	zw := gzip.NewWriter(tmp)
	if err := gob.NewEncoder(zw).Encode(rs); err != nil {
		return fmt.Errorf("encoding record set: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("flushing cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing cache file: %w", err)
	}
	success = true

	c.metrics.CacheWrites.Inc()
	c.logger.Debug("cache stored", "region", region, "path", path, "rows", rs.Len())
	return nil
}
