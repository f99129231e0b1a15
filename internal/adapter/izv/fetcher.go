// Package izv downloads the police accident archives from the data portal
// index into a local folder.
package izv

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/accident-data-etl/internal/observability"
)

// DefaultBaseURL is the portal index listing the archives.
const DefaultBaseURL = "https://ehw.fit.vutbr.cz/izv/"

// Fetcher makes sure the archives exist in a local data folder.
type Fetcher struct {
	baseURL    string
	dir        string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewFetcher creates a Fetcher that downloads from baseURL into dir.
// A zero timeout means requests never time out.
func NewFetcher(baseURL, dir string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Fetcher {
	return &Fetcher{
		baseURL:    baseURL,
		dir:        dir,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    metrics,
	}
}

// Dir returns the data folder.
func (f *Fetcher) Dir() string { return f.dir }

// EnsureArchives creates the data folder if needed and downloads the selected
// archives unless the folder already has any entry in it. Presence, not
// completeness, gates the download.
func (f *Fetcher) EnsureArchives(ctx context.Context) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return fmt.Errorf("read data directory: %w", err)
	}
	if len(entries) > 0 {
		f.logger.Debug("data folder not empty, skipping download", "dir", f.dir, "entries", len(entries))
		return nil
	}

	links, err := f.Index(ctx)
	if err != nil {
		return err
	}
	selected, err := SelectArchives(links)
	if err != nil {
		return fmt.Errorf("select archives: %w", err)
	}

	f.logger.Info("downloading archives", "count", len(selected), "dir", f.dir)
	for _, link := range selected {
		if err := f.download(ctx, link); err != nil {
			return err
		}
	}
	return nil
}

// Index fetches the index page and returns every archive link on it.
func (f *Fetcher) Index(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create index request: %w", err)
	}

	f.metrics.IndexRequests.Inc()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("index request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("index request %s: status %d", f.baseURL, resp.StatusCode)
	}

	return ParseIndex(resp.Body)
}

// download streams one archive into the data folder. Existing files are left
// untouched and partial files are removed on error.
func (f *Fetcher) download(ctx context.Context, link string) error {
	dest := filepath.Join(f.dir, path.Base(link))
	if _, err := os.Stat(dest); err == nil {
		f.logger.Debug("archive already present", "archive", dest)
		return nil
	}

	src := f.resolve(link)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return fmt.Errorf("create download request: %w", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP GET %s: %w", src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP GET %s: status %d", src, resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating file %s: %w", dest, err)
	}

	success := false
	defer func() {
		out.Close()
		if !success {
			os.Remove(dest)
		}
	}()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		return fmt.Errorf("writing file %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing file %s: %w", dest, err)
	}
	success = true

	f.metrics.ArchivesDownloaded.Inc()
	f.metrics.DownloadedBytes.Add(float64(n))
	f.logger.Info("archive downloaded", "archive", dest, "bytes", n)
	return nil
}

// resolve joins a relative archive link onto the base URL.
func (f *Fetcher) resolve(link string) string {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	return strings.TrimRight(f.baseURL, "/") + "/" + strings.TrimLeft(link, "/")
}
