package ingest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/phuslu/log"

	"finsight/pkg/models"
)

const UserAgent = "finsight/1.0"

// maxDownload caps a fetched export.
const maxDownload = 32 << 20

// Fetcher downloads statement exports shared by link, such as a report
// published from an accounting package.
type Fetcher struct {
	client   *http.Client
	cacheDir string // optional; downloads are cached by URL
}

// NewFetcher creates a fetcher. If cacheDir is set, downloaded bytes are
// kept there and reused.
func NewFetcher(cacheDir string) *Fetcher {
	return &Fetcher{
		client:   &http.Client{Timeout: 30 * time.Second},
		cacheDir: cacheDir,
	}
}

// Fetch downloads rawURL and reads it. The format comes from the URL's
// extension, falling back to the response Content-Type.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (models.Input, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return models.Input{}, fmt.Errorf("invalid statement URL %q", rawURL)
	}
	name := path.Base(u.Path)

	cachePath := ""
	if f.cacheDir != "" {
		sum := sha256.Sum256([]byte(rawURL))
		cachePath = filepath.Join(f.cacheDir, "downloads", hex.EncodeToString(sum[:8])+"_"+name)
		if data, err := os.ReadFile(cachePath); err == nil {
			if format, err := DetectFormat(name); err == nil {
				log.Debug().Str("url", rawURL).Str("cache", cachePath).Msg("statement from cache")
				return ReadFormat(name, format, bytes.NewReader(data))
			}
		}
	}

	data, contentType, err := f.download(ctx, rawURL)
	if err != nil {
		return models.Input{}, err
	}

	format, err := DetectFormat(name)
	if err != nil {
		format, err = formatFromContentType(contentType)
		if err != nil {
			return models.Input{}, err
		}
	}

	if cachePath != "" {
		if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err != nil {
			log.Warn().Err(err).Msg("creating download cache")
		} else if err := os.WriteFile(cachePath, data, 0o644); err != nil {
			log.Warn().Err(err).Str("path", cachePath).Msg("writing download cache")
		}
	}
	return ReadFormat(name, format, bytes.NewReader(data))
}

func (f *Fetcher) download(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDownload+1))
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	if len(body) > maxDownload {
		return nil, "", fmt.Errorf("fetch %s: larger than %d bytes", rawURL, maxDownload)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func formatFromContentType(ct string) (Format, error) {
	mt, _, _ := mime.ParseMediaType(ct)
	switch {
	case mt == "text/csv" || mt == "application/csv":
		return FormatCSV, nil
	case mt == "text/html":
		return FormatHTML, nil
	case mt == "application/json":
		return FormatJSON, nil
	case mt == "text/plain":
		return FormatText, nil
	case strings.Contains(mt, "spreadsheetml"):
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: content type %q", ErrUnsupportedFormat, ct)
}
