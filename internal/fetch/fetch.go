// Package fetch loads raw territory feeds from a URL or a local file.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"fieldreport/internal/httpx"

	"github.com/rs/zerolog/log"
)

// maxBodyBytes caps a downloaded feed.
var maxBodyBytes int64 = 64 << 20

var (
	ErrNoSource     = errors.New("no source configured")
	ErrFeedTooLarge = errors.New("feed exceeds size limit")
)

// Source names where a feed comes from. URL wins when both are set.
type Source struct {
	URL  string
	File string
}

func (s Source) String() string {
	if strings.TrimSpace(s.URL) != "" {
		return s.URL
	}
	return s.File
}

// Load reads the feed from the configured location.
func Load(ctx context.Context, client httpx.Doer, src Source) ([]byte, error) {
	switch {
	case strings.TrimSpace(src.URL) != "":
		return FromURL(ctx, client, src.URL)
	case strings.TrimSpace(src.File) != "":
		return FromFile(src.File)
	default:
		return nil, ErrNoSource
	}
}

// FromURL downloads url. Any status other than 200 is an error.
func FromURL(ctx context.Context, client httpx.Doer, url string) ([]byte, error) {
	if client == nil {
		client = httpx.ExternalHTTPClient()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d: %s", url, resp.StatusCode, snippet(body))
	}
	if int64(len(body)) > maxBodyBytes {
		return nil, fmt.Errorf("fetch %s: %w (%d bytes)", url, ErrFeedTooLarge, maxBodyBytes)
	}
	log.Debug().Str("url", url).Int("bytes", len(body)).Msg("feed downloaded")
	return body, nil
}

func FromFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	log.Debug().Str("path", path).Int("bytes", len(data)).Msg("feed read")
	return data, nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
