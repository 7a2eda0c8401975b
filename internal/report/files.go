package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	FormatXLSX     = "xlsx"
	FormatCSV      = "csv"
	FormatMarkdown = "md"
	FormatHTML     = "html"
)

var knownFormats = []string{FormatXLSX, FormatCSV, FormatMarkdown, FormatHTML}

// ParseFormats normalizes a format list, dropping duplicates and rejecting
// unknown names. An empty list yields xlsx.
func ParseFormats(formats []string) ([]string, error) {
	var out []string
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if f == "markdown" {
			f = FormatMarkdown
		}
		if !slices.Contains(knownFormats, f) {
			return nil, fmt.Errorf("unknown report format %q (want one of %s)", f, strings.Join(knownFormats, ", "))
		}
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		out = []string{FormatXLSX}
	}
	return out, nil
}

// ReportPath returns <dir>/<prefix>_<YYYYMMDD_HHMMSS>.<ext>.
func ReportPath(outputDir, prefix string, at time.Time, ext string) string {
	filename := fmt.Sprintf("%s_%s.%s", sanitizeFilename(prefix), at.Format("20060102_150405"), ext)
	return filepath.Join(outputDir, filename)
}

// WriteFiles writes t once per format and returns the written paths. When
// any format fails, files already written by this call are removed.
func WriteFiles(t Table, outputDir, prefix string, at time.Time, formats []string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}
	var paths []string
	for _, format := range formats {
		path := ReportPath(outputDir, prefix, at, format)
		if err := writeFormat(path, t, format); err != nil {
			for _, written := range paths {
				if rmErr := os.Remove(written); rmErr != nil {
					log.Warn().Err(rmErr).Str("path", written).Msg("could not remove partial report")
				}
			}
			return nil, fmt.Errorf("%s: %w", format, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFormat(path string, t Table, format string) error {
	switch format {
	case FormatXLSX:
		return WriteXLSX(path, t)
	case FormatCSV:
		var buf bytes.Buffer
		if err := WriteCSV(&buf, t); err != nil {
			return err
		}
		return os.WriteFile(path, buf.Bytes(), 0644)
	case FormatMarkdown:
		return os.WriteFile(path, []byte(RenderMarkdown(t)), 0644)
	case FormatHTML:
		out, err := RenderHTML(t)
		if err != nil {
			return err
		}
		return os.WriteFile(path, []byte(out), 0644)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	out := strings.TrimLeft(replacer.Replace(strings.TrimSpace(s)), ". ")
	if out == "" {
		return "report"
	}
	return out
}
