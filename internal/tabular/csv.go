// Package tabular loads CSV logs into header-keyed rows.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding/charmap"
)

type Result struct {
	Header   []string
	Rows     []map[string]string
	Skipped  int
	Encoding string
}

func ReadFile(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("reading csv: %w", err)
	}
	res, err := Read(data)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", path, err)
	}
	log.Debug().Str("path", path).Int("rows", len(res.Rows)).Int("skipped", res.Skipped).Str("encoding", res.Encoding).Msg("csv loaded")
	return res, nil
}

// Read decodes data as UTF-8, falling back to Latin-1 when it is not valid
// UTF-8. Rows with more fields than the header are skipped; short rows are
// padded with empty values.
func Read(data []byte) (Result, error) {
	res := Result{Encoding: "utf-8"}
	if !utf8.Valid(data) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return Result{}, fmt.Errorf("decoding latin-1: %w", err)
		}
		data = decoded
		res.Encoding = "latin-1"
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return Result{}, fmt.Errorf("csv has no header row")
	}
	if err != nil {
		return Result{}, fmt.Errorf("reading csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	res.Header = header

	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("reading csv: %w", err)
		}
		if len(record) > len(header) {
			res.Skipped++
			continue
		}
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			} else {
				row[name] = ""
			}
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}
