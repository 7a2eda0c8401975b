// Package ingest turns raw territory feeds and POI log rows into normalized
// records. It performs no I/O; callers hand it bytes or decoded rows.
package ingest

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"fieldreport/internal/domain"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

// Districts decodes a territory feed. JSON documents (a list of district
// objects, or an object with a "districts" list) are read as structured data;
// everything else is read as delimited text.
func Districts(data []byte, syn Synonyms) ([]domain.DistrictRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty input", domain.ErrMalformedInput)
	}
	if !utf8.Valid(trimmed) || bytes.IndexByte(trimmed, 0) >= 0 {
		return nil, fmt.Errorf("%w: input is not text", domain.ErrMalformedInput)
	}

	if gjson.ValidBytes(trimmed) {
		doc := gjson.ParseBytes(trimmed)
		if !doc.IsObject() && !doc.IsArray() {
			return nil, fmt.Errorf("%w: top-level JSON %s is not a district list", domain.ErrMalformedInput, doc.Type)
		}
		records, err := parseStructured(doc, syn)
		if err != nil {
			return nil, err
		}
		log.Debug().Int("districts", len(records)).Msg("ingest: decoded structured feed")
		return records, nil
	}

	records := parseText(string(trimmed), syn)
	log.Debug().Int("districts", len(records)).Msg("ingest: decoded text feed")
	return records, nil
}
