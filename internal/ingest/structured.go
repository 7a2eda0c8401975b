package ingest

import (
	"fmt"
	"math"
	"strings"

	"fieldreport/internal/domain"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

func parseStructured(doc gjson.Result, syn Synonyms) ([]domain.DistrictRecord, error) {
	list := doc
	if doc.IsObject() {
		list = doc.Get("districts")
		if !list.Exists() {
			return nil, nil
		}
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("%w: expected a list of districts, got %s", domain.ErrMalformedInput, list.Type)
	}

	var records []domain.DistrictRecord
	for i, entry := range list.Array() {
		if !entry.IsObject() {
			log.Debug().Int("index", i).Str("type", entry.Type.String()).Msg("ingest: skipping non-object district entry")
			continue
		}
		rec := domain.DistrictRecord{}
		entry.ForEach(func(key, value gjson.Result) bool {
			if strings.EqualFold(strings.TrimSpace(key.String()), "name") {
				rec.Name = strings.TrimSpace(value.String())
				return true
			}
			if counter, ok := syn.Lookup(key.String()); ok {
				rec.Counts[counter] = jsonCount(value)
			}
			return true
		})
		if rec.Name == "" {
			log.Debug().Int("index", i).Msg("ingest: skipping district entry without a name")
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func jsonCount(v gjson.Result) int {
	switch v.Type {
	case gjson.Number:
		f := v.Float()
		if math.IsNaN(f) || f < 0 || f > domain.MaxCount {
			return 0
		}
		return int(f)
	case gjson.String:
		return parseCount(v.String())
	default:
		return 0
	}
}
