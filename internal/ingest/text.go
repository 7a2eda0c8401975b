package ingest

import (
	"strconv"
	"strings"

	"fieldreport/internal/domain"
)

// parseText reads blank-line separated blocks. The first line of a block is
// the district name; the rest are "Key: Value" lines.
func parseText(text string, syn Synonyms) []domain.DistrictRecord {
	var records []domain.DistrictRecord
	for _, block := range splitBlocks(text) {
		rec := domain.DistrictRecord{Name: block[0]}
		for _, line := range block[1:] {
			key, value, ok := strings.Cut(line, ":")
			if !ok {
				continue
			}
			counter, ok := syn.Lookup(key)
			if !ok {
				continue
			}
			rec.Counts[counter] = parseCount(value)
		}
		records = append(records, rec)
	}
	return records
}

func splitBlocks(text string) [][]string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var blocks [][]string
	var current []string
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

// parseCount falls back to 0 for anything that is not an integer in
// [0, domain.MaxCount].
func parseCount(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 || n > domain.MaxCount {
		return 0
	}
	return n
}
