// Package aggregate groups normalized records and derives per-group metrics.
// Every function here is pure and returns groups sorted by key.
package aggregate

import (
	"math"
	"slices"
	"strings"

	"fieldreport/internal/domain"
)

// Districts sums counters per district name and derives totals and the
// completion percentage. Status is left for the classifier.
func Districts(records []domain.DistrictRecord) []domain.DistrictSummary {
	byName := make(map[string]*domain.Counters)
	for _, rec := range records {
		c, ok := byName[rec.Name]
		if !ok {
			c = new(domain.Counters)
			byName[rec.Name] = c
		}
		c.Add(rec.Counts)
	}

	out := make([]domain.DistrictSummary, 0, len(byName))
	for name, c := range byName {
		total := c.Sum(domain.AllCounters()...)
		completed := c.Sum(domain.CompletedCounters...)
		out = append(out, domain.DistrictSummary{
			Name:          name,
			Counts:        *c,
			Total:         total,
			Completed:     completed,
			Remaining:     c.Sum(domain.RemainingCounters...),
			CompletionPct: Percent(completed, total),
		})
	}
	slices.SortFunc(out, func(a, b domain.DistrictSummary) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// Percent returns part/total*100 rounded to two decimals, or 0 when total is 0.
func Percent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return Round2(float64(part) / float64(total) * 100)
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
