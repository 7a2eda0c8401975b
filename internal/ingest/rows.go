package ingest

import (
	"math"
	"strconv"
	"strings"
	"time"

	"fieldreport/internal/domain"
)

// Columns names the CSV columns read for each submission.
type Columns struct {
	ID        string
	Surveyor  string
	Timestamp string
	Quality   string
}

func DefaultColumns() Columns {
	return Columns{
		ID:        "id",
		Surveyor:  "created_by",
		Timestamp: "created_at",
		Quality:   "quality_score",
	}
}

func (c Columns) withDefaults() Columns {
	d := DefaultColumns()
	if strings.TrimSpace(c.ID) == "" {
		c.ID = d.ID
	}
	if strings.TrimSpace(c.Surveyor) == "" {
		c.Surveyor = d.Surveyor
	}
	if strings.TrimSpace(c.Timestamp) == "" {
		c.Timestamp = d.Timestamp
	}
	if strings.TrimSpace(c.Quality) == "" {
		c.Quality = d.Quality
	}
	return c
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
}

// Submissions converts log rows into submissions. Rows without an id or
// surveyor, or whose timestamp or quality score cannot be parsed, are dropped;
// the number of dropped rows is returned alongside.
func Submissions(rows []map[string]string, cols Columns, loc *time.Location) ([]domain.Submission, int) {
	cols = cols.withDefaults()
	if loc == nil {
		loc = time.UTC
	}

	var out []domain.Submission
	dropped := 0
	for _, row := range rows {
		id := strings.TrimSpace(row[cols.ID])
		surveyor := strings.TrimSpace(row[cols.Surveyor])
		if id == "" || surveyor == "" {
			dropped++
			continue
		}
		createdAt, ok := parseTimestamp(row[cols.Timestamp], loc)
		if !ok {
			dropped++
			continue
		}
		quality, ok := parseQuality(row[cols.Quality])
		if !ok {
			dropped++
			continue
		}
		out = append(out, domain.Submission{
			ID:        id,
			Surveyor:  surveyor,
			CreatedAt: createdAt,
			Quality:   quality,
		})
	}
	return out, dropped
}

func parseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseQuality(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
