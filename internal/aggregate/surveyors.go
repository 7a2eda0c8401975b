package aggregate

import (
	"slices"
	"strings"
	"time"

	"fieldreport/internal/domain"
)

type surveyorAcc struct {
	count    int
	earliest time.Time
	latest   time.Time
	scores   []float64
}

// Surveyors derives submission rate and quality statistics per surveyor.
// The rate is nil when the surveyor's submissions span zero time.
func Surveyors(subs []domain.Submission) []domain.SurveyorSummary {
	bySurveyor := make(map[string]*surveyorAcc)
	for _, s := range subs {
		acc, ok := bySurveyor[s.Surveyor]
		if !ok {
			acc = &surveyorAcc{earliest: s.CreatedAt, latest: s.CreatedAt}
			bySurveyor[s.Surveyor] = acc
		}
		acc.count++
		if s.CreatedAt.Before(acc.earliest) {
			acc.earliest = s.CreatedAt
		}
		if s.CreatedAt.After(acc.latest) {
			acc.latest = s.CreatedAt
		}
		acc.scores = append(acc.scores, s.Quality)
	}

	out := make([]domain.SurveyorSummary, 0, len(bySurveyor))
	for name, acc := range bySurveyor {
		span := acc.latest.Sub(acc.earliest).Hours()
		mean, std := MeanStdDev(acc.scores)
		out = append(out, domain.SurveyorSummary{
			Surveyor:           name,
			Submissions:        acc.count,
			SpanHours:          span,
			SubmissionsPerHour: Rate(acc.count, span),
			MeanQuality:        mean,
			QualityStdDev:      std,
		})
	}
	slices.SortFunc(out, func(a, b domain.SurveyorSummary) int {
		return strings.Compare(a.Surveyor, b.Surveyor)
	})
	return out
}

// Rate returns count/hours, or nil when hours is not positive.
func Rate(count int, hours float64) *float64 {
	if hours <= 0 {
		return nil
	}
	r := float64(count) / hours
	return &r
}
