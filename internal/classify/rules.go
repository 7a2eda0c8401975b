// Package classify maps group metrics to labels with ordered threshold rules.
package classify

import (
	"fmt"

	"fieldreport/internal/domain"
)

type Rule[T any] struct {
	Label domain.Label
	Match func(T) bool
}

// Rules is evaluated in order; the first matching rule wins.
type Rules[T any] []Rule[T]

func (r Rules[T]) Classify(v T) (domain.Label, error) {
	for _, rule := range r {
		if rule.Match(v) {
			return rule.Label, nil
		}
	}
	return "", fmt.Errorf("%w: none of %d rules matched %v", domain.ErrUnclassifiable, len(r), v)
}

// Default matches everything. It belongs at the end of a table.
func Default[T any](label domain.Label) Rule[T] {
	return Rule[T]{Label: label, Match: func(T) bool { return true }}
}

// StatusRules labels a district by how much of it is completed.
func StatusRules() Rules[domain.DistrictSummary] {
	return Rules[domain.DistrictSummary]{
		{
			Label: domain.StatusClosed,
			Match: func(s domain.DistrictSummary) bool { return s.Total > 0 && s.Completed == s.Total },
		},
		{
			Label: domain.StatusOpen,
			Match: func(s domain.DistrictSummary) bool { return s.Completed == 0 },
		},
		Default[domain.DistrictSummary](domain.StatusInProgress),
	}
}

const (
	DefaultSilverMin = 0.70
	DefaultGoldMin   = 0.85
)

// TierRules buckets a quality score in [0, 1]. Each bucket includes its lower
// bound; Gold also includes 1.0. Scores outside [0, 1] are Unrated.
func TierRules(silverMin, goldMin float64) Rules[float64] {
	return Rules[float64]{
		{
			Label: domain.TierBronze,
			Match: func(v float64) bool { return v >= 0 && v < silverMin },
		},
		{
			Label: domain.TierSilver,
			Match: func(v float64) bool { return v >= silverMin && v < goldMin },
		},
		{
			Label: domain.TierGold,
			Match: func(v float64) bool { return v >= goldMin && v <= 1.0 },
		},
		Default[float64](domain.TierUnrated),
	}
}

// Districts labels every summary in place.
func Districts(summaries []domain.DistrictSummary, rules Rules[domain.DistrictSummary]) error {
	for i := range summaries {
		label, err := rules.Classify(summaries[i])
		if err != nil {
			return fmt.Errorf("district %q: %w", summaries[i].Name, err)
		}
		summaries[i].Status = label
	}
	return nil
}

// Surveyors labels every summary in place by its mean quality score.
func Surveyors(summaries []domain.SurveyorSummary, rules Rules[float64]) error {
	for i := range summaries {
		label, err := rules.Classify(summaries[i].MeanQuality)
		if err != nil {
			return fmt.Errorf("surveyor %q: %w", summaries[i].Surveyor, err)
		}
		summaries[i].Tier = label
	}
	return nil
}
