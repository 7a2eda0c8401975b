package report

import (
	"fmt"
	"strings"

	"fieldreport/internal/domain"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Change records a group whose label moved between stored runs. From is
// empty for groups that were not in the previous run.
type Change struct {
	Name string
	From domain.Label
	To   domain.Label
}

// StatusChanges compares two territory runs in the order of curr. Districts
// missing from curr are not reported.
func StatusChanges(prev, curr []domain.DistrictSummary) []Change {
	return labelChanges(prev, curr, func(s domain.DistrictSummary) (string, domain.Label) {
		return s.Name, s.Status
	})
}

// TierChanges is StatusChanges for surveyor tiers.
func TierChanges(prev, curr []domain.SurveyorSummary) []Change {
	return labelChanges(prev, curr, func(s domain.SurveyorSummary) (string, domain.Label) {
		return s.Surveyor, s.Tier
	})
}

func labelChanges[T any](prev, curr []T, key func(T) (string, domain.Label)) []Change {
	before := make(map[string]domain.Label, len(prev))
	for _, s := range prev {
		name, label := key(s)
		before[name] = label
	}
	var out []Change
	for _, s := range curr {
		name, label := key(s)
		old, ok := before[name]
		if ok && old == label {
			continue
		}
		out = append(out, Change{Name: name, From: old, To: label})
	}
	return out
}

// FormatRunSummary is the chat message posted after a territory run.
func FormatRunSummary(summaries []domain.DistrictSummary, changes []Change) string {
	var closed, open, inProgress int
	for _, s := range summaries {
		switch s.Status {
		case domain.StatusClosed:
			closed++
		case domain.StatusOpen:
			open++
		default:
			inProgress++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Territory status: %d districts (%d closed, %d in progress, %d open).", len(summaries), closed, inProgress, open)
	b.WriteByte('\n')
	writeChanges(&b, "status", changes)
	return b.String()
}

// FormatTierChanges lists surveyors whose tier moved since the last run.
func FormatTierChanges(changes []Change) string {
	var b strings.Builder
	writeChanges(&b, "tier", changes)
	return b.String()
}

func writeChanges(b *strings.Builder, what string, changes []Change) {
	if len(changes) == 0 {
		fmt.Fprintf(b, "No %s changes since the last run.", what)
		return
	}
	fmt.Fprintf(b, "%s changes:", cases.Title(language.English).String(what))
	for _, c := range changes {
		if c.From == "" {
			fmt.Fprintf(b, "\n- %s: new (%s)", c.Name, c.To)
			continue
		}
		fmt.Fprintf(b, "\n- %s: %s -> %s", c.Name, c.From, c.To)
	}
}
