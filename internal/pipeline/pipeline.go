// Package pipeline runs ingest -> aggregate -> classify for each report kind.
package pipeline

import (
	"fmt"
	"time"

	"fieldreport/internal/aggregate"
	"fieldreport/internal/classify"
	"fieldreport/internal/domain"
	"fieldreport/internal/ingest"

	"github.com/rs/zerolog/log"
)

type TerritoryOptions struct {
	Synonyms ingest.Synonyms
}

// Territory summarizes a territory feed. It fails with ErrMalformedInput when
// the feed cannot be decoded and ErrNoGroups when it holds no districts.
func Territory(data []byte, opts TerritoryOptions) ([]domain.DistrictSummary, error) {
	syn := opts.Synonyms
	if syn.Len() == 0 {
		syn = ingest.DefaultSynonyms()
	}

	records, err := ingest.Districts(data, syn)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("territory feed: %w", domain.ErrNoGroups)
	}

	summaries := aggregate.Districts(records)
	if err := classify.Districts(summaries, classify.StatusRules()); err != nil {
		return nil, err
	}
	log.Debug().Int("records", len(records)).Int("districts", len(summaries)).Msg("territory pipeline done")
	return summaries, nil
}

type SurveyorOptions struct {
	Columns   ingest.Columns
	Location  *time.Location
	SilverMin float64
	GoldMin   float64
}

func (o SurveyorOptions) tierRules() classify.Rules[float64] {
	silver, gold := o.SilverMin, o.GoldMin
	if silver == 0 && gold == 0 {
		silver, gold = classify.DefaultSilverMin, classify.DefaultGoldMin
	}
	return classify.TierRules(silver, gold)
}

// Surveyors summarizes POI log rows per surveyor. It fails with ErrNoGroups
// when no row survives cleaning.
func Surveyors(rows []map[string]string, opts SurveyorOptions) ([]domain.SurveyorSummary, error) {
	subs, dropped := ingest.Submissions(rows, opts.Columns, opts.Location)
	if dropped > 0 {
		log.Info().Int("dropped", dropped).Int("kept", len(subs)).Msg("surveyor rows dropped during cleaning")
	}
	if len(subs) == 0 {
		return nil, fmt.Errorf("surveyor log: %w", domain.ErrNoGroups)
	}

	summaries := aggregate.Surveyors(subs)
	if err := classify.Surveyors(summaries, opts.tierRules()); err != nil {
		return nil, err
	}
	return summaries, nil
}
