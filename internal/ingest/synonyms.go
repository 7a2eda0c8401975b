package ingest

import (
	"fmt"
	"os"
	"strings"

	"fieldreport/internal/domain"

	"gopkg.in/yaml.v3"
)

// Synonyms maps lower-cased input keys to counters. It is never mutated after
// construction; WithExtra returns a new table.
type Synonyms struct {
	keys map[string]domain.Counter
}

var defaultSynonyms = map[string]domain.Counter{
	"closed":      domain.CounterClosed,
	"off plan":    domain.CounterOffPlan,
	"off_plan":    domain.CounterOffPlan,
	"in progress": domain.CounterInProgress,
	"in_progress": domain.CounterInProgress,
	"open":        domain.CounterOpen,
	"planned":     domain.CounterPlanned,
}

func DefaultSynonyms() Synonyms {
	keys := make(map[string]domain.Counter, len(defaultSynonyms))
	for k, v := range defaultSynonyms {
		keys[k] = v
	}
	return Synonyms{keys: keys}
}

// Lookup matches key case-insensitively, ignoring surrounding whitespace.
func (s Synonyms) Lookup(key string) (domain.Counter, bool) {
	c, ok := s.keys[normalizeKey(key)]
	return c, ok
}

func (s Synonyms) Len() int { return len(s.keys) }

func (s Synonyms) WithExtra(extra map[string]domain.Counter) Synonyms {
	keys := make(map[string]domain.Counter, len(s.keys)+len(extra))
	for k, v := range s.keys {
		keys[k] = v
	}
	for k, v := range extra {
		if k = normalizeKey(k); k != "" {
			keys[k] = v
		}
	}
	return Synonyms{keys: keys}
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

type SynonymFile struct {
	Terms []SynonymTerm `yaml:"terms"`
}

type SynonymTerm struct {
	Phrase  string `yaml:"phrase"`
	Counter string `yaml:"counter"`
}

// LoadSynonymFile reads extra key spellings from YAML:
//
//	terms:
//	  - phrase: "off-plan"
//	    counter: off_plan
func LoadSynonymFile(path string) (map[string]domain.Counter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read synonyms: %w", err)
	}
	var f SynonymFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse synonyms yaml: %w", err)
	}
	out := make(map[string]domain.Counter, len(f.Terms))
	for i, t := range f.Terms {
		phrase := normalizeKey(t.Phrase)
		if phrase == "" {
			return nil, fmt.Errorf("synonym term %d: empty phrase", i+1)
		}
		c, ok := domain.ParseCounter(t.Counter)
		if !ok {
			return nil, fmt.Errorf("synonym term %q: unknown counter %q", t.Phrase, t.Counter)
		}
		out[phrase] = c
	}
	return out, nil
}
