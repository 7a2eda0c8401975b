package domain

import (
	"math"
	"strings"
	"time"
)

// Counter identifies one of the territory status counters summed per district.
type Counter int

const (
	CounterClosed Counter = iota
	CounterOffPlan
	CounterInProgress
	CounterOpen
	CounterPlanned
	NumCounters
)

var counterNames = [NumCounters]string{"closed", "off_plan", "in_progress", "open", "planned"}

var counterTitles = [NumCounters]string{"Closed", "Off Plan", "In Progress", "Open", "Planned"}

func (c Counter) String() string {
	if c < 0 || c >= NumCounters {
		return "unknown"
	}
	return counterNames[c]
}

// Title is the column heading used in exported reports.
func (c Counter) Title() string {
	if c < 0 || c >= NumCounters {
		return "Unknown"
	}
	return counterTitles[c]
}

// ParseCounter maps a canonical counter name ("off_plan") to its Counter.
func ParseCounter(name string) (Counter, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range counterNames {
		if n == name {
			return Counter(i), true
		}
	}
	return 0, false
}

// AllCounters returns the counters in report column order.
func AllCounters() []Counter {
	out := make([]Counter, 0, NumCounters)
	for c := Counter(0); c < NumCounters; c++ {
		out = append(out, c)
	}
	return out
}

// MaxCount is the largest value a single counter holds. Inputs above it are
// rejected by the parsers and merged sums stop there, so a sum over all
// counters always fits in an int.
const MaxCount = math.MaxInt32

// Counters holds one value per Counter. Missing counters are simply zero.
type Counters [NumCounters]int

func (c Counters) Sum(which ...Counter) int {
	total := 0
	for _, k := range which {
		total += c[k]
	}
	return total
}

// Add merges other into c, saturating each counter at MaxCount.
func (c *Counters) Add(other Counters) {
	for i := range c {
		c[i] = min(c[i]+other[i], MaxCount)
	}
}

// CompletedCounters and RemainingCounters partition all counters.
var (
	CompletedCounters = []Counter{CounterClosed, CounterOffPlan}
	RemainingCounters = []Counter{CounterOpen, CounterInProgress, CounterPlanned}
)

type DistrictRecord struct {
	Name   string
	Counts Counters
}

type DistrictSummary struct {
	Name          string
	Counts        Counters
	Total         int
	Completed     int
	Remaining     int
	CompletionPct float64
	Status        Label
}

type Submission struct {
	ID        string
	Surveyor  string
	CreatedAt time.Time
	Quality   float64
}

type SurveyorSummary struct {
	Surveyor    string
	Submissions int
	SpanHours   float64
	// SubmissionsPerHour is nil when every submission shares one timestamp.
	SubmissionsPerHour *float64
	MeanQuality        float64
	QualityStdDev      float64
	Tier               Label
}
