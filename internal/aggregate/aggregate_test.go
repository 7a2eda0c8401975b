package aggregate

import (
	"math"
	"testing"
	"time"

	"fieldreport/internal/domain"

	"github.com/google/go-cmp/cmp"
)

func record(name string, closed, offPlan, inProgress, open, planned int) domain.DistrictRecord {
	var c domain.Counters
	c[domain.CounterClosed] = closed
	c[domain.CounterOffPlan] = offPlan
	c[domain.CounterInProgress] = inProgress
	c[domain.CounterOpen] = open
	c[domain.CounterPlanned] = planned
	return domain.DistrictRecord{Name: name, Counts: c}
}

func TestDistrictsWorkedExample(t *testing.T) {
	got := Districts([]domain.DistrictRecord{
		record("DistrictB", 0, 0, 0, 0, 5),
		record("DistrictA", 3, 0, 0, 2, 0),
	})

	if len(got) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(got))
	}
	a, b := got[0], got[1]
	if a.Name != "DistrictA" || a.Total != 5 || a.Completed != 3 || a.Remaining != 2 || a.CompletionPct != 60.0 {
		t.Fatalf("unexpected DistrictA summary: %+v", a)
	}
	if b.Name != "DistrictB" || b.Total != 5 || b.Completed != 0 || b.Remaining != 5 || b.CompletionPct != 0 {
		t.Fatalf("unexpected DistrictB summary: %+v", b)
	}
}

func TestDistrictsMergesDuplicatesAndHandlesZeroTotal(t *testing.T) {
	got := Districts([]domain.DistrictRecord{
		record("East", 1, 1, 1, 0, 0),
		record("Empty", 0, 0, 0, 0, 0),
		record("East", 0, 0, 0, 0, 0),
		record("East", 0, 0, 0, 0, 0),
	})

	want := []domain.DistrictSummary{
		{
			Name:          "East",
			Counts:        record("", 1, 1, 1, 0, 0).Counts,
			Total:         3,
			Completed:     2,
			Remaining:     1,
			CompletionPct: 66.67,
		},
		{Name: "Empty"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected summaries (-want +got):\n%s", diff)
	}
}

func TestDistrictsPercentageBounds(t *testing.T) {
	var records []domain.DistrictRecord
	for i := 0; i < 50; i++ {
		records = append(records, record(string(rune('A'+i%26))+"x", i%7, i%3, i%5, i%4, i%2))
	}
	for _, s := range Districts(records) {
		if s.CompletionPct < 0 || s.CompletionPct > 100 {
			t.Fatalf("completion pct out of range for %s: %v", s.Name, s.CompletionPct)
		}
		if s.Total == 0 && s.CompletionPct != 0 {
			t.Fatalf("expected 0 pct for empty district %s, got %v", s.Name, s.CompletionPct)
		}
		if s.Completed+s.Remaining != s.Total {
			t.Fatalf("completed+remaining != total for %s: %+v", s.Name, s)
		}
	}
}

func TestDistrictsDeterministicOrder(t *testing.T) {
	records := []domain.DistrictRecord{
		record("b", 1, 0, 0, 0, 0),
		record("a", 0, 1, 0, 0, 0),
		record("C", 0, 0, 1, 0, 0),
	}
	first := Districts(records)
	for i := 0; i < 20; i++ {
		if diff := cmp.Diff(first, Districts(records)); diff != "" {
			t.Fatalf("non-deterministic output (-first +again):\n%s", diff)
		}
	}
	if first[0].Name != "C" || first[1].Name != "a" || first[2].Name != "b" {
		t.Fatalf("expected byte-order sort, got %s,%s,%s", first[0].Name, first[1].Name, first[2].Name)
	}
}

func TestSurveyors(t *testing.T) {
	base := time.Date(2025, 8, 7, 8, 0, 0, 0, time.UTC)
	subs := []domain.Submission{
		{ID: "1", Surveyor: "zed", CreatedAt: base, Quality: 0.5},
		{ID: "2", Surveyor: "amy", CreatedAt: base.Add(2 * time.Hour), Quality: 0.95},
		{ID: "3", Surveyor: "amy", CreatedAt: base, Quality: 0.9},
		{ID: "4", Surveyor: "amy", CreatedAt: base.Add(time.Hour), Quality: 0.925},
	}

	got := Surveyors(subs)
	if len(got) != 2 {
		t.Fatalf("expected 2 surveyors, got %d", len(got))
	}

	amy := got[0]
	if amy.Surveyor != "amy" || amy.Submissions != 3 || amy.SpanHours != 2 {
		t.Fatalf("unexpected amy summary: %+v", amy)
	}
	if amy.SubmissionsPerHour == nil || *amy.SubmissionsPerHour != 1.5 {
		t.Fatalf("expected rate 1.5, got %v", amy.SubmissionsPerHour)
	}
	if math.Abs(amy.MeanQuality-0.925) > 1e-9 {
		t.Fatalf("expected mean 0.925, got %v", amy.MeanQuality)
	}
	wantStd := math.Sqrt((0.025*0.025 + 0.025*0.025) / 3)
	if math.Abs(amy.QualityStdDev-wantStd) > 1e-9 {
		t.Fatalf("expected population std %v, got %v", wantStd, amy.QualityStdDev)
	}

	zed := got[1]
	if zed.SubmissionsPerHour != nil {
		t.Fatalf("expected nil rate for zero span, got %v", *zed.SubmissionsPerHour)
	}
	if zed.MeanQuality != 0.5 || zed.QualityStdDev != 0 {
		t.Fatalf("unexpected single-sample stats: %+v", zed)
	}
}

func TestMeanStdDev(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		wantMean float64
		wantStd  float64
	}{
		{name: "empty", values: nil},
		{name: "single", values: []float64{0.5}, wantMean: 0.5},
		{name: "pair", values: []float64{0.9, 0.95}, wantMean: 0.925, wantStd: 0.025},
		{name: "constant", values: []float64{2, 2, 2}, wantMean: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mean, std := MeanStdDev(tt.values)
			if math.Abs(mean-tt.wantMean) > 1e-9 || math.Abs(std-tt.wantStd) > 1e-9 {
				t.Fatalf("MeanStdDev(%v) = %v, %v; want %v, %v", tt.values, mean, std, tt.wantMean, tt.wantStd)
			}
		})
	}
}

func TestRateAndPercent(t *testing.T) {
	if Rate(3, 0) != nil {
		t.Fatal("expected nil rate for zero hours")
	}
	if r := Rate(3, 1.5); r == nil || *r != 2 {
		t.Fatalf("unexpected rate: %v", r)
	}
	if got := Percent(1, 3); got != 33.33 {
		t.Fatalf("Percent(1,3) = %v", got)
	}
	if got := Percent(5, 0); got != 0 {
		t.Fatalf("Percent(5,0) = %v", got)
	}
}
