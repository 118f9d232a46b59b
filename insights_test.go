package ridepace

import (
	"strings"
	"testing"

	"github.com/faist23/ridepace/raceplan"
)

func findInsight(insights []RideInsight, title string) *RideInsight {
	for i := range insights {
		if insights[i].Title == title {
			return &insights[i]
		}
	}
	return nil
}

func TestInsightsRewardConsistentPacing(t *testing.T) {
	pa := &PacingAnalysis{ConsistencyScore: 92}
	insights := GenerateInsights(nil, nil, pa, nil)

	in := findInsight(insights, "Well-paced ride")
	if in == nil {
		t.Fatal("expected well-paced insight")
	}
	if in.Priority != PriorityLow {
		t.Fatalf("expected low priority, got %q", in.Priority)
	}
}

func TestInsightsFlagUnevenPacing(t *testing.T) {
	pa := &PacingAnalysis{ConsistencyScore: 55}
	insights := GenerateInsights(nil, nil, pa, nil)

	in := findInsight(insights, "Uneven pacing")
	if in == nil {
		t.Fatal("expected uneven pacing insight")
	}
	if in.Priority != PriorityHigh {
		t.Fatalf("expected high priority, got %q", in.Priority)
	}
}

func TestInsightsFatigueCitesOnsetMinute(t *testing.T) {
	pa := &PacingAnalysis{
		ConsistencyScore: 80,
		FatigueDetected:  true,
		FatigueOnsetS:    2400,
		FirstThirdAvgW:   240,
		LastThirdAvgW:    190,
	}
	insights := GenerateInsights(nil, nil, pa, nil)

	in := findInsight(insights, "Late-ride fade")
	if in == nil {
		t.Fatal("expected fatigue insight")
	}
	if !strings.Contains(in.Description, "minute 40") {
		t.Fatalf("expected onset minute in description, got %q", in.Description)
	}
}

func TestInsightsFlagHighVariability(t *testing.T) {
	pm := &PowerMetrics{VariabilityIndex: 1.18, AvgPowerW: 200}
	insights := GenerateInsights(nil, pm, nil, nil)

	in := findInsight(insights, "Spiky power delivery")
	if in == nil {
		t.Fatal("expected variability insight")
	}
	if in.Priority != PriorityHigh {
		t.Fatalf("expected high priority, got %q", in.Priority)
	}
}

func TestInsightsCountSurgesAsRisingEdges(t *testing.T) {
	// Six separated surges well above 130% of the 200W mean; each sustained
	// surge counts once.
	tl := rideTimeline(600, func(i int) float64 {
		if (i/50)%2 == 1 {
			return 400
		}
		return 100
	})
	pm := &PowerMetrics{AvgPowerW: 200, VariabilityIndex: 1.0}
	insights := GenerateInsights(tl, pm, nil, nil)

	in := findInsight(insights, "Frequent surges")
	if in == nil {
		t.Fatal("expected surge insight")
	}
	if !strings.Contains(in.Description, "6 surges") {
		t.Fatalf("expected 6 rising edges, got %q", in.Description)
	}
}

func TestInsightsSortedByPriority(t *testing.T) {
	pa := &PacingAnalysis{ConsistencyScore: 92} // low priority
	cmp := &raceplan.Comparison{
		Opportunities: []raceplan.SegmentResult{
			{Label: "main climb", DeviationPct: -12, EstTimeDeltaS: 14},
		},
	}
	pm := &PowerMetrics{VariabilityIndex: 1.2, AvgPowerW: 200} // high priority
	insights := GenerateInsights(nil, pm, pa, cmp)

	if len(insights) < 3 {
		t.Fatalf("expected 3 insights, got %d", len(insights))
	}
	if insights[0].Priority != PriorityHigh {
		t.Fatalf("expected high first, got %q", insights[0].Priority)
	}
	last := insights[len(insights)-1]
	if last.Priority != PriorityLow {
		t.Fatalf("expected low last, got %q", last.Priority)
	}
}
