package ridepace

import (
	"fmt"
	"sort"

	"github.com/faist23/ridepace/fitstream"
	"github.com/faist23/ridepace/raceplan"
)

// Insight priority levels, highest first.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// RideInsight is one human-readable observation about the ride.
type RideInsight struct {
	Category       string `json:"category"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
	Priority       string `json:"priority"`
}

// surgeFactor marks a sample as a surge when it exceeds this multiple of
// mean power.
const surgeFactor = 1.3

// GenerateInsights evaluates the rule set against the computed metric blocks
// and returns insights sorted by priority, stable within each level. Any of
// the metric arguments may be nil when its data was unavailable.
func GenerateInsights(tl *fitstream.Timeline, pm *PowerMetrics, pa *PacingAnalysis, cmp *raceplan.Comparison) []RideInsight {
	var insights []RideInsight

	if pa != nil {
		if pa.ConsistencyScore > 85 {
			insights = append(insights, RideInsight{
				Category:       "pacing",
				Title:          "Well-paced ride",
				Description:    fmt.Sprintf("Pacing consistency scored %.0f/100; power output stayed remarkably even across the ride.", pa.ConsistencyScore),
				Recommendation: "Keep doing what you're doing; even pacing is the fastest way to cover a course.",
				Priority:       PriorityLow,
			})
		}
		if pa.ConsistencyScore < 70 {
			insights = append(insights, RideInsight{
				Category:       "pacing",
				Title:          "Uneven pacing",
				Description:    fmt.Sprintf("Pacing consistency scored %.0f/100; power swung widely between segments.", pa.ConsistencyScore),
				Recommendation: "Practice holding steady target power on long intervals; large swings cost time and energy.",
				Priority:       PriorityHigh,
			})
		}
		if pa.FatigueDetected {
			insights = append(insights, RideInsight{
				Category:       "fatigue",
				Title:          "Late-ride fade",
				Description:    fmt.Sprintf("Power declined more than 15%% from the first third (%.0fW) to the last third (%.0fW), fading from around minute %.0f.", pa.FirstThirdAvgW, pa.LastThirdAvgW, pa.FatigueOnsetS/60.0),
				Recommendation: "Start more conservatively or review fueling; the opening effort was not sustainable for the full duration.",
				Priority:       PriorityHigh,
			})
		}
	}

	if pm != nil {
		if pm.VariabilityIndex > 1.10 {
			insights = append(insights, RideInsight{
				Category:       "power",
				Title:          "Spiky power delivery",
				Description:    fmt.Sprintf("Variability index of %.2f means normalized power ran well above average power.", pm.VariabilityIndex),
				Recommendation: "Smooth out the surges; riding spiky burns matches a steadier rider never has to.",
				Priority:       PriorityHigh,
			})
		}
		if surges := countSurges(tl, pm.AvgPowerW); surges > 5 {
			insights = append(insights, RideInsight{
				Category:       "power",
				Title:          "Frequent surges",
				Description:    fmt.Sprintf("Detected %d surges above %.0f%% of mean power.", surges, surgeFactor*100),
				Recommendation: "Anticipate terrain and shift earlier instead of punching over every rise.",
				Priority:       PriorityMedium,
			})
		}
	}

	if cmp != nil && len(cmp.Opportunities) > 0 {
		top := cmp.Opportunities[0]
		insights = append(insights, RideInsight{
			Category:       "execution",
			Title:          "Biggest time opportunity",
			Description:    fmt.Sprintf("Segment %q deviated %.0f%% from its power target, an estimated %.0fs against plan.", top.Label, top.DeviationPct, top.EstTimeDeltaS),
			Recommendation: "Rehearse that segment's target power in training; it carries the largest payoff.",
			Priority:       PriorityMedium,
		})
	}

	sort.SliceStable(insights, func(i, j int) bool {
		return priorityRank(insights[i].Priority) < priorityRank(insights[j].Priority)
	})
	return insights
}

// countSurges counts rising edges above surgeFactor x mean power, so a
// sustained surge counts once, not per sample.
func countSurges(tl *fitstream.Timeline, meanPowerW float64) int {
	if tl == nil || meanPowerW <= 0 {
		return 0
	}
	threshold := meanPowerW * surgeFactor
	count := 0
	above := false
	for i := range tl.Samples {
		p := tl.Samples[i].PowerW
		if p == nil {
			continue
		}
		if *p > threshold {
			if !above {
				count++
				above = true
			}
		} else {
			above = false
		}
	}
	return count
}

func priorityRank(p string) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}
