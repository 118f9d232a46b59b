package raceplan

import (
	"fmt"
	"math"
	"sort"
)

// Grade is the letter assessment of one segment's execution.
type Grade string

const (
	GradeExcellent  Grade = "excellent"
	GradeGood       Grade = "good"
	GradeAcceptable Grade = "acceptable"
	GradeNeedsWork  Grade = "needsWork"
	GradePoor       Grade = "poor"
)

// Anomaly flags attached to segment results.
const (
	FlagPossibleStop      = "possible_stop"
	FlagMisclassifiedFlat = "misclassified_flat"
	FlagCoasting          = "coasting"
	FlagUnsustainable     = "unsustainable_effort"
	FlagPowerAboveTerrain = "power_above_terrain"
	FlagPowerBelowTerrain = "power_below_terrain"
)

// opportunityThresholdS filters segment results worth reporting: only
// segments with more than this much time lost or gained count.
const opportunityThresholdS = 3.0

// SegmentResult compares one actual terrain segment against its matched
// plan step. Immutable after construction.
type SegmentResult struct {
	Index         int         `json:"index"`
	Label         string      `json:"label"`
	Terrain       TerrainType `json:"terrain"`
	Gradient      float64     `json:"gradient"`
	DurationS     float64     `json:"duration_s"`
	DistanceM     float64     `json:"distance_m"`
	PlannedPowerW float64     `json:"planned_power_w"`
	ActualPowerW  float64     `json:"actual_power_w"`
	DeviationPct  float64     `json:"deviation_pct"`
	EstTimeDeltaS float64     `json:"est_time_delta_s"`
	Grade         Grade       `json:"grade"`
	AnomalyFlags  []string    `json:"anomaly_flags,omitempty"`
	AnomalyReason string      `json:"anomaly_reason,omitempty"`
}

// Comparison bundles all matched segment results. Results keeps ride order;
// Opportunities is filtered to |time delta| > 3 s and sorted by |time delta|
// descending.
type Comparison struct {
	Results         []SegmentResult `json:"results"`
	Opportunities   []SegmentResult `json:"opportunities,omitempty"`
	TotalTimeDeltaS float64         `json:"total_time_delta_s"`
}

// Compare walks the actual terrain segments in order, matches each against
// the planned segment covering its cumulative-distance offset, and scores
// power deviation, estimated time lost or gained, grade, and anomalies.
// Segments the plan cannot cover are skipped silently, never an error.
func Compare(plan *Plan, terrain []TerrainSegment, ftpW float64) *Comparison {
	cmp := &Comparison{}
	if plan == nil || len(plan.Segments) == 0 {
		return cmp
	}

	offset := 0.0
	for i, seg := range terrain {
		planned, _ := plan.SegmentAt(offset)
		offset += seg.DistanceM
		if seg.AvgPowerW <= 0 && planned.TargetPowerW <= 0 {
			continue
		}

		deviation := (seg.AvgPowerW - planned.TargetPowerW) / planned.TargetPowerW * 100.0
		timeDelta := estimateTimeDelta(seg, planned.TargetPowerW)
		flags, reason := detectAnomalies(seg, ftpW)

		cmp.Results = append(cmp.Results, SegmentResult{
			Index:         i,
			Label:         planned.Label,
			Terrain:       seg.Type,
			Gradient:      seg.Gradient,
			DurationS:     seg.DurationS,
			DistanceM:     seg.DistanceM,
			PlannedPowerW: planned.TargetPowerW,
			ActualPowerW:  seg.AvgPowerW,
			DeviationPct:  deviation,
			EstTimeDeltaS: timeDelta,
			Grade:         gradeSegment(seg.Type, deviation, math.Abs(timeDelta)),
			AnomalyFlags:  flags,
			AnomalyReason: reason,
		})
		cmp.TotalTimeDeltaS += timeDelta
	}

	for _, r := range cmp.Results {
		if math.Abs(r.EstTimeDeltaS) > opportunityThresholdS {
			cmp.Opportunities = append(cmp.Opportunities, r)
		}
	}
	sort.SliceStable(cmp.Opportunities, func(i, j int) bool {
		return math.Abs(cmp.Opportunities[i].EstTimeDeltaS) > math.Abs(cmp.Opportunities[j].EstTimeDeltaS)
	})
	return cmp
}

// estimateTimeDelta approximates time lost (positive) or gained (negative)
// versus plan. Climbing speed scales with roughly the cube root of power;
// flat speed is drag-dominated (exponent 0.4); on descents power contributes
// little, so a small linear correction stands in.
func estimateTimeDelta(seg TerrainSegment, plannedW float64) float64 {
	if seg.AvgPowerW <= 0 || plannedW <= 0 || seg.DurationS <= 0 {
		return 0
	}
	switch {
	case seg.Gradient > climbGradient:
		return timeDeltaBySpeedScale(seg, plannedW, 0.33)
	case seg.Gradient < descentGradient:
		return seg.DurationS * 0.02 * (seg.AvgPowerW - plannedW) / plannedW
	default:
		return timeDeltaBySpeedScale(seg, plannedW, 0.4)
	}
}

func timeDeltaBySpeedScale(seg TerrainSegment, plannedW, exponent float64) float64 {
	speed := seg.AvgSpeedMPS
	if speed <= 0 {
		speed = seg.DistanceM / seg.DurationS
	}
	if speed <= 0 || seg.DistanceM <= 0 {
		return 0
	}
	plannedSpeed := speed * math.Pow(plannedW/seg.AvgPowerW, exponent)
	if plannedSpeed <= 0 {
		return 0
	}
	return seg.DurationS - seg.DistanceM/plannedSpeed
}

// gradeSegment grades execution. Climb grading is asymmetric: under-powering
// a climb is penalized harder than over-powering, and sustained time loss
// caps the grade. Flat, rolling, and descent segments use symmetric
// deviation bands.
func gradeSegment(t TerrainType, deviationPct, absTimeDeltaS float64) Grade {
	if t == TerrainClimb {
		switch {
		case deviationPct > -5 && absTimeDeltaS < 5:
			return GradeExcellent
		case deviationPct > -10 && absTimeDeltaS < 10:
			return GradeGood
		case deviationPct > -20 && absTimeDeltaS < 10:
			return GradeAcceptable
		case deviationPct > -30:
			return GradeNeedsWork
		default:
			return GradePoor
		}
	}

	abs := math.Abs(deviationPct)
	switch {
	case abs < 5:
		return GradeExcellent
	case abs < 10:
		return GradeGood
	case abs < 15:
		return GradeAcceptable
	case abs < 25:
		return GradeNeedsWork
	default:
		return GradePoor
	}
}

// detectAnomalies runs the context checks independently per segment.
// FTP-relative checks are skipped when FTP is unknown.
func detectAnomalies(seg TerrainSegment, ftpW float64) ([]string, string) {
	var flags []string
	var reasons []string
	add := func(flag, reason string) {
		flags = append(flags, flag)
		reasons = append(reasons, reason)
	}

	if seg.AvgPowerW < 20 && seg.DurationS > 20 {
		add(FlagPossibleStop, "power near zero for over 20s; possible stop")
	}
	if seg.Type == TerrainFlat && ftpW > 0 && seg.AvgPowerW > 0.95*ftpW && seg.DurationS > 30 {
		add(FlagMisclassifiedFlat, "sustained near-threshold power on flat terrain; segment may actually be a climb")
	}
	if seg.Type == TerrainDescent && seg.AvgPowerW < 50 {
		add(FlagCoasting, "normal coasting on descent")
	}
	if ftpW > 0 && seg.AvgPowerW > 1.2*ftpW && seg.DurationS > 60 {
		add(FlagUnsustainable, "unsustainable effort; will cause fatigue later in the ride")
	}
	if ftpW > 0 && seg.DurationS > 30 {
		expected := expectedPowerForTerrain(seg.Type, ftpW)
		if expected > 0 {
			mismatch := (seg.AvgPowerW - expected) / expected
			if mismatch > 0.4 {
				add(FlagPowerAboveTerrain, fmt.Sprintf("power well above what %s terrain usually demands; consider easing off", seg.Type))
			} else if mismatch < -0.4 {
				add(FlagPowerBelowTerrain, fmt.Sprintf("power well below what %s terrain usually demands; check for headwind or fatigue", seg.Type))
			}
		}
	}

	if len(flags) == 0 {
		return nil, ""
	}
	return flags, reasons[0]
}
