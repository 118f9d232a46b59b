package ridepace

import "github.com/faist23/ridepace/fitstream"

// pacingBucketSeconds is the fixed pacing window width.
const pacingBucketSeconds = 600.0

// Trend of one pacing segment relative to the immediately preceding one.
const (
	TrendSteady     = "steady"
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
)

// PacingSegment is one fixed-duration bucket of the ride.
type PacingSegment struct {
	Index        int     `json:"index"`
	StartOffsetS float64 `json:"start_offset_s"`
	DurationS    float64 `json:"duration_s"`
	AvgPowerW    float64 `json:"avg_power_w"`
	AvgSpeedMPS  float64 `json:"avg_speed_mps"`
	Trend        string  `json:"trend"`
}

// PacingAnalysis summarizes effort distribution over the ride.
type PacingAnalysis struct {
	Segments         []PacingSegment `json:"segments"`
	ConsistencyScore float64         `json:"consistency_score"`
	FatigueDetected  bool            `json:"fatigue_detected"`
	FatigueOnsetS    float64         `json:"fatigue_onset_s,omitempty"`
	FirstThirdAvgW   float64         `json:"first_third_avg_w"`
	LastThirdAvgW    float64         `json:"last_third_avg_w"`
}

// AnalyzePacing windows the timeline into 600-second buckets and scores
// pacing consistency and fatigue onset. Returns nil for rides shorter than
// one full bucket of moving time.
func AnalyzePacing(tl *fitstream.Timeline) *PacingAnalysis {
	bucketCount := int(tl.MovingSeconds / pacingBucketSeconds)
	if bucketCount < 1 || len(tl.Samples) == 0 {
		return nil
	}

	type accumulator struct {
		powerSum   float64
		powerCount int
		speedSum   float64
		speedCount int
	}
	buckets := make([]accumulator, bucketCount)

	start := tl.Samples[0].Timestamp
	for i := range tl.Samples {
		s := &tl.Samples[i]
		idx := int(s.Timestamp.Sub(start).Seconds() / pacingBucketSeconds)
		if idx < 0 || idx >= bucketCount {
			continue
		}
		if s.PowerW != nil {
			buckets[idx].powerSum += *s.PowerW
			buckets[idx].powerCount++
		}
		if s.SpeedMPS != nil {
			buckets[idx].speedSum += *s.SpeedMPS
			buckets[idx].speedCount++
		}
	}

	analysis := &PacingAnalysis{Segments: make([]PacingSegment, 0, bucketCount)}
	bucketPowers := make([]float64, 0, bucketCount)
	for i, b := range buckets {
		seg := PacingSegment{
			Index:        i,
			StartOffsetS: float64(i) * pacingBucketSeconds,
			DurationS:    pacingBucketSeconds,
			Trend:        TrendSteady,
		}
		if b.powerCount > 0 {
			seg.AvgPowerW = b.powerSum / float64(b.powerCount)
		}
		if b.speedCount > 0 {
			seg.AvgSpeedMPS = b.speedSum / float64(b.speedCount)
		}
		if i > 0 {
			seg.Trend = trendAgainst(analysis.Segments[i-1].AvgPowerW, seg.AvgPowerW)
		}
		analysis.Segments = append(analysis.Segments, seg)
		bucketPowers = append(bucketPowers, seg.AvgPowerW)
	}

	mean := average(bucketPowers)
	if mean > 0 {
		cv := stddev(bucketPowers, mean) / mean
		analysis.ConsistencyScore = 100.0 - 100.0*cv
		if analysis.ConsistencyScore < 0 {
			analysis.ConsistencyScore = 0
		}
	}

	detectFatigue(analysis, bucketPowers)
	return analysis
}

// trendAgainst compares a bucket to its immediate predecessor only; changes
// within 5% count as steady.
func trendAgainst(prev, current float64) string {
	if prev <= 0 {
		return TrendSteady
	}
	change := (current - prev) / prev
	switch {
	case change >= 0.05:
		return TrendIncreasing
	case change <= -0.05:
		return TrendDecreasing
	default:
		return TrendSteady
	}
}

// detectFatigue compares the first third of buckets to the last third; a
// decline over 15% marks the ride fatigued, with onset at the first bucket
// whose power falls below 90% of the first-third mean.
func detectFatigue(analysis *PacingAnalysis, bucketPowers []float64) {
	n := len(bucketPowers)
	third := n / 3
	if third < 1 {
		return
	}

	firstMean := average(bucketPowers[:third])
	lastMean := average(bucketPowers[n-third:])
	analysis.FirstThirdAvgW = firstMean
	analysis.LastThirdAvgW = lastMean
	if firstMean <= 0 {
		return
	}
	if (firstMean-lastMean)/firstMean <= 0.15 {
		return
	}

	analysis.FatigueDetected = true
	for i, p := range bucketPowers {
		if p < firstMean*0.90 {
			analysis.FatigueOnsetS = analysis.Segments[i].StartOffsetS
			return
		}
	}
}
