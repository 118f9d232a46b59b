package raceplan

import "github.com/faist23/ridepace/fitstream"

// TerrainType classifies one stretch of road.
type TerrainType string

const (
	TerrainClimb   TerrainType = "climb"
	TerrainFlat    TerrainType = "flat"
	TerrainRolling TerrainType = "rolling"
	TerrainDescent TerrainType = "descent"
)

// TerrainSegment is one classified stretch of the actual ride. Terrain
// classification is normally supplied pre-computed by the caller;
// WindowByDistance derives a rough substitute when it is not.
type TerrainSegment struct {
	Type        TerrainType `json:"type"`
	Gradient    float64     `json:"gradient"`
	DistanceM   float64     `json:"distance_m"`
	DurationS   float64     `json:"duration_s"`
	AvgPowerW   float64     `json:"avg_power_w"`
	AvgSpeedMPS float64     `json:"avg_speed_mps"`
}

// Gradient bounds separating climb and descent from flat-ish terrain.
const (
	climbGradient   = 0.03
	descentGradient = -0.03
	rollingGradient = 0.01
)

func classifyGradient(gradient float64) TerrainType {
	switch {
	case gradient > climbGradient:
		return TerrainClimb
	case gradient < descentGradient:
		return TerrainDescent
	case gradient > rollingGradient || gradient < -rollingGradient:
		return TerrainRolling
	default:
		return TerrainFlat
	}
}

// expectedPowerForTerrain approximates the power a rider at the given FTP
// would typically hold on each terrain class. Used only for the
// terrain-mismatch anomaly check.
func expectedPowerForTerrain(t TerrainType, ftpW float64) float64 {
	switch t {
	case TerrainClimb:
		return ftpW * 0.90
	case TerrainRolling:
		return ftpW * 0.80
	case TerrainDescent:
		return ftpW * 0.30
	default:
		return ftpW * 0.72
	}
}

// WindowByDistance slices the timeline into fixed-width distance windows and
// classifies each from its altitude change, for callers that supply no
// terrain classification of their own. Windows without distance data are
// skipped.
func WindowByDistance(tl *fitstream.Timeline, widthM float64) []TerrainSegment {
	if widthM <= 0 || len(tl.Samples) < 2 {
		return nil
	}

	var out []TerrainSegment
	windowStart := -1
	baseDistance := 0.0
	for i := range tl.Samples {
		s := &tl.Samples[i]
		if s.DistanceM == nil {
			continue
		}
		if windowStart < 0 {
			windowStart = i
			baseDistance = *s.DistanceM
			continue
		}
		if *s.DistanceM-baseDistance < widthM && i != len(tl.Samples)-1 {
			continue
		}
		if seg, ok := buildWindow(tl.Samples[windowStart:i+1], *s.DistanceM-baseDistance); ok {
			out = append(out, seg)
		}
		windowStart = i
		baseDistance = *s.DistanceM
	}
	return out
}

func buildWindow(samples []fitstream.Sample, distanceM float64) (TerrainSegment, bool) {
	if len(samples) < 2 || distanceM <= 0 {
		return TerrainSegment{}, false
	}

	duration := samples[len(samples)-1].Timestamp.Sub(samples[0].Timestamp).Seconds()
	if duration <= 0 {
		return TerrainSegment{}, false
	}

	powerSum, powerN := 0.0, 0
	speedSum, speedN := 0.0, 0
	var firstAlt, lastAlt *float64
	for i := range samples {
		s := &samples[i]
		if s.PowerW != nil {
			powerSum += *s.PowerW
			powerN++
		}
		if s.SpeedMPS != nil {
			speedSum += *s.SpeedMPS
			speedN++
		}
		if s.AltitudeM != nil {
			if firstAlt == nil {
				firstAlt = s.AltitudeM
			}
			lastAlt = s.AltitudeM
		}
	}

	seg := TerrainSegment{
		DistanceM: distanceM,
		DurationS: duration,
	}
	if powerN > 0 {
		seg.AvgPowerW = powerSum / float64(powerN)
	}
	if speedN > 0 {
		seg.AvgSpeedMPS = speedSum / float64(speedN)
	} else {
		seg.AvgSpeedMPS = distanceM / duration
	}
	if firstAlt != nil && lastAlt != nil {
		seg.Gradient = (*lastAlt - *firstAlt) / distanceM
	}
	seg.Type = classifyGradient(seg.Gradient)
	return seg, true
}
