package ridepace

import (
	"fmt"
	"math"
	"strings"
)

// BuildRideNotes turns a report into a readable markdown ride summary.
func BuildRideNotes(r *Report) string {
	if r == nil {
		return ""
	}

	var b strings.Builder

	b.WriteString("# Ride Summary\n\n")
	if !r.Summary.StartTime.IsZero() {
		fmt.Fprintf(&b, "Start: %s\n\n", r.Summary.StartTime.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(
		&b,
		"Duration %s moving (%s elapsed) | Distance %.1f km | Avg speed %.1f km/h\n",
		formatDuration(r.Summary.MovingSeconds),
		formatDuration(r.Summary.ElapsedSeconds),
		r.Summary.DistanceKM,
		r.Summary.AvgSpeedKPH,
	)
	if r.Summary.ElevationGainM > 0 {
		fmt.Fprintf(&b, "Elevation gain %.0f m\n", r.Summary.ElevationGainM)
	}
	if r.Summary.AvgHeartRateBPM > 0 {
		fmt.Fprintf(&b, "HR %.0f avg / %.0f max bpm\n", r.Summary.AvgHeartRateBPM, r.Summary.MaxHeartRateBPM)
	}

	if pm := r.Power; pm != nil {
		b.WriteString("\n## Power\n\n")
		fmt.Fprintf(
			&b,
			"Power %.0f avg / %.0f NP / %.0f max W | Work %.0f kJ | VI %.2f\n",
			pm.AvgPowerW,
			pm.NormalizedPowerW,
			pm.MaxPowerW,
			pm.WorkKilojoules,
			pm.VariabilityIndex,
		)
		if pm.FTPWatts > 0 {
			fmt.Fprintf(
				&b,
				"Load IF %.2f | TSS %.0f | FTP %.0f W (%s)\n",
				pm.IntensityFactor,
				pm.TrainingStress,
				pm.FTPWatts,
				pm.FTPSource,
			)
		} else {
			b.WriteString("Load IF/TSS unavailable (FTP not provided and could not be estimated)\n")
		}
		if pm.Best20MinPowerW > 0 {
			fmt.Fprintf(&b, "Best 20 min power: %.0f W\n", pm.Best20MinPowerW)
		}
		for _, p := range pm.PeakPowers {
			fmt.Fprintf(&b, "- Peak %s: %.0f W\n", formatDuration(float64(p.DurationS)), p.Watts)
		}
		if len(pm.Zones) > 0 {
			b.WriteString("\n### Zone Distribution\n\n")
			for _, z := range pm.Zones {
				if z.Seconds <= 0 {
					continue
				}
				fmt.Fprintf(&b, "- %s: %s (%.1f%%)\n", z.Zone, formatDuration(z.Seconds), z.Percentage)
			}
		}
	}

	if pa := r.Pacing; pa != nil {
		b.WriteString("\n## Pacing\n\n")
		fmt.Fprintf(&b, "Consistency score %.0f/100 across %d segments.\n", pa.ConsistencyScore, len(pa.Segments))
		if pa.FatigueDetected {
			fmt.Fprintf(
				&b,
				"Fatigue detected: first third %.0f W, last third %.0f W, fading from minute %.0f.\n",
				pa.FirstThirdAvgW,
				pa.LastThirdAvgW,
				pa.FatigueOnsetS/60.0,
			)
		}
	}

	if len(r.Opportunities) > 0 {
		b.WriteString("\n## Top Opportunities\n\n")
		limit := len(r.Opportunities)
		if limit > 3 {
			limit = 3
		}
		for _, o := range r.Opportunities[:limit] {
			fmt.Fprintf(
				&b,
				"- %q (%s): %.0f W actual vs %.0f W planned (%+.0f%%), est %+.0fs vs plan, grade %s\n",
				o.Label,
				o.Terrain,
				o.ActualPowerW,
				o.PlannedPowerW,
				o.DeviationPct,
				o.EstTimeDeltaS,
				o.Grade,
			)
		}
	}

	if len(r.Insights) > 0 {
		b.WriteString("\n## Insights\n\n")
		for _, in := range r.Insights {
			fmt.Fprintf(&b, "- **%s** (%s): %s %s\n", in.Title, in.Priority, in.Description, in.Recommendation)
		}
	}

	return strings.TrimSpace(b.String())
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "0s"
	}
	s := int(math.Round(seconds))
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, sec)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, sec)
	}
	return fmt.Sprintf("%ds", sec)
}
