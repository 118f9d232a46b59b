// Package ridepace turns a decoded ride timeline into power, pacing, and
// plan-execution analysis.
package ridepace

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/faist23/ridepace/fitstream"
	"github.com/faist23/ridepace/raceplan"
)

// Config carries rider parameters. Zero values mean unknown; metrics that
// need a missing parameter degrade or estimate instead of erroring.
type Config struct {
	FTPWatts float64        `json:"ftp_w,omitempty"`
	WeightKG float64        `json:"weight_kg,omitempty"`
	Zones    []ZoneBoundary `json:"zones,omitempty"`
}

// RideSummary is the headline scalar block every report carries.
type RideSummary struct {
	StartTime       time.Time `json:"start_time"`
	ElapsedSeconds  float64   `json:"elapsed_seconds"`
	MovingSeconds   float64   `json:"moving_seconds"`
	DistanceKM      float64   `json:"distance_km"`
	AvgSpeedKPH     float64   `json:"avg_speed_kph"`
	AvgHeartRateBPM float64   `json:"avg_heart_rate_bpm,omitempty"`
	MaxHeartRateBPM float64   `json:"max_heart_rate_bpm,omitempty"`
	ElevationGainM  float64   `json:"elevation_gain_m,omitempty"`
	SampleCount     int       `json:"sample_count"`
	SkippedRecords  int       `json:"skipped_records,omitempty"`
}

// Report is the complete analysis of one ride. Every Analyze call builds a
// fresh report; nothing is shared between calls.
type Report struct {
	ID            string                   `json:"id"`
	GeneratedAt   time.Time                `json:"generated_at"`
	Summary       RideSummary              `json:"summary"`
	Power         *PowerMetrics            `json:"power,omitempty"`
	Pacing        *PacingAnalysis          `json:"pacing,omitempty"`
	Segments      []raceplan.SegmentResult `json:"segments,omitempty"`
	Opportunities []raceplan.SegmentResult `json:"opportunities,omitempty"`
	Insights      []RideInsight            `json:"insights,omitempty"`
	Notes         string                   `json:"notes,omitempty"`
}

// Analyze runs the full analysis over a decoded timeline. plan and terrain
// are optional; when terrain is nil but a plan is present, a rough
// 1 km-window classification of the timeline stands in. The returned report
// is self-contained and safe to hold after further Analyze calls.
func Analyze(tl *fitstream.Timeline, plan *raceplan.Plan, terrain []raceplan.TerrainSegment, cfg Config) *Report {
	report := &Report{
		ID:          newReportID(),
		GeneratedAt: time.Now().UTC(),
		Summary:     buildSummary(tl),
	}

	report.Power = ComputePowerMetrics(tl, cfg)
	report.Pacing = AnalyzePacing(tl)

	var comparison *raceplan.Comparison
	if plan != nil {
		if terrain == nil {
			terrain = raceplan.WindowByDistance(tl, 1000)
		}
		ftp := cfg.FTPWatts
		if ftp <= 0 && plan.FTPWatts > 0 {
			ftp = plan.FTPWatts
		}
		if ftp <= 0 && report.Power != nil {
			ftp = report.Power.FTPWatts
		}
		comparison = raceplan.Compare(plan, terrain, ftp)
		report.Segments = comparison.Results
		report.Opportunities = comparison.Opportunities
	}

	report.Insights = GenerateInsights(tl, report.Power, report.Pacing, comparison)
	report.Notes = BuildRideNotes(report)
	return report
}

func newReportID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(rand.Reader, 0)).String()
}

func buildSummary(tl *fitstream.Timeline) RideSummary {
	s := RideSummary{
		StartTime:      tl.StartTime,
		ElapsedSeconds: tl.ElapsedSeconds(),
		MovingSeconds:  tl.MovingSeconds,
		DistanceKM:     tl.TotalDistanceM / 1000.0,
		SampleCount:    len(tl.Samples),
		SkippedRecords: tl.SkippedRecords,
	}
	if s.MovingSeconds > 0 {
		s.AvgSpeedKPH = tl.TotalDistanceM / s.MovingSeconds * 3.6
	}

	hrSum, hrN := 0.0, 0
	var prevAlt *float64
	for i := range tl.Samples {
		sample := &tl.Samples[i]
		if hr := sample.HeartRateBPM; hr != nil {
			hrSum += *hr
			hrN++
			if *hr > s.MaxHeartRateBPM {
				s.MaxHeartRateBPM = *hr
			}
		}
		if alt := sample.AltitudeM; alt != nil {
			if prevAlt != nil && *alt > *prevAlt {
				s.ElevationGainM += *alt - *prevAlt
			}
			prevAlt = alt
		}
	}
	if hrN > 0 {
		s.AvgHeartRateBPM = hrSum / float64(hrN)
	}
	return s
}
