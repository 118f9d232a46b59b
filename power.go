package ridepace

import (
	"math"

	"github.com/faist23/ridepace/fitstream"
)

const secondsPerHour = 3600.0

// npWindow is the normalized-power trailing window in samples, assuming the
// device records one sample per tick.
const npWindow = 30

// peakDurations are the fixed peak-power window lengths in seconds.
var peakDurations = []int{5, 60, 300, 1200}

// ZoneBoundary is one FTP-relative power zone band.
type ZoneBoundary struct {
	Zone      string  `json:"zone"`
	MinPctFTP float64 `json:"min_pct_ftp"`
	MaxPctFTP float64 `json:"max_pct_ftp"`
}

// DefaultZones returns the standard seven-zone FTP model.
func DefaultZones() []ZoneBoundary {
	return []ZoneBoundary{
		{Zone: "Z1 Active Recovery", MinPctFTP: 0, MaxPctFTP: 55},
		{Zone: "Z2 Endurance", MinPctFTP: 55, MaxPctFTP: 75},
		{Zone: "Z3 Tempo", MinPctFTP: 75, MaxPctFTP: 90},
		{Zone: "Z4 Threshold", MinPctFTP: 90, MaxPctFTP: 105},
		{Zone: "Z5 VO2", MinPctFTP: 105, MaxPctFTP: 120},
		{Zone: "Z6 Anaerobic", MinPctFTP: 120, MaxPctFTP: 150},
		{Zone: "Z7 Neuromuscular", MinPctFTP: 150, MaxPctFTP: 1000},
	}
}

// ZoneDuration stores time spent in a given FTP-based power zone.
type ZoneDuration struct {
	Zone       string  `json:"zone"`
	MinPctFTP  float64 `json:"min_pct_ftp"`
	MaxPctFTP  float64 `json:"max_pct_ftp"`
	Seconds    float64 `json:"seconds"`
	Percentage float64 `json:"percentage"`
}

// PeakPower is the best average power held for a fixed duration.
type PeakPower struct {
	DurationS int     `json:"duration_s"`
	Watts     float64 `json:"watts"`
}

// PowerMetrics is the scalar block derived from the power sub-series.
// The whole block is nil on rides without a power meter.
type PowerMetrics struct {
	AvgPowerW        float64        `json:"avg_power_w"`
	MaxPowerW        float64        `json:"max_power_w"`
	NormalizedPowerW float64        `json:"normalized_power_w"`
	VariabilityIndex float64        `json:"variability_index"`
	FTPWatts         float64        `json:"ftp_w"`
	FTPSource        string         `json:"ftp_source"` // input|estimated|unavailable
	IntensityFactor  float64        `json:"intensity_factor"`
	TrainingStress   float64        `json:"training_stress_score"`
	WorkKilojoules   float64        `json:"work_kilojoules"`
	Best20MinPowerW  float64        `json:"best_20min_power_w"`
	NPPerKG          float64        `json:"np_w_per_kg,omitempty"`
	PeakPowers       []PeakPower    `json:"peak_powers,omitempty"`
	Zones            []ZoneDuration `json:"power_zones,omitempty"`
}

// ComputePowerMetrics derives the power metric block from the timeline.
// Returns nil when the ride has no power samples; missing sensors are not
// errors.
func ComputePowerMetrics(tl *fitstream.Timeline, cfg Config) *PowerMetrics {
	power := tl.PowerSeries()
	if len(power) == 0 {
		return nil
	}

	pm := &PowerMetrics{
		AvgPowerW:        average(power),
		MaxPowerW:        maxValue(power),
		NormalizedPowerW: normalizedPower(power),
		Best20MinPowerW:  bestRollingPower(power, 20*60),
		WorkKilojoules:   totalWorkKJ(tl),
	}

	// VI is undefined when average power is zero; report 1.0 in that case.
	pm.VariabilityIndex = 1.0
	if pm.AvgPowerW > 0 {
		pm.VariabilityIndex = pm.NormalizedPowerW / pm.AvgPowerW
	}

	pm.FTPWatts = cfg.FTPWatts
	pm.FTPSource = "input"
	if pm.FTPWatts <= 0 {
		if estimated := pm.Best20MinPowerW * 0.95; estimated > 0 {
			pm.FTPWatts = estimated
			pm.FTPSource = "estimated"
		} else {
			pm.FTPWatts = 0
			pm.FTPSource = "unavailable"
		}
	}

	if cfg.WeightKG > 0 {
		pm.NPPerKG = pm.NormalizedPowerW / cfg.WeightKG
	}

	if pm.FTPWatts > 0 {
		pm.IntensityFactor = pm.NormalizedPowerW / pm.FTPWatts
	}
	pm.TrainingStress = (tl.MovingSeconds / secondsPerHour) * pm.IntensityFactor * pm.IntensityFactor * 100.0

	for _, d := range peakDurations {
		if watts, ok := peakPower(power, d); ok {
			pm.PeakPowers = append(pm.PeakPowers, PeakPower{DurationS: d, Watts: watts})
		}
	}

	zones := cfg.Zones
	if zones == nil {
		zones = DefaultZones()
	}
	pm.Zones = buildZoneDistribution(power, pm.FTPWatts, zones, tl.MovingSeconds)

	return pm
}

// normalizedPower implements the exact NP sequence: 30-sample trailing mean
// for every sample (partial at the head), 4th power, mean, 4th root.
func normalizedPower(power []float64) float64 {
	if len(power) == 0 {
		return 0
	}
	sum := 0.0
	fourthTotal := 0.0
	for i, p := range power {
		sum += p
		width := npWindow
		if i+1 < npWindow {
			width = i + 1
		} else if i >= npWindow {
			sum -= power[i-npWindow]
		}
		rolling := sum / float64(width)
		fourthTotal += math.Pow(rolling, 4)
	}
	return math.Pow(fourthTotal/float64(len(power)), 0.25)
}

// peakPower returns the best mean power over a contiguous window of seconds
// samples, or false when the series is shorter than the window.
func peakPower(power []float64, seconds int) (float64, bool) {
	if seconds <= 0 || len(power) < seconds {
		return 0, false
	}
	sum := 0.0
	for i := 0; i < seconds; i++ {
		sum += power[i]
	}
	best := sum / float64(seconds)
	for i := seconds; i < len(power); i++ {
		sum += power[i] - power[i-seconds]
		if current := sum / float64(seconds); current > best {
			best = current
		}
	}
	return best, true
}

// bestRollingPower is peakPower with a short-series fallback: series
// shorter than the window report their plain average instead of nothing,
// so FTP estimation still works on short rides.
func bestRollingPower(power []float64, seconds int) float64 {
	if watts, ok := peakPower(power, seconds); ok {
		return watts
	}
	return average(power)
}

func buildZoneDistribution(power []float64, ftp float64, zones []ZoneBoundary, movingSeconds float64) []ZoneDuration {
	if ftp <= 0 || len(power) == 0 {
		return nil
	}

	counts := make([]float64, len(zones))
	counted := 0.0
	for _, p := range power {
		if p < 0 {
			continue
		}
		percent := (p / ftp) * 100.0
		for i, z := range zones {
			if percent >= z.MinPctFTP && percent < z.MaxPctFTP {
				counts[i]++
				counted++
				break
			}
		}
	}
	if counted == 0 {
		return nil
	}

	denominator := movingSeconds
	if denominator <= 0 {
		denominator = counted
	}

	out := make([]ZoneDuration, 0, len(zones))
	for i, z := range zones {
		out = append(out, ZoneDuration{
			Zone:       z.Zone,
			MinPctFTP:  z.MinPctFTP,
			MaxPctFTP:  z.MaxPctFTP,
			Seconds:    counts[i],
			Percentage: (counts[i] / denominator) * 100.0,
		})
	}
	return out
}

// totalWorkKJ integrates power over inter-sample intervals, treating gaps
// over 5 s as dropouts rather than steady effort.
func totalWorkKJ(tl *fitstream.Timeline) float64 {
	work := 0.0
	for i := 1; i < len(tl.Samples); i++ {
		prev := tl.Samples[i-1]
		if prev.PowerW == nil {
			continue
		}
		delta := tl.Samples[i].Timestamp.Sub(prev.Timestamp).Seconds()
		if delta <= 0 || delta > 5 {
			delta = 1
		}
		work += *prev.PowerW * delta
	}
	return work / 1000.0
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

func maxValue(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func stddev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
