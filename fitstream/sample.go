package fitstream

import (
	"sort"
	"time"
)

// The record-stream epoch: 1989-12-31T00:00:00Z as Unix seconds.
const epochOffsetUnix = 631065600

const semicircleToDegrees = 180.0 / 2147483648.0 // 2^31 semicircles = 180 degrees

// Sample is one instant in the ride. Timestamp is always present; every
// other field is optional and nil when the stream never supplied it.
type Sample struct {
	Timestamp    time.Time `json:"timestamp"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	AltitudeM    *float64  `json:"altitude_m,omitempty"`
	PowerW       *float64  `json:"power_w,omitempty"`
	HeartRateBPM *float64  `json:"heart_rate_bpm,omitempty"`
	CadenceRPM   *float64  `json:"cadence_rpm,omitempty"`
	SpeedMPS     *float64  `json:"speed_mps,omitempty"`
	TemperatureC *float64  `json:"temperature_c,omitempty"`
	DistanceM    *float64  `json:"distance_m,omitempty"`
}

// Timeline is the finished, immutable sequence of samples plus summary
// scalars. Samples are ordered by timestamp.
type Timeline struct {
	Samples        []Sample  `json:"samples"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	MovingSeconds  float64   `json:"moving_seconds"`
	TotalDistanceM float64   `json:"total_distance_m"`

	// SkippedRecords counts data messages dropped by the one-byte-skip
	// recovery for unknown local ids.
	SkippedRecords int `json:"skipped_records,omitempty"`
}

// NewTimeline orders samples by timestamp and derives the summary scalars.
// Moving time sums inter-sample intervals where the arriving sample's speed
// exceeds 1.0 m/s.
func NewTimeline(samples []Sample) *Timeline {
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})

	tl := &Timeline{Samples: samples}
	if len(samples) == 0 {
		return tl
	}
	tl.StartTime = samples[0].Timestamp
	tl.EndTime = samples[len(samples)-1].Timestamp

	for i := 1; i < len(samples); i++ {
		delta := samples[i].Timestamp.Sub(samples[i-1].Timestamp).Seconds()
		if delta <= 0 {
			continue
		}
		if speed := samples[i].SpeedMPS; speed != nil && *speed > 1.0 {
			tl.MovingSeconds += delta
		}
	}
	for i := len(samples) - 1; i >= 0; i-- {
		if samples[i].DistanceM != nil {
			tl.TotalDistanceM = *samples[i].DistanceM
			break
		}
	}
	return tl
}

// ElapsedSeconds is the wall-clock span of the timeline.
func (t *Timeline) ElapsedSeconds() float64 {
	if len(t.Samples) < 2 {
		return 0
	}
	return t.EndTime.Sub(t.StartTime).Seconds()
}

// HasPower reports whether any sample carries a power reading. Capability
// flags are recomputed from the samples, never stored.
func (t *Timeline) HasPower() bool {
	for i := range t.Samples {
		if t.Samples[i].PowerW != nil {
			return true
		}
	}
	return false
}

// HasHeartRate reports whether any sample carries a heart-rate reading.
func (t *Timeline) HasHeartRate() bool {
	for i := range t.Samples {
		if t.Samples[i].HeartRateBPM != nil {
			return true
		}
	}
	return false
}

// HasGPS reports whether any sample carries a position fix.
func (t *Timeline) HasGPS() bool {
	for i := range t.Samples {
		if t.Samples[i].Latitude != nil && t.Samples[i].Longitude != nil {
			return true
		}
	}
	return false
}

// PowerSeries returns the ordered power values; gaps are omitted, not
// interpolated.
func (t *Timeline) PowerSeries() []float64 {
	out := make([]float64, 0, len(t.Samples))
	for i := range t.Samples {
		if t.Samples[i].PowerW != nil {
			out = append(out, *t.Samples[i].PowerW)
		}
	}
	return out
}

// sampleAssembler folds decoded record fields into samples.
//
// Carry-forward semantics: every slot except the timestamp keeps its last
// decoded value until a later record re-supplies it, so a field omitted from
// record N inherits record N-1's value. This mirrors the recording devices'
// habit of emitting slow-changing fields (temperature, altitude) at a lower
// rate than the record cadence. A sample is only materialized when the
// current record decoded a timestamp of its own.
type sampleAssembler struct {
	recordTime    time.Time
	recordHasTime bool

	lat, lon, alt, power, hr, cadence, speed, temp, distance optField

	samples []Sample
}

type optField struct {
	value float64
	set   bool
}

func (f *optField) put(v float64) { f.value = v; f.set = true }

func (f *optField) ptr() *float64 {
	if !f.set {
		return nil
	}
	v := f.value
	return &v
}

// apply routes one decoded record field into the assembler, performing unit
// conversion at decode time. Unknown field numbers and string values in
// numeric slots are ignored.
func (a *sampleAssembler) apply(fieldNumber uint8, value wireValue) {
	if value.str {
		return
	}
	v := value.f
	switch fieldNumber {
	case fieldTimestamp:
		a.recordTime = time.Unix(epochOffsetUnix+int64(v), 0).UTC()
		a.recordHasTime = true
	case fieldLatitude:
		a.lat.put(v * semicircleToDegrees)
	case fieldLongitude:
		a.lon.put(v * semicircleToDegrees)
	case fieldAltitude:
		a.alt.put(v/5.0 - 500.0)
	case fieldHeartRate:
		a.hr.put(v)
	case fieldCadence:
		a.cadence.put(v)
	case fieldDistance:
		a.distance.put(v / 100.0)
	case fieldSpeed:
		a.speed.put(v / 1000.0)
	case fieldPower:
		a.power.put(v)
	case fieldTemperature:
		a.temp.put(v)
	}
}

// finishRecord materializes a sample if the record supplied a timestamp.
// Carried slots stay set for the next record; only the timestamp resets.
func (a *sampleAssembler) finishRecord() {
	if !a.recordHasTime {
		return
	}
	a.samples = append(a.samples, Sample{
		Timestamp:    a.recordTime,
		Latitude:     a.lat.ptr(),
		Longitude:    a.lon.ptr(),
		AltitudeM:    a.alt.ptr(),
		PowerW:       a.power.ptr(),
		HeartRateBPM: a.hr.ptr(),
		CadenceRPM:   a.cadence.ptr(),
		SpeedMPS:     a.speed.ptr(),
		TemperatureC: a.temp.ptr(),
		DistanceM:    a.distance.ptr(),
	})
	a.recordHasTime = false
}
