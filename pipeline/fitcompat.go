package pipeline

import (
	"bytes"
	"fmt"
	"os"

	"github.com/tormoder/fit"

	"github.com/faist23/ridepace/fitstream"
)

// IsStandardFIT reports whether the file carries the ".FIT" marker that
// Garmin-style files embed at header bytes 8-11. Files without it go
// through the native stream decoder instead.
func IsStandardFIT(data []byte) bool {
	return len(data) >= 12 && bytes.Equal(data[8:12], []byte(".FIT"))
}

// DecodeRideFile decodes either a standard FIT activity file or a raw
// record stream into a timeline, choosing the decoder from the header.
func DecodeRideFile(path string) (*fitstream.Timeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ride file: %w", err)
	}
	if IsStandardFIT(data) {
		return DecodeStandardFIT(data)
	}
	return fitstream.Decode(data)
}

// DecodeStandardFIT decodes a CRC-bearing FIT activity file and converts
// its record messages into the native timeline representation.
func DecodeStandardFIT(data []byte) (*fitstream.Timeline, error) {
	decoded, err := fit.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode fit file: %w", err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("fit file is not an activity: %w", err)
	}

	samples := make([]fitstream.Sample, 0, len(activity.Records))
	for _, rr := range activity.Records {
		if rr == nil || rr.Timestamp.IsZero() {
			continue
		}
		s := fitstream.Sample{Timestamp: rr.Timestamp.UTC()}

		if rr.PositionLat.Semicircles() != 0 && rr.PositionLong.Semicircles() != 0 {
			s.Latitude = floatPtr(rr.PositionLat.Degrees())
			s.Longitude = floatPtr(rr.PositionLong.Degrees())
		}
		if rr.Altitude != 0 && rr.Altitude != ^uint16(0) {
			s.AltitudeM = floatPtr(float64(rr.Altitude)/5.0 - 500.0)
		}
		if rr.Speed != 0 && rr.Speed != ^uint16(0) {
			s.SpeedMPS = floatPtr(float64(rr.Speed) / 1000.0)
		}
		if rr.Distance != 0 && rr.Distance != ^uint32(0) {
			s.DistanceM = floatPtr(float64(rr.Distance) / 100.0)
		}
		if rr.HeartRate != 0 && rr.HeartRate != ^uint8(0) {
			s.HeartRateBPM = floatPtr(float64(rr.HeartRate))
		}
		if rr.Cadence != 0 && rr.Cadence != ^uint8(0) {
			s.CadenceRPM = floatPtr(float64(rr.Cadence))
		}
		if rr.Power != 0 && rr.Power != ^uint16(0) {
			s.PowerW = floatPtr(float64(rr.Power))
		}
		if rr.Temperature != 0x7F {
			s.TemperatureC = floatPtr(float64(rr.Temperature))
		}
		samples = append(samples, s)
	}
	if len(samples) == 0 {
		return nil, fitstream.ErrNoActivityData
	}
	return fitstream.NewTimeline(samples), nil
}

func floatPtr(v float64) *float64 {
	out := v
	return &out
}
