// Package raceplan models pacing plans and compares them against the ride
// that was actually recorded.
package raceplan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PlannedSegment is one target step of a pacing plan. It is owned by the
// caller and never mutated by this package.
type PlannedSegment struct {
	Label        string  `yaml:"label" json:"label"`
	TargetPowerW float64 `yaml:"target_power_w" json:"target_power_w"`
	TargetTimeS  float64 `yaml:"target_time_s,omitempty" json:"target_time_s,omitempty"`
	DistanceM    float64 `yaml:"distance_m" json:"distance_m"`
	Strategy     string  `yaml:"strategy,omitempty" json:"strategy,omitempty"`
}

// Plan is an ordered list of planned segments for a route.
type Plan struct {
	Name     string           `yaml:"name,omitempty" json:"name,omitempty"`
	FTPWatts float64          `yaml:"ftp_w,omitempty" json:"ftp_w,omitempty"`
	Segments []PlannedSegment `yaml:"segments" json:"segments"`
}

// LoadPlan reads and validates a pacing plan from a YAML file.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan file: %w", err)
	}
	return ParsePlan(data)
}

// ParsePlan parses and validates YAML plan bytes.
func ParsePlan(data []byte) (*Plan, error) {
	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parse plan yaml: %w", err)
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}

// Validate checks the plan holds at least one well-formed segment.
func (p *Plan) Validate() error {
	if len(p.Segments) == 0 {
		return fmt.Errorf("plan has no segments")
	}
	for i, seg := range p.Segments {
		if seg.TargetPowerW <= 0 {
			return fmt.Errorf("plan segment %d (%q): target power must be positive", i, seg.Label)
		}
		if seg.DistanceM <= 0 {
			return fmt.Errorf("plan segment %d (%q): distance must be positive", i, seg.Label)
		}
	}
	return nil
}

// TotalDistanceM is the planned route length.
func (p *Plan) TotalDistanceM() float64 {
	total := 0.0
	for _, seg := range p.Segments {
		total += seg.DistanceM
	}
	return total
}

// SegmentAt locates the planned segment whose cumulative-distance range
// contains offsetM. Offsets past the plan's end fall back to the last
// segment.
func (p *Plan) SegmentAt(offsetM float64) (PlannedSegment, int) {
	cumulative := 0.0
	for i, seg := range p.Segments {
		cumulative += seg.DistanceM
		if offsetM < cumulative {
			return seg, i
		}
	}
	last := len(p.Segments) - 1
	return p.Segments[last], last
}
