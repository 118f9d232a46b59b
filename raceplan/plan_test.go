package raceplan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const planYAML = `
name: hill circuit
ftp_w: 260
segments:
  - label: rollout
    target_power_w: 180
    distance_m: 2000
    strategy: settle in
  - label: main climb
    target_power_w: 250
    target_time_s: 600
    distance_m: 3000
  - label: descent
    target_power_w: 120
    distance_m: 2500
`

func TestParsePlan(t *testing.T) {
	plan, err := ParsePlan([]byte(planYAML))
	require.NoError(t, err)
	require.Equal(t, "hill circuit", plan.Name)
	require.Equal(t, 260.0, plan.FTPWatts)
	require.Len(t, plan.Segments, 3)
	require.Equal(t, "main climb", plan.Segments[1].Label)
	require.Equal(t, 600.0, plan.Segments[1].TargetTimeS)
	require.Equal(t, 7500.0, plan.TotalDistanceM())
}

func TestLoadPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(planYAML), 0o644))

	plan, err := LoadPlan(path)
	require.NoError(t, err)
	require.Len(t, plan.Segments, 3)
}

func TestParsePlanRejectsBadSegments(t *testing.T) {
	_, err := ParsePlan([]byte("segments: []"))
	require.Error(t, err)

	_, err = ParsePlan([]byte(`
segments:
  - label: bad
    target_power_w: 0
    distance_m: 1000
`))
	require.Error(t, err)

	_, err = ParsePlan([]byte(`
segments:
  - label: bad
    target_power_w: 200
    distance_m: -5
`))
	require.Error(t, err)
}

func TestSegmentAtCumulativeMatching(t *testing.T) {
	plan, err := ParsePlan([]byte(planYAML))
	require.NoError(t, err)

	seg, idx := plan.SegmentAt(0)
	require.Equal(t, "rollout", seg.Label)
	require.Equal(t, 0, idx)

	seg, idx = plan.SegmentAt(2500)
	require.Equal(t, "main climb", seg.Label)
	require.Equal(t, 1, idx)

	// Offsets past the plan end fall back to the last segment.
	seg, idx = plan.SegmentAt(99999)
	require.Equal(t, "descent", seg.Label)
	require.Equal(t, 2, idx)
}
