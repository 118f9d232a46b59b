// Package pipeline runs the whole analysis end to end: decode a ride file,
// compare it against a pacing plan, and write the report artifacts.
package pipeline

// Options configures one pipeline run.
type Options struct {
	RidePath string
	PlanPath string
	OutDir   string
	FTPWatts float64
	WeightKG float64
	Format   string // parquet|csv
}

// Result returns generated output paths.
type Result struct {
	OutputDir   string `json:"output_dir"`
	ReportPath  string `json:"report_path"`
	SamplesPath string `json:"samples_path"`
	SummaryPath string `json:"summary_path"`
	HTMLPath    string `json:"html_path"`
	ChartsPath  string `json:"charts_path"`
	ReportID    string `json:"report_id"`
}
