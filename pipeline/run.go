package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/faist23/ridepace"
	"github.com/faist23/ridepace/raceplan"
)

// Run executes the full analysis pipeline and writes all artifacts into
// the output directory: report.json, the sample table, summary.md,
// summary.html, and charts.html.
func Run(opts Options) (*Result, error) {
	if strings.TrimSpace(opts.RidePath) == "" {
		return nil, fmt.Errorf("ride path is required")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "parquet"
	}
	if format != "parquet" && format != "csv" {
		return nil, fmt.Errorf("unsupported format %q (expected parquet|csv)", format)
	}
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	tl, err := DecodeRideFile(opts.RidePath)
	if err != nil {
		return nil, err
	}

	var plan *raceplan.Plan
	if strings.TrimSpace(opts.PlanPath) != "" {
		plan, err = raceplan.LoadPlan(opts.PlanPath)
		if err != nil {
			return nil, err
		}
	}

	report := ridepace.Analyze(tl, plan, nil, ridepace.Config{
		FTPWatts: opts.FTPWatts,
		WeightKG: opts.WeightKG,
	})

	result := &Result{
		OutputDir: opts.OutDir,
		ReportID:  report.ID,
	}

	result.ReportPath = filepath.Join(opts.OutDir, "report.json")
	if err := writeJSON(result.ReportPath, report); err != nil {
		return nil, fmt.Errorf("write report.json: %w", err)
	}

	result.SamplesPath = filepath.Join(opts.OutDir, "samples."+format)
	switch format {
	case "csv":
		if err := writeSamplesCSV(result.SamplesPath, tl); err != nil {
			return nil, fmt.Errorf("write samples csv: %w", err)
		}
	case "parquet":
		if err := writeSamplesParquet(result.SamplesPath, tl); err != nil {
			return nil, fmt.Errorf("write samples parquet: %w", err)
		}
	}

	result.SummaryPath = filepath.Join(opts.OutDir, "summary.md")
	if err := os.WriteFile(result.SummaryPath, []byte(report.Notes+"\n"), 0o644); err != nil {
		return nil, fmt.Errorf("write summary.md: %w", err)
	}

	result.HTMLPath = filepath.Join(opts.OutDir, "summary.html")
	if err := writeSummaryHTML(result.HTMLPath, report.Notes); err != nil {
		return nil, fmt.Errorf("write summary.html: %w", err)
	}

	result.ChartsPath = filepath.Join(opts.OutDir, "charts.html")
	chartsFile, err := os.Create(result.ChartsPath)
	if err != nil {
		return nil, fmt.Errorf("create charts.html: %w", err)
	}
	if err := writeCharts(chartsFile, tl, report); err != nil {
		_ = chartsFile.Close()
		return nil, fmt.Errorf("render charts.html: %w", err)
	}
	if err := chartsFile.Close(); err != nil {
		return nil, err
	}

	return result, nil
}

func writeSummaryHTML(path, markdown string) error {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
