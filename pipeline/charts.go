package pipeline

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/faist23/ridepace"
	"github.com/faist23/ridepace/fitstream"
)

// writeCharts renders the ride chart page: power and altitude over elapsed
// time, plus the pacing-bucket bar chart when pacing analysis exists.
func writeCharts(w io.Writer, tl *fitstream.Timeline, report *ridepace.Report) error {
	page := components.NewPage()
	page.AddCharts(buildRideLineChart(tl))
	if report.Pacing != nil {
		page.AddCharts(buildPacingBarChart(report.Pacing))
	}
	return page.Render(w)
}

func buildRideLineChart(tl *fitstream.Timeline) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "macarons"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Ride",
			Subtitle: "Power and altitude over elapsed time",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
			AxisPointer: &opts.AxisPointer{
				Type: "cross",
			},
		}),
	)

	xAxis := make([]string, 0, len(tl.Samples))
	power := make([]opts.LineData, 0, len(tl.Samples))
	altitude := make([]opts.LineData, 0, len(tl.Samples))
	for i := range tl.Samples {
		s := &tl.Samples[i]
		elapsed := s.Timestamp.Sub(tl.StartTime).Seconds()
		xAxis = append(xAxis, fmt.Sprintf("%.0f", elapsed))
		power = append(power, lineDataPtr(s.PowerW))
		altitude = append(altitude, lineDataPtr(s.AltitudeM))
	}

	line.SetXAxis(xAxis)
	line.AddSeries("Power (W)", power)
	line.AddSeries("Altitude (m)", altitude)
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	return line
}

func buildPacingBarChart(pa *ridepace.PacingAnalysis) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "macarons"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Pacing",
			Subtitle: fmt.Sprintf("Average power per 10-minute segment (consistency %.0f/100)", pa.ConsistencyScore),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:         "Power (W)",
			NameLocation: "middle",
			NameGap:      50,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Trigger: "axis",
			AxisPointer: &opts.AxisPointer{
				Type: "shadow",
			},
		}),
	)

	xAxis := make([]string, 0, len(pa.Segments))
	values := make([]opts.BarData, 0, len(pa.Segments))
	for _, seg := range pa.Segments {
		xAxis = append(xAxis, fmt.Sprintf("min %.0f", seg.StartOffsetS/60.0))
		values = append(values, opts.BarData{Value: seg.AvgPowerW})
	}
	bar.SetXAxis(xAxis)
	bar.AddSeries("Avg Power", values)
	return bar
}

func lineDataPtr(v *float64) opts.LineData {
	if v == nil {
		return opts.LineData{Value: nil}
	}
	return opts.LineData{Value: *v}
}
