package pipeline

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/faist23/ridepace/fitstream"
)

func writeSamplesCSV(path string, tl *fitstream.Timeline) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"ts_utc_iso", "elapsed_s", "power_w", "hr_bpm", "cadence_rpm",
		"speed_mps", "distance_m", "altitude_m", "temperature_c", "latitude", "longitude",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for i := range tl.Samples {
		s := &tl.Samples[i]
		row := []string{
			s.Timestamp.UTC().Format(time.RFC3339),
			formatFloat(s.Timestamp.Sub(tl.StartTime).Seconds()),
			formatFloatPtr(s.PowerW),
			formatFloatPtr(s.HeartRateBPM),
			formatFloatPtr(s.CadenceRPM),
			formatFloatPtr(s.SpeedMPS),
			formatFloatPtr(s.DistanceM),
			formatFloatPtr(s.AltitudeM),
			formatFloatPtr(s.TemperatureC),
			formatFloatPtr(s.Latitude),
			formatFloatPtr(s.Longitude),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

type sampleParquetRow struct {
	TSUTCISO     string  `parquet:"name=ts_utc_iso, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	ElapsedS     float64 `parquet:"name=elapsed_s, type=DOUBLE"`
	PowerW       float64 `parquet:"name=power_w, type=DOUBLE"`
	HRBPM        float64 `parquet:"name=hr_bpm, type=DOUBLE"`
	CadenceRPM   float64 `parquet:"name=cadence_rpm, type=DOUBLE"`
	SpeedMPS     float64 `parquet:"name=speed_mps, type=DOUBLE"`
	DistanceM    float64 `parquet:"name=distance_m, type=DOUBLE"`
	AltitudeM    float64 `parquet:"name=altitude_m, type=DOUBLE"`
	TemperatureC float64 `parquet:"name=temperature_c, type=DOUBLE"`
	Latitude     float64 `parquet:"name=latitude, type=DOUBLE"`
	Longitude    float64 `parquet:"name=longitude, type=DOUBLE"`
}

func writeSamplesParquet(path string, tl *fitstream.Timeline) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	pw, err := writer.NewParquetWriter(fw, new(sampleParquetRow), 4)
	if err != nil {
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for i := range tl.Samples {
		s := &tl.Samples[i]
		row := sampleParquetRow{
			TSUTCISO:     s.Timestamp.UTC().Format(time.RFC3339),
			ElapsedS:     s.Timestamp.Sub(tl.StartTime).Seconds(),
			PowerW:       valueOrNaN(s.PowerW),
			HRBPM:        valueOrNaN(s.HeartRateBPM),
			CadenceRPM:   valueOrNaN(s.CadenceRPM),
			SpeedMPS:     valueOrNaN(s.SpeedMPS),
			DistanceM:    valueOrNaN(s.DistanceM),
			AltitudeM:    valueOrNaN(s.AltitudeM),
			TemperatureC: valueOrNaN(s.TemperatureC),
			Latitude:     valueOrNaN(s.Latitude),
			Longitude:    valueOrNaN(s.Longitude),
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return err
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
