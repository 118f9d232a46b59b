package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/faist23/ridepace/fitstream"
	"github.com/faist23/ridepace/pipeline"
)

func main() {
	// Missing .env is fine; flags and real env still apply.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "ridepace",
		Usage: "analyze a ride recording against a pacing plan",
		Commands: []*cli.Command{
			analyzeCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", fitstream.DecodeErrorMessage(err))
		os.Exit(1)
	}
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "decode a ride file and write the full report artifacts",
		ArgsUsage: "<ride-file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "output directory for report artifacts",
				Value:   envDefault("RIDEPACE_OUT", "ridepace_out"),
			},
			&cli.StringFlag{
				Name:  "plan",
				Usage: "pacing plan YAML file to compare against",
			},
			&cli.Float64Flag{
				Name:  "ftp",
				Usage: "rider FTP in watts (estimated from best 20 min power when omitted)",
				Value: envFloat("RIDEPACE_FTP"),
			},
			&cli.Float64Flag{
				Name:  "weight",
				Usage: "rider weight in kg",
				Value: envFloat("RIDEPACE_WEIGHT_KG"),
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "sample table format: parquet or csv",
				Value: "parquet",
			},
		},
		Action: runAnalyze,
	}
}

func runAnalyze(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one ride file argument")
	}

	result, err := pipeline.Run(pipeline.Options{
		RidePath: c.Args().First(),
		PlanPath: c.String("plan"),
		OutDir:   c.String("out"),
		FTPWatts: c.Float64("ftp"),
		WeightKG: c.Float64("weight"),
		Format:   c.String("format"),
	})
	if err != nil {
		return err
	}

	fmt.Printf("report %s written to %s\n", result.ReportID, result.OutputDir)
	fmt.Println("  report:", result.ReportPath)
	fmt.Println("  samples:", result.SamplesPath)
	fmt.Println("  summary:", result.SummaryPath)
	fmt.Println("  html:", result.HTMLPath)
	fmt.Println("  charts:", result.ChartsPath)
	return nil
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string) float64 {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}
