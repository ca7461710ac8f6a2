package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"gorelia/adapters/excel"
	"gorelia/app"
	"gorelia/domain/lifetime"
	"gorelia/domain/reliability"
	"gorelia/internal/config"
	"gorelia/internal/container"
	"gorelia/internal/report"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// analysisFlags are shared by every command that reads a lifetime file
type analysisFlags struct {
	input   string
	sheet   string
	samples int
	workers int
	seed    int64
	guess   []float64
	mode    string
	alpha   float64
	format  string
}

func (f *analysisFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "Lifetime file (.xlsx, .csv or .json)")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "Worksheet to read from an .xlsx file (default: first sheet)")
	cmd.Flags().IntVar(&f.samples, "samples", 0, "Bootstrap samples (default: BOOTSTRAP_SAMPLES)")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Concurrent bootstrap tasks (default: BOOTSTRAP_WORKERS)")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "Random seed for reproducible resampling (0: clock)")
	cmd.Flags().Float64SliceVar(&f.guess, "guess", nil, "Initial Weibull guess as alpha,beta")
	cmd.Flags().StringVar(&f.mode, "mode", "", "Interval collapse mode: start|mid|end")
	cmd.Flags().Float64Var(&f.alpha, "alpha", 0, "Confidence level complement, e.g. 0.05")
	cmd.Flags().StringVar(&f.format, "format", "json", "Output format: json|markdown|html")
	_ = cmd.MarkFlagRequired("input")
}

func (f *analysisFlags) options() (app.AnalysisOptions, error) {
	opts := app.AnalysisOptions{
		Samples: f.samples,
		Mode:    lifetime.CollapseMode(f.mode),
		Alpha:   f.alpha,
	}
	switch len(f.guess) {
	case 0:
	case 2:
		opts.Guess = &reliability.InitialGuess{Alpha: f.guess[0], Beta: f.guess[1]}
	default:
		return opts, fmt.Errorf("--guess needs exactly two values (alpha,beta), got %d", len(f.guess))
	}
	return opts, nil
}

// setup loads configuration, applies flag overrides and reads the input file
func (f *analysisFlags) setup() (*container.Container, *lifetime.Dataset, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if f.workers > 0 {
		cfg.Bootstrap.Workers = f.workers
	}
	if f.seed != 0 {
		cfg.Bootstrap.Seed = f.seed
	}

	c, err := container.New(cfg)
	if err != nil {
		return nil, nil, err
	}

	readerConfig := excel.DefaultReaderConfig()
	readerConfig.Sheet = f.sheet
	ds, err := excel.NewDataReader(f.input, readerConfig, c.Logger).ReadDataset()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", f.input, err)
	}
	return c, ds, nil
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gorelia-cli",
		Short:         "Fit lifetime distributions and test their goodness of fit",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newFitCmd(),
		newGoodnessOfFitCmd(),
		newParametersCmd(),
		newLifetimesCmd(),
	)
	return rootCmd
}

func newFitCmd() *cobra.Command {
	var flags analysisFlags

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit Weibull, exponential and non-parametric models",
		Long: `Fit every supported model to a lifetime file and print the result as JSON.

Example: gorelia-cli fit --input lifetimes.xlsx --guess 100,1.5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ds, err := flags.setup()
			if err != nil {
				return err
			}
			opts, err := flags.options()
			if err != nil {
				return err
			}
			fits, err := c.Service().FitDistributions(ds, opts.Guess)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), fits)
		},
	}
	flags.register(cmd)
	return cmd
}

func newGoodnessOfFitCmd() *cobra.Command {
	var flags analysisFlags

	cmd := &cobra.Command{
		Use:   "gof",
		Short: "Bootstrap goodness-of-fit test for Weibull and exponential models",
		Long: `Compare the observed Kolmogorov-Smirnov statistics against their parametric
bootstrap distribution. Interval lifetimes are collapsed with --mode first.

Example: gorelia-cli gof --input lifetimes.csv --samples 500 --seed 42 --format markdown`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := report.ParseFormat(flags.format)
			if err != nil {
				return err
			}
			c, ds, err := flags.setup()
			if err != nil {
				return err
			}
			opts, err := flags.options()
			if err != nil {
				return err
			}

			start := time.Now()
			rep, err := c.Service().GoodnessOfFit(cmd.Context(), ds, opts)
			if err != nil {
				return err
			}
			c.Logger.With("CLI").Info("analysis %s finished in %s", rep.AnalysisID, time.Since(start).Round(time.Millisecond))
			return writeReport(cmd.OutOrStdout(), format, rep, rep.Markdown, rep.HTML)
		},
	}
	flags.register(cmd)
	return cmd
}

func newParametersCmd() *cobra.Command {
	var flags analysisFlags

	cmd := &cobra.Command{
		Use:   "params",
		Short: "Bootstrap confidence intervals for fitted parameters",
		Long: `Refit Weibull and exponential models on whole-record resamples and report
confidence intervals for alpha, beta and lambda.

Example: gorelia-cli params --input lifetimes.json --samples 200 --alpha 0.1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := report.ParseFormat(flags.format)
			if err != nil {
				return err
			}
			c, ds, err := flags.setup()
			if err != nil {
				return err
			}
			opts, err := flags.options()
			if err != nil {
				return err
			}
			rep, err := c.Service().BootstrapParameters(cmd.Context(), ds, opts)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), format, rep, rep.Markdown, rep.HTML)
		},
	}
	flags.register(cmd)
	return cmd
}

func newLifetimesCmd() *cobra.Command {
	var (
		recordsPath    string
		numObjects     int
		endObservation string
		observable     bool
	)

	cmd := &cobra.Command{
		Use:   "lifetimes",
		Short: "Derive censored lifetimes from object maintenance records",
		Long: `Turn a JSON array of object records (object_code, start_date, end_date,
interval_start, interval_end, observable) into censored lifetimes in hours.
Objects that never failed are added as right-censored up to --end-observation.

Example: gorelia-cli lifetimes --records leaks.json --num-objects 120 --end-observation 2016-06-30`,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(recordsPath)
			if err != nil {
				return err
			}
			var records []lifetime.ObjectLifetime
			if err := json.Unmarshal(raw, &records); err != nil {
				return fmt.Errorf("decode %s: %w", recordsPath, err)
			}

			src := app.Source{Records: records, Query: lifetime.Query{NumObjects: numObjects}}
			if endObservation != "" {
				if src.Query.EndObservation, err = time.Parse(time.DateOnly, endObservation); err != nil {
					return fmt.Errorf("--end-observation must be YYYY-MM-DD: %w", err)
				}
			}
			if cmd.Flags().Changed("observable") {
				src.Query.Observable = &observable
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c, err := container.New(cfg)
			if err != nil {
				return err
			}
			res, err := c.Service().CalculateLifetimes(cmd.Context(), src)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVar(&recordsPath, "records", "", "JSON file of object records")
	cmd.Flags().IntVar(&numObjects, "num-objects", 0, "Objects under observation, including those that never failed")
	cmd.Flags().StringVar(&endObservation, "end-observation", "", "End of the observation period (default: END_OBSERVATION_DATE)")
	cmd.Flags().BoolVar(&observable, "observable", false, "Treat failure dates as exactly observed")
	_ = cmd.MarkFlagRequired("records")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeReport(w io.Writer, format report.Format, v any, markdown, html func() (string, error)) error {
	var (
		out string
		err error
	)
	switch format {
	case report.FormatMarkdown:
		out, err = markdown()
	case report.FormatHTML:
		out, err = html()
	default:
		return writeJSON(w, v)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}
