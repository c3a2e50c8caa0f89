package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/san-kum/fieldsim/internal/automation"
	"github.com/san-kum/fieldsim/internal/config"
	"github.com/san-kum/fieldsim/internal/export"
	"github.com/san-kum/fieldsim/internal/metrics"
	"github.com/san-kum/fieldsim/internal/season"
	"github.com/san-kum/fieldsim/internal/sim"
	"github.com/san-kum/fieldsim/internal/storage"
	"github.com/san-kum/fieldsim/internal/telemetry"
)

const envPrefix = "FIELDSIM"

var (
	v   = viper.New()
	log = zap.NewNop()
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "fieldsim",
		Short:         "robot competition field simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			l, err := telemetry.NewLogger(v.GetString("log-level"), v.GetString("log-format"))
			if err != nil {
				return err
			}
			log = l
			return nil
		},
	}

	rootCmd.PersistentFlags().String("data", ".fieldsim", "data directory")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (json or console)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run one match",
		Args:  cobra.NoArgs,
		RunE:  runMatch,
	}
	addMatchFlags(runCmd)
	runCmd.Flags().Uint64("seed", 0, "random seed")
	runCmd.Flags().String("sqlite", "", "also write telemetry to this sqlite database")
	runCmd.Flags().String("metrics-addr", "", "serve prometheus metrics on this address while running")
	runCmd.Flags().Bool("no-save", false, "do not store the run")
	runCmd.Flags().StringSlice("trace", nil, "print the final value of telemetry keys with these prefixes")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "run seeded copies of a match and summarize their metrics",
		Args:  cobra.NoArgs,
		RunE:  runEnsemble,
	}
	addMatchFlags(ensembleCmd)
	ensembleCmd.Flags().IntP("runs", "n", 10, "number of runs")
	ensembleCmd.Flags().Uint64("seed", 0, "seed of the first run")
	ensembleCmd.Flags().Int("parallel", 0, "runs in flight (0 for GOMAXPROCS)")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "draw the robot path over the field as SVG, or telemetry columns as text charts",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	plotCmd.Flags().Float64("scale", 50, "pixels per meter")
	plotCmd.Flags().StringSlice("series", nil, "chart these telemetry columns instead of the field svg")

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "inspect stored runs",
	}
	runsCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "list runs",
			Args:  cobra.NoArgs,
			RunE:  listRuns,
		},
		&cobra.Command{
			Use:   "show [run_id]",
			Short: "show run metadata",
			Args:  cobra.ExactArgs(1),
			RunE:  showRun,
		},
		&cobra.Command{
			Use:   "export [run_id]",
			Short: "export run data to JSON",
			Args:  cobra.ExactArgs(1),
			RunE:  exportRun,
		},
		plotCmd,
	)

	presetsCmd := &cobra.Command{
		Use:   "presets [kind]",
		Short: "list robot presets, or component presets of one kind",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}
	presetsCmd.Flags().String("season", config.DefaultSeason, "season")

	rootCmd.AddCommand(runCmd, ensembleCmd, runsCmd, presetsCmd)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addMatchFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "config file path (yaml)")
	cmd.Flags().String("season", config.DefaultSeason, "season")
	cmd.Flags().String("preset", "default", "robot preset")
	cmd.Flags().String("script", "", "driver script (yaml)")
	cmd.Flags().Float64("duration", 0, "match duration in seconds (0 keeps the config's)")
	cmd.Flags().Bool("validate", false, "stop at the first non-finite sample")
}

// loadConfig reads --config when given, otherwise the named preset.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := v.GetString("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.GetPreset(v.GetString("season"), v.GetString("preset"))
	}
	if err != nil {
		return nil, err
	}
	if d := v.GetFloat64("duration"); d > 0 {
		cfg.Duration = d
	}
	return cfg, cfg.Validate()
}

func newRunner(cfg *config.Config, opts ...sim.Option) (*sim.Runner, error) {
	opts = append(opts, sim.WithLogger(log))
	if path := v.GetString("script"); path != "" {
		script, err := automation.LoadScript(path)
		if err != nil {
			return nil, fmt.Errorf("script %s: %w", path, err)
		}
		opts = append(opts, sim.WithScript(script))
	}
	r, err := sim.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	for _, m := range metrics.Defaults(cfg.Period) {
		r.AddMetric(m)
	}
	return r, nil
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	runID := uuid.NewString()
	var (
		sinks []telemetry.Sink
		opts  []sim.Option
	)

	if path := v.GetString("sqlite"); path != "" {
		db, err := telemetry.OpenSQLite(path, runID, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Warn("closing sqlite sink", zap.Error(err))
			}
			if n := db.Dropped(); n > 0 {
				log.Warn("telemetry rows dropped", zap.Int64("rows", n))
			}
		}()
		sinks = append(sinks, db)
	}

	if addr := v.GetString("metrics-addr"); addr != "" {
		reg := prometheus.NewRegistry()
		am, err := telemetry.NewArenaMetrics(reg, "fieldsim")
		if err != nil {
			return err
		}
		gauges, err := telemetry.NewGaugeSink(reg, "fieldsim")
		if err != nil {
			return err
		}
		sinks = append(sinks, gauges)
		opts = append(opts, sim.WithArenaMetrics(am))

		srv := &http.Server{
			Addr:              addr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server", zap.Error(err))
			}
		}()
		defer func() {
			shutdown, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			srv.Shutdown(shutdown)
		}()
		log.Info("serving metrics", zap.String("addr", addr))
	}

	var rec *telemetry.Recorder
	if len(v.GetStringSlice("trace")) > 0 {
		rec = telemetry.NewRecorder(1)
		sinks = append(sinks, rec)
	}

	if len(sinks) > 0 {
		opts = append(opts, sim.WithSink(telemetry.Multi(sinks...)))
	}

	r, err := newRunner(cfg, opts...)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := r.Run(ctx, sim.Config{
		Seed:          v.GetUint64("seed"),
		ValidateState: v.GetBool("validate"),
	})
	if result == nil {
		return err
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "run stopped early: %v\n", err)
	}
	elapsed := time.Since(start)

	if !v.GetBool("no-save") {
		st := storage.New(v.GetString("data"))
		if err := st.Init(); err != nil {
			return err
		}
		if _, err := st.SaveAs(runID, cfg, v.GetString("script"), result); err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	final := result.Final()
	fmt.Printf("periods: %d (%.2fs sim, %v wall)\n", result.Periods, final.Time, elapsed.Round(time.Millisecond))
	fmt.Printf("final pose: x=%.3f y=%.3f heading=%.3f\n", final.Pose.X, final.Pose.Y, final.Pose.Heading)
	fmt.Printf("scored: %d launched: %d held: %d\n", result.Scored, result.Launched, final.Held)
	printMetrics(result.Metrics)
	if rec != nil {
		printTrace(rec, v.GetStringSlice("trace"))
	}
	return nil
}

func printTrace(rec *telemetry.Recorder, prefixes []string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY	T	VALUE")
	for _, key := range rec.Keys() {
		for _, p := range prefixes {
			if !strings.HasPrefix(key, p) {
				continue
			}
			if s := rec.Series(key); len(s) > 0 {
				last := s[len(s)-1]
				fmt.Fprintf(w, "%s\t%.2f\t%.4f\n", key, last.T, last.V)
			}
			break
		}
	}
	w.Flush()
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.4f\n", name, m[name])
	}
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	r, err := newRunner(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	n := v.GetInt("runs")
	if n <= 0 {
		return fmt.Errorf("runs must be positive, got %d", n)
	}
	e := sim.NewEnsemble(r, n, v.GetUint64("seed")).SetLimit(v.GetInt("parallel"))
	results, err := e.Run(ctx, sim.Config{ValidateState: v.GetBool("validate")})
	if err != nil {
		return err
	}

	summary := sim.Summarize(results)
	names := make([]string, 0, len(summary))
	for name := range summary {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("%d runs, seeds %d..%d\n", n, v.GetUint64("seed"), v.GetUint64("seed")+uint64(n)-1)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTDDEV\tMIN\tMAX")
	for _, name := range names {
		s := summary[name]
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\t%.4f\n", name, s.Mean, s.StdDev, s.Min, s.Max)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(v.GetString("data"))
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSEASON\tTIME\tDURATION\tSEED\tSCORED\tSCRIPT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%d\t%d\t%s\n",
			run.ID,
			run.Season,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Seed,
			run.Scored,
			run.Script,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(v.GetString("data"))
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	cfg, err := st.LoadConfig(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run %s\n", meta.ID)
	fmt.Printf("  season:   %s (%s alliance)\n", meta.Season, cfg.Alliance)
	fmt.Printf("  time:     %s\n", meta.Timestamp.Format(time.RFC3339))
	fmt.Printf("  seed:     %d\n", meta.Seed)
	fmt.Printf("  timing:   %.3fs period, %d ticks\n", meta.Period, meta.TicksPerPeriod)
	fmt.Printf("  duration: %.2fs (%d periods)\n", meta.Duration, meta.Periods)
	fmt.Printf("  robot:    %s/%s, %.1f kg\n", cfg.Robot.Module, cfg.Robot.DriveMotor, cfg.Robot.Mass)
	if meta.Script != "" {
		fmt.Printf("  script:   %s\n", meta.Script)
	}
	fmt.Printf("  scored:   %d launched: %d\n", meta.Scored, meta.Launched)
	printMetrics(meta.Metrics)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	return storage.New(v.GetString("data")).Export(os.Stdout, args[0])
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(v.GetString("data"))
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	header, rows, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}
	ssn, err := season.NewRegistry().Get(meta.Season)
	if err != nil {
		return err
	}

	out := os.Stdout
	if path := v.GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if columns := v.GetStringSlice("series"); len(columns) > 0 {
		for _, col := range columns {
			if err := export.SeriesPlot(out, header, rows, col); err != nil {
				return err
			}
		}
		return nil
	}
	return export.FieldSVG(out, ssn.FieldMap(), storage.Samples(header, rows), v.GetFloat64("scale"))
}

func listPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		season := v.GetString("season")
		presets := config.ListPresets(season)
		if len(presets) == 0 {
			fmt.Printf("no presets for season: %s\n", season)
			return nil
		}
		fmt.Printf("robot presets for %s:\n", season)
		for _, p := range presets {
			fmt.Printf("  %s\n", p)
		}
		fmt.Printf("component kinds: %s\n", strings.Join(config.Kinds, ", "))
		return nil
	}

	names, err := config.ListComponentPresets(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s:\n", args[0])
	for _, name := range names {
		fmt.Printf("  %s\n", name)
	}
	return nil
}
