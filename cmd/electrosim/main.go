package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/san-kum/electrosim/internal/config"
	"github.com/san-kum/electrosim/internal/dynamo"
	"github.com/san-kum/electrosim/internal/experiment"
	"github.com/san-kum/electrosim/internal/export"
	"github.com/san-kum/electrosim/internal/logger"
	"github.com/san-kum/electrosim/internal/sim"
	"github.com/san-kum/electrosim/internal/storage"
	"github.com/san-kum/electrosim/internal/viz"
)

var (
	dataDir     string
	logLevel    string
	metricsAddr string

	dt         float64
	steps      int
	numBodies  int
	domain     float64
	seed       int64
	integrator string
	theta      float64
	softening  float64
	leafCap    int
	workers    int
	coulombK   float64
	probeR     float64
	collisionR float64
	// Config file
	configFile string
	// Preset name
	preset string

	samples     int
	showGrid    bool
	showBodies  bool
	plotScatter bool
	members     int
	tolerance   float64
	svgPath     string
	liveView    bool
)

// main registers the electrosim commands and executes the root command.
// It exits with status 1 if the command returns an error.
func main() {
	rootCmd := &cobra.Command{
		Use:               "electrosim",
		Short:             "Barnes-Hut electrostatics simulation lab",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", envOr("ELECTROSIM_DATA", ".electrosim"), "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envOr("LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while running")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run simulation",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().BoolVar(&liveView, "live", false, "redraw a status line while the run progresses")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the energy curve of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().BoolVar(&plotScatter, "scatter", true, "draw the final body positions")
	plotCmd.Flags().StringVar(&svgPath, "svg", "", "also write the energy curve to this svg file")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	benchCmd := &cobra.Command{
		Use:   "bench [scenario]",
		Short: "time tree construction and evaluation, and measure error against the direct sum",
		Args:  cobra.ExactArgs(1),
		RunE:  benchScenario,
	}
	addSimFlags(benchCmd)

	fieldCmd := &cobra.Command{
		Use:   "field [scenario]",
		Short: "plot the potential of a scenario's initial state",
		Args:  cobra.ExactArgs(1),
		RunE:  fieldProfile,
	}
	addSimFlags(fieldCmd)
	fieldCmd.Flags().IntVar(&samples, "samples", 120, "points along the profile")
	fieldCmd.Flags().BoolVar(&showGrid, "grid", true, "render a potential heatmap")
	fieldCmd.Flags().BoolVar(&showBodies, "scatter", false, "draw body positions")
	fieldCmd.Flags().StringVar(&svgPath, "svg", "", "also write the body positions to this svg file")

	tuneCmd := &cobra.Command{
		Use:   "tune [scenario]",
		Short: "search theta and leaf capacity for the fastest evaluation within an error tolerance",
		Args:  cobra.ExactArgs(1),
		RunE:  tuneScenario,
	}
	addSimFlags(tuneCmd)
	tuneCmd.Flags().Float64Var(&tolerance, "tolerance", 1e-3, "largest acceptable relative force error")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [scenario]",
		Short: "run independently seeded copies of a scenario concurrently",
		Args:  cobra.ExactArgs(1),
		RunE:  runEnsemble,
	}
	addSimFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&members, "members", 4, "number of runs")

	presetsCmd := &cobra.Command{
		Use:   "presets [scenario]",
		Short: "list available presets for a scenario",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, benchCmd, fieldCmd, tuneCmd, ensembleCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	logger.Init(logLevel)

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				logger.Error("metrics server stopped", "addr", metricsAddr, "error", err)
			}
		}()
		logger.Info("serving metrics", "addr", metricsAddr)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func addSimFlags(cmd *cobra.Command) {
	def := config.DefaultConfig()
	f := cmd.Flags()
	f.Float64Var(&dt, "dt", def.Dt, "timestep")
	f.IntVar(&steps, "steps", def.Steps, "number of steps")
	f.IntVar(&numBodies, "bodies", def.Bodies, "number of bodies")
	f.Float64Var(&domain, "domain", def.Domain, "side of the initial square")
	f.Int64Var(&seed, "seed", def.Seed, "random seed")
	f.StringVar(&integrator, "integrator", def.Integrator, "integrator (euler, leapfrog, verlet)")
	f.Float64Var(&theta, "theta", def.Tree.Theta, "opening angle")
	f.Float64Var(&softening, "softening", def.Tree.Softening, "softening length")
	f.IntVar(&leafCap, "leaf-capacity", def.Tree.LeafCapacity, "bodies per leaf")
	f.IntVar(&workers, "workers", def.Tree.Workers, "tree construction workers (0 = GOMAXPROCS)")
	f.Float64Var(&coulombK, "coulomb-k", def.Physics.CoulombK, "coulomb constant")
	f.Float64Var(&probeR, "probe-radius", def.Physics.ProbeRadius, "closest approach for potentials")
	f.Float64Var(&collisionR, "collision-radius", def.Physics.CollisionRadius, "cluster linking radius")
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
}

// resolveConfig layers defaults, the preset, the config file and finally
// any flags given on the command line.
func resolveConfig(cmd *cobra.Command, scenario string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Scenario = scenario

	if preset != "" {
		p := config.GetPreset(scenario, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(scenario))
		}
		cfg = p
	}

	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
		if cfg.Scenario == "" {
			cfg.Scenario = scenario
		}
		if cfg.LogLevel != "" && !cmd.Flags().Changed("log-level") {
			logger.Init(cfg.LogLevel)
		}
	}

	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("dt", func() { cfg.Dt = dt })
	set("steps", func() { cfg.Steps = steps })
	set("bodies", func() { cfg.Bodies = numBodies })
	set("domain", func() { cfg.Domain = domain })
	set("seed", func() { cfg.Seed = seed })
	set("integrator", func() { cfg.Integrator = integrator })
	set("theta", func() { cfg.Tree.Theta = theta })
	set("softening", func() { cfg.Tree.Softening = softening })
	set("leaf-capacity", func() { cfg.Tree.LeafCapacity = leafCap })
	set("workers", func() { cfg.Tree.Workers = workers })
	set("coulomb-k", func() { cfg.Physics.CoulombK = coulombK })
	set("probe-radius", func() { cfg.Physics.ProbeRadius = probeR })
	set("collision-radius", func() { cfg.Physics.CollisionRadius = collisionR })

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp := experiment.New(cfg)
	if err := exp.Setup(experiment.NewRegistry()); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println(viz.Title.Render(fmt.Sprintf("running %s: %d bodies, %d steps", cfg.Scenario, cfg.Bodies, cfg.Steps)))
	start := time.Now()

	var status *liveStatus
	if liveView {
		status = newLiveStatus(os.Stdout, cfg.Steps)
		exp.GetSimulator().AddObserver(status)
	}

	result, err := exp.Run(ctx)
	if status != nil {
		status.Done()
	}
	if err != nil {
		if result == nil || !errors.Is(err, dynamo.ErrContextCanceled) {
			return err
		}
		fmt.Println(viz.Warning.Render("interrupted, saving partial run"))
	}
	elapsed := time.Since(start)

	runID, err := st.Save(storage.RunMetadata{
		Scenario:   cfg.Scenario,
		Seed:       cfg.Seed,
		Bodies:     cfg.Bodies,
		Dt:         cfg.Dt,
		Steps:      cfg.Steps,
		Integrator: cfg.Integrator,
		Theta:      cfg.Tree.Theta,
	}, result)
	if err != nil {
		return err
	}

	fmt.Println(viz.Separator(60))
	printMetric("run id", runID)
	printMetric("elapsed", elapsed.Round(time.Millisecond).String())
	printMetric("steps", fmt.Sprintf("%d / %d", result.StepsTaken, cfg.Steps))
	printMetric("energy drift", fmt.Sprintf("%.3e", result.EnergyDrift))
	for _, name := range sortedNames(result.Metrics) {
		printMetric(name, fmt.Sprintf("%.6g", result.Metrics[name]))
	}
	for _, e := range result.Errors {
		fmt.Println(viz.Warning.Render(e.Error()))
	}
	if len(result.Energies) > 1 {
		fmt.Println()
		fmt.Println(viz.MetricLabel.Render("energy ") + viz.SparklineChart(result.Energies, 60))
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printMetric(label, value string) {
	fmt.Printf("  %s %s\n", viz.MetricLabel.Render(fmt.Sprintf("%-16s", label)), viz.MetricValue.Render(value))
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tBODIES\tSTEPS\tDT\tINTEG\tTHETA\tDRIFT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d/%d\t%g\t%s\t%.2f\t%.2e\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Bodies,
			run.StepsTaken,
			run.Steps,
			run.Dt,
			run.Integrator,
			run.Theta,
			run.EnergyDrift,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	times, energies, err := st.LoadEnergy(runID)
	if err != nil {
		return err
	}
	if len(energies) == 0 {
		return fmt.Errorf("no data to plot")
	}
	if svgPath != "" {
		if err := writeFile(svgPath, func(w io.Writer) error {
			return export.SeriesSVG(w, times, energies, 800, 300, "#00ff88")
		}); err != nil {
			return err
		}
	}

	fmt.Println(viz.HeaderStyle.Render(fmt.Sprintf("run %s", meta.ID)))
	printMetric("scenario", meta.Scenario)
	printMetric("samples", fmt.Sprint(len(energies)))
	fmt.Println()

	graph := asciigraph.Plot(energies,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("total energy vs sample"),
	)
	fmt.Println(graph)

	if !plotScatter {
		return nil
	}
	bodies, err := st.LoadBodies(runID)
	if err != nil {
		return err
	}
	if len(bodies) > 0 {
		fmt.Println()
		fmt.Print(scatterPlot(bodies, 60, 24))
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	times, energies, err := st.LoadEnergy(runID)
	if err != nil {
		return err
	}

	return storage.ExportJSON(os.Stdout, meta.Scenario, meta.Integrator, meta.Dt, &sim.Result{
		Times:       times,
		Energies:    energies,
		Metrics:     meta.Metrics,
		StepsTaken:  meta.StepsTaken,
		EnergyDrift: meta.EnergyDrift,
	})
}

func listPresets(cmd *cobra.Command, args []string) error {
	scenarios := experiment.NewRegistry().ListScenarios()
	if len(args) == 1 {
		scenarios = args[:1]
	}

	for _, s := range scenarios {
		presets := config.ListPresets(s)
		if len(presets) == 0 {
			fmt.Printf("no presets for scenario: %s\n", s)
			continue
		}
		fmt.Printf("presets for %s:\n", s)
		for _, name := range presets {
			p := config.GetPreset(s, name)
			fmt.Printf("  %-10s %s\n", name, viz.Subtle.Render(fmt.Sprintf("bodies=%d steps=%d dt=%g theta=%g", p.Bodies, p.Steps, p.Dt, p.Tree.Theta)))
		}
	}
	return nil
}
