package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/electrosim/internal/config"
	"github.com/san-kum/electrosim/internal/dynamo"
	"github.com/san-kum/electrosim/internal/experiment"
	"github.com/san-kum/electrosim/internal/export"
	"github.com/san-kum/electrosim/internal/optim"
	"github.com/san-kum/electrosim/internal/physics"
	"github.com/san-kum/electrosim/internal/quadtree"
	"github.com/san-kum/electrosim/internal/sim"
	"github.com/san-kum/electrosim/internal/viz"
)

const (
	buildRounds = 5
	// directLimit is the largest body count checked against the O(N^2) sum.
	directLimit = 20000
)

var benchThetas = []float64{0, 0.25, 0.5, 0.75, 1, 1.5}

func scenarioBodies(cfg *config.Config) ([]dynamo.Body, error) {
	gen, err := experiment.NewRegistry().GetScenario(cfg.Scenario)
	if err != nil {
		return nil, err
	}
	return gen(cfg.Bodies, cfg.Domain, rand.New(rand.NewSource(uint64(cfg.Seed)))), nil
}

func benchScenario(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	bodies, err := scenarioBodies(cfg)
	if err != nil {
		return err
	}

	tree := quadtree.New(cfg.Params())
	var build time.Duration
	for i := 0; i < buildRounds; i++ {
		start := time.Now()
		tree.Build(bodies)
		build += time.Since(start)
	}

	fmt.Println(heading(fmt.Sprintf("benchmarking %s", cfg.Scenario)))
	printMetric("bodies", fmt.Sprint(len(bodies)))
	printMetric("nodes", fmt.Sprint(tree.Len()))
	printMetric("depth", fmt.Sprint(tree.Depth()))
	printMetric("leaves", fmt.Sprint(len(tree.Leaves())))
	printMetric("build", (build / buildRounds).String())
	fmt.Println()

	var ref []r2.Vec
	if len(bodies) <= directLimit {
		ref = physics.DirectForces(bodies, 1, cfg.Tree.Softening)
	} else {
		fmt.Println(viz.Subtle.Render(fmt.Sprintf("more than %d bodies, skipping direct comparison", directLimit)))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "THETA\tEVAL\tPER BODY\tREL ERR")

	var logErr []float64
	forces := make([]r2.Vec, len(bodies))
	for _, th := range benchThetas {
		tree.SetTheta(th)

		start := time.Now()
		dynamo.ParallelFor(len(bodies), 256, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				forces[i] = tree.ForceAt(bodies[i].Pos, bodies[i].Charge, bodies)
			}
		})
		eval := time.Since(start)

		errCol := "-"
		if ref != nil {
			e := relativeError(forces, ref)
			errCol = fmt.Sprintf("%.3e", e)
			logErr = append(logErr, math.Log10(math.Max(e, 1e-16)))
		}
		perBody := time.Duration(0)
		if len(bodies) > 0 {
			perBody = eval / time.Duration(len(bodies))
		}
		fmt.Fprintf(w, "%.2f\t%v\t%v\t%s\n", th, eval.Round(time.Microsecond), perBody, errCol)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(logErr) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(logErr,
			asciigraph.Height(8),
			asciigraph.Width(60),
			asciigraph.Caption(fmt.Sprintf("log10 relative force error, theta %v", benchThetas)),
		))
	}
	return nil
}

// relativeError is |got-want| / |want| over the flattened force vectors.
func relativeError(got, want []r2.Vec) float64 {
	g := make([]float64, 0, 2*len(got))
	w := make([]float64, 0, 2*len(want))
	for i := range got {
		g = append(g, got[i].X, got[i].Y)
		w = append(w, want[i].X, want[i].Y)
	}
	d := floats.Distance(g, w, 2)
	if n := floats.Norm(w, 2); n > 0 {
		return d / n
	}
	return d
}

func fieldProfile(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	if samples < 2 {
		return fmt.Errorf("%w: samples must be at least 2, got %d", dynamo.ErrParameterBounds, samples)
	}
	bodies, err := scenarioBodies(cfg)
	if err != nil {
		return err
	}

	tree := quadtree.New(cfg.Params())
	tree.Build(bodies)

	half := cfg.Domain / 2
	// clamp at the sampling resolution so a probe landing on a body stays finite
	radius := math.Max(cfg.Physics.ProbeRadius, cfg.Domain/float64(samples))
	a, b := r2.Vec{Y: -half}, r2.Vec{Y: half}
	dist, phi := physics.SampleLine(tree, bodies, a, b, samples, radius, cfg.Physics.CoulombK)

	fmt.Println(heading(fmt.Sprintf("%s potential", cfg.Scenario)))
	fmt.Println(asciigraph.Plot(phi,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("phi along x=0, y from %.3g over %.3g units", -half, dist[len(dist)-1])),
	))

	if showGrid {
		bounds := r2.Box{Min: r2.Vec{X: -half, Y: -half}, Max: r2.Vec{X: half, Y: half}}
		grid := physics.SampleGrid(tree, bodies, bounds, 64, 32, radius, cfg.Physics.CoulombK)
		fmt.Println()
		fmt.Print(viz.Heatmap(grid))
	}
	if showBodies {
		fmt.Println()
		fmt.Print(scatterPlot(bodies, 64, 32))
	}
	if svgPath != "" {
		bounds := plotBounds(bodies)
		return writeFile(svgPath, func(w io.Writer) error {
			return export.BodiesSVG(w, bodies, bounds, 800)
		})
	}
	return nil
}

func tuneScenario(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	bodies, err := scenarioBodies(cfg)
	if err != nil {
		return err
	}
	if len(bodies) > directLimit {
		return fmt.Errorf("%w: tuning needs the direct sum, at most %d bodies", dynamo.ErrParameterBounds, directLimit)
	}

	// construction reorders bodies, so reference forces are keyed by ID
	direct := physics.DirectForces(bodies, 1, cfg.Tree.Softening)
	refByID := make(map[uint64]r2.Vec, len(bodies))
	for i := range bodies {
		refByID[bodies[i].ID] = direct[i]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println(heading(fmt.Sprintf("tuning %s, tolerance %.1e", cfg.Scenario, tolerance)))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "THETA\tLEAF\tBUILD+EVAL\tREL ERR\t")

	forces := make([]r2.Vec, len(bodies))
	ref := make([]r2.Vec, len(bodies))
	search := optim.NewGridSearch(
		[]string{"theta", "leaf_capacity"},
		[][]float64{{0.2, 0.35, 0.5, 0.7, 0.9, 1.2}, {1, 4, 8, 16, 32}},
	)
	best, cost, err := search.Search(ctx, func(_ context.Context, p map[string]float64) (float64, error) {
		params := cfg.Params()
		params.Theta = p["theta"]
		params.LeafCapacity = int(p["leaf_capacity"])
		tree := quadtree.New(params)

		start := time.Now()
		tree.Build(bodies)
		dynamo.ParallelFor(len(bodies), 256, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				forces[i] = tree.ForceAt(bodies[i].Pos, bodies[i].Charge, bodies)
				ref[i] = refByID[bodies[i].ID]
			}
		})
		elapsed := time.Since(start)

		e := relativeError(forces, ref)
		mark := ""
		if e > tolerance {
			mark = "x"
		}
		fmt.Fprintf(w, "%.2f\t%d\t%v\t%.3e\t%s\n", params.Theta, params.LeafCapacity, elapsed.Round(time.Microsecond), e, mark)
		if mark != "" {
			return math.Inf(1), nil
		}
		return elapsed.Seconds(), nil
	})
	if ferr := w.Flush(); err == nil {
		err = ferr
	}
	if err != nil {
		return err
	}

	fmt.Println(viz.Separator(60))
	if best == nil {
		fmt.Println(viz.Warning.Render("no setting meets the tolerance"))
		return nil
	}
	printMetric("theta", fmt.Sprintf("%.2f", best["theta"]))
	printMetric("leaf capacity", fmt.Sprintf("%.0f", best["leaf_capacity"]))
	printMetric("time", time.Duration(cost*float64(time.Second)).Round(time.Microsecond).String())
	return nil
}

// plotBounds pads the bounding square of bodies so that a single body or a
// coincident stack still gets a drawable frame.
func plotBounds(bodies []dynamo.Body) r2.Box {
	q := quadtree.Containing(bodies)
	if q.Size > 0 {
		q.Size *= 1.05
	} else {
		q.Size = 1
	}
	return q.Box()
}

func scatterPlot(bodies []dynamo.Body, w, h int) string {
	bounds := plotBounds(bodies)
	pos, neg, neutral := viz.Scatter(bodies, bounds, w, h)
	return viz.Merge(
		[]*viz.Canvas{pos, neg, neutral},
		[]func(string) string{
			viz.Renderer(viz.PositiveCharge),
			viz.Renderer(viz.NegativeCharge),
			viz.Renderer(viz.NeutralCharge),
		},
	)
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	if members < 1 {
		return fmt.Errorf("%w: members must be at least 1, got %d", dynamo.ErrParameterBounds, members)
	}

	reg := experiment.NewRegistry()
	var simCfg sim.Config
	exps := make([]*experiment.Experiment, members)
	for i := range exps {
		c := *cfg
		c.Seed = cfg.Seed + int64(i)
		exps[i] = experiment.New(&c)
		if err := exps[i].Setup(reg); err != nil {
			return err
		}
		simCfg = exps[i].SimConfig()
	}

	ens := sim.NewEnsemble(func(i int) (*sim.Simulator, []dynamo.Body, error) {
		return exps[i].GetSimulator(), exps[i].Bodies(), nil
	}, members)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println(viz.Title.Render(fmt.Sprintf("ensemble of %d %s runs", members, cfg.Scenario)))
	start := time.Now()
	results, err := ens.Run(ctx, simCfg)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MEMBER\tSEED\tSTEPS\tDRIFT\tCLUSTERS\tMAX FIELD")
	drifts := make([]float64, len(results))
	for i, r := range results {
		drifts[i] = r.EnergyDrift
		fmt.Fprintf(w, "%d\t%d\t%d\t%.3e\t%.0f\t%.4g\n",
			i, cfg.Seed+int64(i), r.StepsTaken, r.EnergyDrift, r.Metrics["clusters"], r.Metrics["max_field"])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	mean, std := stat.MeanStdDev(drifts, nil)
	fmt.Println(viz.Separator(60))
	printMetric("elapsed", time.Since(start).Round(time.Millisecond).String())
	printMetric("drift mean", fmt.Sprintf("%.3e", mean))
	if len(drifts) > 1 {
		printMetric("drift stddev", fmt.Sprintf("%.3e", std))
	}
	return nil
}

func sortedNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func heading(title string) string {
	return viz.GradientText(title, "#00ffff", "#ff44cc")
}
