// Package telemetry holds the process-wide Prometheus instruments.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Tree construction
	TreeBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "electrosim_tree_build_duration_seconds",
			Help:    "Duration of quadtree construction including aggregate propagation",
			Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
		},
	)

	TreeBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "electrosim_tree_builds_total",
			Help: "Total number of quadtree builds",
		},
		[]string{"mode"}, // mode: sequential, parallel
	)

	TreeNodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "electrosim_tree_nodes",
			Help: "Node count of the most recently built quadtree",
		},
	)

	ArenaGrowths = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "electrosim_tree_arena_growths_total",
			Help: "Number of times a node arena was too small and had to be regrown",
		},
	)

	// Simulation
	StepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "electrosim_step_duration_seconds",
			Help:    "Duration of one simulation step (build, forces, integration)",
			Buckets: prometheus.ExponentialBuckets(1e-4, 4, 10),
		},
	)

	StepsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "electrosim_steps_total",
			Help: "Total number of simulation steps taken",
		},
	)

	InvalidStates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "electrosim_invalid_states_total",
			Help: "Number of runs aborted because a body became non-finite",
		},
	)
)
