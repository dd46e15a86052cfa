package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/time/rate"

	"github.com/san-kum/electrosim/internal/dynamo"
	"github.com/san-kum/electrosim/internal/logger"
	"github.com/san-kum/electrosim/internal/telemetry"
)

type Simulator struct {
	forcer     Forcer
	integrator Integrator
	metrics    []Metric
	observers  []Observer
	log        *slog.Logger
}

func New(forcer Forcer, integrator Integrator) *Simulator {
	return &Simulator{
		forcer:     forcer,
		integrator: integrator,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
		log:        logger.WithComponent("sim"),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run advances a copy of initial by cfg.Steps steps. The caller's slice is
// never modified. On cancellation the partial result is returned together
// with the context error.
func (s *Simulator) Run(ctx context.Context, initial []dynamo.Body, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	every := max(cfg.EnergyEvery, 1)
	result := &Result{
		Times:    make([]float64, 0, cfg.Steps/every+1),
		Energies: make([]float64, 0, cfg.Steps/every+1),
		Metrics:  make(map[string]float64),
		Errors:   make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	bodies := dynamo.Bodies(initial).Clone()
	t := 0.0
	start := time.Now()
	progress := rate.Sometimes{Interval: 2 * time.Second}

	s.log.Info("run started", "bodies", len(bodies), "steps", cfg.Steps, "dt", cfg.Dt)

	s.forcer.Accelerations(bodies)
	initialEnergy := s.recordEnergy(result, bodies, t)

	defer func() {
		result.Final = bodies
		for _, m := range s.metrics {
			result.Metrics[m.Name()] = m.Value()
		}
	}()

	for i := 0; i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			s.log.Warn("run canceled", "step", i)
			return result, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		for _, m := range s.metrics {
			m.Observe(bodies, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(bodies, t)
		}

		stepStart := time.Now()
		s.integrator.Step(s.forcer, bodies, cfg.Dt)
		telemetry.StepDuration.Observe(time.Since(stepStart).Seconds())
		telemetry.StepsTotal.Inc()

		if cfg.ValidateState && !bodies.IsValid() {
			telemetry.InvalidStates.Inc()
			err := &dynamo.SimulationError{Step: i, Time: t, Wrapped: dynamo.ErrInvalidState}
			result.Errors = append(result.Errors, err)
			s.log.Error("run aborted", "step", i, "error", err)
			break
		}

		t += cfg.Dt
		result.StepsTaken++

		if result.StepsTaken%every == 0 {
			s.recordEnergy(result, bodies, t)
		}
		progress.Do(func() {
			s.log.Debug("progress", "step", result.StepsTaken, "of", cfg.Steps, "t", t)
		})
	}

	if initialEnergy != 0 && len(result.Energies) > 0 {
		final := result.Energies[len(result.Energies)-1]
		result.EnergyDrift = math.Abs(final-initialEnergy) / math.Abs(initialEnergy)
	}

	s.log.Info("run finished",
		"steps", result.StepsTaken,
		"drift", result.EnergyDrift,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	return result, nil
}

func (s *Simulator) validateConfig(cfg Config) error {
	if !(cfg.Dt > 0) || math.IsInf(cfg.Dt, 0) {
		return fmt.Errorf("%w: dt must be positive, got %f", dynamo.ErrParameterBounds, cfg.Dt)
	}
	if cfg.Steps <= 0 {
		return fmt.Errorf("%w: steps must be positive, got %d", dynamo.ErrParameterBounds, cfg.Steps)
	}
	if cfg.EnergyEvery < 0 {
		return fmt.Errorf("%w: energy interval must not be negative", dynamo.ErrParameterBounds)
	}
	return nil
}

// recordEnergy appends a sample when the forcer can report energy and
// returns it, or 0 when it cannot.
func (s *Simulator) recordEnergy(r *Result, bodies []dynamo.Body, t float64) float64 {
	h, ok := s.forcer.(dynamo.Hamiltonian)
	if !ok {
		return 0
	}
	e := h.Energy(bodies)
	r.Times = append(r.Times, t)
	r.Energies = append(r.Energies, e)
	return e
}

// RunWithCallback steps until cfg.Steps is reached or callback returns false.
func (s *Simulator) RunWithCallback(ctx context.Context, initial []dynamo.Body, cfg Config, callback func([]dynamo.Body, float64) bool) error {
	if err := s.validateConfig(cfg); err != nil {
		return err
	}

	bodies := dynamo.Bodies(initial).Clone()
	s.forcer.Accelerations(bodies)
	t := 0.0

	for i := 0; i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !callback(bodies, t) {
			return nil
		}

		s.integrator.Step(s.forcer, bodies, cfg.Dt)
		t += cfg.Dt

		if cfg.ValidateState && !bodies.IsValid() {
			return &dynamo.SimulationError{Step: i, Time: t, Wrapped: dynamo.ErrInvalidState}
		}
	}

	return nil
}
