package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/electrosim/internal/dynamo"
	"github.com/san-kum/electrosim/internal/sim"
)

func sampleResult() *sim.Result {
	return &sim.Result{
		Times:    []float64{0, 0.5, 1},
		Energies: []float64{-1.25, -1.2500001, -1.2499999},
		Metrics:  map[string]float64{"energy_drift": 1e-7},
		Final: dynamo.Bodies{
			{ID: 2, Species: dynamo.Counterion, Pos: r2.Vec{X: 0.1, Y: -3}, Vel: r2.Vec{X: 1e-9}, Charge: -1, Mass: 1.5, Radius: 0.015},
			{ID: 0, Species: dynamo.Metal, Pos: r2.Vec{X: -5, Y: -5}, Charge: -1},
			{ID: 1, Species: dynamo.Ion, Pos: r2.Vec{X: 1.0 / 3, Y: 2}, Vel: r2.Vec{Y: -0.25}, Charge: 1, Mass: 1},
		},
		StepsTaken:  2,
		EnergyDrift: 1e-7,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	res := sampleResult()
	runID, err := st.Save(RunMetadata{Scenario: "electrolyte", Seed: 42, Bodies: 3, Dt: 0.5, Steps: 2, Integrator: "leapfrog", Theta: 0.5}, res)
	require.NoError(t, err)

	meta, err := st.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, runID, meta.ID)
	assert.Equal(t, "electrolyte", meta.Scenario)
	assert.Equal(t, int64(42), meta.Seed)
	assert.Equal(t, 2, meta.StepsTaken)
	assert.Equal(t, 1e-7, meta.Metrics["energy_drift"])
	assert.False(t, meta.Timestamp.IsZero())

	times, energies, err := st.LoadEnergy(runID)
	require.NoError(t, err)
	assert.Equal(t, res.Times, times)
	assert.Equal(t, res.Energies, energies)

	bodies, err := st.LoadBodies(runID)
	require.NoError(t, err)
	require.Len(t, bodies, 3)

	byID := res.Final.IndexByID()
	for i, b := range bodies {
		assert.Equal(t, uint64(i), b.ID, "bodies not ordered by id")
		assert.Equal(t, res.Final[byID[b.ID]], b)
	}
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	first, err := st.Save(RunMetadata{Scenario: "uniform"}, &sim.Result{})
	require.NoError(t, err)
	second, err := st.Save(RunMetadata{Scenario: "electrode"}, &sim.Result{})
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "junk"), 0755))

	runs, err = st.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID, "newest run first")
	assert.Equal(t, first, runs[1].ID)

	_, err = st.LoadBodies(first)
	assert.Error(t, err, "run without a final state has no bodies")
}

func TestLoadMissing(t *testing.T) {
	st := New(t.TempDir())

	_, err := st.Load("nope")
	assert.Error(t, err)

	_, _, err = st.LoadEnergy("nope")
	assert.Error(t, err)
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, "electrode", "verlet", 0.5, sampleResult()))

	var got ExportData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "electrode", got.Scenario)
	assert.Equal(t, "verlet", got.Integrator)
	assert.Equal(t, 2, got.Steps)
	assert.Len(t, got.Energies, 3)
}
