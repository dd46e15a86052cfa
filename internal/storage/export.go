package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/electrosim/internal/sim"
)

type ExportData struct {
	Scenario    string             `json:"scenario"`
	Integrator  string             `json:"integrator"`
	Dt          float64            `json:"dt"`
	Steps       int                `json:"steps"`
	EnergyDrift float64            `json:"energy_drift"`
	Times       []float64          `json:"times"`
	Energies    []float64          `json:"energies"`
	Metrics     map[string]float64 `json:"metrics"`
}

// ExportJSON writes the run's energy series and metrics as indented JSON.
func ExportJSON(w io.Writer, scenario, integrator string, dt float64, result *sim.Result) error {
	data := ExportData{
		Scenario:    scenario,
		Integrator:  integrator,
		Dt:          dt,
		Steps:       result.StepsTaken,
		EnergyDrift: result.EnergyDrift,
		Times:       result.Times,
		Energies:    result.Energies,
		Metrics:     result.Metrics,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
