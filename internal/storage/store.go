package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/electrosim/internal/dynamo"
	"github.com/san-kum/electrosim/internal/sim"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Scenario    string             `json:"scenario"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Bodies      int                `json:"bodies"`
	Dt          float64            `json:"dt"`
	Steps       int                `json:"steps"`
	StepsTaken  int                `json:"steps_taken"`
	Integrator  string             `json:"integrator"`
	Theta       float64            `json:"theta"`
	EnergyDrift float64            `json:"energy_drift"`
	Metrics     map[string]float64 `json:"metrics"`
}

var bodyHeader = []string{"id", "species", "x", "y", "vx", "vy", "charge", "mass", "radius"}

// Save writes metadata.json, energy.csv and, when the result carries a
// final state, bodies.csv under a fresh run directory. ID, Timestamp and
// the result-derived fields of meta are filled in.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", meta.Scenario, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.StepsTaken = result.StepsTaken
	meta.EnergyDrift = result.EnergyDrift
	meta.Metrics = result.Metrics

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	rows := [][]string{{"time", "energy"}}
	for i := range result.Energies {
		rows = append(rows, []string{formatFloat(result.Times[i]), formatFloat(result.Energies[i])})
	}
	if err := writeCSV(filepath.Join(runDir, "energy.csv"), rows); err != nil {
		return "", err
	}

	if len(result.Final) == 0 {
		return runID, nil
	}

	final := result.Final.Clone()
	sort.Slice(final, func(a, b int) bool { return final[a].ID < final[b].ID })

	rows = [][]string{bodyHeader}
	for i := range final {
		b := &final[i]
		rows = append(rows, []string{
			strconv.FormatUint(b.ID, 10),
			strconv.Itoa(int(b.Species)),
			formatFloat(b.Pos.X), formatFloat(b.Pos.Y),
			formatFloat(b.Vel.X), formatFloat(b.Vel.Y),
			formatFloat(b.Charge), formatFloat(b.Mass), formatFloat(b.Radius),
		})
	}
	if err := writeCSV(filepath.Join(runDir, "bodies.csv"), rows); err != nil {
		return "", err
	}

	return runID, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

// LoadEnergy returns the recorded energy series of a run.
func (s *Store) LoadEnergy(runID string) (times, energies []float64, err error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, "energy.csv"))
	if err != nil {
		return nil, nil, err
	}

	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) < 2 {
			continue
		}
		t, err1 := strconv.ParseFloat(record[0], 64)
		e, err2 := strconv.ParseFloat(record[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		times = append(times, t)
		energies = append(energies, e)
	}

	return times, energies, nil
}

// LoadBodies returns the final body state of a run, ordered by ID.
func (s *Store) LoadBodies(runID string) (dynamo.Bodies, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, "bodies.csv"))
	if err != nil {
		return nil, err
	}

	bodies := make(dynamo.Bodies, 0, max(len(records)-1, 0))
	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) != len(bodyHeader) {
			return nil, fmt.Errorf("bodies.csv line %d: want %d fields, got %d", i+1, len(bodyHeader), len(record))
		}

		id, err := strconv.ParseUint(record[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bodies.csv line %d: %w", i+1, err)
		}
		species, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, fmt.Errorf("bodies.csv line %d: %w", i+1, err)
		}

		var vals [7]float64
		for k := range vals {
			if vals[k], err = strconv.ParseFloat(record[k+2], 64); err != nil {
				return nil, fmt.Errorf("bodies.csv line %d: %w", i+1, err)
			}
		}

		bodies = append(bodies, dynamo.Body{
			ID:      id,
			Species: dynamo.Species(species),
			Pos:     r2.Vec{X: vals[0], Y: vals[1]},
			Vel:     r2.Vec{X: vals[2], Y: vals[3]},
			Charge:  vals[4],
			Mass:    vals[5],
			Radius:  vals[6],
		})
	}

	return bodies, nil
}
