package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/fieldsim/internal/config"
	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/sim"
)

const (
	metadataFile  = "metadata.json"
	telemetryFile = "telemetry.csv"
	configFile    = "config.yaml"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	return nil
}

type RunMetadata struct {
	ID             string             `json:"id"`
	Season         string             `json:"season"`
	Script         string             `json:"script,omitempty"`
	Timestamp      time.Time          `json:"timestamp"`
	Seed           uint64             `json:"seed"`
	Period         float64            `json:"period"`
	TicksPerPeriod int                `json:"ticks_per_period"`
	Duration       float64            `json:"duration"`
	Periods        int                `json:"periods"`
	Scored         int64              `json:"scored"`
	Launched       int                `json:"launched"`
	Metrics        map[string]float64 `json:"metrics"`
}

// Save writes a run under a fresh id: its metadata, the config it ran with
// and one telemetry row per period.
func (s *Store) Save(cfg *config.Config, script string, result *sim.Result) (string, error) {
	return s.SaveAs(uuid.NewString(), cfg, script, result)
}

// SaveAs is Save with a caller-chosen run id.
func (s *Store) SaveAs(runID string, cfg *config.Config, script string, result *sim.Result) (string, error) {
	if runID == "" || filepath.Base(runID) != runID {
		return "", fmt.Errorf("storage: invalid run id %q", runID)
	}
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", fmt.Errorf("storage: %w", err)
	}

	meta := RunMetadata{
		ID:             runID,
		Season:         cfg.Season,
		Script:         script,
		Timestamp:      time.Now().UTC(),
		Seed:           result.Seed,
		Period:         cfg.Period,
		TicksPerPeriod: cfg.Ticks,
		Duration:       float64(result.Periods) * cfg.Period,
		Periods:        result.Periods,
		Scored:         result.Scored,
		Launched:       result.Launched,
		Metrics:        result.Metrics,
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
		return "", fmt.Errorf("storage: %w", err)
	}
	if err := writeTelemetry(filepath.Join(runDir, telemetryFile), result.Samples); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("storage: encode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Columns are the fixed telemetry columns; drive voltages follow as drive0..n.
var Columns = []string{
	"period", "time", "x", "y", "heading", "vx", "vy", "omega",
	"gyro_yaw", "supply_voltage", "supply_current", "held", "scored",
}

func writeTelemetry(path string, samples []sim.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	drives := 0
	if len(samples) > 0 {
		drives = len(samples[0].DriveVoltages)
	}
	header := append([]string(nil), Columns...)
	for i := 0; i < drives; i++ {
		header = append(header, fmt.Sprintf("drive%d", i))
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	for _, s := range samples {
		vals := []float64{
			float64(s.Period), s.Time, s.Pose.X, s.Pose.Y, s.Pose.Heading,
			s.Speeds.Vx, s.Speeds.Vy, s.Speeds.Omega, s.GyroYaw,
			s.SupplyVoltage, s.SupplyCurrent, float64(s.Held), float64(s.Scored),
		}
		for i := 0; i < drives; i++ {
			v := 0.0
			if i < len(s.DriveVoltages) {
				v = s.DriveVoltages[i]
			}
			vals = append(vals, v)
		}

		row := make([]string, len(vals))
		for i, v := range vals {
			row[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("storage: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	return nil
}

// List returns every stored run, newest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []RunMetadata{}, nil
		}
		return nil, fmt.Errorf("storage: %w", err)
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

	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, notFound(runID, err)
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: run %s metadata: %w", runID, err)
	}
	return &meta, nil
}

// LoadConfig returns the config a run was made with.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	cfg, err := config.Load(filepath.Join(s.baseDir, runID, configFile))
	if err != nil {
		return nil, notFound(runID, err)
	}
	return cfg, nil
}

// LoadSeries reads the telemetry table back as its header and one row of
// values per period.
func (s *Store) LoadSeries(runID string) ([]string, [][]float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, telemetryFile))
	if err != nil {
		return nil, nil, notFound(runID, err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("storage: run %s telemetry: %w", runID, err)
	}
	if len(records) == 0 {
		return []string{}, [][]float64{}, nil
	}

	header := records[0]
	rows := make([][]float64, 0, len(records)-1)
	for i, record := range records[1:] {
		row := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("storage: run %s row %d column %s: %w", runID, i+1, header[j], err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

func notFound(runID string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: run %s: %w", runID, dynamo.ErrRunNotFound)
	}
	return fmt.Errorf("storage: run %s: %w", runID, err)
}
