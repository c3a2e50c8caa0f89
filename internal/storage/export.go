package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/fieldsim/internal/sim"
)

type ExportData struct {
	RunMetadata
	Samples []sim.Sample `json:"samples"`
}

// ExportJSON writes a run's metadata and every sample as one JSON document.
func ExportJSON(w io.Writer, meta RunMetadata, result *sim.Result) error {
	data := ExportData{
		RunMetadata: meta,
		Samples:     result.Samples,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Export reloads a stored run and writes it as JSON. Samples carry only the
// columns the telemetry table keeps.
func (s *Store) Export(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	header, rows, err := s.LoadSeries(runID)
	if err != nil {
		return err
	}
	return ExportJSON(w, *meta, &sim.Result{Samples: Samples(header, rows)})
}

// Samples rebuilds samples from telemetry rows.
func Samples(header []string, rows [][]float64) []sim.Sample {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	get := func(row []float64, name string) float64 {
		if i, ok := col[name]; ok && i < len(row) {
			return row[i]
		}
		return 0
	}

	out := make([]sim.Sample, 0, len(rows))
	for _, row := range rows {
		s := sim.Sample{
			Period:        int(get(row, "period")),
			Time:          get(row, "time"),
			GyroYaw:       get(row, "gyro_yaw"),
			SupplyVoltage: get(row, "supply_voltage"),
			SupplyCurrent: get(row, "supply_current"),
			Held:          int(get(row, "held")),
			Scored:        int64(get(row, "scored")),
		}
		s.Pose.X, s.Pose.Y, s.Pose.Heading = get(row, "x"), get(row, "y"), get(row, "heading")
		s.Speeds.Vx, s.Speeds.Vy, s.Speeds.Omega = get(row, "vx"), get(row, "vy"), get(row, "omega")
		for i := len(Columns); i < len(header) && i < len(row); i++ {
			s.DriveVoltages = append(s.DriveVoltages, row[i])
		}
		out = append(out, s)
	}
	return out
}
