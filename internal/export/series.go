package export

import (
	"fmt"
	"io"
	"math"

	"github.com/guptarohit/asciigraph"
)

const (
	plotHeight = 10
	plotWidth  = 80
)

// SeriesPlot draws one telemetry column per period as a terminal line chart.
// Non-finite values are left out of the chart.
func SeriesPlot(w io.Writer, header []string, rows [][]float64, column string) error {
	idx := -1
	for i, name := range header {
		if name == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("export: no telemetry column %q", column)
	}

	data := make([]float64, 0, len(rows))
	for _, row := range rows {
		if idx < len(row) && !math.IsNaN(row[idx]) && !math.IsInf(row[idx], 0) {
			data = append(data, row[idx])
		}
	}
	if len(data) == 0 {
		return fmt.Errorf("export: column %q has no finite samples", column)
	}

	graph := asciigraph.Plot(data,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(fmt.Sprintf("%s vs period", column)),
	)
	_, err := fmt.Fprintf(w, "%s\n\n", graph)
	return err
}
