package storage

import (
	"encoding/json"
	"io"
	"os"

	"oncosim/internal/sim"
)

// ExportData is the flat JSON shape handed to external tooling.
type ExportData struct {
	Run       RunMetadata `json:"run"`
	Steps     int         `json:"steps"`
	Times     []float64   `json:"times"`
	Sensitive []float64   `json:"sensitive"`
	Resistant []float64   `json:"resistant"`
	Total     []float64   `json:"total"`
}

func buildExport(meta RunMetadata, trajectory []sim.Point) ExportData {
	data := ExportData{
		Run:       meta,
		Steps:     len(trajectory),
		Times:     make([]float64, len(trajectory)),
		Sensitive: make([]float64, len(trajectory)),
		Resistant: make([]float64, len(trajectory)),
		Total:     make([]float64, len(trajectory)),
	}
	for i, p := range trajectory {
		data.Times[i] = p.Time
		data.Sensitive[i] = p.State[0]
		data.Resistant[i] = p.State[1]
		data.Total[i] = p.State.Total()
	}
	return data
}

// ExportJSON writes a run and its trajectory as indented JSON to a file.
func ExportJSON(path string, meta RunMetadata, trajectory []sim.Point) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return writeExport(file, meta, trajectory)
}

// ExportJSONTo streams the export to any writer, stdout included.
func ExportJSONTo(w io.Writer, meta RunMetadata, trajectory []sim.Point) error {
	return writeExport(w, meta, trajectory)
}

func writeExport(w io.Writer, meta RunMetadata, trajectory []sim.Point) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildExport(meta, trajectory))
}
