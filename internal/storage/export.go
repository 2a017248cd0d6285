package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/rigidsim/internal/sim"
)

type ExportData struct {
	Meta   RunMetadata `json:"meta"`
	Bodies []BodyInfo  `json:"bodies"`
	Frames []sim.Frame `json:"frames"`
}

// Export reads a stored run back in full.
func (s *Store) Export(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	bodies, err := s.LoadBodies(runID)
	if err != nil {
		return nil, err
	}
	frames, err := s.LoadFrames(runID)
	if err != nil {
		return nil, err
	}
	return &ExportData{Meta: *meta, Bodies: bodies, Frames: frames}, nil
}

func WriteJSON(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path string, data *ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, data)
}
