package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/rigid"
	"github.com/san-kum/rigidsim/internal/scene"
	"github.com/san-kum/rigidsim/internal/sim"
)

const (
	metadataFile   = "metadata.json"
	bodiesFile     = "bodies.json"
	trajectoryFile = "trajectory.csv"
)

// ErrRunNotFound indicates an unknown run id.
var ErrRunNotFound = errors.New("storage: run not found")

var trajectoryHeader = []string{
	"step", "time", "body",
	"x", "y", "z",
	"qw", "qx", "qy", "qz",
	"vx", "vy", "vz",
	"wx", "wy", "wz",
}

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Scene       string             `json:"scene,omitempty"`
	Constraints string             `json:"constraints,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
	TimeStep    float64            `json:"time_step"`
	Duration    float64            `json:"duration"`
	Restitution float64            `json:"restitution"`
	Tolerance   float64            `json:"tolerance"`
	MaxDepth    int                `json:"max_depth"`
	Bodies      int                `json:"bodies"`
	Steps       int                `json:"steps"`
	Totals      sim.Totals         `json:"totals"`
	Metrics     map[string]float64 `json:"metrics"`
}

// BodyInfo is the static description of a body needed to redraw a run.
type BodyInfo struct {
	Name     string       `json:"name"`
	Fixed    bool         `json:"fixed"`
	Mass     float64      `json:"mass"`
	Vertices []mgl64.Vec3 `json:"vertices"`
	Faces    [][3]int     `json:"faces"`
}

func describe(sc *scene.Scene) []BodyInfo {
	out := make([]BodyInfo, len(sc.Bodies()))
	for i, b := range sc.Bodies() {
		info := BodyInfo{Name: b.Name, Fixed: b.Fixed(), Mass: b.Mass(), Faces: b.Faces()}
		for k := 0; k < b.NumVertices(); k++ {
			info.Vertices = append(info.Vertices, b.RefVertex(k))
		}
		out[i] = info
	}
	return out
}

// Save writes a run directory and returns its id. meta.ID, Timestamp,
// Bodies, Steps, Totals and Metrics are filled in from the result.
func (s *Store) Save(meta RunMetadata, sc *scene.Scene, result *sim.Result) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}

	meta.Timestamp = s.now()
	meta.ID = s.newID(meta.Name, meta.Timestamp)
	meta.Bodies = len(sc.Bodies())
	meta.Steps = result.StepsTaken
	meta.Totals = result.Totals
	meta.Metrics = result.Metrics

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, bodiesFile), describe(sc)); err != nil {
		return "", err
	}
	if err := writeTrajectory(filepath.Join(runDir, trajectoryFile), result.Frames); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func (s *Store) newID(name string, ts time.Time) string {
	if name == "" {
		name = "run"
	}
	base := fmt.Sprintf("%s_%s", name, ts.Format("20060102-150405"))
	id := base
	for i := 2; ; i++ {
		if _, err := os.Stat(filepath.Join(s.baseDir, id)); os.IsNotExist(err) {
			return id
		}
		id = fmt.Sprintf("%s-%d", base, i)
	}
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeTrajectory(path string, frames []sim.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(trajectoryHeader); err != nil {
		return err
	}

	for _, fr := range frames {
		for i, st := range fr.States {
			row := []string{strconv.Itoa(fr.Step), formatFloat(fr.Time), strconv.Itoa(i)}
			for _, v := range []float64{
				st.COM[0], st.COM[1], st.COM[2],
				st.Orientation.W, st.Orientation.V[0], st.Orientation.V[1], st.Orientation.V[2],
				st.Velocity[0], st.Velocity[1], st.Velocity[2],
				st.AngularVelocity[0], st.AngularVelocity[1], st.AngularVelocity[2],
			} {
				row = append(row, formatFloat(v))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}

// List returns every readable run, oldest first.
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

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) readJSON(runID, name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, name))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	var meta RunMetadata
	if err := s.readJSON(runID, metadataFile, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadBodies(runID string) ([]BodyInfo, error) {
	var bodies []BodyInfo
	if err := s.readJSON(runID, bodiesFile, &bodies); err != nil {
		return nil, err
	}
	return bodies, nil
}

// LoadFrames reads the trajectory back into frames, one per recorded step.
func (s *Store) LoadFrames(runID string) ([]sim.Frame, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, trajectoryFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(trajectoryHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	frames := make([]sim.Frame, 0)
	for i, record := range records {
		if i == 0 {
			continue
		}

		step, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", trajectoryFile, i+1, err)
		}
		vals := make([]float64, len(record)-3)
		for j := range vals {
			if vals[j], err = strconv.ParseFloat(record[j+3], 64); err != nil {
				return nil, fmt.Errorf("%s line %d: %w", trajectoryFile, i+1, err)
			}
		}
		t, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", trajectoryFile, i+1, err)
		}

		if len(frames) == 0 || frames[len(frames)-1].Step != step {
			frames = append(frames, sim.Frame{Step: step, Time: t})
		}
		fr := &frames[len(frames)-1]
		fr.States = append(fr.States, rigid.State{
			COM:             mgl64.Vec3{vals[0], vals[1], vals[2]},
			Orientation:     mgl64.Quat{W: vals[3], V: mgl64.Vec3{vals[4], vals[5], vals[6]}},
			Velocity:        mgl64.Vec3{vals[7], vals[8], vals[9]},
			AngularVelocity: mgl64.Vec3{vals[10], vals[11], vals[12]},
		})
	}
	return frames, nil
}
