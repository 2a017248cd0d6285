package scene

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/constraint"
	"github.com/san-kum/rigidsim/internal/geom"
	"github.com/san-kum/rigidsim/internal/rigid"
)

const (
	sceneFields      = 10
	constraintFields = 6
)

// Loader reads scene and constraint files. Geometry defaults to a
// geom.DirLoader rooted at the scene file's directory.
type Loader struct {
	Geometry geom.Loader
	Options  Options
	Logger   *log.Logger
}

func NewLoader(opts Options, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{Options: opts, Logger: logger}
}

// Load builds a scene. An empty constraintPath means no constraints.
func (l *Loader) Load(scenePath, constraintPath string) (*Scene, error) {
	logger := l.Logger
	if logger == nil {
		logger = log.Default()
	}
	geo := l.Geometry
	if geo == nil {
		geo = geom.NewDirLoader(filepath.Dir(scenePath))
	}

	bodies, err := l.readScene(scenePath, geo, logger)
	if err != nil {
		return nil, err
	}

	var cs []constraint.Constraint
	if constraintPath != "" {
		if cs, err = readConstraints(constraintPath, bodies); err != nil {
			return nil, err
		}
	}

	s := New(bodies, cs, l.Options)
	logger.Info("scene loaded",
		"path", scenePath,
		"bodies", len(bodies),
		"constraints", len(cs),
		"cell", s.CellSize(),
	)
	return s, nil
}

// records yields the non-blank, comment-stripped lines of a file with their
// line numbers. The first record is the declared count.
type records struct {
	path  string
	sc    *bufio.Scanner
	line  int
	close func() error
}

func openRecords(path string) (*records, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("%w: %w", ErrNotFound, err)}
		}
		return nil, &LoadError{Path: path, Err: err}
	}
	return &records{path: path, sc: bufio.NewScanner(f), close: f.Close}, nil
}

func (r *records) next() ([]string, error) {
	for r.sc.Scan() {
		r.line++
		text := r.sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		if fields := strings.Fields(text); len(fields) > 0 {
			return fields, nil
		}
	}
	if err := r.sc.Err(); err != nil {
		return nil, r.errorf(err)
	}
	return nil, io.EOF
}

func (r *records) errorf(err error) error {
	return &LoadError{Path: r.path, Line: r.line, Err: err}
}

func (r *records) malformed(format string, args ...any) error {
	return r.errorf(fmt.Errorf("%w: "+format, append([]any{ErrMalformed}, args...)...))
}

// count reads the header line.
func (r *records) count() (int, error) {
	fields, err := r.next()
	if err == io.EOF {
		return 0, r.malformed("missing record count")
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 0 || len(fields) != 1 {
		return 0, r.malformed("invalid record count %q", strings.Join(fields, " "))
	}
	return n, nil
}

// record reads the i-th of n records and checks its width.
func (r *records) record(i, n, width int) ([]string, error) {
	fields, err := r.next()
	if err == io.EOF {
		return nil, r.malformed("expected %d records, found %d", n, i)
	}
	if err != nil {
		return nil, err
	}
	if len(fields) != width {
		return nil, r.malformed("expected %d fields, got %d", width, len(fields))
	}
	return fields, nil
}

func (r *records) floats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, r.malformed("field %d: %q is not a number", i+1, f)
		}
		out[i] = v
	}
	return out, nil
}

func (r *records) ints(fields []string) ([]int, error) {
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, r.malformed("field %d: %q is not an integer", i+1, f)
		}
		out[i] = v
	}
	return out, nil
}

// readScene parses "<mesh> <density> <fixed> x y z qw qx qy qz" records.
func (l *Loader) readScene(path string, geo geom.Loader, logger *log.Logger) ([]*rigid.Body, error) {
	r, err := openRecords(path)
	if err != nil {
		return nil, err
	}
	defer r.close()

	n, err := r.count()
	if err != nil {
		return nil, err
	}

	var bodies []*rigid.Body
	for i := 0; i < n; i++ {
		fields, err := r.record(i, n, sceneFields)
		if err != nil {
			return nil, err
		}
		nums, err := r.floats(fields[1:])
		if err != nil {
			return nil, err
		}
		density, fixed := nums[0], nums[1] != 0
		com := mgl64.Vec3{nums[2], nums[3], nums[4]}
		q := mgl64.Quat{W: nums[5], V: mgl64.Vec3{nums[6], nums[7], nums[8]}}

		mesh, err := geo.Load(fields[0])
		if err != nil {
			return nil, r.errorf(err)
		}
		b, err := rigid.New(mesh, density, fixed, com, q)
		if err != nil {
			return nil, r.errorf(err)
		}

		logger.Debug("body",
			"index", i,
			"mesh", fields[0],
			"mass", b.Mass(),
			"fixed", fixed,
			"com", com,
		)
		bodies = append(bodies, b)
	}
	return bodies, nil
}

// readConstraints parses "<b1> <v1> <b2> <v2> <lower> <upper>" records, each
// expanding into a lower and an upper bound.
func readConstraints(path string, bodies []*rigid.Body) ([]constraint.Constraint, error) {
	r, err := openRecords(path)
	if err != nil {
		return nil, err
	}
	defer r.close()

	n, err := r.count()
	if err != nil {
		return nil, err
	}

	var cs []constraint.Constraint
	for i := 0; i < n; i++ {
		fields, err := r.record(i, n, constraintFields)
		if err != nil {
			return nil, err
		}
		idx, err := r.ints(fields[:4])
		if err != nil {
			return nil, err
		}
		ratios, err := r.floats(fields[4:])
		if err != nil {
			return nil, err
		}

		a := constraint.Attachment{Body: idx[0], Vertex: idx[1]}
		b := constraint.Attachment{Body: idx[2], Vertex: idx[3]}
		lower, upper, err := constraint.Bounds(bodies, a, b, ratios[0], ratios[1])
		if err != nil {
			return nil, r.errorf(err)
		}
		cs = append(cs, lower, upper)
	}
	return cs, nil
}
