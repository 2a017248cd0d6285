package geom

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
)

// Loader resolves a geometry reference name to a mesh.
type Loader interface {
	Load(name string) (*Mesh, error)
}

// DirLoader reads .off and .mesh files relative to Dir. Names that do not
// exist on disk fall back to the built-in primitives, with or without an
// extension. Loaded meshes are cached and handed out as copies.
type DirLoader struct {
	Dir   string
	cache map[string]*Mesh
}

func NewDirLoader(dir string) *DirLoader {
	return &DirLoader{Dir: dir, cache: make(map[string]*Mesh)}
}

func (l *DirLoader) Load(name string) (*Mesh, error) {
	if m, ok := l.cache[name]; ok {
		return m.Clone(), nil
	}

	m, err := l.load(name)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	l.cache[name] = m
	return m.Clone(), nil
}

func (l *DirLoader) load(name string) (*Mesh, error) {
	path := filepath.Join(l.Dir, name)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			base := strings.TrimSuffix(name, filepath.Ext(name))
			if m, ok := Builtin(base); ok {
				return m, nil
			}
		}
		return nil, err
	}
	defer f.Close()

	var m *Mesh
	switch strings.ToLower(filepath.Ext(name)) {
	case ".off":
		m, err = ReadOFF(f)
	case ".mesh":
		m, err = ReadMESH(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Name = name
	return m, nil
}

// tokenizer yields whitespace separated fields, skipping '#' comments.
type tokenizer struct {
	sc     *bufio.Scanner
	fields []string
	line   int
}

func newTokenizer(r io.Reader) *tokenizer {
	return &tokenizer{sc: bufio.NewScanner(r)}
}

func (t *tokenizer) next() (string, error) {
	for len(t.fields) == 0 {
		if !t.sc.Scan() {
			if err := t.sc.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		t.line++
		text := t.sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		t.fields = strings.Fields(text)
	}
	tok := t.fields[0]
	t.fields = t.fields[1:]
	return tok, nil
}

func (t *tokenizer) float() (float64, error) {
	tok, err := t.next()
	if err != nil {
		return 0, t.wrap(err)
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: line %d: %q is not a number", ErrMalformed, t.line, tok)
	}
	return v, nil
}

func (t *tokenizer) int() (int, error) {
	tok, err := t.next()
	if err != nil {
		return 0, t.wrap(err)
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("%w: line %d: %q is not an integer", ErrMalformed, t.line, tok)
	}
	return v, nil
}

func (t *tokenizer) wrap(err error) error {
	if err == io.EOF {
		return fmt.Errorf("%w: unexpected end of file after line %d", ErrMalformed, t.line)
	}
	return err
}
