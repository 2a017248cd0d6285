package geom

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// ReadOFF parses an Object File Format surface. Polygons with more than
// three corners are fanned into triangles.
func ReadOFF(r io.Reader) (*Mesh, error) {
	t := newTokenizer(r)

	header, err := t.next()
	if err != nil {
		return nil, t.wrap(err)
	}
	if !strings.HasSuffix(strings.ToUpper(header), "OFF") {
		return nil, fmt.Errorf("%w: missing OFF header", ErrMalformed)
	}

	nv, err := t.int()
	if err != nil {
		return nil, err
	}
	nf, err := t.int()
	if err != nil {
		return nil, err
	}
	if _, err := t.int(); err != nil {
		return nil, err
	}
	if nv < 0 || nf < 0 {
		return nil, fmt.Errorf("%w: negative element count", ErrMalformed)
	}

	// counts come from the file, so grow as records arrive
	m := &Mesh{}
	for i := 0; i < nv; i++ {
		v, err := readVec3(t)
		if err != nil {
			return nil, err
		}
		m.Vertices = append(m.Vertices, v)
	}

	for i := 0; i < nf; i++ {
		k, err := t.int()
		if err != nil {
			return nil, err
		}
		if k < 3 {
			return nil, fmt.Errorf("%w: line %d: face with %d corners", ErrMalformed, t.line, k)
		}
		var poly []int
		for j := 0; j < k; j++ {
			v, err := t.int()
			if err != nil {
				return nil, err
			}
			poly = append(poly, v)
		}
		for j := 1; j+1 < k; j++ {
			m.Faces = append(m.Faces, [3]int{poly[0], poly[j], poly[j+1]})
		}
	}
	return m, nil
}

// ReadMESH parses the INRIA MEDIT format. Indices in the file are one-based;
// the trailing reference number of every element is discarded.
func ReadMESH(r io.Reader) (*Mesh, error) {
	t := newTokenizer(r)
	m := &Mesh{}

	for {
		kw, err := t.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch kw {
		case "MeshVersionFormatted", "Dimension":
			if _, err := t.int(); err != nil {
				return nil, err
			}
		case "Vertices":
			n, err := t.int()
			if err != nil {
				return nil, err
			}
			if n < 0 {
				return nil, fmt.Errorf("%w: negative vertex count", ErrMalformed)
			}
			m.Vertices = m.Vertices[:0]
			for i := 0; i < n; i++ {
				v, err := readVec3(t)
				if err != nil {
					return nil, err
				}
				m.Vertices = append(m.Vertices, v)
				if _, err := t.int(); err != nil {
					return nil, err
				}
			}
		case "Triangles":
			idx, err := readElements(t, 3)
			if err != nil {
				return nil, err
			}
			for _, e := range idx {
				m.Faces = append(m.Faces, [3]int{e[0], e[1], e[2]})
			}
		case "Tetrahedra":
			idx, err := readElements(t, 4)
			if err != nil {
				return nil, err
			}
			for _, e := range idx {
				m.Tets = append(m.Tets, [4]int{e[0], e[1], e[2], e[3]})
			}
		case "Edges":
			if _, err := readElements(t, 2); err != nil {
				return nil, err
			}
		case "End":
			return m, nil
		default:
			return nil, fmt.Errorf("%w: line %d: unknown section %q", ErrMalformed, t.line, kw)
		}
	}
	return m, nil
}

func readVec3(t *tokenizer) (mgl64.Vec3, error) {
	var v mgl64.Vec3
	for k := 0; k < 3; k++ {
		f, err := t.float()
		if err != nil {
			return v, err
		}
		v[k] = f
	}
	return v, nil
}

// readElements reads a counted block of width one-based indices plus a
// reference number each, returning zero-based indices.
func readElements(t *tokenizer, width int) ([][]int, error) {
	n, err := t.int()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: negative element count", ErrMalformed)
	}
	var out [][]int
	for i := 0; i < n; i++ {
		el := make([]int, width)
		for j := 0; j < width; j++ {
			v, err := t.int()
			if err != nil {
				return nil, err
			}
			el[j] = v - 1
		}
		out = append(out, el)
		if _, err := t.int(); err != nil {
			return nil, err
		}
	}
	return out, nil
}
