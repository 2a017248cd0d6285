package constraint

import "github.com/san-kum/rigidsim/internal/rigid"

// Report counts what one ResolveAll pass did.
type Report struct {
	Visited       int
	PositionFixes int
	VelocityFixes int
	DepthCutoffs  int
}

func (r *Report) add(o Report) {
	r.Visited += o.Visited
	r.PositionFixes += o.PositionFixes
	r.VelocityFixes += o.VelocityFixes
	r.DepthCutoffs += o.DepthCutoffs
}

// Graph propagates constraint corrections to neighbouring constraints up to
// MaxDepth hops. It is a bounded local relaxation: coupled constraints may
// keep a residual violation when MaxDepth is small.
type Graph struct {
	MaxDepth  int
	Tolerance float64

	adj [][]int
}

type entry struct {
	index int
	depth int
}

// buildAdjacency maps each body to the constraints touching it, in
// constraint order. A constraint joining a body to itself is listed once.
func (g *Graph) buildAdjacency(numBodies int, cs []Constraint) {
	g.adj = make([][]int, numBodies)
	for i, c := range cs {
		g.adj[c.A.Body] = append(g.adj[c.A.Body], i)
		if c.B.Body != c.A.Body {
			g.adj[c.B.Body] = append(g.adj[c.B.Body], i)
		}
	}
}

// Neighbors lists the constraints sharing a body with cs[i], excluding i,
// first those on A's body and then those on B's body.
func (g *Graph) Neighbors(cs []Constraint, i int) []int {
	c := cs[i]
	var out []int
	for _, j := range g.adj[c.A.Body] {
		if j != i {
			out = append(out, j)
		}
	}
	if c.B.Body != c.A.Body {
		for _, j := range g.adj[c.B.Body] {
			if j != i {
				out = append(out, j)
			}
		}
	}
	return out
}

// ResolveAll starts a propagation at depth zero from every constraint in
// order. An empty constraint list is a no-op.
func (g *Graph) ResolveAll(bodies []*rigid.Body, cs []Constraint) Report {
	var total Report
	if len(cs) == 0 {
		return total
	}
	g.buildAdjacency(len(bodies), cs)
	for i := range cs {
		total.add(g.propagate(bodies, cs, i))
	}
	return total
}

// propagate walks depth-first from root with an explicit stack. Neighbours
// are pushed in reverse so they pop in adjacency order.
func (g *Graph) propagate(bodies []*rigid.Body, cs []Constraint, root int) Report {
	var r Report
	stack := []entry{{index: root}}

	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if e.depth >= g.MaxDepth {
			r.DepthCutoffs++
			continue
		}
		r.Visited++

		c := cs[e.index]
		if !c.ResolvePosition(bodies, g.Tolerance) {
			continue
		}
		r.PositionFixes++
		if c.ResolveVelocity(bodies, g.Tolerance) {
			r.VelocityFixes++
		}

		next := g.Neighbors(cs, e.index)
		for k := len(next) - 1; k >= 0; k-- {
			stack = append(stack, entry{index: next[k], depth: e.depth + 1})
		}
	}
	return r
}

// ResolveAll runs one propagation pass with the given limits.
func ResolveAll(bodies []*rigid.Body, cs []Constraint, maxDepth int, tolerance float64) Report {
	g := Graph{MaxDepth: maxDepth, Tolerance: tolerance}
	return g.ResolveAll(bodies, cs)
}
