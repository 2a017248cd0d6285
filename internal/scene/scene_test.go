package scene_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rigidsim/internal/constraint"
	"github.com/san-kum/rigidsim/internal/geom"
	"github.com/san-kum/rigidsim/internal/rigid"
	"github.com/san-kum/rigidsim/internal/scene"
)

const (
	dt  = 0.02
	tol = 1e-3
)

func write(dir, name, body string) string {
	path := filepath.Join(dir, name)
	Expect(os.WriteFile(path, []byte(body), 0o644)).To(Succeed())
	return path
}

func cube(com mgl64.Vec3, fixed bool) *rigid.Body {
	m, _ := geom.Builtin("cube")
	b, err := rigid.New(m, 1, fixed, com, mgl64.QuatIdent())
	Expect(err).NotTo(HaveOccurred())
	return b
}

func lowest(s *scene.Scene) float64 {
	y := 1e300
	for _, v := range s.VertexBuffer() {
		y = min(y, v.Y())
	}
	return y
}

var _ = Describe("Loader", func() {
	var (
		dir    string
		loader *scene.Loader
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		loader = scene.NewLoader(scene.DefaultOptions(), log.New(io.Discard))
	})

	It("loads bodies and expands each constraint into two bounds", func() {
		sp := write(dir, "two.txt", `# two cubes
2
cube.off 1 1  0 0.5 0  1 0 0 0
cube.off 2 0  0 3 0    2 0 0 0
`)
		cp := write(dir, "two_c.txt", "1\n0 0 1 0 0.9 1.1\n")

		s, err := loader.Load(sp, cp)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Bodies()).To(HaveLen(2))
		Expect(s.Bodies()[0].Fixed()).To(BeTrue())
		Expect(s.Bodies()[1].Orientation.Len()).To(BeNumerically("~", 1, 1e-12))
		Expect(s.Bodies()[1].Mass()).To(BeNumerically("~", 2, 1e-9))

		cs := s.Constraints()
		Expect(cs).To(HaveLen(2))
		Expect(cs[0].Upper).To(BeFalse())
		Expect(cs[1].Upper).To(BeTrue())
		Expect(cs[1].RefValue / cs[0].RefValue).To(BeNumerically("~", 1.1/0.9, 1e-9))
		Expect(s.ConstraintLines()).To(HaveLen(2))

		Expect(s.VertexBuffer()).To(HaveLen(16))
		Expect(s.Faces()).To(HaveLen(24))
		for _, f := range s.Faces()[12:] {
			for _, idx := range f {
				Expect(idx).To(BeNumerically(">=", 8))
			}
		}
	})

	It("treats an empty constraint path as no constraints", func() {
		sp := write(dir, "one.txt", "1\ncube 1 0 0 2 0 1 0 0 0\n")
		s, err := loader.Load(sp, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Constraints()).To(BeEmpty())
	})

	It("reports a missing file as ErrNotFound", func() {
		_, err := loader.Load(filepath.Join(dir, "nope.txt"), "")
		Expect(errors.Is(err, scene.ErrNotFound)).To(BeTrue())

		var le *scene.LoadError
		Expect(errors.As(err, &le)).To(BeTrue())
		Expect(le.Path).To(HaveSuffix("nope.txt"))

		sp := write(dir, "one.txt", "1\ncube 1 0 0 2 0 1 0 0 0\n")
		_, err = loader.Load(sp, filepath.Join(dir, "missing_c.txt"))
		Expect(errors.Is(err, scene.ErrNotFound)).To(BeTrue())
	})

	DescribeTable("rejects malformed scene files with a line number",
		func(body string, line int) {
			sp := write(dir, "bad.txt", body)
			_, err := loader.Load(sp, "")
			Expect(errors.Is(err, scene.ErrMalformed)).To(BeTrue(), "got %v", err)

			var le *scene.LoadError
			Expect(errors.As(err, &le)).To(BeTrue())
			Expect(le.Line).To(Equal(line))
		},
		Entry("bad number", "1\ncube 1 0 0 x 0 1 0 0 0\n", 2),
		Entry("short record", "1\ncube 1 0 0 0 0\n", 2),
		Entry("missing records", "2\ncube 1 0 0 2 0 1 0 0 0\n", 2),
		Entry("bad count", "two\n", 1),
		Entry("huge count", "9223372036854775807\ncube 1 0 0 2 0 1 0 0 0\n", 2),
	)

	It("rejects a constraint file whose count exceeds its records", func() {
		sp := write(dir, "two.txt", "2\ncube 1 0 0 2 0 1 0 0 0\ncube 1 0 2 2 0 1 0 0 0\n")
		cp := write(dir, "c.txt", "9223372036854775807\n0 0 1 0 0.9 1.1\n")

		_, err := loader.Load(sp, cp)
		Expect(errors.Is(err, scene.ErrMalformed)).To(BeTrue(), "got %v", err)
		var le *scene.LoadError
		Expect(errors.As(err, &le)).To(BeTrue())
		Expect(le.Path).To(HaveSuffix("c.txt"))
	})

	It("rejects constraints that reference missing bodies or vertices", func() {
		sp := write(dir, "one.txt", "1\ncube 1 0 0 2 0 1 0 0 0\n")

		for _, rec := range []string{"0 0 1 0 1 1", "0 0 0 9 1 1"} {
			cp := write(dir, "c.txt", "1\n"+rec+"\n")
			_, err := loader.Load(sp, cp)
			Expect(errors.Is(err, scene.ErrIndexOutOfRange)).To(BeTrue(), "record %q: %v", rec, err)
		}
	})

	It("surfaces geometry errors", func() {
		sp := write(dir, "one.txt", "1\nmissing.off 1 0 0 2 0 1 0 0 0\n")
		_, err := loader.Load(sp, "")
		Expect(err).To(HaveOccurred())

		var le *scene.LoadError
		Expect(errors.As(err, &le)).To(BeTrue())
		Expect(le.Line).To(Equal(2))
	})
})

var _ = Describe("Scene", func() {
	opts := scene.DefaultOptions()

	It("steps an empty scene", func() {
		s := scene.New(nil, nil, opts)
		st := s.Step(dt, 1, tol)

		Expect(s.Time()).To(BeNumerically("~", dt, 1e-15))
		Expect(s.VertexBuffer()).To(BeEmpty())
		Expect(s.Faces()).To(BeEmpty())
		Expect(s.ConstraintLines()).To(BeEmpty())
		Expect(st).To(Equal(scene.StepStats{}))
		Expect(s.CellSize()).To(Equal(1.0))
	})

	It("lifts a body out of the ground in the same step", func() {
		b := cube(mgl64.Vec3{0, 0.55, 0}, false)
		b.Velocity = mgl64.Vec3{0, -5, 0}
		s := scene.New([]*rigid.Body{b}, nil, opts)

		st := s.Step(dt, 0.5, tol)

		Expect(st.GroundContacts).To(Equal(1))
		Expect(lowest(s)).To(BeNumerically(">=", -1e-9))
	})

	It("keeps a body resting on the ground over many steps", func() {
		b := cube(mgl64.Vec3{0, 2, 0}, false)
		s := scene.New([]*rigid.Body{b}, nil, opts)
		for i := 0; i < 500; i++ {
			s.Step(dt, 0.3, tol)
			Expect(lowest(s)).To(BeNumerically(">=", -1e-9))
		}
		Expect(b.COM.Y()).To(BeNumerically("<", 2))
	})

	It("conserves momentum and energy in an elastic collision", func() {
		a := cube(mgl64.Vec3{0, 5, 0}, false)
		b := cube(mgl64.Vec3{1.05, 5, 0}, false)
		a.Velocity = mgl64.Vec3{3, 0, 0}
		b.Velocity = mgl64.Vec3{-3, 0, 0}

		o := opts
		o.Gravity = mgl64.Vec3{}
		s := scene.New([]*rigid.Body{a, b}, nil, o)

		e0 := a.KineticEnergy() + b.KineticEnergy()
		contacts := 0
		for i := 0; i < 10; i++ {
			contacts += s.Step(dt, 1, tol).Contacts
		}

		Expect(contacts).To(BeNumerically(">", 0))
		p := a.Momentum().Add(b.Momentum())
		Expect(p.Len()).To(BeNumerically("<", 1e-9))
		Expect(a.KineticEnergy() + b.KineticEnergy()).To(BeNumerically("~", e0, 1e-6))
	})

	It("never moves fixed bodies", func() {
		slab := cube(mgl64.Vec3{0, 0.5, 0}, true)
		top := cube(mgl64.Vec3{0.2, 2, 0.1}, false)
		top.AngularVelocity = mgl64.Vec3{1, 2, 0}
		cs := []constraint.Constraint{}
		c, err := constraint.New([]*rigid.Body{slab, top},
			constraint.Attachment{Body: 0, Vertex: 6}, constraint.Attachment{Body: 1, Vertex: 0},
			constraint.Equality, false, 1)
		Expect(err).NotTo(HaveOccurred())
		cs = append(cs, c)

		s := scene.New([]*rigid.Body{slab, top}, cs, opts)
		before := slab.State()
		for i := 0; i < 200; i++ {
			s.Step(dt, 1, tol)
		}
		Expect(slab.State()).To(Equal(before))
	})

	It("restores a snapshot", func() {
		b := cube(mgl64.Vec3{0, 3, 0}, false)
		s := scene.New([]*rigid.Body{b}, nil, opts)
		s.Step(dt, 1, tol)
		snap := s.Snapshot()
		buf := s.VertexBuffer()

		for i := 0; i < 20; i++ {
			s.Step(dt, 1, tol)
		}
		s.Restore(snap)

		Expect(s.Time()).To(Equal(snap.Time))
		Expect(b.State()).To(Equal(snap.States[0]))
		Expect(s.VertexBuffer()).To(Equal(buf))
	})

	It("is deterministic", func() {
		build := func() *scene.Scene {
			var bodies []*rigid.Body
			for i := 0; i < 3; i++ {
				for j := 0; j < 3; j++ {
					bodies = append(bodies, cube(mgl64.Vec3{float64(i) * 1.1, 1 + float64(j)*1.05, 0.1 * float64(i)}, false))
				}
			}
			return scene.New(bodies, nil, opts)
		}
		s1, s2 := build(), build()
		for i := 0; i < 100; i++ {
			s1.Step(dt, 0.5, tol)
			s2.Step(dt, 0.5, tol)
		}
		Expect(s1.VertexBuffer()).To(Equal(s2.VertexBuffer()))
	})

	It("publishes constraint lines from the refreshed buffers", func() {
		anchor := cube(mgl64.Vec3{0, 5, 0}, true)
		bob := cube(mgl64.Vec3{0, 3, 0}, false)
		bodies := []*rigid.Body{anchor, bob}
		lower, upper, err := constraint.Bounds(bodies,
			constraint.Attachment{Body: 0, Vertex: 0}, constraint.Attachment{Body: 1, Vertex: 3}, 1, 1)
		Expect(err).NotTo(HaveOccurred())

		s := scene.New(bodies, []constraint.Constraint{lower, upper}, opts)
		s.Step(dt, 1, tol)

		lines := s.ConstraintLines()
		Expect(lines).To(HaveLen(2))
		Expect(lines[0][0]).To(Equal(anchor.WorldVertices()[0]))
		Expect(lines[0][1]).To(Equal(bob.WorldVertices()[3]))
	})
})
