package geom

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// MassProperties describes a solid of uniform density.
// Inertia is expressed about Center in the mesh's own axes.
type MassProperties struct {
	Volume  float64
	Mass    float64
	Center  mgl64.Vec3
	Inertia mgl64.Mat3
}

// covariance of the canonical tetrahedron (0, e1, e2, e3)
var canonicalCovariance = mgl64.Mat3{2, 1, 1, 1, 2, 1, 1, 1, 2}.Mul(1.0 / 120.0)

// ComputeMass integrates volume, center of mass and inertia over the mesh.
//
// Tetrahedra are used when present; otherwise the boundary surface is fanned
// into signed tetrahedra against the origin, which requires a closed surface.
// Inward-wound surfaces are accepted and handled by the sign of the volume.
func ComputeMass(m *Mesh, density float64) (MassProperties, error) {
	var (
		vol    float64
		moment mgl64.Vec3
		cov    mgl64.Mat3
	)

	accumulate := func(p0, a, b, c mgl64.Vec3, unsigned bool) {
		v, centroid, cv := tetCovariance(p0, a, b, c)
		if unsigned && v < 0 {
			v, cv = -v, cv.Mul(-1)
		}
		vol += v
		moment = moment.Add(centroid.Mul(v))
		cov = cov.Add(cv)
	}

	if len(m.Tets) > 0 {
		for _, t := range m.Tets {
			accumulate(m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]], m.Vertices[t[3]], true)
		}
	} else {
		var origin mgl64.Vec3
		for _, f := range m.Faces {
			accumulate(origin, m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]], false)
		}
		if vol < 0 {
			vol, moment, cov = -vol, moment.Mul(-1), cov.Mul(-1)
		}
	}

	if vol <= 1e-12 || math.IsNaN(vol) {
		return MassProperties{}, fmt.Errorf("%w: %q (volume %g)", ErrDegenerate, m.Name, vol)
	}

	center := moment.Mul(1 / vol)
	mass := density * vol

	// shift the second moment from the origin to the center of mass
	cov = cov.Mul(density).Sub(center.OuterProd3(center).Mul(mass))
	inertia := mgl64.Ident3().Mul(cov.Trace()).Sub(cov)

	return MassProperties{
		Volume:  vol,
		Mass:    mass,
		Center:  center,
		Inertia: inertia,
	}, nil
}

// tetCovariance returns the signed volume, centroid and second moment about
// the world origin of the tetrahedron (p0, a, b, c).
func tetCovariance(p0, a, b, c mgl64.Vec3) (float64, mgl64.Vec3, mgl64.Mat3) {
	ea, eb, ec := a.Sub(p0), b.Sub(p0), c.Sub(p0)
	A := mgl64.Mat3FromCols(ea, eb, ec)
	det := A.Det()
	vol := det / 6

	local := A.Mul3(canonicalCovariance).Mul3(A.Transpose()).Mul(det)
	localCentroid := ea.Add(eb).Add(ec).Mul(0.25)

	// parallel-axis shift by p0 for the second moment
	shift := p0.OuterProd3(localCentroid).
		Add(localCentroid.OuterProd3(p0)).
		Add(p0.OuterProd3(p0)).
		Mul(vol)

	return vol, p0.Add(localCentroid), local.Add(shift)
}
