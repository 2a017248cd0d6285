package rigid

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/narrow"
)

// Support returns the world vertex furthest along dir. The direction is
// taken into the body frame so the search runs over reference vertices.
func (b *Body) Support(dir mgl64.Vec3) mgl64.Vec3 {
	local := b.Orientation.Conjugate().Rotate(dir)

	best, bestDot := 0, math.Inf(-1)
	for i, v := range b.refs {
		if d := v.Dot(local); d > bestDot {
			best, bestDot = i, d
		}
	}
	return b.WorldVertex(best)
}

// AABB returns the world-space bounds under the current pose.
func (b *Body) AABB() (lo, hi mgl64.Vec3) {
	for k := 0; k < 3; k++ {
		var axis mgl64.Vec3
		axis[k] = 1
		hi[k] = b.Support(axis)[k]
		lo[k] = b.Support(axis.Mul(-1))[k]
	}
	return lo, hi
}

func overlaps(alo, ahi, blo, bhi mgl64.Vec3) bool {
	for k := 0; k < 3; k++ {
		if ahi[k] < blo[k] || bhi[k] < alo[k] {
			return false
		}
	}
	return true
}

// TestCollision reports whether b and other interpenetrate. The contact
// normal points from b toward other and the point lies on other; shifting
// other by Depth along Normal brings the surfaces into contact.
func (b *Body) TestCollision(other *Body) (narrow.Contact, bool) {
	alo, ahi := b.AABB()
	blo, bhi := other.AABB()
	if !overlaps(alo, ahi, blo, bhi) {
		return narrow.Contact{}, false
	}
	return narrow.Collide(b, other)
}
