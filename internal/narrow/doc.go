// Package narrow implements exact penetration tests between convex shapes
// described by their support mappings.
//
// Collide runs GJK on the Minkowski difference A - B to decide overlap and,
// when the shapes overlap, expands the final simplex with EPA to recover the
// minimum translation: a depth, a unit normal pointing from A toward B, and
// a contact point on B.
//
//	c, ok := narrow.Collide(narrow.Hull(a), narrow.Hull(b))
//	if ok {
//		// moving B by c.Depth along c.Normal separates the shapes
//	}
package narrow
