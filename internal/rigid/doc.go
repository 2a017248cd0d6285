// Package rigid holds the state of a single rigid body and the operations
// that act on one body at a time.
//
// A [Body] owns immutable reference-frame geometry centred on its center of
// mass, together with mutable kinematic state: center of mass, orientation,
// linear and angular velocity. Mass properties are stored as inverses so
// that a fixed body is simply one whose inverses are zero.
//
// The world-space vertex buffer is a cache. Support and AABB queries read
// the current pose directly; [Body.Refresh] brings the cached buffer in line
// with the pose once per step for publication.
package rigid
