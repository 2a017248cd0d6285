// Package scene owns the bodies and constraints of a simulation and advances
// them one time step at a time.
//
// A step runs, in order:
//
//   - integrate every free body under gravity
//   - rebuild the broad-phase grid and resolve every candidate pair that
//     passes the narrow-phase test
//   - resolve ground contact for each body
//   - propagate constraint corrections up to the configured depth
//   - advance the clock
//   - refresh the cached world-space vertex buffers
//
// Scenes are loaded from a scene file and an optional constraint file with
// [Loader], or assembled in code with [New]. A Scene is not safe for
// concurrent use.
package scene
