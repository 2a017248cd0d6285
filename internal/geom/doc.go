// Package geom holds triangle-mesh geometry for rigid bodies.
//
// It sits outside the simulation core: the core only needs reference
// vertices, faces and mass properties, which this package produces from
// OFF and MEDIT files or from the built-in primitives:
//
//   - [Mesh]: vertices, boundary triangles and optional tetrahedra
//   - [Loader]: resolves a geometry name to a [Mesh]
//   - [DirLoader]: file-backed loader with primitive fallback
//   - [ComputeMass]: volume, center of mass and inertia tensor
//
// # Example
//
//	loader := geom.NewDirLoader("data")
//	mesh, _ := loader.Load("cube")
//	props, _ := geom.ComputeMass(mesh, 250)
package geom
