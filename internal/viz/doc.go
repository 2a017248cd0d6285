// Package viz draws scenes in the terminal with Bubble Tea.
//
//   - [Model]: steps a scene in real time and renders its vertex buffer as a
//     braille wireframe with an energy graph
//   - [Picker]: scenario menu that opens a [Model]
//   - [Canvas], [Camera], [Wireframe]: the rendering pieces
//
// # Key Bindings
//
//	Space - Pause/Resume
//	N     - Single step while paused
//	R     - Reset to the initial snapshot
//	[ ]   - Replay through recent history
//	HJKL  - Orbit the camera
//	T     - Cycle colour themes
//	G     - Toggle GIF recording
//	?     - Help overlay
package viz
