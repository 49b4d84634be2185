// Package quarkgl provides a minimal, predictable software 3D engine.
//
// QuarkGL is intended for visualization: a scene graph of groups, meshes and
// lights, a perspective camera and orbit/zoom/pan controls. It is not a game
// engine and does not provide a GPU abstraction.
//
// Pipeline (fixed):
//
//	Scene graph → World matrices → Projection → Clipping → Rasterization → Surface.
//
// The renderer is software-only and draws into an *image.RGBA it owns, so the
// result can be handed to a window, encoded to a file or inspected in tests.
// Math is float64 throughout, on top of mgl64.
package quarkgl
