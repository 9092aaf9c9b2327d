// Package meshmodel defines the core polygon-soup and half-edge mesh containers
// shared by every stage of the repair engine, and the one-way conversion from a
// soup to a mesh.
//
// A Soup is an ordered sequence of Points plus an ordered sequence of Polygons
// with no connectivity invariants — the representation used for bulk, forgiving
// repair. A Mesh is a half-edge structure with manifold invariants, built from a
// soup exactly once per pipeline run. Both are plain structs backed by slices and
// index handles rather than pointer graphs, so they can be copied, truncated, or
// handed across goroutines by value without aliasing concerns.
package meshmodel
