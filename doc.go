// Package stage provides the shared primitives of the stage rendering
// core: 2D affine matrices, points, rectangles, color matrices, CPU
// raster surfaces, and the content-source contract consumed by the
// tile cache.
//
// The retained scene graph lives in the scene package, raster tile
// caching in tilecache, GPU texture packing in atlas, and batched quad
// submission in render. This root package deliberately has no GPU
// dependency so that content sources can be implemented and tested
// without a device.
//
// Logging is silent by default. Call SetLogger to enable diagnostics:
//
//	stage.SetLogger(slog.Default())
package stage
