// Package tilecache converts vector or procedural content into
// GPU-resident raster tiles at quantized power-of-two scale levels.
//
// Each content source gets its own Cache. A fetch maps the current
// transform to a scale level, returns the tiles intersecting the query
// rectangle at that level, and re-rasterizes any tiles that have no
// live texture region. Rasterization goes through a pooled scratch
// surface; the resulting pixels are handed to an upload callback that
// binds them to texture-atlas regions.
//
// The scratch surface is exclusively owned for the duration of one
// caching step. Caching steps must not reenter.
package tilecache
