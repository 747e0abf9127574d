// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render draws scene trees to the GPU.
//
// The package sits on top of the scene graph and the tile cache: a
// Pass walks the tree in paint order, fetches cached raster tiles for
// every visible content node, and feeds them to a Brush that batches
// textured quads into as few draw calls as possible.
//
// Rendering is single-threaded. A Pass and its Brush must be used
// from one goroutine.
package render
