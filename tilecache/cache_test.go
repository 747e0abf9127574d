package tilecache

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/stage"
	"github.com/gogpu/stage/atlas"
)

// fakeSource is a controllable content source.
type fakeSource struct {
	bounds   stage.Rect
	dynamic  bool
	tileable bool
	invalid  bool
	renders  int
	onRender func(*stage.Surface)
}

func (s *fakeSource) Bounds() stage.Rect { return s.bounds }
func (s *fakeSource) Dynamic() bool      { return s.dynamic }
func (s *fakeSource) Scalable() bool     { return true }
func (s *fakeSource) Tileable() bool     { return s.tileable }
func (s *fakeSource) Invalid() bool      { return s.invalid }
func (s *fakeSource) Render(surf *stage.Surface) {
	s.renders++
	if s.onRender != nil {
		s.onRender(surf)
	}
}

// testUploader binds tiles into a real atlas and counts calls.
type testUploader struct {
	t       *testing.T
	atlas   *atlas.Atlas
	uploads int
	updates int
	rects   []image.Rectangle
	fail    bool
}

func newTestUploader(t *testing.T) *testUploader {
	a, err := atlas.New(nil, atlas.Config{Width: 2048, Height: 2048})
	require.NoError(t, err)
	return &testUploader{t: t, atlas: a}
}

func (u *testUploader) upload(old *atlas.Region, src *stage.Surface, rect image.Rectangle) *atlas.Region {
	if u.fail {
		return nil
	}
	u.rects = append(u.rects, rect)
	w := rect.Dx() + 2*Border
	h := rect.Dy() + 2*Border
	pix := make([]byte, w*h*4)

	if old != nil && old.Alive() && old.Rect().Width == w && old.Rect().Height == h {
		require.NoError(u.t, old.Update(pix))
		u.updates++
		return old
	}
	if old != nil {
		old.Release()
	}
	region, err := u.atlas.Add(pix, w, h)
	require.NoError(u.t, err)
	u.uploads++
	return region
}

func TestCacheFetchRoundTrip(t *testing.T) {
	src := &fakeSource{bounds: stage.RectWH(0, 0, 100, 100), tileable: true}
	up := newTestUploader(t)
	c := New(Config{Source: src, Upload: up.upload})

	tiles, err := c.Fetch(src.bounds, stage.Identity())
	require.NoError(t, err)
	require.Len(t, tiles, 1)
	require.True(t, tiles[0].Bound())
	assert.Equal(t, 1, src.renders)
	assert.Equal(t, 1, up.uploads)

	region := tiles[0].Region()

	// A second fetch is a pure hit: same region, no re-render.
	tiles, err = c.Fetch(src.bounds, stage.Identity())
	require.NoError(t, err)
	require.Len(t, tiles, 1)
	assert.Same(t, region, tiles[0].Region())
	assert.Equal(t, 1, src.renders)
	assert.Equal(t, 1, up.uploads)

	hits, misses := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestCacheBatchesMisses(t *testing.T) {
	src := &fakeSource{bounds: stage.RectWH(0, 0, 600, 600), tileable: true}
	up := newTestUploader(t)
	c := New(Config{Source: src, Upload: up.upload})

	tiles, err := c.Fetch(src.bounds, stage.Identity())
	require.NoError(t, err)
	require.Len(t, tiles, 9)
	for _, tile := range tiles {
		assert.True(t, tile.Bound())
	}

	// The whole batch fits the scratch surface: one render, nine
	// uploads.
	assert.Equal(t, 1, src.renders)
	assert.Equal(t, 9, up.uploads)
}

func TestCacheBisectsOversizedBatch(t *testing.T) {
	// A 600x600 grid batch cannot fit a 512px scratch surface in one
	// render; the deferred tiles split into halves until they fit.
	src := &fakeSource{bounds: stage.RectWH(0, 0, 600, 600), tileable: true}
	up := newTestUploader(t)
	c := New(Config{Source: src, Upload: up.upload, ScratchSize: 512})

	tiles, err := c.Fetch(src.bounds, stage.Identity())
	require.NoError(t, err)
	require.Len(t, tiles, 9)
	for _, tile := range tiles {
		assert.True(t, tile.Bound())
	}
	assert.Equal(t, 9, up.uploads)
	assert.Greater(t, src.renders, 1, "oversized batch must split into several renders")
	assert.LessOrEqual(t, src.renders, 9)
}

func TestCacheSingleTileSpansFullBounds(t *testing.T) {
	// Non-tileable content caches as one full-bounds tile; its upload
	// rectangle must cover the whole source even past the grid content
	// size, up to the scratch surface.
	src := &fakeSource{bounds: stage.RectWH(0, 0, 600, 600), tileable: false}
	up := newTestUploader(t)
	c := New(Config{Source: src, Upload: up.upload})

	tiles, err := c.Fetch(src.bounds, stage.Identity())
	require.NoError(t, err)
	require.Len(t, tiles, 1)
	require.True(t, tiles[0].Bound())

	require.Len(t, up.rects, 1)
	assert.Equal(t, image.Rect(0, 0, 600, 600), up.rects[0])
	assert.Equal(t, 602, tiles[0].Region().Rect().Width, "bordered region width")
}

func TestCacheLevelsAreIndependent(t *testing.T) {
	src := &fakeSource{bounds: stage.RectWH(0, 0, 100, 100), tileable: true}
	up := newTestUploader(t)
	c := New(Config{Source: src, Upload: up.upload})

	_, err := c.Fetch(src.bounds, stage.Identity())
	require.NoError(t, err)
	_, err = c.Fetch(src.bounds, stage.Scale(0.5, 0.5))
	require.NoError(t, err)

	// Different view scales hit different level buckets.
	assert.Equal(t, 2, src.renders)
	assert.Equal(t, 2, up.uploads)

	// Each level stays warm on its own.
	_, err = c.Fetch(src.bounds, stage.Identity())
	require.NoError(t, err)
	_, err = c.Fetch(src.bounds, stage.Scale(0.5, 0.5))
	require.NoError(t, err)
	assert.Equal(t, 2, src.renders)
}

func TestCacheDynamicRerendersKeepsBinding(t *testing.T) {
	src := &fakeSource{bounds: stage.RectWH(0, 0, 100, 100), dynamic: true, tileable: false, invalid: true}
	up := newTestUploader(t)
	c := New(Config{Source: src, Upload: up.upload})

	tiles, err := c.Fetch(src.bounds, stage.Identity())
	require.NoError(t, err)
	require.Len(t, tiles, 1)
	region := tiles[0].Region()

	// Still invalid: the next fetch re-renders but updates the same
	// region in place.
	tiles, err = c.Fetch(src.bounds, stage.Identity())
	require.NoError(t, err)
	assert.Same(t, region, tiles[0].Region())
	assert.Equal(t, 2, src.renders)
	assert.Equal(t, 1, up.uploads)
	assert.Equal(t, 1, up.updates)

	// Once valid, fetches stop re-rendering.
	src.invalid = false
	_, err = c.Fetch(src.bounds, stage.Identity())
	require.NoError(t, err)
	assert.Equal(t, 2, src.renders)
}

func TestCacheUnboundTileRetried(t *testing.T) {
	src := &fakeSource{bounds: stage.RectWH(0, 0, 100, 100), tileable: true}
	up := newTestUploader(t)
	up.fail = true
	c := New(Config{Source: src, Upload: up.upload})

	tiles, err := c.Fetch(src.bounds, stage.Identity())
	require.NoError(t, err)
	require.Len(t, tiles, 1)
	assert.False(t, tiles[0].Bound(), "failed upload must leave the tile unbound")

	// The gap is transparent, not fatal; the next fetch retries.
	up.fail = false
	tiles, err = c.Fetch(src.bounds, stage.Identity())
	require.NoError(t, err)
	assert.True(t, tiles[0].Bound())
	assert.Equal(t, 2, src.renders)
}

func TestCacheReentrantFetch(t *testing.T) {
	up := newTestUploader(t)
	src := &fakeSource{bounds: stage.RectWH(0, 0, 100, 100), tileable: true}
	var c *Cache
	var innerErr error
	src.onRender = func(*stage.Surface) {
		_, innerErr = c.Fetch(src.bounds, stage.Identity())
	}
	c = New(Config{Source: src, Upload: up.upload})

	_, err := c.Fetch(src.bounds, stage.Identity())
	require.NoError(t, err)
	assert.ErrorIs(t, innerErr, ErrReentrantFetch)
}

func TestCacheInvalidateReleasesRegions(t *testing.T) {
	src := &fakeSource{bounds: stage.RectWH(0, 0, 600, 600), tileable: true}
	up := newTestUploader(t)
	c := New(Config{Source: src, Upload: up.upload})

	_, err := c.Fetch(src.bounds, stage.Identity())
	require.NoError(t, err)
	assert.Equal(t, 9, up.atlas.LiveRegions())

	c.Invalidate()
	assert.Equal(t, 0, up.atlas.LiveRegions())

	// Content re-caches from scratch afterwards.
	_, err = c.Fetch(src.bounds, stage.Identity())
	require.NoError(t, err)
	assert.Equal(t, 2, src.renders)
}

func TestCacheNoUploadCallback(t *testing.T) {
	src := &fakeSource{bounds: stage.RectWH(0, 0, 100, 100), tileable: true}
	c := New(Config{Source: src})

	_, err := c.Fetch(src.bounds, stage.Identity())
	assert.ErrorIs(t, err, ErrNoUpload)
}

func TestCacheEmptyQuery(t *testing.T) {
	src := &fakeSource{bounds: stage.RectWH(0, 0, 100, 100), tileable: true}
	up := newTestUploader(t)
	c := New(Config{Source: src, Upload: up.upload})

	tiles, err := c.Fetch(stage.RectWH(500, 500, 10, 10), stage.Identity())
	require.NoError(t, err)
	assert.Empty(t, tiles)
	assert.Equal(t, 0, src.renders)
}
