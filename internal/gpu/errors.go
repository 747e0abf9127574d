package gpu

import "errors"

// Package-level errors.
var (
	// ErrNoGPU is returned when no suitable GPU adapter is available.
	ErrNoGPU = errors.New("gpu: no suitable GPU adapter found")

	// ErrNotInitialized is returned when using a backend before Init.
	ErrNotInitialized = errors.New("gpu: backend is not initialized")

	// ErrInvalidDimensions is returned for non-positive sizes.
	ErrInvalidDimensions = errors.New("gpu: invalid dimensions")

	// ErrTextureReleased is returned when operating on a released texture.
	ErrTextureReleased = errors.New("gpu: texture has been released")

	// ErrRegionOutOfBounds is returned when an upload rectangle falls
	// outside the texture.
	ErrRegionOutOfBounds = errors.New("gpu: region is outside texture bounds")

	// ErrSizeMismatch is returned when pixel data does not match the
	// destination rectangle.
	ErrSizeMismatch = errors.New("gpu: pixel data does not match region size")

	// ErrShaderCompile is returned when WGSL compilation fails.
	ErrShaderCompile = errors.New("gpu: shader compilation failed")

	// ErrUnknownAttribute is returned when a program is asked for an
	// attribute or uniform it does not declare.
	ErrUnknownAttribute = errors.New("gpu: unknown attribute or uniform name")
)
