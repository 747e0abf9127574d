//go:build !stagedebug

package debug

// Enabled reports whether fault conditions panic instead of logging.
const Enabled = false
