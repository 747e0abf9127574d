// Package debug gates invariant checks that should crash loudly during
// development but degrade to a logged warning in release builds.
//
// Build with -tags stagedebug to make faults panic.
package debug

// A fault is a programmer error (capability violation, ancestry cycle,
// packing-depth exhaustion), not a runtime condition. Callers check
// Enabled and either panic or log-and-continue.
