//go:build vecaggdebug

package util

// DebugChecks enables bounds and ownership checks on the accumulate paths.
const DebugChecks = true
