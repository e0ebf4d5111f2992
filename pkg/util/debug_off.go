//go:build !vecaggdebug

package util

const DebugChecks = false
