//go:build !debugchecks

package event

const checksEnabled = false
