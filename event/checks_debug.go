//go:build debugchecks

package event

// Caller-contract assertions are compiled in only under the debugchecks
// build tag; they are too costly for the release-mode audio path.
const checksEnabled = true
