// Package notify shows desktop notifications for recording state
// changes. Failures are swallowed: a missing notification daemon must
// never interrupt a recording.
package notify

import "github.com/gen2brain/beeep"

// Notify shows a desktop notification.
func Notify(title, message string) {
	_ = beeep.Notify(title, message, "")
}
