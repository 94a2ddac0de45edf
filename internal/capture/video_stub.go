//go:build !windows

package capture

import "fmt"

// NewScreenSource is not supported on non-Windows builds.
func NewScreenSource(region Region) (VideoSource, error) {
	return nil, fmt.Errorf("screen capture not supported on this platform")
}
