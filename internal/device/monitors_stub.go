//go:build !windows

package device

import "fmt"

// ListMonitors is not supported on non-Windows builds.
func ListMonitors() ([]MonitorInfo, error) {
	return nil, fmt.Errorf("monitor enumeration not supported on this platform")
}
