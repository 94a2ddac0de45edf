//go:build !windows

// Package autostart manages launching the tool at user login.
package autostart

import "fmt"

// Enable is not supported on non-Windows builds.
func Enable(appName string, args ...string) error {
	return fmt.Errorf("autostart not supported on this platform")
}

// Disable is not supported on non-Windows builds.
func Disable(appName string) error {
	return fmt.Errorf("autostart not supported on this platform")
}

// Enabled reports false on non-Windows builds.
func Enabled(appName string) bool { return false }
