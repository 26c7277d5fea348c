//go:build !darwin && !windows
// +build !darwin,!windows

package scanner

// Dotfile prefix handling lives in the caller; nothing extra here.
func platformHidden(string) bool { return false }
