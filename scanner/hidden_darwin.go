//go:build darwin
// +build darwin

package scanner

import (
	"golang.org/x/sys/unix"
)

func platformHidden(path string) bool {
	finderInfo := make([]byte, 32)
	_, err := unix.Getxattr(path, "com.apple.FinderInfo", finderInfo)
	if err != nil {
		return false
	}
	return finderInfo[8]&uint8(0x40) != 0 // kIsInvisibleBit
}
