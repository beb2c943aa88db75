//go:build linux

package service

import (
	"bytes"
	"os"
	"strconv"
)

// isZombie reports whether /proc/<pid>/status shows state Z.
func isZombie(pid int) bool {
	b, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/status")
	if err != nil {
		return false
	}
	return bytes.Contains(b, []byte("State:\tZ"))
}
