//go:build linux

package cmd

import "golang.org/x/sys/unix"

// isTerminal 通过 TCGETS 判断 fd 是否为终端
func isTerminal(fd uintptr) bool {
	_, err := unix.IoctlGetTermios(int(fd), unix.TCGETS)
	return err == nil
}
