//go:build !linux

package cmd

// isTerminal 在非 Linux 平台上不启用颜色
func isTerminal(fd uintptr) bool {
	return false
}
