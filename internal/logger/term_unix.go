//go:build darwin || freebsd || linux
// +build darwin freebsd linux

package logger

import (
	"os"

	"golang.org/x/sys/unix"
)

const colorReset = "\033[0m"
const colorBold = "\033[1m"

func stderrWriter() *os.File {
	return os.Stderr
}

func useColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	_, err := unix.IoctlGetTermios(int(os.Stderr.Fd()), ioctlGetTermios)
	return err == nil
}
