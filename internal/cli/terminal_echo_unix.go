//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package cli

import (
	"os"

	"golang.org/x/sys/unix"
)

// withEchoDisabled runs read with terminal echo off. Input that is not a
// terminal (a pipe in a provisioning script) is read as is.
func withEchoDisabled(stdin *os.File, read func() error) error {
	fd := int(stdin.Fd())
	termios, err := unix.IoctlGetTermios(fd, termiosReadRequest)
	if err != nil {
		return read()
	}

	original := *termios
	silenced := original
	silenced.Lflag &^= unix.ECHO
	if err := unix.IoctlSetTermios(fd, termiosWriteRequest, &silenced); err != nil {
		return err
	}
	defer func() {
		_ = unix.IoctlSetTermios(fd, termiosWriteRequest, &original)
	}()
	return read()
}
