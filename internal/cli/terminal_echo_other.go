//go:build !windows && !linux && !darwin && !freebsd && !netbsd && !openbsd && !dragonfly

package cli

import "os"

func withEchoDisabled(_ *os.File, read func() error) error {
	return read()
}
