//go:build !linux

package serialio

import (
	"fmt"
	"io"
)

func openTTY(path string, baud int) (io.ReadWriteCloser, error) {
	return nil, fmt.Errorf("serialio: tty access not supported on this platform")
}
