//go:build !unix

package source

import (
	"errors"
	"os"
)

var errNoFIFO = errors.New("named pipes are not supported on this platform")

func ensureFIFO(string, os.FileMode) error { return errNoFIFO }

func wakeReader(string) {}
