//go:build !linux

package nmea

import (
	"fmt"
	"os"
)

func OpenSerial(string, int) (*os.File, error) {
	return nil, fmt.Errorf("serial GNSS receivers are not supported on this platform")
}
