package nmea

import (
	"fmt"
	"os"
)

// DefaultBaud is the factory rate of most USB receivers (u-blox, MediaTek).
const DefaultBaud = 9600

// AutoDetectDevice returns the first USB serial device present, or "".
func AutoDetectDevice() string {
	return detectDevice(func(p string) bool {
		_, err := os.Stat(p)
		return err == nil
	})
}

func detectDevice(exists func(string) bool) string {
	for _, prefix := range []string{"/dev/ttyACM", "/dev/ttyUSB"} {
		for i := 0; i < 10; i++ {
			p := fmt.Sprintf("%s%d", prefix, i)
			if exists(p) {
				return p
			}
		}
	}
	return ""
}
