// Package nmea turns NMEA 0183 output of a GNSS receiver, or the JSON
// reports of a gpsd daemon, into track points.
//
// Only RMC, GGA and GSA are decoded. Together they carry everything a
// track point can hold: position, time, altitude, speed, course, fix mode,
// satellites in use and dilution of precision.
package nmea

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Sentence is one checksummed NMEA sentence.
type Sentence struct {
	// Type is the sentence formatter without the talker ID ("RMC", "GGA").
	Type string
	// Fields is the comma-split payload (excluding $ and checksum). Fields[0]
	// is the talker+type address.
	Fields []string
}

// ParseSentence validates the checksum of line and splits it into fields.
func ParseSentence(line string) (Sentence, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return Sentence{}, fmt.Errorf("nmea: missing '$'")
	}
	star := strings.LastIndexByte(line, '*')
	if star == -1 {
		return Sentence{}, fmt.Errorf("nmea: missing checksum")
	}
	payload := line[1:star]
	ck := strings.TrimSpace(line[star+1:])
	if len(ck) < 2 {
		return Sentence{}, fmt.Errorf("nmea: short checksum")
	}
	want, err := hex.DecodeString(ck[:2])
	if err != nil || len(want) != 1 {
		return Sentence{}, fmt.Errorf("nmea: bad checksum %q", ck[:2])
	}
	if got := checksum(payload); got != want[0] {
		return Sentence{}, fmt.Errorf("nmea: checksum mismatch got=%02X want=%02X", got, want[0])
	}

	parts := strings.Split(payload, ",")
	addr := parts[0]
	if len(addr) < 3 {
		return Sentence{}, fmt.Errorf("nmea: short type %q", addr)
	}
	// GPRMC, GNRMC, BDRMC... all decode the same way.
	return Sentence{Type: strings.ToUpper(addr[len(addr)-3:]), Fields: parts}, nil
}

func checksum(payload string) byte {
	ck := byte(0)
	for i := 0; i < len(payload); i++ {
		ck ^= payload[i]
	}
	return ck
}
