package nmea

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net"
	"strings"
	"time"

	"trailbook/internal/coord"
	"trailbook/internal/gps"
)

const DefaultGPSDAddr = "127.0.0.1:2947"

// dialGPSD connects to gpsd over TCP.
func dialGPSD(ctx context.Context, addr string) (net.Conn, error) {
	if strings.TrimSpace(addr) == "" {
		addr = DefaultGPSDAddr
	}
	d := &net.Dialer{Timeout: 2 * time.Second}
	return d.DialContext(ctx, "tcp", addr)
}

// gpsdWatch enables JSON streaming reports.
func gpsdWatch(w io.Writer) error {
	// scaled=true yields SI units (m/s, meters) and degrees.
	_, err := w.Write([]byte("?WATCH={\"enable\":true,\"json\":true,\"scaled\":true}\n"))
	return err
}

type gpsdMsgBase struct {
	Class string `json:"class"`
}

type gpsdTPV struct {
	Mode   *int   `json:"mode"`
	Status *int   `json:"status"`
	Time   string `json:"time"`

	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`

	Alt     *float64 `json:"alt"`
	AltMSL  *float64 `json:"altMSL"`
	SpeedMS *float64 `json:"speed"`
	Track   *float64 `json:"track"`
}

type gpsdSat struct {
	Used bool `json:"used"`
}

type gpsdSKY struct {
	HDOP       *float64  `json:"hdop"`
	VDOP       *float64  `json:"vdop"`
	PDOP       *float64  `json:"pdop"`
	Satellites []gpsdSat `json:"satellites"`
	USat       *int      `json:"uSat"` // some gpsd versions
}

// gpsdState keeps the latest SKY report; gpsd sends it far less often than
// TPV, so each position report borrows the last known quality values.
type gpsdState struct {
	hdop, vdop, pdop *float64
	sats             uint
}

// applyLine decodes one gpsd report. It returns a point for every TPV with
// a 2D or 3D fix.
func (s *gpsdState) applyLine(line string) (*gps.Trackpoint, error) {
	var base gpsdMsgBase
	if err := json.Unmarshal([]byte(line), &base); err != nil {
		return nil, fmt.Errorf("gpsd json parse failed: %w", err)
	}

	switch strings.ToUpper(strings.TrimSpace(base.Class)) {
	case "TPV":
		var tpv gpsdTPV
		if err := json.Unmarshal([]byte(line), &tpv); err != nil {
			return nil, fmt.Errorf("gpsd tpv parse failed: %w", err)
		}
		return s.applyTPV(tpv), nil
	case "SKY":
		var sky gpsdSKY
		if err := json.Unmarshal([]byte(line), &sky); err != nil {
			return nil, fmt.Errorf("gpsd sky parse failed: %w", err)
		}
		s.applySKY(sky)
		return nil, nil
	default:
		// VERSION, DEVICES, WATCH...
		return nil, nil
	}
}

func (s *gpsdState) applyTPV(tpv gpsdTPV) *gps.Trackpoint {
	if tpv.Mode == nil || *tpv.Mode < 2 || tpv.Lat == nil || tpv.Lon == nil {
		return nil
	}

	tp := &gps.Trackpoint{
		Coord:  coord.FromLatLon(coord.ModeLatLon, coord.LatLon{Lat: *tpv.Lat, Lon: *tpv.Lon}),
		Speed:  tpv.SpeedMS,
		Course: tpv.Track,
		Sats:   s.sats,
		HDOP:   s.hdop,
		VDOP:   s.vdop,
		PDOP:   s.pdop,
	}
	tp.FixMode = gps.Fix2D
	if *tpv.Mode >= 3 {
		tp.FixMode = gps.Fix3D
	}
	// status 2 is DGPS in every gpsd release.
	if tpv.Status != nil && *tpv.Status == 2 {
		tp.FixMode = gps.FixDGPS
	}

	tp.Altitude = tpv.AltMSL
	if tp.Altitude == nil {
		tp.Altitude = tpv.Alt
	}
	if ts := strings.TrimSpace(tpv.Time); ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			tp.Timestamp = gps.Float(float64(t.Unix()) + float64(t.Nanosecond())/1e9)
		}
	}
	if tp.Course != nil {
		tp.Course = gps.Float(math.Mod(*tp.Course+360.0, 360.0))
	}
	return tp
}

func (s *gpsdState) applySKY(sky gpsdSKY) {
	if sky.HDOP != nil {
		s.hdop = sky.HDOP
	}
	if sky.VDOP != nil {
		s.vdop = sky.VDOP
	}
	if sky.PDOP != nil {
		s.pdop = sky.PDOP
	}
	switch {
	case sky.USat != nil && *sky.USat >= 0:
		s.sats = uint(*sky.USat)
	case len(sky.Satellites) > 0:
		used := uint(0)
		for _, sat := range sky.Satellites {
			if sat.Used {
				used++
			}
		}
		s.sats = used
	}
}
