package nmea

import (
	"math"
	"strconv"
	"strings"
	"time"

	"trailbook/internal/coord"
	"trailbook/internal/gps"
)

const knotsToMetersPerSecond = 1852.0 / 3600.0

// epoch collects what the receiver reported for one fix time.
type epoch struct {
	clock string
	tod   time.Duration
	todOK bool

	// void is set when RMC says the data is invalid or GGA reports no fix.
	void bool

	lat, lon     float64
	latOK, lonOK bool

	alt    *float64
	speed  *float64
	course *float64

	sats   uint
	ggaFix uint
	gsaFix uint
	hdop   *float64
	vdop   *float64
	pdop   *float64
}

// Decoder merges RMC, GGA and GSA sentences into track points.
//
// Receivers send several sentences per fix, all stamped with the same UTC
// time. A point is complete when a sentence with a different time arrives,
// so Apply returns the previous fix at that moment and Flush returns the
// last one. The zero value is ready to use.
type Decoder struct {
	cur *epoch
	// date is UTC midnight of the most recent RMC date.
	date time.Time
}

// Apply feeds one sentence and returns a finished point, if any.
func (d *Decoder) Apply(s Sentence) *gps.Trackpoint {
	switch s.Type {
	case "RMC", "GGA", "GSA":
	default:
		return nil
	}

	var done *gps.Trackpoint
	// GSA carries no time and belongs to the fix in progress.
	if s.Type != "GSA" && len(s.Fields) > 1 {
		clock := strings.TrimSpace(s.Fields[1])
		if d.cur != nil && d.cur.clock != "" && clock != "" && clock != d.cur.clock {
			done = d.Flush()
		}
	}
	if d.cur == nil {
		d.cur = &epoch{}
	}

	switch s.Type {
	case "RMC":
		d.applyRMC(s.Fields)
	case "GGA":
		d.applyGGA(s.Fields)
	case "GSA":
		d.applyGSA(s.Fields)
	}
	return done
}

// Flush returns the fix in progress, or nil when it has no valid position.
func (d *Decoder) Flush() *gps.Trackpoint {
	e := d.cur
	d.cur = nil
	if e == nil || e.void || !e.latOK || !e.lonOK {
		return nil
	}

	tp := &gps.Trackpoint{
		Coord:    coord.FromLatLon(coord.ModeLatLon, coord.LatLon{Lat: e.lat, Lon: e.lon}),
		Altitude: e.alt,
		Speed:    e.speed,
		Course:   e.course,
		Sats:     e.sats,
		FixMode:  e.gsaFix,
		HDOP:     e.hdop,
		VDOP:     e.vdop,
		PDOP:     e.pdop,
	}
	// Differential and PPS fixes are only visible in GGA.
	if e.ggaFix > tp.FixMode {
		tp.FixMode = e.ggaFix
	}
	if e.todOK && !d.date.IsZero() {
		t := d.date.Add(e.tod)
		tp.Timestamp = gps.Float(float64(t.Unix()) + float64(t.Nanosecond())/1e9)
	}
	return tp
}

func (d *Decoder) setClock(v string) {
	e := d.cur
	v = strings.TrimSpace(v)
	if v == "" || e.clock != "" {
		return
	}
	e.clock = v
	e.tod, e.todOK = parseClock(v)
}

// RMC: Recommended Minimum Specific GNSS Data
// Fields (NMEA 0183 v2.3):
//
//	0: talker+type
//	1: time (hhmmss.sss)
//	2: status (A=active, V=void)
//	3: latitude (ddmm.mmmm)
//	4: N/S
//	5: longitude (dddmm.mmmm)
//	6: E/W
//	7: speed over ground (knots)
//	8: course over ground (deg)
//	9: date (ddmmyy)
func (d *Decoder) applyRMC(f []string) {
	if len(f) < 10 {
		return
	}
	e := d.cur
	d.setClock(f[1])
	if date, ok := parseDate(f[9]); ok {
		d.date = date
	}
	if strings.TrimSpace(f[2]) != "A" {
		e.void = true
		return
	}

	if lat, ok := parseLatLon(f[3], f[4]); ok {
		e.lat, e.latOK = lat, true
	}
	if lon, ok := parseLatLon(f[5], f[6]); ok {
		e.lon, e.lonOK = lon, true
	}
	if kt, ok := parseFloat(f[7]); ok {
		e.speed = gps.Float(kt * knotsToMetersPerSecond)
	}
	if trk, ok := parseFloat(f[8]); ok {
		e.course = gps.Float(math.Mod(trk+360.0, 360.0))
	}
}

// GGA: Global Positioning System Fix Data
// Fields:
//
//	0: talker+type
//	1: time
//	2: latitude
//	3: N/S
//	4: longitude
//	5: E/W
//	6: fix quality (0=invalid, 1=GPS, 2=DGPS, 3=PPS)
//	7: number of satellites
//	8: HDOP
//	9: altitude (meters)
//
// 10: units (M)
func (d *Decoder) applyGGA(f []string) {
	if len(f) < 11 {
		return
	}
	e := d.cur
	d.setClock(f[1])

	switch strings.TrimSpace(f[6]) {
	case "", "0":
		e.void = true
		return
	case "2":
		e.ggaFix = gps.FixDGPS
	case "3":
		e.ggaFix = gps.FixPPS
	}

	if lat, ok := parseLatLon(f[2], f[3]); ok {
		e.lat, e.latOK = lat, true
	}
	if lon, ok := parseLatLon(f[4], f[5]); ok {
		e.lon, e.lonOK = lon, true
	}
	if sats, err := strconv.Atoi(strings.TrimSpace(f[7])); err == nil && sats > 0 {
		e.sats = uint(sats)
	}
	if hdop, ok := parseFloat(f[8]); ok {
		e.hdop = gps.Float(hdop)
	}
	if altM, ok := parseFloat(f[9]); ok {
		e.alt = gps.Float(altM)
	}
}

// GSA: GNSS DOP and Active Satellites
// Fields:
//
//	0: talker+type
//	1: selection mode (A/M)
//	2: fix (1=none, 2=2D, 3=3D)
//	3-14: satellite PRNs
//	15: PDOP
//	16: HDOP
//	17: VDOP
func (d *Decoder) applyGSA(f []string) {
	if len(f) < 18 {
		return
	}
	e := d.cur
	switch strings.TrimSpace(f[2]) {
	case "1":
		e.gsaFix = gps.FixNone
	case "2":
		e.gsaFix = gps.Fix2D
	case "3":
		e.gsaFix = gps.Fix3D
	}
	if v, ok := parseFloat(f[15]); ok {
		e.pdop = gps.Float(v)
	}
	if v, ok := parseFloat(f[16]); ok && e.hdop == nil {
		e.hdop = gps.Float(v)
	}
	if v, ok := parseFloat(f[17]); ok {
		e.vdop = gps.Float(v)
	}
	if e.sats == 0 {
		n := 0
		for _, prn := range f[3:15] {
			if strings.TrimSpace(prn) != "" {
				n++
			}
		}
		e.sats = uint(n)
	}
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseClock parses hhmmss or hhmmss.sss into a time of day.
func parseClock(s string) (time.Duration, bool) {
	if len(s) < 6 {
		return 0, false
	}
	hh, err1 := strconv.Atoi(s[0:2])
	mm, err2 := strconv.Atoi(s[2:4])
	ss, err3 := strconv.ParseFloat(s[4:], 64)
	if err1 != nil || err2 != nil || err3 != nil || hh > 23 || mm > 59 || ss < 0 || ss >= 61 {
		return 0, false
	}
	tod := time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute
	tod += time.Duration(math.Round(ss*float64(time.Second/time.Millisecond))) * time.Millisecond
	return tod, true
}

// parseDate parses ddmmyy. Two-digit years below 80 are taken as 20xx.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) != 6 {
		return time.Time{}, false
	}
	dd, err1 := strconv.Atoi(s[0:2])
	mo, err2 := strconv.Atoi(s[2:4])
	yy, err3 := strconv.Atoi(s[4:6])
	if err1 != nil || err2 != nil || err3 != nil || dd < 1 || dd > 31 || mo < 1 || mo > 12 {
		return time.Time{}, false
	}
	year := 2000 + yy
	if yy >= 80 {
		year = 1900 + yy
	}
	return time.Date(year, time.Month(mo), dd, 0, 0, 0, 0, time.UTC), true
}

// parseLatLon parses NMEA lat/lon in ddmm.mmmm or dddmm.mmmm plus hemisphere.
func parseLatLon(v string, hemi string) (float64, bool) {
	v = strings.TrimSpace(v)
	hemi = strings.TrimSpace(strings.ToUpper(hemi))
	if v == "" || (hemi != "N" && hemi != "S" && hemi != "E" && hemi != "W") {
		return 0, false
	}

	// The last two digits of the integer part are minutes.
	dot := strings.IndexByte(v, '.')
	intPart := v
	if dot != -1 {
		intPart = v[:dot]
	}
	if len(intPart) < 3 {
		return 0, false
	}

	deg, err := strconv.Atoi(intPart[:len(intPart)-2])
	if err != nil {
		return 0, false
	}
	mins, err := strconv.ParseFloat(v[len(intPart)-2:], 64)
	if err != nil || mins >= 60 {
		return 0, false
	}

	dec := float64(deg) + mins/60.0
	if hemi == "S" || hemi == "W" {
		dec = -dec
	}
	return dec, true
}
