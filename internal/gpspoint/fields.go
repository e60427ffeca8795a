package gpspoint

import (
	"strconv"
	"strings"
)

type recordType int

const (
	typeNone recordType = iota
	typeWaypoint
	typeTrackpoint
	typeRoutepoint
	typeTrack
	typeTrackEnd
	typeRoute
	typeRouteEnd
)

func (t recordType) String() string {
	switch t {
	case typeWaypoint:
		return "waypoint"
	case typeTrackpoint:
		return "trackpoint"
	case typeRoutepoint:
		return "routepoint"
	case typeTrack:
		return "track"
	case typeTrackEnd:
		return "trackend"
	case typeRoute:
		return "route"
	case typeRouteEnd:
		return "routeend"
	default:
		return "none"
	}
}

func parseRecordType(v string) recordType {
	switch strings.ToLower(v) {
	case "waypoint":
		return typeWaypoint
	case "trackpoint":
		return typeTrackpoint
	case "routepoint":
		return typeRoutepoint
	case "track":
		return typeTrack
	case "trackend":
		return typeTrackEnd
	case "route":
		return typeRoute
	case "routeend":
		return typeRouteEnd
	default:
		return typeNone
	}
}

// lineFields collects the fields seen on the line being read. It is reset
// before every line so nothing leaks from one record into the next.
type lineFields struct {
	typ recordType

	lat, lon float64

	name        string
	comment     string
	description string
	source      string
	xtype       string
	color       string
	image       string
	symbol      string
	url         string
	urlName     string
	extensions  string

	number     uint
	nameLabel  int
	distLabels int

	imageDirection    *float64
	imageDirectionRef int

	visible    bool
	newSegment bool
	extended   bool

	timestamp     *float64
	altitude      *float64
	speed         *float64
	course        *float64
	magVar        *float64
	geoidHeight   *float64
	hdop          *float64
	vdop          *float64
	pdop          *float64
	ageOfDGPSData *float64

	sats    uint
	fixMode uint
	dgpsID  uint
}

func (f *lineFields) reset() {
	*f = lineFields{visible: true}
}

// splitTag breaks a key=value token apart. Quoted values are unescaped;
// unquoted values are returned verbatim. ok is false for tokens that carry no
// usable field: no '=', an empty key, nothing after '=', or a quoted value
// missing its closing quote.
func splitTag(tok []byte) (key, value string, ok bool) {
	eq := -1
	escaped := false
	for i, c := range tok {
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c == '=' {
			eq = i
			break
		}
	}
	if eq <= 0 {
		return "", "", false
	}
	rest := tok[eq+1:]
	if len(rest) == 0 {
		return "", "", false
	}
	key = string(tok[:eq])
	if rest[0] != '"' {
		return key, string(rest), true
	}
	if len(rest) < 2 || rest[len(rest)-1] != '"' {
		return "", "", false
	}
	return key, Unescape(rest[1 : len(rest)-1]), true
}

// set stores one field. Unknown keys are ignored; values that do not parse
// as the key's type leave the field unset.
func (f *lineFields) set(key, v string) {
	switch strings.ToLower(key) {
	case "latitude":
		if d, ok := parseDecimal(v); ok {
			f.lat = d
		}
	case "longitude":
		if d, ok := parseDecimal(v); ok {
			f.lon = d
		}
	case "unixtime":
		setDecimal(&f.timestamp, v)
	case "altitude":
		setDecimal(&f.altitude, v)
	case "type":
		f.typ = parseRecordType(v)
	case "name":
		setFirst(&f.name, v)
	case "comment":
		setFirst(&f.comment, v)
	case "description":
		setFirst(&f.description, v)
	case "source":
		setFirst(&f.source, v)
	case "xtype":
		setFirst(&f.xtype, v)
	case "color":
		setFirst(&f.color, v)
	case "image":
		setFirst(&f.image, v)
	case "number":
		setCount(&f.number, v)
	case "draw_name_mode":
		if n, ok := parseInteger(v); ok {
			f.nameLabel = int(n)
		}
	case "number_dist_labels":
		if n, ok := parseInteger(v); ok {
			f.distLabels = int(n)
		}
	case "image_direction":
		setDecimal(&f.imageDirection, v)
	case "image_direction_ref":
		if n, ok := parseInteger(v); ok {
			f.imageDirectionRef = int(n)
		}
	case "visible":
		if v != "" && !strings.ContainsRune("yYtT", rune(v[0])) {
			f.visible = false
		}
	case "symbol":
		f.symbol = v
	case "newsegment":
		f.newSegment = true
	case "extended":
		f.extended = true
	case "speed":
		setDecimal(&f.speed, v)
	case "course":
		setDecimal(&f.course, v)
	case "sat":
		setCount(&f.sats, v)
	case "fix":
		setCount(&f.fixMode, v)
	case "hdop":
		setDecimal(&f.hdop, v)
	case "vdop":
		setDecimal(&f.vdop, v)
	case "pdop":
		setDecimal(&f.pdop, v)
	case "magvar":
		setDecimal(&f.magVar, v)
	case "geoidheight":
		setDecimal(&f.geoidHeight, v)
	case "url":
		f.url = v
	case "url_name":
		f.urlName = v
	case "extensions":
		f.extensions = v
	case "ageofdgpsdata":
		setDecimal(&f.ageOfDGPSData, v)
	case "dgpsid":
		setCount(&f.dgpsID, v)
	}
}

// setFirst keeps the first non-empty value seen for a field on a line.
func setFirst(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

func setDecimal(dst **float64, v string) {
	if d, ok := parseDecimal(v); ok {
		*dst = &d
	}
}

func setCount(dst *uint, v string) {
	if n, ok := parseInteger(v); ok && n >= 0 {
		*dst = uint(n)
	}
}

// parseDecimal reads the longest leading decimal number of s, always with
// '.' as the decimal point. Trailing junk is ignored ("12.5m" is 12.5).
func parseDecimal(s string) (float64, bool) {
	s = strings.TrimLeft(s, " \t")
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0, false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			i = j
		}
	}
	d, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, false
	}
	return d, true
}

// parseInteger reads the leading base-10 integer of s.
func parseInteger(s string) (int64, bool) {
	s = strings.TrimLeft(s, " \t")
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	start := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i == start {
		return 0, false
	}
	n, err := strconv.ParseInt(s[:i], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
