package coord

import "math"

// WGS84 ellipsoid.
const (
	equatorialRadius = 6378137.0
	flattening       = 1 / 298.257223563
	scaleFactor      = 0.9996
	falseEasting     = 500000.0
	falseNorthing    = 10000000.0
)

var (
	eccSquared      = flattening * (2 - flattening)
	eccPrimeSquared = eccSquared / (1 - eccSquared)
)

const bandLetters = "CDEFGHJKLMNPQRSTUVWX"

func deg2rad(d float64) float64 { return d * math.Pi / 180 }
func rad2deg(r float64) float64 { return r * 180 / math.Pi }

// zoneForLon returns the 6-degree UTM zone (1..60) containing lon.
func zoneForLon(lon float64) int {
	z := int(math.Floor((lon+180)/6)) + 1
	if z > 60 {
		z = 60
	}
	if z < 1 {
		z = 1
	}
	return z
}

func bandForLat(lat float64) byte {
	if lat >= 84 {
		return 'X'
	}
	if lat < -80 {
		return 'C'
	}
	i := int(math.Floor((lat + 80) / 8))
	if i >= len(bandLetters) {
		i = len(bandLetters) - 1
	}
	return bandLetters[i]
}

func centralMeridian(zone int) float64 {
	return float64(zone-1)*6 - 180 + 3
}

// normalizeLon wraps lon into [-180, 180).
func normalizeLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

// LatLonToUTM projects ll onto the transverse Mercator grid of its zone.
func LatLonToUTM(ll LatLon) UTM {
	lon := normalizeLon(ll.Lon)
	zone := zoneForLon(lon)

	lat := deg2rad(ll.Lat)
	dLon := deg2rad(lon - centralMeridian(zone))

	e2 := eccSquared
	sinLat, cosLat := math.Sincos(lat)
	tanLat := math.Tan(lat)

	n := equatorialRadius / math.Sqrt(1-e2*sinLat*sinLat)
	t := tanLat * tanLat
	c := eccPrimeSquared * cosLat * cosLat
	a := cosLat * dLon

	m := equatorialRadius * ((1-e2/4-3*e2*e2/64-5*e2*e2*e2/256)*lat -
		(3*e2/8+3*e2*e2/32+45*e2*e2*e2/1024)*math.Sin(2*lat) +
		(15*e2*e2/256+45*e2*e2*e2/1024)*math.Sin(4*lat) -
		(35*e2*e2*e2/3072)*math.Sin(6*lat))

	easting := scaleFactor*n*(a+(1-t+c)*a*a*a/6+
		(5-18*t+t*t+72*c-58*eccPrimeSquared)*a*a*a*a*a/120) + falseEasting

	northing := scaleFactor * (m + n*tanLat*(a*a/2+(5-t+9*c+4*c*c)*a*a*a*a/24+
		(61-58*t+t*t+600*c-330*eccPrimeSquared)*a*a*a*a*a*a/720))
	if ll.Lat < 0 {
		northing += falseNorthing
	}

	return UTM{Northing: northing, Easting: easting, Zone: zone, Letter: bandForLat(ll.Lat)}
}

// UTMToLatLon is the inverse of LatLonToUTM. Letters below 'N' are southern.
func UTMToLatLon(u UTM) LatLon {
	x := u.Easting - falseEasting
	y := u.Northing
	if u.Letter < 'N' {
		y -= falseNorthing
	}

	e2 := eccSquared
	sq := math.Sqrt(1 - e2)
	e1 := (1 - sq) / (1 + sq)

	m := y / scaleFactor
	mu := m / (equatorialRadius * (1 - e2/4 - 3*e2*e2/64 - 5*e2*e2*e2/256))

	phi1 := mu + (3*e1/2-27*e1*e1*e1/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*e1*e1*e1*e1/32)*math.Sin(4*mu) +
		(151*e1*e1*e1/96)*math.Sin(6*mu)

	sinPhi, cosPhi := math.Sincos(phi1)
	tanPhi := math.Tan(phi1)

	n1 := equatorialRadius / math.Sqrt(1-e2*sinPhi*sinPhi)
	t1 := tanPhi * tanPhi
	c1 := eccPrimeSquared * cosPhi * cosPhi
	r1 := equatorialRadius * (1 - e2) / math.Pow(1-e2*sinPhi*sinPhi, 1.5)
	d := x / (n1 * scaleFactor)

	lat := phi1 - (n1*tanPhi/r1)*(d*d/2-
		(5+3*t1+10*c1-4*c1*c1-9*eccPrimeSquared)*d*d*d*d/24+
		(61+90*t1+298*c1+45*t1*t1-252*eccPrimeSquared-3*c1*c1)*d*d*d*d*d*d/720)

	lon := (d - (1+2*t1+c1)*d*d*d/6 +
		(5-2*c1+28*t1-3*c1*c1+8*eccPrimeSquared+24*t1*t1)*d*d*d*d*d/120) / cosPhi

	return LatLon{Lat: rad2deg(lat), Lon: centralMeridian(u.Zone) + rad2deg(lon)}
}
