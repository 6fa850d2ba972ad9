/*
DESCRIPTION
  ursense.go provides a parser for the lines printed by a urSense sensor
  board.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package sensor

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ausocean/utils/logging"
)

// Parse errors.
var (
	ErrNoPreamble = errors.New("line has no preamble")
	ErrNoReadings = errors.New("sensor responded with no readings")
)

// DefaultObfuscation is the default side of the squares GPS positions are
// quantised to, in km.
const DefaultObfuscation = 2.0

// Names of the readings derived from GPS fields.
const (
	GPSTime            = "GPS_TIME"
	LatitudeRaw        = "GPS_POSITION_LATITUDE_RAW"
	LongitudeRaw       = "GPS_POSITION_LONGITUDE_RAW"
	LatitudeQuantised  = "GPS_POSITION_LATITUDE_QUANTISED"
	LongitudeQuantised = "GPS_POSITION_LONGITUDE_QUANTISED"
)

// Number of fields preceding the readings of a line.
const preambleFields = 4

const (
	earthCircumference = 40000.0 // km
	epsilon            = 1e-5
	tau                = 2 * math.Pi
)

// kind is the textual form of a field's value.
type kind int

const (
	binary    kind = iota // Base 2 integer.
	days                  // <n>d<hh>.
	gas                   // Percentage, or value followed by ppt, ppm or ppb.
	hex                   // Base 16 integer.
	hours                 // <n>h<mm>.
	number                // Integer or float without units.
	percent               // Float suffixed by %.
	unitValue             // Float followed by a unit.
	unsigned              // Base 10 integer.
)

type field struct {
	kind kind
	name string
}

var weekdays = map[string]bool{"Mon": true, "Tue": true, "Wed": true, "Thu": true, "Fri": true, "Sat": true, "Sun": true}

// Parser parses urSense lines. GPS positions are reported both raw and
// quantised to squares of side Obfuscation km; an Obfuscation of zero
// disables quantisation.
type Parser struct {
	Obfuscation float64
	Log         logging.Logger
}

// Parse returns the readings in line. Unknown fields are logged and
// skipped.
func (p *Parser) Parse(line string) (map[string]Reading, error) {
	f := strings.Fields(line)
	if len(f) == 0 || !strings.HasPrefix(f[0], "sel") {
		return nil, ErrNoPreamble
	}
	f = f[min(preambleFields, len(f)):]
	if len(f) <= preambleFields {
		return nil, ErrNoReadings
	}

	readings := make(map[string]Reading)
	for len(f) > 0 {
		fi, ok := fields[f[0]]
		if ok {
			r, n, err := parseField(fi.kind, f)
			if err != nil {
				return nil, fmt.Errorf("could not parse field %s: %w", f[0], err)
			}
			readings[fi.name] = r
			f = f[n:]
			continue
		}

		switch {
		case weekdays[f[0]]:
			n := min(4, len(f))
			readings[GPSTime] = Reading{Value: strings.Join(f[:n], " ")}
			f = f[n:]
		case (strings.HasSuffix(f[0], "N") || strings.HasSuffix(f[0], "S")) && len(f) > 1:
			lat, err := parseCoord(f[0])
			if err != nil {
				return nil, fmt.Errorf("could not parse latitude: %w", err)
			}
			lon, err := parseCoord(f[1])
			if err != nil {
				return nil, fmt.Errorf("could not parse longitude: %w", err)
			}
			readings[LatitudeRaw] = lat
			readings[LongitudeRaw] = lon
			readings[LatitudeQuantised], readings[LongitudeQuantised] = p.quantise(lat, lon)
			f = f[2:]
		default:
			if p.Log != nil {
				p.Log.Warning("unknown sensor field", "field", f[0])
			}
			f = f[1:]
		}
	}
	return readings, nil
}

// parseField parses the field at the front of f, returning its reading and
// the number of fields consumed.
func parseField(k kind, f []string) (Reading, int, error) {
	if len(f) < 2 {
		return Reading{}, 0, errors.New("missing value")
	}
	v := f[1]
	switch k {
	case binary, hex, unsigned:
		base := map[kind]int{binary: 2, hex: 16, unsigned: 10}[k]
		n, err := strconv.ParseUint(v, base, 64)
		return Reading{Value: float64(n)}, 2, err
	case number:
		n, err := strconv.ParseFloat(v, 64)
		return Reading{Value: n}, 2, err
	case percent:
		n, err := strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64)
		return Reading{Value: n, Units: "%"}, 2, err
	case days:
		n, err := parseCompound(v, "d", 24)
		return Reading{Value: n, Units: "days"}, 2, err
	case hours:
		n, err := parseCompound(v, "h", 60)
		return Reading{Value: n, Units: "hours"}, 2, err
	case gas:
		if strings.HasSuffix(v, "%") {
			n, err := strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64)
			return Reading{Value: n, Units: "%"}, 2, err
		}
		fallthrough
	case unitValue:
		if len(f) < 3 {
			return Reading{}, 0, errors.New("missing units")
		}
		n, err := strconv.ParseFloat(v, 64)
		return Reading{Value: n, Units: f[2]}, 3, err
	default:
		panic("sensor: unknown field kind")
	}
}

// parseCompound parses "<a><sep><b>" as a + b/div.
func parseCompound(v, sep string, div float64) (float64, error) {
	a, b, ok := strings.Cut(v, sep)
	if !ok {
		return 0, fmt.Errorf("no %q in %q", sep, v)
	}
	x, err := strconv.Atoi(a)
	if err != nil {
		return 0, err
	}
	y, err := strconv.Atoi(b)
	if err != nil {
		return 0, err
	}
	return float64(x) + float64(y)/div, nil
}

// parseCoord parses a coordinate in degrees suffixed by its hemisphere.
func parseCoord(s string) (Reading, error) {
	if len(s) < 2 {
		return Reading{}, fmt.Errorf("bad coordinate %q", s)
	}
	v, err := strconv.ParseFloat(s[:len(s)-1], 64)
	if err != nil {
		return Reading{}, err
	}
	return Reading{Value: v, Units: s[len(s)-1:]}, nil
}

// quantise snaps a position to the nearest point of a grid with a spacing
// of p.Obfuscation km. The spacing is capped at an eighth of the earth's
// circumference.
func (p *Parser) quantise(lat, lon Reading) (Reading, Reading) {
	if p.Obfuscation == 0 {
		return lat, lon
	}
	d := min(p.Obfuscation, earthCircumference/8)

	latRad := radians(lat.Value.(float64) * sign(lat.Units == "N"))
	lonRad := radians(lon.Value.(float64) * sign(lon.Units == "E"))

	const minQuant = 1e-3 / earthCircumference // 1 mm.
	latQ := latRad
	yq := d / earthCircumference
	if yq >= minQuant {
		latQ = math.Round(latRad/(yq*tau)) * yq * tau
	}
	lonQ := lonRad
	xq := d / (math.Cos(latQ)*earthCircumference + epsilon)
	if xq >= minQuant {
		lonQ = math.Round(lonRad/(xq*tau)) * xq * tau
	}

	latQ = math.Max(-tau/4, math.Min(tau/4, latQ))
	switch {
	case lonQ >= tau/2:
		lonQ -= tau
	case lonQ < -tau/2:
		lonQ += tau
	}

	ns, ew := "N", "E"
	if latQ < 0 {
		ns = "S"
	}
	if lonQ < 0 {
		ew = "W"
	}
	return Reading{Value: degrees(math.Abs(latQ)), Units: ns}, Reading{Value: degrees(math.Abs(lonQ)), Units: ew}
}

func sign(positive bool) float64 {
	if positive {
		return 1
	}
	return -1
}

func radians(deg float64) float64 { return deg * tau / 360 }
func degrees(rad float64) float64 { return rad * 360 / tau }
