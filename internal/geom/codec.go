package geom

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// ErrParse is returned when a persisted text value does not decode to a
// geometry. Callers recover by keeping their previous state.
var ErrParse = errors.New("geometry parse failure")

var sridPrefix = regexp.MustCompile(`(?is)^SRID=(\d+);(.*)$`)

// Decoded is a geometry read back from persisted text.
// SRID is zero when the text carried no SRID prefix.
type Decoded struct {
	SRID     int
	Geometry orb.Geometry
}

// Kind returns the type tag of the decoded geometry.
func (d *Decoded) Kind() Kind {
	return KindOf(d.Geometry)
}

// Decode parses "SRID=<srid>;<WKT>" or a bare WKT body.
func Decode(text string) (*Decoded, error) {
	body := strings.TrimSpace(text)
	srid := 0

	if m := sridPrefix.FindStringSubmatch(body); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("%w: srid %q: %v", ErrParse, m[1], err)
		}
		srid = n
		body = strings.TrimSpace(m[2])
	} else if len(body) >= 5 && strings.EqualFold(body[:5], "SRID=") {
		return nil, fmt.Errorf("%w: malformed SRID prefix", ErrParse)
	}

	if body == "" {
		return nil, fmt.Errorf("%w: empty geometry", ErrParse)
	}

	g, err := wkt.Unmarshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if g == nil {
		return nil, fmt.Errorf("%w: no geometry", ErrParse)
	}
	return &Decoded{SRID: srid, Geometry: g}, nil
}

// Encode writes g as a WKT body without an SRID prefix.
func Encode(g orb.Geometry) string {
	return wkt.MarshalString(g)
}

// EncodeEWKT writes g in the persisted text format.
func EncodeEWKT(srid int, g orb.Geometry) string {
	return fmt.Sprintf("SRID=%d;%s", srid, Encode(g))
}

// PointText builds a persisted point directly from coordinate strings,
// bypassing the generic encoder.
func PointText(srid int, x, y string) string {
	return fmt.Sprintf("SRID=%d;POINT(%s %s)", srid, x, y)
}

// FormatCoord renders a coordinate with the shortest exact representation.
func FormatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
