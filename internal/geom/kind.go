// Package geom adapts paulmach/orb geometries and their WKT encoding to the
// widget's persisted text format (SRID=<srid>;<WKT>).
package geom

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
)

// Kind names a geometry type, either as configured on a widget or as the tag
// of a drawn feature.
type Kind string

const (
	KindPoint           Kind = "Point"
	KindLineString      Kind = "LineString"
	KindPolygon         Kind = "Polygon"
	KindMultiPoint      Kind = "MultiPoint"
	KindMultiLineString Kind = "MultiLineString"
	KindMultiPolygon    Kind = "MultiPolygon"

	// KindGeometry is the generic kind: any drawn geometry type is accepted.
	KindGeometry Kind = "Geometry"

	// KindCollection only ever tags a geometry; it cannot be configured.
	KindCollection Kind = "GeometryCollection"
)

// ConfigurableKinds lists the kinds a widget may be configured with.
var ConfigurableKinds = []Kind{
	KindPoint, KindLineString, KindPolygon,
	KindMultiPoint, KindMultiLineString, KindMultiPolygon,
	KindGeometry,
}

// ParseKind resolves a configured kind name, case-insensitively.
// An empty name is the generic kind.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return KindGeometry, nil
	}
	for _, k := range ConfigurableKinds {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown geometry kind %q", s)
}

// IsCollection reports whether k is one of the Multi* kinds.
func (k Kind) IsCollection() bool {
	switch k {
	case KindMultiPoint, KindMultiLineString, KindMultiPolygon:
		return true
	}
	return false
}

// IsGeneric reports whether k accepts any geometry type.
func (k Kind) IsGeneric() bool {
	return k == KindGeometry
}

// Member returns the single-part kind of a Multi* kind, or k itself.
func (k Kind) Member() Kind {
	switch k {
	case KindMultiPoint:
		return KindPoint
	case KindMultiLineString:
		return KindLineString
	case KindMultiPolygon:
		return KindPolygon
	}
	return k
}

// Allows reports whether a feature of the single-part kind member may be
// drawn on a widget configured with k.
func (k Kind) Allows(member Kind) bool {
	if k.IsGeneric() {
		switch member {
		case KindPoint, KindLineString, KindPolygon:
			return true
		}
		return false
	}
	return k.Member() == member
}

// KindOf returns the type tag of g.
func KindOf(g orb.Geometry) Kind {
	if g == nil {
		return ""
	}
	return Kind(g.GeoJSONType())
}
