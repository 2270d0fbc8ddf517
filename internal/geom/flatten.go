package geom

import "github.com/paulmach/orb"

// Flatten merges geometries into one geometry of the Multi* kind multi.
//
// Geometries of kind multi contribute each of their members, geometries of
// the member kind are appended whole, and geometry collections are spliced
// member by member. Any other geometry is still appended as-is; the result
// then has mixed member types and is returned as a GeometryCollection. This
// differs on purpose from writing a Multi* value holding foreign members,
// which would not be valid WKT.
func Flatten(multi Kind, geoms []orb.Geometry) orb.Geometry {
	var (
		members []orb.Geometry
		mixed   bool
		add     func(g orb.Geometry)
	)
	add = func(g orb.Geometry) {
		switch KindOf(g) {
		case multi:
			members = append(members, Members(g)...)
		case multi.Member():
			members = append(members, g)
		case KindCollection:
			for _, m := range g.(orb.Collection) {
				add(m)
			}
		default:
			members = append(members, g)
			mixed = true
		}
	}
	for _, g := range geoms {
		add(g)
	}
	if mixed {
		return orb.Collection(members)
	}

	switch multi {
	case KindMultiPoint:
		mp := orb.MultiPoint{}
		for _, m := range members {
			mp = append(mp, m.(orb.Point))
		}
		return mp
	case KindMultiLineString:
		mls := orb.MultiLineString{}
		for _, m := range members {
			mls = append(mls, m.(orb.LineString))
		}
		return mls
	case KindMultiPolygon:
		mp := orb.MultiPolygon{}
		for _, m := range members {
			mp = append(mp, asPolygon(m))
		}
		return mp
	}
	return orb.Collection(members)
}

// Members splits a multi geometry into its parts. Single-part geometries
// are returned as a one-element slice.
func Members(g orb.Geometry) []orb.Geometry {
	var out []orb.Geometry
	switch t := g.(type) {
	case orb.MultiPoint:
		for _, p := range t {
			out = append(out, p)
		}
	case orb.MultiLineString:
		for _, ls := range t {
			out = append(out, ls)
		}
	case orb.MultiPolygon:
		for _, p := range t {
			out = append(out, p)
		}
	case orb.Collection:
		out = append(out, t...)
	default:
		out = append(out, g)
	}
	return out
}

func asPolygon(g orb.Geometry) orb.Polygon {
	switch t := g.(type) {
	case orb.Polygon:
		return t
	case orb.Ring:
		return orb.Polygon{t}
	case orb.Bound:
		return t.ToPolygon()
	}
	return nil
}
