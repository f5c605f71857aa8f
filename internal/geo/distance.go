package geo

import (
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

const EarthRadiusMeters = 6371008.8

// DistanceMeters - расстояние по большому кругу между двумя точками (lng, lat)
func DistanceMeters(a, b orb.Point) float64 {
	p1 := s2.LatLngFromDegrees(a.Lat(), a.Lon())
	p2 := s2.LatLngFromDegrees(b.Lat(), b.Lon())
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}
