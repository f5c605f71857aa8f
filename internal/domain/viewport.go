package domain

import "github.com/paulmach/orb"

// Bounds - прямоугольная область карты в градусах
type Bounds struct {
	North float64 `json:"north" validate:"min=-90,max=90"`
	South float64 `json:"south" validate:"min=-90,max=90"`
	East  float64 `json:"east" validate:"min=-180,max=180"`
	West  float64 `json:"west" validate:"min=-180,max=180"`
}

// Valid - север не южнее юга, запад не восточнее востока, все значения в диапазоне.
// Области через антимеридиан не поддерживаются.
func (b Bounds) Valid() bool {
	return b.North >= b.South && b.West <= b.East &&
		b.North <= 90 && b.South >= -90 &&
		b.East <= 180 && b.West >= -180 &&
		b.East >= -180 && b.West <= 180
}

// Bound переводит в orb.Bound (min = юго-запад, max = северо-восток)
func (b Bounds) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.West, b.South},
		Max: orb.Point{b.East, b.North},
	}
}

// Center - центр области
func (b Bounds) Center() orb.Point {
	return b.Bound().Center()
}

// BoundsFromBound - обратное преобразование из orb.Bound
func BoundsFromBound(b orb.Bound) Bounds {
	return Bounds{North: b.Max.Lat(), South: b.Min.Lat(), East: b.Max.Lon(), West: b.Min.Lon()}
}

// Region - центр и зум, отдаётся наружу после окончания движения карты
type Region struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Zoom float64 `json:"zoom"`
}

// Camera - текущее положение камеры движка карты
type Camera struct {
	Center orb.Point
	Zoom   float64
}

// Region переводит камеру в плоскую форму для коллбеков
func (c Camera) Region() Region {
	return Region{Lat: c.Center.Lat(), Lng: c.Center.Lon(), Zoom: c.Zoom}
}
