// Package geo содержит проверку координат, детерминированный jitter для
// приблизительных точек и вспомогательные расчёты расстояний.
package geo

import "math"

// NullIslandEpsilon - координаты ближе этого порога к (0,0) считаются мусором
const NullIslandEpsilon = 1e-4

// IsValid сообщает, можно ли отрисовать точку: конечные значения в допустимом
// диапазоне и не "null island".
func IsValid(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return false
	}
	if math.Abs(lat) < NullIslandEpsilon && math.Abs(lng) < NullIslandEpsilon {
		return false
	}
	return true
}
