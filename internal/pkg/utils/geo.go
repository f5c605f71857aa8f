package utils

const (
	MinRadiusMeters = 100.0
	MaxRadiusMeters = 50000.0
	MaxZoom         = 22.0
)

// ClampRadius приводит радиус к допустимому диапазону [100 м, 50 км]
func ClampRadius(radiusM float64) float64 {
	if radiusM < MinRadiusMeters {
		return MinRadiusMeters
	}
	if radiusM > MaxRadiusMeters {
		return MaxRadiusMeters
	}
	return radiusM
}

// ValidateZoom проверяет уровень зума карты
func ValidateZoom(zoom float64) bool {
	return zoom >= 0 && zoom <= MaxZoom
}
