package feature

import "github.com/building-discovery/internal/domain"

const (
	ColorVisited = "#1f2937"
	ColorPending = "#eeff41"
	ColorSocial  = "#d4d4d8"
	ColorDefault = "#9ca3af"
	ColorDimmed  = "#d1d5db"
	ColorCluster = "#111827"

	RadiusExact       = 8.0
	RadiusApproximate = 6.0

	OpacityNormal      = 1.0
	OpacityApproximate = 0.6
	OpacityDimmed      = 0.3
)

// Style - производные визуальные атрибуты фичи
type Style struct {
	Color   string  `json:"color"`
	Radius  float64 `json:"radius"`
	Opacity float64 `json:"opacity"`
}

// StyleFor выводит стиль точки. Цвет выбирается по первому совпавшему правилу,
// затенение (is_dimmed) всегда перекрывает цвет.
func StyleFor(p domain.PointRecord) Style {
	s := Style{
		Color:   pointColor(p),
		Radius:  RadiusExact,
		Opacity: OpacityNormal,
	}

	if p.IsApproximate() {
		s.Radius = RadiusApproximate
		s.Opacity = OpacityApproximate
	}

	if p.IsDimmed {
		s.Color = ColorDimmed
		s.Opacity = OpacityDimmed
	}

	return s
}

func pointColor(p domain.PointRecord) string {
	switch {
	case p.Color != nil && *p.Color != "":
		return *p.Color
	case p.Status == domain.StatusVisited:
		return ColorVisited
	case p.Status == domain.StatusPending:
		return ColorPending
	case p.HasSocialContext:
		return ColorSocial
	default:
		return ColorDefault
	}
}

// ClusterStyle - размер круга серверного кластера по числу точек
func ClusterStyle(count int) Style {
	radius := 18.0
	switch {
	case count >= 50:
		radius = 30
	case count >= 10:
		radius = 24
	}
	return Style{Color: ColorCluster, Radius: radius, Opacity: OpacityNormal}
}
