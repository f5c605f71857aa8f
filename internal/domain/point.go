package domain

// Precision - точность координат точки
type Precision string

const (
	PrecisionExact       Precision = "exact"
	PrecisionApproximate Precision = "approximate"
)

// Status - пользовательский статус здания
type Status string

const (
	StatusNone    Status = ""
	StatusVisited Status = "visited"
	StatusPending Status = "pending"
)

// PointRecord - отрисовываемая сущность: здание или свободный маркер
type PointRecord struct {
	ID          string    `json:"id"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Precision   Precision `json:"location_precision"`
	Name        *string   `json:"name,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	Status      Status    `json:"status,omitempty"`
	Color       *string   `json:"color,omitempty"`
	Note        *string   `json:"note,omitempty"`
	IsMarker    bool      `json:"is_marker,omitempty"`
	IsCandidate bool      `json:"is_candidate,omitempty"`
	IsDimmed    bool      `json:"is_dimmed,omitempty"`

	// HasSocialContext - с точкой взаимодействовал кто-то из контактов
	HasSocialContext bool `json:"social_context,omitempty"`
}

// IsApproximate - координаты намеренно огрублены
func (p PointRecord) IsApproximate() bool {
	return p.Precision == PrecisionApproximate
}

// IsSaved - точка уже есть в сохранённом наборе пользователя
func (p PointRecord) IsSaved() bool {
	return p.Status != StatusNone
}

// ClusterRecord - агрегат точек, посчитанный на стороне хранилища
type ClusterRecord struct {
	ID    string  `json:"id"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Count int     `json:"count"`
}

// Record - обратное преобразование в плоскую форму входящего пакета
func (p PointRecord) Record() Record {
	lat, lng := p.Lat, p.Lng
	return Record{
		ID:            p.ID,
		Lat:           &lat,
		Lng:           &lng,
		Precision:     p.Precision,
		Name:          p.Name,
		ImageURL:      p.ImageURL,
		Status:        p.Status,
		Color:         p.Color,
		Note:          p.Note,
		IsMarker:      p.IsMarker,
		IsCandidate:   p.IsCandidate,
		IsDimmed:      p.IsDimmed,
		SocialContext: p.HasSocialContext,
	}
}

// Records переводит список точек в пакет записей
func Records(points []PointRecord) []Record {
	out := make([]Record, 0, len(points))
	for _, p := range points {
		out = append(out, p.Record())
	}
	return out
}
