package domain

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Record - элемент входящего пакета в любой из поддерживаемых форм:
// серверный кластер (is_cluster), плоская "лёгкая" точка (lat/lng) или
// старая полная форма с вложенным building.
type Record struct {
	ID        string    `json:"id"`
	IsCluster *bool     `json:"is_cluster,omitempty"`
	Count     int       `json:"count,omitempty"`
	Lat       *float64  `json:"lat,omitempty"`
	Lng       *float64  `json:"lng,omitempty"`
	Precision Precision `json:"location_precision,omitempty"`

	Name          *string `json:"name,omitempty"`
	ImageURL      *string `json:"image_url,omitempty"`
	Status        Status  `json:"status,omitempty"`
	Color         *string `json:"color,omitempty"`
	Note          *string `json:"note,omitempty"`
	IsMarker      bool    `json:"is_marker,omitempty"`
	IsCandidate   bool    `json:"is_candidate,omitempty"`
	IsDimmed      bool    `json:"is_dimmed,omitempty"`
	SocialContext bool    `json:"social_context,omitempty"`

	Building *LegacyBuilding `json:"building,omitempty"`
}

// LegacyBuilding - полная карточка здания из старых ответов API
type LegacyBuilding struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	HeroImageURL *string           `json:"hero_image_url,omitempty"`
	Location     *geojson.Geometry `json:"location,omitempty"`
	Precision    Precision         `json:"location_precision,omitempty"`
}

// HasClusterFlag - элемент несёт признак принадлежности к серверной кластеризации
func (r Record) HasClusterFlag() bool {
	return r.IsCluster != nil
}

// AsCluster возвращает кластер, если элемент им является
func (r Record) AsCluster() (ClusterRecord, bool) {
	if r.IsCluster == nil || !*r.IsCluster || r.Lat == nil || r.Lng == nil {
		return ClusterRecord{}, false
	}
	return ClusterRecord{ID: r.ID, Lat: *r.Lat, Lng: *r.Lng, Count: r.Count}, true
}

// AsPoint нормализует плоскую или старую форму в PointRecord.
// false - у элемента нет координат.
func (r Record) AsPoint() (PointRecord, bool) {
	p := PointRecord{
		ID:               r.ID,
		Precision:        r.Precision,
		Name:             r.Name,
		ImageURL:         r.ImageURL,
		Status:           r.Status,
		Color:            r.Color,
		Note:             r.Note,
		IsMarker:         r.IsMarker,
		IsCandidate:      r.IsCandidate,
		IsDimmed:         r.IsDimmed,
		HasSocialContext: r.SocialContext,
	}

	switch {
	case r.Lat != nil && r.Lng != nil:
		p.Lat, p.Lng = *r.Lat, *r.Lng
	case r.Building != nil && r.Building.Location != nil:
		pt, ok := r.Building.Location.Coordinates.(orb.Point)
		if !ok {
			return PointRecord{}, false
		}
		p.Lat, p.Lng = pt.Lat(), pt.Lon()
		if p.ID == "" {
			p.ID = r.Building.ID
		}
		if p.Name == nil && r.Building.Name != "" {
			name := r.Building.Name
			p.Name = &name
		}
		if p.ImageURL == nil {
			p.ImageURL = r.Building.HeroImageURL
		}
		if p.Precision == "" {
			p.Precision = r.Building.Precision
		}
	default:
		return PointRecord{}, false
	}

	if p.Precision == "" {
		p.Precision = PrecisionExact
	}
	return p, true
}
