package dto

import (
	"github.com/paulmach/orb/geojson"

	"github.com/building-discovery/internal/domain"
	"github.com/building-discovery/internal/feature"
)

// FeaturesRequest - пакет записей для проекции в фичи
type FeaturesRequest struct {
	Records             []domain.Record `json:"records" validate:"max=20000"`
	ShowSavedCandidates bool            `json:"show_saved_candidates"`
}

// NearbyRequest - поиск зданий вокруг точки
type NearbyRequest struct {
	Lat                 float64 `query:"lat" validate:"min=-90,max=90"`
	Lng                 float64 `query:"lng" validate:"min=-180,max=180"`
	RadiusM             float64 `query:"radius_m" validate:"omitempty,min=0,max=50000"`
	Query               string  `query:"q" validate:"max=200"`
	UserID              string  `query:"user_id" validate:"omitempty,uuid"`
	ShowSavedCandidates bool    `query:"show_saved_candidates"`
}

// ClustersRequest - клиентская кластеризация пакета для области и зума
type ClustersRequest struct {
	Records []domain.Record `json:"records" validate:"max=20000"`
	Bounds  domain.Bounds   `json:"bounds"`
	Zoom    float64         `json:"zoom" validate:"min=0,max=22"`
}

// ActionRequest - действие пользователя с карты
type ActionRequest struct {
	Action       domain.ActionKind `json:"action" validate:"required"`
	ID           string            `json:"id" validate:"required,max=128"`
	UserID       string            `json:"user_id" validate:"required,uuid"`
	CollectionID *string           `json:"collection_id,omitempty" validate:"omitempty,uuid"`
	Note         *string           `json:"note,omitempty" validate:"omitempty,max=2000"`
}

// FeaturesResponse - источник карты и статистика проекции
type FeaturesResponse struct {
	Mode     feature.Mode               `json:"mode"`
	Cluster  bool                       `json:"cluster"`
	Settings feature.ClusterSettings    `json:"settings"`
	Data     *geojson.FeatureCollection `json:"data" swaggertype:"object"`
	Total    int                        `json:"total"`
	Dropped  int                        `json:"dropped"`
}

// ClustersResponse - кластеры и точки в области
type ClustersResponse struct {
	Zoom     float64                    `json:"zoom"`
	Data     *geojson.FeatureCollection `json:"data" swaggertype:"object"`
	Clusters int                        `json:"clusters"`
	Points   int                        `json:"points"`
}

// ActionResponse - принятое к обработке действие
type ActionResponse struct {
	EventID string            `json:"event_id"`
	Action  domain.ActionKind `json:"action"`
	Status  string            `json:"status"`
}

// HealthResponse - состояние сервиса и зависимостей
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}
