package feature

import (
	"github.com/paulmach/orb/geojson"

	"github.com/building-discovery/internal/domain"
)

// Mode - кто отвечает за кластеризацию пакета
type Mode string

const (
	// ModeClient - кластеризует встроенный кластеризатор движка карты
	ModeClient Mode = "client"
	// ModeServer - кластеры уже посчитаны хранилищем
	ModeServer Mode = "server"
)

const (
	DefaultClusterMaxZoom = 14
	DefaultClusterRadius  = 50

	// ServerClusterZoomStep - шаг приближения по клику на серверный кластер
	ServerClusterZoomStep = 2.0
)

// ClusterSettings - параметры клиентской кластеризации
type ClusterSettings struct {
	MaxZoom int `json:"cluster_max_zoom"`
	Radius  int `json:"cluster_radius"`
}

func DefaultClusterSettings() ClusterSettings {
	return ClusterSettings{MaxZoom: DefaultClusterMaxZoom, Radius: DefaultClusterRadius}
}

// SourceSpec - описание векторного источника для движка карты
type SourceSpec struct {
	Mode     Mode                       `json:"mode"`
	Cluster  bool                       `json:"cluster"`
	Settings ClusterSettings            `json:"settings"`
	Data     *geojson.FeatureCollection `json:"data"`
}

// SelectMode решает по форме первого элемента: есть флаг кластера -
// весь пакет серверный, иначе клиентский.
func SelectMode(records []domain.Record) Mode {
	if len(records) > 0 && records[0].HasClusterFlag() {
		return ModeServer
	}
	return ModeClient
}

// BuildSource собирает источник: клиентская кластеризация включается
// только для клиентского режима.
func BuildSource(set Set, settings ClusterSettings) SourceSpec {
	if settings.MaxZoom <= 0 {
		settings.MaxZoom = DefaultClusterMaxZoom
	}
	if settings.Radius <= 0 {
		settings.Radius = DefaultClusterRadius
	}
	return SourceSpec{
		Mode:     set.Mode,
		Cluster:  set.Mode == ModeClient,
		Settings: settings,
		Data:     set.FeatureCollection(),
	}
}
