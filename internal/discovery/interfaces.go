package discovery

import (
	"context"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/building-discovery/internal/domain"
	"github.com/building-discovery/internal/feature"
	"github.com/building-discovery/internal/style"
	"github.com/building-discovery/internal/viewport"
)

// Surface - внешний движок карты. События движка передаются обратно
// через методы Handle* экземпляра Map.
type Surface interface {
	viewport.Camera

	Resize()
	SetFullscreen(on bool)
	SetStyle(def style.Definition)
	SetSource(src feature.SourceSpec)

	// ClusterExpansionZoom - зум, на котором клиентский кластер распадается
	ClusterExpansionZoom(clusterID string) (float64, error)
}

// Fetcher - поиск точек рядом с центром карты
type Fetcher interface {
	FindNearby(ctx context.Context, center orb.Point, radiusM float64, query string, userID uuid.UUID) ([]domain.PointRecord, error)
}

// ImageResolver переводит путь изображения в URL
type ImageResolver interface {
	Resolve(path string) (string, bool)
}

// ActionHandler - действия из подсказок, по одному методу на действие
type ActionHandler interface {
	AddCandidate(ctx context.Context, id string) error
	HideCandidate(ctx context.Context, id string) error
	RemoveItem(ctx context.Context, id string) error
	RemoveMarker(ctx context.Context, id string) error
	UpdateMarkerNote(ctx context.Context, id, note string) error
	Save(ctx context.Context, id string) error
	Visit(ctx context.Context, id string) error
}

// Callbacks - необязательные коллбеки экземпляра карты
type Callbacks struct {
	OnMarkerClick    func(id string)
	OnRegionChange   func(domain.Region)
	OnBoundsChange   func(domain.Bounds)
	OnMapInteraction func()
	OnClosePopup     func()
	OnMapLoad        func()
}
