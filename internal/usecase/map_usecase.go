package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/building-discovery/internal/cluster"
	"github.com/building-discovery/internal/domain"
	"github.com/building-discovery/internal/feature"
	"github.com/building-discovery/internal/geo"
	"github.com/building-discovery/internal/pkg/errors"
	"github.com/building-discovery/internal/pkg/logger"
	"github.com/building-discovery/internal/pkg/utils"
	"github.com/building-discovery/internal/usecase/dto"
)

// NearbyFinder - источник точек вокруг центра
type NearbyFinder interface {
	FindNearby(ctx context.Context, center orb.Point, radiusM float64, query string, userID uuid.UUID) ([]domain.PointRecord, error)
}

// ImageResolver переводит путь изображения в публичный URL
type ImageResolver interface {
	Resolve(path string) (string, bool)
}

// MapUseCase - серверная проекция и кластеризация пакетов для клиентов карты
type MapUseCase struct {
	nearby   NearbyFinder
	images   ImageResolver
	settings feature.ClusterSettings
	logger   *zap.Logger
}

// NewMapUseCase - images может быть nil, тогда ссылки на изображения не трогаются
func NewMapUseCase(nearby NearbyFinder, images ImageResolver, settings feature.ClusterSettings, log *zap.Logger) *MapUseCase {
	if settings.MaxZoom <= 0 {
		settings.MaxZoom = feature.DefaultClusterMaxZoom
	}
	if settings.Radius <= 0 {
		settings.Radius = feature.DefaultClusterRadius
	}
	return &MapUseCase{
		nearby:   nearby,
		images:   images,
		settings: settings,
		logger:   logger.OrNop(log),
	}
}

// Features проецирует пакет записей. Jitter детерминирован, поэтому
// проектор на запрос даёт те же координаты, что и долгоживущий.
func (uc *MapUseCase) Features(req dto.FeaturesRequest) *dto.FeaturesResponse {
	proj := feature.NewProjector(geo.NewJitterer(), uc.logger)
	set := proj.Project(uc.resolveImages(req.Records), feature.Options{ShowSavedCandidates: req.ShowSavedCandidates})
	src := feature.BuildSource(set, uc.settings)

	return &dto.FeaturesResponse{
		Mode:     src.Mode,
		Cluster:  src.Cluster,
		Settings: src.Settings,
		Data:     src.Data,
		Total:    len(set.Features),
		Dropped:  set.Dropped,
	}
}

// Nearby ищет здания и сразу проецирует их в источник карты
func (uc *MapUseCase) Nearby(ctx context.Context, req dto.NearbyRequest) (*dto.FeaturesResponse, error) {
	userID := uuid.Nil
	if req.UserID != "" {
		id, err := uuid.Parse(req.UserID)
		if err != nil {
			return nil, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
				"field": "user_id",
			})
		}
		userID = id
	}

	points, err := uc.nearby.FindNearby(ctx, orb.Point{req.Lng, req.Lat}, req.RadiusM, req.Query, userID)
	if err != nil {
		return nil, err
	}

	return uc.Features(dto.FeaturesRequest{
		Records:             domain.Records(points),
		ShowSavedCandidates: req.ShowSavedCandidates,
	}), nil
}

// Clusters кластеризует клиентский пакет для области и зума.
// Серверные пакеты уже кластеризованы и отклоняются.
func (uc *MapUseCase) Clusters(req dto.ClustersRequest) (*dto.ClustersResponse, error) {
	if !req.Bounds.Valid() {
		return nil, errors.ErrInvalidBounds
	}
	if !utils.ValidateZoom(req.Zoom) {
		return nil, errors.ErrInvalidZoom
	}

	proj := feature.NewProjector(geo.NewJitterer(), uc.logger)
	set := proj.Project(req.Records, feature.Options{ShowSavedCandidates: true})
	if set.Mode == feature.ModeServer {
		return nil, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"records": "batch is already clustered by the store",
		})
	}

	items := make([]cluster.Item, 0, len(set.Features))
	for _, f := range set.Features {
		items = append(items, cluster.Item{ID: f.ID, Point: f.Point})
	}

	opts := cluster.DefaultOptions()
	opts.MaxZoom = uc.settings.MaxZoom
	opts.Radius = float64(uc.settings.Radius)
	idx := cluster.NewIndex(opts, uc.logger)
	idx.Load(items)

	nodes := idx.Clusters(req.Bounds, req.Zoom)
	fc := cluster.GeoJSON(nodes)

	resp := &dto.ClustersResponse{Zoom: req.Zoom, Data: fc}
	for i, n := range nodes {
		if !n.IsCluster {
			resp.Points++
			continue
		}
		resp.Clusters++
		if z, err := idx.ExpansionZoom(n.ClusterID); err == nil {
			fc.Features[i].Properties["expansion_zoom"] = z
		}
	}

	return resp, nil
}

// resolveImages заменяет пути изображений на URL хранилища. Нерешённые
// пути убираются, исходный срез не меняется.
func (uc *MapUseCase) resolveImages(records []domain.Record) []domain.Record {
	if uc.images == nil {
		return records
	}

	out := make([]domain.Record, len(records))
	for i, r := range records {
		path := r.ImageURL
		if path == nil && r.Building != nil {
			path = r.Building.HeroImageURL
		}
		if path != nil {
			if url, ok := uc.images.Resolve(*path); ok {
				r.ImageURL = &url
			} else {
				r.ImageURL = nil
				if r.Building != nil {
					b := *r.Building
					b.HeroImageURL = nil
					r.Building = &b
				}
			}
		}
		out[i] = r
	}
	return out
}
