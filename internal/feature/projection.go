package feature

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/building-discovery/internal/domain"
	"github.com/building-discovery/internal/geo"
	"github.com/building-discovery/internal/pkg/logger"
)

// Feature - нормализованная фича для векторного источника карты
type Feature struct {
	ID        string
	IsCluster bool
	Point     orb.Point
	Count     int
	Style     Style

	// Record - исходная точка, nil для кластеров
	Record *domain.PointRecord
}

// Set - результат проекции одного пакета
type Set struct {
	Mode     Mode
	Features []Feature
	Dropped  int
}

// Options - флаги отображения, влияющие на состав пакета
type Options struct {
	ShowSavedCandidates bool
}

// Projector переводит разнородные записи в единый набор фич.
// Приблизительные координаты проходят через jitter.
type Projector struct {
	jitter *geo.Jitterer
	logger *zap.Logger
}

func NewProjector(jitter *geo.Jitterer, log *zap.Logger) *Projector {
	if jitter == nil {
		jitter = geo.NewJitterer()
	}
	return &Projector{
		jitter: jitter,
		logger: logger.OrNop(log),
	}
}

// Project нормализует пакет. Режим кластеризации определяется один раз по
// первому элементу и не меняется внутри пакета.
func (p *Projector) Project(records []domain.Record, opts Options) Set {
	set := Set{
		Mode:     SelectMode(records),
		Features: make([]Feature, 0, len(records)),
	}

	for _, r := range records {
		if set.Mode == ModeServer {
			if c, ok := r.AsCluster(); ok {
				if !geo.IsValid(c.Lat, c.Lng) {
					set.Dropped++
					continue
				}
				set.Features = append(set.Features, Feature{
					ID:        c.ID,
					IsCluster: true,
					Point:     orb.Point{c.Lng, c.Lat},
					Count:     c.Count,
					Style:     ClusterStyle(c.Count),
				})
				continue
			}
		}

		pt, ok := r.AsPoint()
		if !ok || !geo.IsValid(pt.Lat, pt.Lng) {
			set.Dropped++
			continue
		}
		if pt.IsCandidate && pt.IsSaved() && !opts.ShowSavedCandidates {
			continue
		}

		set.Features = append(set.Features, p.pointFeature(pt))
	}

	if set.Dropped > 0 {
		p.logger.Debug("Dropped records with invalid coordinates",
			zap.Int("dropped", set.Dropped),
			zap.Int("total", len(records)))
	}

	return set
}

func (p *Projector) pointFeature(pt domain.PointRecord) Feature {
	coords := orb.Point{pt.Lng, pt.Lat}
	if pt.IsApproximate() {
		coords = p.jitter.Apply(pt.ID, pt.Lat, pt.Lng)
	}

	rec := pt
	return Feature{
		ID:     pt.ID,
		Point:  coords,
		Count:  1,
		Style:  StyleFor(pt),
		Record: &rec,
	}
}

// Find ищет фичу по идентификатору
func (s Set) Find(id string) (Feature, bool) {
	for _, f := range s.Features {
		if f.ID == id {
			return f, true
		}
	}
	return Feature{}, false
}

// FeatureCollection сериализует набор в GeoJSON для источника карты
func (s Set) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range s.Features {
		fc.Append(f.GeoJSON())
	}
	return fc
}

// GeoJSON - фича в GeoJSON с производными свойствами
func (f Feature) GeoJSON() *geojson.Feature {
	gf := geojson.NewFeature(f.Point)
	gf.ID = f.ID
	gf.Properties["id"] = f.ID
	gf.Properties["cluster"] = f.IsCluster
	gf.Properties["color"] = f.Style.Color
	gf.Properties["radius"] = f.Style.Radius
	gf.Properties["opacity"] = f.Style.Opacity

	if f.IsCluster {
		gf.Properties["point_count"] = f.Count
		return gf
	}

	if r := f.Record; r != nil {
		gf.Properties["location_precision"] = string(r.Precision)
		gf.Properties["is_marker"] = r.IsMarker
		gf.Properties["is_candidate"] = r.IsCandidate
		gf.Properties["is_dimmed"] = r.IsDimmed
		if r.Status != domain.StatusNone {
			gf.Properties["status"] = string(r.Status)
		}
		if r.Name != nil {
			gf.Properties["name"] = *r.Name
		}
		if r.ImageURL != nil {
			gf.Properties["image_url"] = *r.ImageURL
		}
	}
	return gf
}
