package postgres

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/building-discovery/internal/domain"
	"github.com/building-discovery/internal/domain/repository"
	"github.com/building-discovery/internal/pkg/errors"
)

// LimitNearby - верхняя граница выдачи find_nearby_buildings
const LimitNearby = 500

type pointRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewPointRepository(db *DB) repository.PointRepository {
	return &pointRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

type nearbyRow struct {
	ID             string         `db:"id"`
	Name           string         `db:"name"`
	HeroImageURL   sql.NullString `db:"hero_image_url"`
	Lat            float64        `db:"lat_out"`
	Lng            float64        `db:"lng_out"`
	Precision      string         `db:"location_precision"`
	SocialContext  bool           `db:"social_context"`
	DistanceMeters float64        `db:"distance_meters"`
}

func (r nearbyRow) toDomain() domain.PointRecord {
	name := r.Name
	p := domain.PointRecord{
		ID:               r.ID,
		Lat:              r.Lat,
		Lng:              r.Lng,
		Precision:        domain.Precision(r.Precision),
		Name:             &name,
		HasSocialContext: r.SocialContext,
	}
	if r.HeroImageURL.Valid {
		url := r.HeroImageURL.String
		p.ImageURL = &url
	}
	if p.Precision == "" {
		p.Precision = domain.PrecisionExact
	}
	return p
}

func (r *pointRepository) FindNearby(ctx context.Context, center orb.Point, radiusM float64, query string) ([]domain.PointRecord, error) {
	sqlQuery := `
		SELECT id, name, hero_image_url, lat_out, lng_out,
			location_precision, social_context, distance_meters
		FROM find_nearby_buildings($1, $2, $3, $4, $5)
	`

	var nameQuery sql.NullString
	if q := strings.TrimSpace(query); q != "" {
		nameQuery = sql.NullString{String: q, Valid: true}
	}

	var rows []nearbyRow
	err := r.db.SelectContext(ctx, &rows, sqlQuery,
		center.Lat(), center.Lon(), radiusM, nameQuery, LimitNearby)
	if err != nil {
		r.logger.Error("Failed to find nearby buildings",
			zap.Float64("lat", center.Lat()),
			zap.Float64("lng", center.Lon()),
			zap.Float64("radius_m", radiusM),
			zap.Error(err))
		return nil, errors.ErrDatabaseError
	}

	points := make([]domain.PointRecord, 0, len(rows))
	for _, row := range rows {
		points = append(points, row.toDomain())
	}

	r.logger.Debug("Nearby buildings found",
		zap.Int("count", len(points)),
		zap.Float64("radius_m", radiusM))

	return points, nil
}
