package style

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/building-discovery/internal/pkg/logger"
)

// Kind - имя стиля карты
type Kind string

const (
	KindStreet    Kind = "street"
	KindSatellite Kind = "satellite"
)

const (
	DefaultStreetStyleURL    = "https://tiles.openfreemap.org/styles/positron"
	DefaultSatelliteTilesURL = "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}"

	satelliteSourceID = "satellite"
)

// Source - источник тайлов в описании стиля
type Source struct {
	Type        string   `json:"type"`
	Tiles       []string `json:"tiles"`
	TileSize    int      `json:"tileSize"`
	Attribution string   `json:"attribution,omitempty"`
}

// Layer - слой в описании стиля
type Layer struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Source string `json:"source"`
}

// Definition - стиль карты: векторный по URL или растровый по месту
type Definition struct {
	Kind    Kind              `json:"kind"`
	URL     string            `json:"url,omitempty"`
	Version int               `json:"version,omitempty"`
	Sources map[string]Source `json:"sources,omitempty"`
	Layers  []Layer           `json:"layers,omitempty"`
}

// Street - векторный стиль по URL
func Street(url string) Definition {
	if url == "" {
		url = DefaultStreetStyleURL
	}
	return Definition{Kind: KindStreet, URL: url}
}

// Satellite - один внешний растровый источник и один растровый слой
func Satellite(tilesURL string) Definition {
	if tilesURL == "" {
		tilesURL = DefaultSatelliteTilesURL
	}
	return Definition{
		Kind:    KindSatellite,
		Version: 8,
		Sources: map[string]Source{
			satelliteSourceID: {
				Type:        "raster",
				Tiles:       []string{tilesURL},
				TileSize:    256,
				Attribution: "Esri, Maxar, Earthstar Geographics",
			},
		},
		Layers: []Layer{
			{ID: satelliteSourceID, Type: "raster", Source: satelliteSourceID},
		},
	}
}

// Controller хранит активный стиль и признак ошибки загрузки стиля
type Controller struct {
	street    Definition
	satellite Definition
	logger    *zap.Logger

	mu     sync.Mutex
	active Kind
	notice bool
}

func NewController(street, satellite Definition, log *zap.Logger) *Controller {
	return &Controller{
		street:    street,
		satellite: satellite,
		logger:    logger.OrNop(log),
		active:    KindStreet,
	}
}

// Active - текущий стиль
func (c *Controller) Active() Definition {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.definitionLocked()
}

func (c *Controller) definitionLocked() Definition {
	if c.active == KindSatellite {
		return c.satellite
	}
	return c.street
}

// IsSatellite - активен спутниковый стиль
func (c *Controller) IsSatellite() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active == KindSatellite
}

// Notice - показывать ли уведомление об ошибке стиля
func (c *Controller) Notice() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notice
}

// Toggle - ручное переключение. Возврат на улицы снимает уведомление.
func (c *Controller) Toggle() Definition {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == KindSatellite {
		c.active = KindStreet
		c.notice = false
	} else {
		c.active = KindSatellite
	}
	return c.definitionLocked()
}

// HandleError обрабатывает ошибку движка. Для ошибок стиля включается
// спутник и уведомление. switched - стиль нужно применить заново.
func (c *Controller) HandleError(msg string) (def Definition, switched bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !IsStyleError(msg) {
		c.logger.Debug("Ignoring non-style map error", zap.String("error", msg))
		return c.definitionLocked(), false
	}

	c.notice = true
	if c.active == KindSatellite {
		c.logger.Warn("Style error while satellite is active", zap.String("error", msg))
		return c.satellite, false
	}

	c.active = KindSatellite
	c.logger.Warn("Style failed to load, falling back to satellite", zap.String("error", msg))
	return c.satellite, true
}

// IsStyleError - сообщение движка относится к загрузке стиля
func IsStyleError(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "style") ||
		strings.Contains(m, "load") ||
		strings.Contains(m, "evaluate")
}
