package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/building-discovery/internal/pkg/errors"
	"github.com/building-discovery/internal/pkg/logger"
	"github.com/building-discovery/internal/pkg/utils"
	"github.com/building-discovery/internal/pkg/validator"
	"github.com/building-discovery/internal/usecase"
	"github.com/building-discovery/internal/usecase/dto"
)

// MapHandler - проекция, поиск рядом и кластеризация для клиентов карты
type MapHandler struct {
	mapUC  *usecase.MapUseCase
	logger *zap.Logger
}

func NewMapHandler(mapUC *usecase.MapUseCase, log *zap.Logger) *MapHandler {
	return &MapHandler{
		mapUC:  mapUC,
		logger: logger.OrNop(log),
	}
}

// Features godoc
// @Summary Проекция пакета записей в источник карты
// @Description Нормализует серверные кластеры, лёгкие точки и полные карточки зданий в GeoJSON. Записи с невалидными координатами отбрасываются, приблизительные точки смещаются детерминированно.
// @Tags Map
// @Accept json
// @Produce json
// @Param request body dto.FeaturesRequest true "Пакет записей"
// @Success 200 {object} utils.SuccessResponse{data=dto.FeaturesResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/map/features [post]
func (h *MapHandler) Features(c *fiber.Ctx) error {
	var req dto.FeaturesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, validationError(err))
	}

	result := h.mapUC.Features(req)

	return utils.SendSuccess(c, result, &utils.Meta{
		Total: result.Total,
	})
}

// Nearby godoc
// @Summary Здания рядом с точкой
// @Description Ищет здания в радиусе (100 м - 50 км, по умолчанию 5 км), подмешивает статусы пользователя и возвращает источник карты.
// @Tags Map
// @Produce json
// @Param lat query number true "Широта"
// @Param lng query number true "Долгота"
// @Param radius_m query number false "Радиус в метрах" default(5000)
// @Param q query string false "Фильтр по названию"
// @Param user_id query string false "UUID пользователя"
// @Param show_saved_candidates query bool false "Показывать сохранённых кандидатов"
// @Success 200 {object} utils.SuccessResponse{data=dto.FeaturesResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/map/nearby [get]
func (h *MapHandler) Nearby(c *fiber.Ctx) error {
	var req dto.NearbyRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest)
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, validationError(err))
	}

	result, err := h.mapUC.Nearby(c.UserContext(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{
		Total: result.Total,
	})
}

// Clusters godoc
// @Summary Клиентская кластеризация пакета
// @Description Кластеризует точки для области и зума. Кластеры содержат point_count и expansion_zoom.
// @Tags Map
// @Accept json
// @Produce json
// @Param request body dto.ClustersRequest true "Пакет, область и зум"
// @Success 200 {object} utils.SuccessResponse{data=dto.ClustersResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/map/clusters [post]
func (h *MapHandler) Clusters(c *fiber.Ctx) error {
	var req dto.ClustersRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, validationError(err))
	}

	result, err := h.mapUC.Clusters(req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{
		Total: result.Clusters + result.Points,
	})
}

func validationError(err error) error {
	details := map[string]interface{}{"validation": err.Error()}
	if fields := validator.FieldErrors(err); fields != nil {
		details["fields"] = fields
	}
	return errors.ErrInvalidRequest.WithDetails(details)
}
