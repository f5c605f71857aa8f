package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/building-discovery/internal/pkg/logger"
	"github.com/building-discovery/internal/pkg/utils"
	"github.com/building-discovery/internal/pkg/validator"
	"github.com/building-discovery/internal/usecase"
	"github.com/building-discovery/internal/usecase/dto"
)

// ActionHandler принимает действия из подсказок карты
type ActionHandler struct {
	actionUC *usecase.ActionUseCase
	logger   *zap.Logger
}

func NewActionHandler(actionUC *usecase.ActionUseCase, log *zap.Logger) *ActionHandler {
	return &ActionHandler{
		actionUC: actionUC,
		logger:   logger.OrNop(log),
	}
}

// Publish godoc
// @Summary Действие с карты
// @Description Ставит действие (save, visit, remove_item, hide_candidate, add_candidate, remove_marker, update_marker_note) в очередь на применение.
// @Tags Map
// @Accept json
// @Produce json
// @Param request body dto.ActionRequest true "Действие"
// @Success 202 {object} utils.SuccessResponse{data=dto.ActionResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Router /api/v1/map/actions [post]
func (h *ActionHandler) Publish(c *fiber.Ctx) error {
	var req dto.ActionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, validationError(err))
	}

	// формат уже проверен валидатором
	userID := uuid.MustParse(req.UserID)
	var collectionID *uuid.UUID
	if req.CollectionID != nil {
		id := uuid.MustParse(*req.CollectionID)
		collectionID = &id
	}

	event, err := h.actionUC.Publish(c.UserContext(), usecase.ActionRequest{
		UserID:       userID,
		Kind:         req.Action,
		TargetID:     req.ID,
		CollectionID: collectionID,
		Note:         req.Note,
	})
	if err != nil {
		return utils.SendError(c, err)
	}

	c.Status(fiber.StatusAccepted)
	return utils.SendSuccess(c, dto.ActionResponse{
		EventID: event.EventID.String(),
		Action:  event.Kind,
		Status:  "queued",
	}, nil)
}
