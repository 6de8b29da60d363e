package exports

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/media-rota/backend/pkg/response"
)

// Handler handles schedule export endpoints. A nil service means exports are not configured.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an export handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Request handles POST /schedules/:id/exports.
func (h *Handler) Request(c *gin.Context) {
	if h.svc == nil {
		response.ServiceUnavailable(c, "exports are not configured")
		return
	}
	scheduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid schedule id")
		return
	}
	ticket, err := h.svc.Request(c.Request.Context(), scheduleID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Accepted(c, ticket)
}

// Download handles GET /schedules/:id/exports/:jobId.
func (h *Handler) Download(c *gin.Context) {
	if h.svc == nil {
		response.ServiceUnavailable(c, "exports are not configured")
		return
	}
	scheduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid schedule id")
		return
	}
	jobID, err := uuid.Parse(c.Param("jobId"))
	if err != nil {
		response.BadRequest(c, "invalid job id")
		return
	}
	dl, err := h.svc.Download(c.Request.Context(), scheduleID, jobID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, dl)
}
