package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-engine/internal/middleware"
	"github.com/noah-isme/sma-timetable-engine/internal/service"
	"github.com/noah-isme/sma-timetable-engine/pkg/response"
)

// CapacityHandler answers roster feasibility questions.
type CapacityHandler struct {
	service *service.CapacityService
}

// NewCapacityHandler constructs handler.
func NewCapacityHandler(svc *service.CapacityService) *CapacityHandler {
	return &CapacityHandler{service: svc}
}

// Analyze godoc
// @Summary Analyze roster capacity
// @Description Compare required weekly sessions against teacher and room
// @Description supply before any solving is attempted.
// @Tags Capacity
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /capacity [get]
func (h *CapacityHandler) Analyze(c *gin.Context) {
	analysis, cached, err := h.service.AnalyzeCurrent(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cached)
	response.JSON(c, http.StatusOK, analysis, nil, middleware.ExtractMeta(c))
}

// Refresh godoc
// @Summary Refresh capacity analysis
// @Description Drop the cached analysis and recompute from the live roster.
// @Tags Capacity
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /capacity/refresh [post]
func (h *CapacityHandler) Refresh(c *gin.Context) {
	h.service.InvalidateCache(c.Request.Context())

	analysis, _, err := h.service.AnalyzeCurrent(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, analysis, nil)
}
