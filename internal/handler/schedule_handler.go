package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-engine/internal/dto"
	"github.com/noah-isme/sma-timetable-engine/internal/models"
	"github.com/noah-isme/sma-timetable-engine/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
	"github.com/noah-isme/sma-timetable-engine/pkg/response"
)

// ScheduleHandler manages schedule, slot, and conflict endpoints.
type ScheduleHandler struct {
	service *service.ScheduleService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// List godoc
// @Summary List schedules
// @Tags Schedules
// @Produce json
// @Param termId query string false "Filter by term"
// @Param status query string false "Filter by lifecycle status"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	var filter models.ScheduleFilter
	filter.TermID = c.Query("termId")
	filter.Status = models.ScheduleStatus(strings.ToUpper(c.Query("status")))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	schedules, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, pagination)
}

// Get godoc
// @Summary Get schedule
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	schedule, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Create godoc
// @Summary Create schedule
// @Description Create a new draft timetable
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body dto.CreateScheduleRequest true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req dto.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}

	schedule, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, schedule)
}

// Update godoc
// @Summary Update schedule
// @Description Rename a schedule or change its lifecycle status. Publishing
// @Description is refused while critical conflicts remain open.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body dto.UpdateScheduleRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedules/{id} [put]
func (h *ScheduleHandler) Update(c *gin.Context) {
	var req dto.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}

	schedule, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Delete godoc
// @Summary Delete schedule
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListSlots godoc
// @Summary List schedule slots
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id}/slots [get]
func (h *ScheduleHandler) ListSlots(c *gin.Context) {
	slots, err := h.service.ListSlots(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// CreateSlot godoc
// @Summary Create slot
// @Description Add one course session to a schedule. Assignment fields may
// @Description be empty; the solver fills them.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body dto.CreateSlotRequest true "Slot payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules/{id}/slots [post]
func (h *ScheduleHandler) CreateSlot(c *gin.Context) {
	var req dto.CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slot payload"))
		return
	}

	slot, err := h.service.CreateSlot(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// UpdateSlot godoc
// @Summary Update slot
// @Tags Schedules
// @Accept json
// @Produce json
// @Param slotId path string true "Slot ID"
// @Param payload body dto.UpdateSlotRequest true "Slot payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /slots/{slotId} [put]
func (h *ScheduleHandler) UpdateSlot(c *gin.Context) {
	var req dto.UpdateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slot payload"))
		return
	}

	slot, err := h.service.UpdateSlot(c.Request.Context(), c.Param("slotId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// PinSlot godoc
// @Summary Pin or release slot
// @Description A pinned slot keeps its assignment through solver runs.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param slotId path string true "Slot ID"
// @Param payload body dto.PinRequest true "Pin payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /slots/{slotId}/pin [put]
func (h *ScheduleHandler) PinSlot(c *gin.Context) {
	var req dto.PinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid pin payload"))
		return
	}

	slot, err := h.service.PinSlot(c.Request.Context(), c.Param("slotId"), req.Pinned)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// DeleteSlot godoc
// @Summary Delete slot
// @Tags Schedules
// @Produce json
// @Param slotId path string true "Slot ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /slots/{slotId} [delete]
func (h *ScheduleHandler) DeleteSlot(c *gin.Context) {
	if err := h.service.DeleteSlot(c.Request.Context(), c.Param("slotId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DetectConflicts godoc
// @Summary Detect conflicts
// @Description Run all constraint checks against the schedule's current
// @Description assignment and persist the findings.
// @Tags Conflicts
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id}/conflicts/detect [post]
func (h *ScheduleHandler) DetectConflicts(c *gin.Context) {
	conflicts, err := h.service.DetectConflicts(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, conflicts, nil)
}

// ListConflicts godoc
// @Summary List conflicts
// @Tags Conflicts
// @Produce json
// @Param id path string true "Schedule ID"
// @Param open query bool false "Only open conflicts"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/conflicts [get]
func (h *ScheduleHandler) ListConflicts(c *gin.Context) {
	openOnly, _ := strconv.ParseBool(c.DefaultQuery("open", "false"))

	conflicts, err := h.service.ListConflicts(c.Request.Context(), c.Param("id"), openOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, conflicts, nil)
}

// ResolveConflict godoc
// @Summary Resolve conflict
// @Tags Conflicts
// @Produce json
// @Param conflictId path string true "Conflict ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /conflicts/{conflictId}/resolve [post]
func (h *ScheduleHandler) ResolveConflict(c *gin.Context) {
	if err := h.service.ResolveConflict(c.Request.Context(), c.Param("conflictId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// IgnoreConflict godoc
// @Summary Ignore or unignore conflict
// @Tags Conflicts
// @Accept json
// @Produce json
// @Param conflictId path string true "Conflict ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /conflicts/{conflictId}/ignore [post]
func (h *ScheduleHandler) IgnoreConflict(c *gin.Context) {
	var payload struct {
		Ignored bool `json:"ignored"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.service.IgnoreConflict(c.Request.Context(), c.Param("conflictId"), payload.Ignored); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ScoreBreakdown godoc
// @Summary Score breakdown
// @Description Per-constraint fitness contributions for the schedule's
// @Description current assignment.
// @Tags Conflicts
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id}/score [get]
func (h *ScheduleHandler) ScoreBreakdown(c *gin.Context) {
	cfg := models.DefaultOptimizationConfig()
	perConstraint, hard, soft, err := h.service.ScoreBreakdown(c.Request.Context(), c.Param("id"), cfg)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"perConstraint": perConstraint,
		"hardPenalty":   hard,
		"softPenalty":   soft,
	}, nil)
}
