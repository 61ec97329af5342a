package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-engine/internal/dto"
	"github.com/noah-isme/sma-timetable-engine/internal/models"
	"github.com/noah-isme/sma-timetable-engine/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
	"github.com/noah-isme/sma-timetable-engine/pkg/response"
)

// LunchHandler manages lunch waves and student assignments.
type LunchHandler struct {
	service *service.LunchService
}

// NewLunchHandler constructs handler.
func NewLunchHandler(svc *service.LunchService) *LunchHandler {
	return &LunchHandler{service: svc}
}

// ListWaves godoc
// @Summary List lunch waves
// @Tags Lunch
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/lunch/waves [get]
func (h *LunchHandler) ListWaves(c *gin.Context) {
	waves, err := h.service.ListWaves(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, waves, nil)
}

// CreateWave godoc
// @Summary Create lunch wave
// @Tags Lunch
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body dto.LunchWaveRequest true "Wave payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules/{id}/lunch/waves [post]
func (h *LunchHandler) CreateWave(c *gin.Context) {
	var req dto.LunchWaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid wave payload"))
		return
	}

	wave, err := h.service.CreateWave(c.Request.Context(), c.Param("id"), waveFromRequest(req))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, wave)
}

// UpdateWave godoc
// @Summary Update lunch wave
// @Tags Lunch
// @Accept json
// @Produce json
// @Param waveId path string true "Wave ID"
// @Param payload body dto.LunchWaveRequest true "Wave payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lunch/waves/{waveId} [put]
func (h *LunchHandler) UpdateWave(c *gin.Context) {
	var req dto.LunchWaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid wave payload"))
		return
	}

	wave, err := h.service.UpdateWave(c.Request.Context(), c.Param("waveId"), waveFromRequest(req))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, wave, nil)
}

// DeleteWave godoc
// @Summary Delete lunch wave
// @Description Remove an empty wave. Waves holding assignments must be
// @Description drained first.
// @Tags Lunch
// @Produce json
// @Param waveId path string true "Wave ID"
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lunch/waves/{waveId} [delete]
func (h *LunchHandler) DeleteWave(c *gin.Context) {
	if err := h.service.DeleteWave(c.Request.Context(), c.Param("waveId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AssignAll godoc
// @Summary Assign all students
// @Description Distribute every active student without a locked or manual
// @Description assignment across the schedule's waves.
// @Tags Lunch
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body dto.AssignLunchRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules/{id}/lunch/assign [post]
func (h *LunchHandler) AssignAll(c *gin.Context) {
	var req dto.AssignLunchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}

	stats, err := h.service.AssignAllStudents(c.Request.Context(), c.Param("id"), models.LunchAssignmentMethod(req.Method))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Reassign godoc
// @Summary Reassign student
// @Description Move one student to a specific wave as a manual override.
// @Tags Lunch
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body dto.ReassignLunchRequest true "Reassignment payload"
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedules/{id}/lunch/reassign [post]
func (h *LunchHandler) Reassign(c *gin.Context) {
	var req dto.ReassignLunchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reassignment payload"))
		return
	}

	if err := h.service.ReassignStudent(c.Request.Context(), c.Param("id"), req.StudentID, req.WaveID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListTeacherAssignments godoc
// @Summary List wave supervisors
// @Tags Lunch
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/lunch/teachers [get]
func (h *LunchHandler) ListTeacherAssignments(c *gin.Context) {
	assignments, err := h.service.ListTeacherAssignments(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// AssignTeachers godoc
// @Summary Assign wave supervisors
// @Description Distribute active teachers across the schedule's waves so
// @Description every wave has supervision.
// @Tags Lunch
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/lunch/teachers/assign [post]
func (h *LunchHandler) AssignTeachers(c *gin.Context) {
	assignments, err := h.service.AssignTeachers(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// ReassignTeacher godoc
// @Summary Reassign wave supervisor
// @Description Move one teacher's supervision duty to a specific wave as a
// @Description manual override.
// @Tags Lunch
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body dto.ReassignTeacherLunchRequest true "Reassignment payload"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id}/lunch/teachers/reassign [post]
func (h *LunchHandler) ReassignTeacher(c *gin.Context) {
	var req dto.ReassignTeacherLunchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reassignment payload"))
		return
	}

	if err := h.service.ReassignTeacher(c.Request.Context(), c.Param("id"), req.TeacherID, req.WaveID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Rebalance godoc
// @Summary Rebalance waves
// @Description Even out wave occupancy. Locked and manually overridden
// @Description assignments keep their wave.
// @Tags Lunch
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/lunch/rebalance [post]
func (h *LunchHandler) Rebalance(c *gin.Context) {
	stats, err := h.service.Rebalance(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// SetLock godoc
// @Summary Lock or unlock assignment
// @Tags Lunch
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body dto.LunchLockRequest true "Lock payload"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id}/lunch/lock [post]
func (h *LunchHandler) SetLock(c *gin.Context) {
	var req dto.LunchLockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lock payload"))
		return
	}

	if err := h.service.SetLocked(c.Request.Context(), c.Param("id"), req.StudentID, req.Locked); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SetPriority godoc
// @Summary Set rebalance priority
// @Tags Lunch
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body dto.LunchPriorityRequest true "Priority payload"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id}/lunch/priority [post]
func (h *LunchHandler) SetPriority(c *gin.Context) {
	var req dto.LunchPriorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid priority payload"))
		return
	}

	if err := h.service.SetPriority(c.Request.Context(), c.Param("id"), req.StudentID, req.Priority); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RemoveAssignments godoc
// @Summary Remove all assignments
// @Tags Lunch
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 204 {object} response.Envelope
// @Router /schedules/{id}/lunch/assignments [delete]
func (h *LunchHandler) RemoveAssignments(c *gin.Context) {
	if err := h.service.RemoveAllAssignments(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Statistics godoc
// @Summary Lunch statistics
// @Description Occupancy and assignment coverage recomputed from records.
// @Tags Lunch
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/lunch/statistics [get]
func (h *LunchHandler) Statistics(c *gin.Context) {
	stats, err := h.service.Statistics(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

func waveFromRequest(req dto.LunchWaveRequest) models.LunchWave {
	return models.LunchWave{
		WaveNumber:  req.WaveNumber,
		Name:        req.Name,
		GradeLevel:  req.GradeLevel,
		MaxCapacity: req.MaxCapacity,
		StartMinute: req.StartMinute,
		EndMinute:   req.EndMinute,
	}
}
