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

// SolverHandler exposes synchronous solve and evaluate endpoints. Long
// runs belong in the optimization queue; these calls block the request.
type SolverHandler struct {
	service *service.OptimizationService
}

// NewSolverHandler constructs handler.
func NewSolverHandler(svc *service.OptimizationService) *SolverHandler {
	return &SolverHandler{service: svc}
}

func solveResponse(scheduleID string, solution *service.Solution) dto.SolveResponse {
	return dto.SolveResponse{
		ScheduleID: scheduleID,
		Score: dto.ScoreResponse{
			HardViolations: solution.Score.Hard,
			SoftScore:      solution.Score.Soft,
			Quality:        solution.Quality,
			Feasible:       solution.Score.Feasible(),
		},
		Iterations: solution.Iterations,
		DurationMS: solution.Duration.Milliseconds(),
	}
}

// Solve godoc
// @Summary Solve schedule
// @Description Run a full solve over every unpinned slot and persist the
// @Description improved assignment.
// @Tags Solver
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body dto.SolveRequest true "Solve payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /schedules/{id}/solve [post]
func (h *SolverHandler) Solve(c *gin.Context) {
	var req dto.SolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid solve payload"))
		return
	}

	scheduleID := c.Param("id")
	solution, err := h.service.SolveNow(c.Request.Context(), scheduleID, req.ConfigID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, solveResponse(scheduleID, solution), nil)
}

// SolvePartial godoc
// @Summary Re-optimize selected slots
// @Description Re-optimizes only the named slots, keeping every other
// @Description assignment fixed.
// @Tags Solver
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body dto.PartialSolveRequest true "Partial solve payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id}/solve/partial [post]
func (h *SolverHandler) SolvePartial(c *gin.Context) {
	var req dto.PartialSolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid partial solve payload"))
		return
	}
	if len(req.SlotIDs) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "slotIds must not be empty"))
		return
	}

	scheduleID := c.Param("id")
	solution, err := h.service.SolvePartialNow(c.Request.Context(), scheduleID, req.SlotIDs, req.ConfigID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, solveResponse(scheduleID, solution), nil)
}

// Improve godoc
// @Summary Improve one constraint
// @Description Re-solve with the named constraint's weight doubled so the
// @Description search favors clearing that class of violation.
// @Tags Solver
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body dto.ImproveRequest true "Improve payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id}/improve [post]
func (h *SolverHandler) Improve(c *gin.Context) {
	var req dto.ImproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid improve payload"))
		return
	}
	if req.Constraint == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "constraint is required"))
		return
	}

	scheduleID := c.Param("id")
	solution, err := h.service.ImproveNow(c.Request.Context(), scheduleID, models.ConstraintType(req.Constraint), req.ConfigID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, solveResponse(scheduleID, solution), nil)
}

// Evaluate godoc
// @Summary Evaluate schedule
// @Description Score the schedule's current assignment without changing it.
// @Tags Solver
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id}/evaluate [get]
func (h *SolverHandler) Evaluate(c *gin.Context) {
	score, quality, err := h.service.EvaluateNow(c.Request.Context(), c.Param("id"), c.Query("configId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.ScoreResponse{
		HardViolations: score.Hard,
		SoftScore:      score.Soft,
		Quality:        quality,
		Feasible:       score.Feasible(),
	}, nil)
}
