package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-engine/internal/dto"
	"github.com/noah-isme/sma-timetable-engine/internal/models"
	"github.com/noah-isme/sma-timetable-engine/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
	"github.com/noah-isme/sma-timetable-engine/pkg/response"
)

// OptimizationHandler manages background optimization runs and their
// tuning profiles.
type OptimizationHandler struct {
	service *service.OptimizationService
}

// NewOptimizationHandler constructs handler.
func NewOptimizationHandler(svc *service.OptimizationService) *OptimizationHandler {
	return &OptimizationHandler{service: svc}
}

// Start godoc
// @Summary Start optimization
// @Description Record an optimization run for the schedule and kick off the
// @Description solve on a background worker.
// @Tags Optimization
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body dto.StartOptimizationRequest true "Start payload"
// @Success 202 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id}/optimize [post]
func (h *OptimizationHandler) Start(c *gin.Context) {
	var req dto.StartOptimizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	result, err := h.service.StartOptimization(c.Request.Context(), c.Param("id"), req.ConfigID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, result, nil)
}

// QuickOptimize godoc
// @Summary Quick optimize
// @Description Run with the latency-biased stock tuning regardless of the
// @Description stored default.
// @Tags Optimization
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 202 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id}/optimize/quick [post]
func (h *OptimizationHandler) QuickOptimize(c *gin.Context) {
	result, err := h.service.QuickOptimize(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, result, nil)
}

// Cancel godoc
// @Summary Cancel optimization run
// @Tags Optimization
// @Produce json
// @Param resultId path string true "Result ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /optimizations/{resultId}/cancel [post]
func (h *OptimizationHandler) Cancel(c *gin.Context) {
	if err := h.service.Cancel(c.Request.Context(), c.Param("resultId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GetResult godoc
// @Summary Get optimization run
// @Tags Optimization
// @Produce json
// @Param resultId path string true "Result ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /optimizations/{resultId} [get]
func (h *OptimizationHandler) GetResult(c *gin.Context) {
	result, err := h.service.GetResult(c.Request.Context(), c.Param("resultId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ListResults godoc
// @Summary List optimization runs
// @Description Recent runs for a schedule, newest first.
// @Tags Optimization
// @Produce json
// @Param id path string true "Schedule ID"
// @Param limit query int false "Max results"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/optimizations [get]
func (h *OptimizationHandler) ListResults(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	results, err := h.service.ListResults(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// PruneResults godoc
// @Summary Prune old runs
// @Description Delete terminal runs older than the retention window.
// @Tags Optimization
// @Accept json
// @Produce json
// @Param payload body dto.PruneResultsRequest true "Prune payload"
// @Success 200 {object} response.Envelope
// @Router /optimizations/prune [post]
func (h *OptimizationHandler) PruneResults(c *gin.Context) {
	var req dto.PruneResultsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if req.RetentionDays < 1 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "retentionDays must be at least 1"))
		return
	}

	deleted, err := h.service.DeleteOldResults(c.Request.Context(), time.Duration(req.RetentionDays)*24*time.Hour)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": deleted}, nil)
}

// ListConfigs godoc
// @Summary List tuning profiles
// @Tags Optimization
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /optimization-configs [get]
func (h *OptimizationHandler) ListConfigs(c *gin.Context) {
	configs, err := h.service.ListConfigs(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, configs, nil)
}

// GetConfig godoc
// @Summary Get tuning profile
// @Tags Optimization
// @Produce json
// @Param configId path string true "Config ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /optimization-configs/{configId} [get]
func (h *OptimizationHandler) GetConfig(c *gin.Context) {
	cfg, err := h.service.GetConfig(c.Request.Context(), c.Param("configId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// CreateConfig godoc
// @Summary Create tuning profile
// @Tags Optimization
// @Accept json
// @Produce json
// @Param payload body dto.OptimizationConfigRequest true "Config payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /optimization-configs [post]
func (h *OptimizationHandler) CreateConfig(c *gin.Context) {
	var req dto.OptimizationConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid config payload"))
		return
	}

	cfg := configFromRequest(req)
	if err := h.service.CreateConfig(c.Request.Context(), cfg); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cfg)
}

// UpdateConfig godoc
// @Summary Update tuning profile
// @Tags Optimization
// @Accept json
// @Produce json
// @Param configId path string true "Config ID"
// @Param payload body dto.OptimizationConfigRequest true "Config payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /optimization-configs/{configId} [put]
func (h *OptimizationHandler) UpdateConfig(c *gin.Context) {
	var req dto.OptimizationConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid config payload"))
		return
	}

	cfg := configFromRequest(req)
	cfg.ID = c.Param("configId")
	if err := h.service.UpdateConfig(c.Request.Context(), cfg); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// DeleteConfig godoc
// @Summary Delete tuning profile
// @Tags Optimization
// @Produce json
// @Param configId path string true "Config ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /optimization-configs/{configId} [delete]
func (h *OptimizationHandler) DeleteConfig(c *gin.Context) {
	if err := h.service.DeleteConfig(c.Request.Context(), c.Param("configId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func configFromRequest(req dto.OptimizationConfigRequest) *models.OptimizationConfig {
	cfg := &models.OptimizationConfig{
		Name:              req.Name,
		Algorithm:         models.Algorithm(req.Algorithm),
		PopulationSize:    req.PopulationSize,
		MaxGenerations:    req.MaxGenerations,
		MutationRate:      req.MutationRate,
		CrossoverRate:     req.CrossoverRate,
		EliteSize:         req.EliteSize,
		TournamentSize:    req.TournamentSize,
		MaxRuntimeSeconds: req.MaxRuntimeSeconds,
		StagnationLimit:   req.StagnationLimit,
		LogFrequency:      req.LogFrequency,
		TargetFitness:     req.TargetFitness,
		IsDefault:         req.IsDefault,
	}
	if len(req.ConstraintWeights) > 0 {
		cfg.ConstraintWeights = make(map[models.ConstraintType]float64, len(req.ConstraintWeights))
		for name, weight := range req.ConstraintWeights {
			cfg.ConstraintWeights[models.ConstraintType(name)] = weight
		}
	}
	return cfg
}
