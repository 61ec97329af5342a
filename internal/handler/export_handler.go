package handler

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-engine/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
	"github.com/noah-isme/sma-timetable-engine/pkg/response"
)

// ExportHandler renders timetable, lunch roster, and capacity exports and
// serves the signed download links.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler constructs handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

func exportFormat(c *gin.Context) service.ExportFormat {
	return service.ExportFormat(c.DefaultQuery("format", "csv"))
}

// ExportTimetable godoc
// @Summary Export timetable
// @Description Render the schedule as CSV or PDF and return a signed
// @Description download link.
// @Tags Exports
// @Produce json
// @Param id path string true "Schedule ID"
// @Param format query string false "csv or pdf"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id}/export [post]
func (h *ExportHandler) ExportTimetable(c *gin.Context) {
	result, err := h.service.ExportTimetable(c.Request.Context(), c.Param("id"), exportFormat(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ExportLunchRoster godoc
// @Summary Export lunch roster
// @Tags Exports
// @Produce json
// @Param id path string true "Schedule ID"
// @Param format query string false "csv or pdf"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id}/lunch/export [post]
func (h *ExportHandler) ExportLunchRoster(c *gin.Context) {
	result, err := h.service.ExportLunchRoster(c.Request.Context(), c.Param("id"), exportFormat(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ExportCapacityReport godoc
// @Summary Export capacity report
// @Tags Exports
// @Produce json
// @Param format query string false "csv or pdf"
// @Success 200 {object} response.Envelope
// @Router /capacity/export [post]
func (h *ExportHandler) ExportCapacityReport(c *gin.Context) {
	result, err := h.service.ExportCapacityReport(c.Request.Context(), exportFormat(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Download godoc
// @Summary Download export
// @Description Stream a rendered export. The token embeds the file path and
// @Description expiry; expired tokens are refused.
// @Tags Exports
// @Produce application/octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /exports/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	_, relPath, _, err := h.service.ParseToken(c.Param("token"), false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token"))
		return
	}

	file, err := h.service.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export no longer available"))
		return
	}
	defer file.Close()

	name := filepath.Base(relPath)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		_ = c.Error(err)
	}
}
