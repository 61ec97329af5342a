package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-engine/internal/middleware"
	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

func TestAuthHandlerMeReturnsClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/auth/me", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{
		UserID: "u-1", Email: "ada@school.test", Role: models.RoleScheduler,
	})

	handler.Me(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "ada@school.test", envelope.Data["email"])
	assert.Equal(t, models.RoleScheduler, envelope.Data["role"])
}

func TestAuthHandlerMeUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/auth/me", nil)

	handler.Me(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestScheduleHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/schedules", bytes.NewReader([]byte(`not json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSolverHandlerPartialRequiresSlots(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSolverHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/schedules/sched-1/solve/partial", bytes.NewReader([]byte(`{"slotIds":[]}`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "sched-1"}}

	handler.SolvePartial(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
