package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
)

func makeTeachers(n, maxHoursPerWeek int) []models.Teacher {
	out := make([]models.Teacher, n)
	for i := range out {
		out[i] = models.Teacher{ID: uuidLike(i), Active: true, MaxHoursPerWeek: maxHoursPerWeek}
	}
	return out
}

func makeRooms(n int) []models.Room {
	out := make([]models.Room, n)
	for i := range out {
		out[i] = models.Room{ID: uuidLike(i), Active: true, Capacity: 30}
	}
	return out
}

func makeCourses(n, sessions int) []models.Course {
	out := make([]models.Course, n)
	for i := range out {
		out[i] = models.Course{ID: uuidLike(i), Active: true, SessionsPerWeek: sessions}
	}
	return out
}

func TestAnalyzeSufficientRoster(t *testing.T) {
	svc := NewCapacityService(nil)

	// 10 teachers at 35 weekly sessions each vs 60 courses needing 5 each.
	analysis := svc.Analyze(makeTeachers(10, 0), makeRooms(10), makeCourses(60, 5))

	assert.Equal(t, 300, analysis.RequiredSessions)
	assert.Equal(t, 350, analysis.TeacherCapacity)
	assert.Equal(t, 400, analysis.RoomCapacity)
	assert.True(t, analysis.Sufficient)
	assert.Empty(t, analysis.Recommendations)
}

func TestAnalyzeTeacherShortfall(t *testing.T) {
	svc := NewCapacityService(nil)

	// 10 teachers limited to 25 weekly hours deliver 250 sessions against a
	// 300-session demand.
	analysis := svc.Analyze(makeTeachers(10, 25), makeRooms(10), makeCourses(60, 5))

	assert.Equal(t, 300, analysis.RequiredSessions)
	assert.Equal(t, 250, analysis.TeacherCapacity)
	assert.False(t, analysis.Sufficient)
	assert.Equal(t, 50, analysis.TeacherShortfall)

	require.Len(t, analysis.Recommendations, 2)
	assert.Equal(t, RecommendAddTeachers, analysis.Recommendations[0].Kind)
	assert.Equal(t, 2, analysis.Recommendations[0].Count)
	assert.Equal(t, RecommendReduceCourses, analysis.Recommendations[1].Kind)
	assert.Equal(t, 10, analysis.Recommendations[1].Count)
}

func TestAnalyzeRoomShortfall(t *testing.T) {
	svc := NewCapacityService(nil)

	analysis := svc.Analyze(makeTeachers(20, 0), makeRooms(2), makeCourses(40, 5))

	assert.Equal(t, 200, analysis.RequiredSessions)
	assert.Equal(t, 80, analysis.RoomCapacity)
	assert.Equal(t, 120, analysis.RoomShortfall)
	assert.False(t, analysis.Sufficient)

	require.Len(t, analysis.Recommendations, 1)
	assert.Equal(t, RecommendAddRooms, analysis.Recommendations[0].Kind)
	assert.Equal(t, 3, analysis.Recommendations[0].Count)
}

func TestAnalyzeIgnoresInactiveFacts(t *testing.T) {
	svc := NewCapacityService(nil)

	teachers := makeTeachers(2, 0)
	teachers[1].Active = false
	rooms := makeRooms(2)
	rooms[1].Active = false
	courses := makeCourses(2, 5)
	courses[1].Active = false

	analysis := svc.Analyze(teachers, rooms, courses)

	assert.Equal(t, 5, analysis.RequiredSessions)
	assert.Equal(t, 35, analysis.TeacherCapacity)
	assert.Equal(t, 40, analysis.RoomCapacity)
}

func TestValidateReturnsTypedError(t *testing.T) {
	svc := NewCapacityService(nil)

	err := svc.Validate(makeTeachers(10, 25), makeRooms(10), makeCourses(60, 5))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCapacityInsufficient.Code, appErrors.FromError(err).Code)

	assert.NoError(t, svc.Validate(makeTeachers(10, 0), makeRooms(10), makeCourses(60, 5)))
}

func TestValidateCarriesAnalysisDetails(t *testing.T) {
	svc := NewCapacityService(nil)

	err := svc.Validate(makeTeachers(10, 25), makeRooms(10), makeCourses(60, 5))
	require.Error(t, err)

	analysis, ok := appErrors.FromError(err).Details.(CapacityAnalysis)
	require.True(t, ok, "error should carry the capacity analysis")
	assert.Equal(t, 50, analysis.TeacherShortfall)
	assert.False(t, analysis.Sufficient)
	assert.NotEmpty(t, analysis.Recommendations)
}

func TestCourseDefaultSessions(t *testing.T) {
	svc := NewCapacityService(nil)

	// Zero-valued sessions fall back to the default of five.
	analysis := svc.Analyze(makeTeachers(5, 0), makeRooms(5), makeCourses(10, 0))
	assert.Equal(t, 50, analysis.RequiredSessions)
}
