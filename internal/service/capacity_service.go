package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
)

// Default weekly grid dimensions used for capacity arithmetic.
const (
	defaultPeriodsPerDay = 8
	defaultDaysPerWeek   = 5
)

// RecommendationKind classifies a structured capacity recommendation.
type RecommendationKind string

const (
	RecommendAddTeachers   RecommendationKind = "ADD_TEACHERS"
	RecommendReduceCourses RecommendationKind = "REDUCE_COURSES"
	RecommendAddRooms      RecommendationKind = "ADD_ROOMS"
)

// CapacityRecommendation is one actionable remediation with a quantity.
type CapacityRecommendation struct {
	Kind    RecommendationKind `json:"kind"`
	Count   int                `json:"count"`
	Message string             `json:"message"`
}

// CapacityAnalysis reports whether the roster can host the requested
// course load before any solving is attempted.
type CapacityAnalysis struct {
	RequiredSessions int `json:"required_sessions"`
	TeacherCapacity  int `json:"teacher_capacity"`
	RoomCapacity     int `json:"room_capacity"`

	TeacherShortfall int `json:"teacher_shortfall"`
	RoomShortfall    int `json:"room_shortfall"`

	Sufficient      bool                     `json:"sufficient"`
	Recommendations []CapacityRecommendation `json:"recommendations,omitempty"`
}

// CapacityService answers feasibility-by-arithmetic questions about a
// roster: can these teachers and rooms host this many weekly sessions at
// all, regardless of placement.
type CapacityService struct {
	periodsPerDay int
	daysPerWeek   int
	roster        rosterReader
	cache         *CacheService
	logger        *zap.Logger
}

func NewCapacityService(logger *zap.Logger) *CapacityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CapacityService{
		periodsPerDay: defaultPeriodsPerDay,
		daysPerWeek:   defaultDaysPerWeek,
		logger:        logger,
	}
}

// WithRoster attaches the live roster so AnalyzeCurrent can load facts
// itself. Optional; Analyze keeps working on caller-supplied slices.
func (s *CapacityService) WithRoster(roster rosterReader, cache *CacheService) *CapacityService {
	s.roster = roster
	s.cache = cache
	return s
}

const capacityCacheKey = "capacity:current"

// AnalyzeCurrent runs the analysis against the active roster. Results are
// cached briefly; roster edits invalidate through InvalidateCache. The bool
// reports whether the analysis was served from cache.
func (s *CapacityService) AnalyzeCurrent(ctx context.Context) (CapacityAnalysis, bool, error) {
	if s.roster == nil {
		return CapacityAnalysis{}, false, appErrors.Clone(appErrors.ErrInternal, "capacity service has no roster source")
	}

	if s.cache != nil {
		var cached CapacityAnalysis
		if hit, err := s.cache.Get(ctx, capacityCacheKey, &cached); err == nil && hit {
			return cached, true, nil
		}
	}

	teachers, err := s.roster.ListActiveTeachers(ctx)
	if err != nil {
		return CapacityAnalysis{}, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	rooms, err := s.roster.ListActiveRooms(ctx)
	if err != nil {
		return CapacityAnalysis{}, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	courses, err := s.roster.ListActiveCourses(ctx)
	if err != nil {
		return CapacityAnalysis{}, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}

	analysis := s.Analyze(teachers, rooms, courses)
	if s.cache != nil {
		if err := s.cache.Set(ctx, capacityCacheKey, analysis, 5*time.Minute); err != nil {
			s.logger.Warn("failed to cache capacity analysis", zap.Error(err))
		}
	}
	return analysis, false, nil
}

// InvalidateCache drops the cached analysis after roster edits.
func (s *CapacityService) InvalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, capacityCacheKey); err != nil {
		s.logger.Warn("failed to invalidate capacity cache", zap.Error(err))
	}
}

// Analyze compares required weekly sessions against teacher and room supply.
func (s *CapacityService) Analyze(teachers []models.Teacher, rooms []models.Room, courses []models.Course) CapacityAnalysis {
	analysis := CapacityAnalysis{
		RequiredSessions: s.requiredSessions(courses),
		TeacherCapacity:  s.teacherCapacity(teachers),
		RoomCapacity:     s.roomCapacity(rooms),
	}

	if analysis.TeacherCapacity < analysis.RequiredSessions {
		analysis.TeacherShortfall = analysis.RequiredSessions - analysis.TeacherCapacity
	}
	if analysis.RoomCapacity < analysis.RequiredSessions {
		analysis.RoomShortfall = analysis.RequiredSessions - analysis.RoomCapacity
	}
	analysis.Sufficient = analysis.TeacherShortfall == 0 && analysis.RoomShortfall == 0
	analysis.Recommendations = s.recommend(analysis)

	s.logger.Debug("capacity analysis",
		zap.Int("required", analysis.RequiredSessions),
		zap.Int("teacher_capacity", analysis.TeacherCapacity),
		zap.Int("room_capacity", analysis.RoomCapacity),
		zap.Bool("sufficient", analysis.Sufficient))
	return analysis
}

// Validate returns a typed error when the roster cannot host the load so
// callers can refuse to start a doomed solve.
func (s *CapacityService) Validate(teachers []models.Teacher, rooms []models.Room, courses []models.Course) error {
	analysis := s.Analyze(teachers, rooms, courses)
	if analysis.Sufficient {
		return nil
	}
	err := appErrors.Clone(appErrors.ErrCapacityInsufficient,
		fmt.Sprintf("roster supports %d of %d required weekly sessions",
			minInt(analysis.TeacherCapacity, analysis.RoomCapacity), analysis.RequiredSessions))
	// Attach the full analysis so API clients get shortfalls and
	// recommendations, not just the summary sentence.
	return appErrors.WithDetails(err, analysis)
}

// requiredSessions totals weekly sessions across active courses.
func (s *CapacityService) requiredSessions(courses []models.Course) int {
	total := 0
	for _, c := range courses {
		if !c.Active {
			continue
		}
		total += c.EffectiveSessionsPerWeek()
	}
	return total
}

// teacherCapacity totals deliverable sessions per week. Each teacher
// contributes their weekly-hours budget spread across the week, capped so at
// least one period per day stays free for planning.
func (s *CapacityService) teacherCapacity(teachers []models.Teacher) int {
	total := 0
	dailyCap := s.periodsPerDay - 1
	for _, t := range teachers {
		if !t.Active {
			continue
		}
		daily := dailyCap
		if t.MaxHoursPerWeek > 0 {
			fromWeekly := t.MaxHoursPerWeek / s.daysPerWeek
			if fromWeekly < daily {
				daily = fromWeekly
			}
		}
		if t.MaxPeriodsPerDay > 0 && t.MaxPeriodsPerDay < daily {
			daily = t.MaxPeriodsPerDay
		}
		total += daily * s.daysPerWeek
	}
	return total
}

// roomCapacity totals available room-periods per week.
func (s *CapacityService) roomCapacity(rooms []models.Room) int {
	active := 0
	for _, r := range rooms {
		if r.Active {
			active++
		}
	}
	return active * s.periodsPerDay * s.daysPerWeek
}

func (s *CapacityService) recommend(a CapacityAnalysis) []CapacityRecommendation {
	var out []CapacityRecommendation
	if a.TeacherShortfall > 0 {
		perTeacher := (s.periodsPerDay - 1) * s.daysPerWeek
		teachers := ceilDiv(a.TeacherShortfall, perTeacher)
		out = append(out, CapacityRecommendation{
			Kind:    RecommendAddTeachers,
			Count:   teachers,
			Message: fmt.Sprintf("hire %d more teacher(s) to cover %d missing weekly sessions", teachers, a.TeacherShortfall),
		})
		courses := ceilDiv(a.TeacherShortfall, models.DefaultSessionsPerWeek)
		out = append(out, CapacityRecommendation{
			Kind:    RecommendReduceCourses,
			Count:   courses,
			Message: fmt.Sprintf("or drop %d course(s) from the offering", courses),
		})
	}
	if a.RoomShortfall > 0 {
		perRoom := s.periodsPerDay * s.daysPerWeek
		rooms := ceilDiv(a.RoomShortfall, perRoom)
		out = append(out, CapacityRecommendation{
			Kind:    RecommendAddRooms,
			Count:   rooms,
			Message: fmt.Sprintf("open %d more room(s) to cover %d missing weekly sessions", rooms, a.RoomShortfall),
		})
	}
	return out
}

func ceilDiv(a, b int) int {
	return int(math.Ceil(float64(a) / float64(b)))
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
