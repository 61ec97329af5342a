package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
	"github.com/noah-isme/sma-timetable-engine/pkg/export"
	"github.com/noah-isme/sma-timetable-engine/pkg/storage"
)

// ExportFormat selects the rendered file type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders timetable, lunch roster, and capacity datasets and
// persists the files behind signed download tokens.
type ExportService struct {
	schedules scheduleRepository
	roster    rosterReader
	lunch     lunchRepository
	capacity  *CapacityService
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(schedules scheduleRepository, roster rosterReader, lunch lunchRepository, capacity *CapacityService, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if capacity == nil {
		capacity = NewCapacityService(logger)
	}
	return &ExportService{
		schedules: schedules,
		roster:    roster,
		lunch:     lunch,
		capacity:  capacity,
		storage:   store,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		signer:    signer,
		logger:    logger,
		cfg:       cfg,
	}
}

// ExportTimetable renders the schedule's slots ordered by day and period.
func (s *ExportService) ExportTimetable(ctx context.Context, scheduleID string, format ExportFormat) (*ExportResult, error) {
	schedule, err := s.schedules.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrScheduleNotFound, "")
	}
	slots, err := s.schedules.ListSlots(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slots")
	}
	names, err := s.loadNames(ctx)
	if err != nil {
		return nil, err
	}

	grid := make(map[string]models.TimeSlot)
	for _, ts := range models.StandardTimeGrid() {
		grid[ts.ID] = ts
	}
	sort.Slice(slots, func(i, j int) bool {
		a, b := grid[slots[i].TimeSlotID], grid[slots[j].TimeSlotID]
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.Period != b.Period {
			return a.Period < b.Period
		}
		return slots[i].ID < slots[j].ID
	})

	headers := []string{"Day", "Period", "Start", "End", "Course", "Teacher", "Room", "Students", "Pinned"}
	rows := make([]map[string]string, 0, len(slots))
	for _, slot := range slots {
		ts := grid[slot.TimeSlotID]
		rows = append(rows, map[string]string{
			"Day":      dayName(ts.Day),
			"Period":   fmt.Sprintf("%d", ts.Period),
			"Start":    formatMinute(ts.Start),
			"End":      formatMinute(ts.End),
			"Course":   names.course(slot.CourseID),
			"Teacher":  names.teacher(slot.TeacherID),
			"Room":     names.room(slot.RoomID),
			"Students": fmt.Sprintf("%d", len(slot.StudentIDs)),
			"Pinned":   fmt.Sprintf("%t", slot.Pinned),
		})
	}

	title := fmt.Sprintf("Timetable %s", schedule.Name)
	return s.render(scheduleID, "timetable", export.Dataset{Headers: headers, Rows: rows}, title, format)
}

// ExportLunchRoster renders the schedule's per-student wave assignments.
func (s *ExportService) ExportLunchRoster(ctx context.Context, scheduleID string, format ExportFormat) (*ExportResult, error) {
	waves, err := s.lunch.ListWaves(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lunch waves")
	}
	assignments, err := s.lunch.ListStudentAssignments(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lunch assignments")
	}
	students, err := s.roster.ListActiveStudents(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}

	waveByID := make(map[string]models.LunchWave, len(waves))
	for _, w := range waves {
		waveByID[w.ID] = w
	}
	studentByID := make(map[string]models.Student, len(students))
	for _, st := range students {
		studentByID[st.ID] = st
	}

	sort.Slice(assignments, func(i, j int) bool {
		wi, wj := waveByID[assignments[i].WaveID].WaveNumber, waveByID[assignments[j].WaveID].WaveNumber
		if wi != wj {
			return wi < wj
		}
		return studentByID[assignments[i].StudentID].FullName() < studentByID[assignments[j].StudentID].FullName()
	})

	headers := []string{"Wave", "Window", "Student", "Grade", "Method", "Locked"}
	rows := make([]map[string]string, 0, len(assignments))
	for _, a := range assignments {
		wave := waveByID[a.WaveID]
		student := studentByID[a.StudentID]
		rows = append(rows, map[string]string{
			"Wave":    wave.Name,
			"Window":  fmt.Sprintf("%s-%s", formatMinute(wave.StartMinute), formatMinute(wave.EndMinute)),
			"Student": student.FullName(),
			"Grade":   student.GradeLevel,
			"Method":  string(a.Method),
			"Locked":  fmt.Sprintf("%t", a.Locked),
		})
	}

	title := "Lunch Wave Roster"
	return s.render(scheduleID, "lunch_roster", export.Dataset{Headers: headers, Rows: rows}, title, format)
}

// ExportCapacityReport renders the roster capacity analysis.
func (s *ExportService) ExportCapacityReport(ctx context.Context, format ExportFormat) (*ExportResult, error) {
	teachers, err := s.roster.ListActiveTeachers(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	rooms, err := s.roster.ListActiveRooms(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	courses, err := s.roster.ListActiveCourses(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}

	analysis := s.capacity.Analyze(teachers, rooms, courses)

	headers := []string{"Metric", "Value", "Notes"}
	rows := []map[string]string{
		{"Metric": "Required Sessions", "Value": fmt.Sprintf("%d", analysis.RequiredSessions), "Notes": ""},
		{"Metric": "Teacher Capacity", "Value": fmt.Sprintf("%d", analysis.TeacherCapacity), "Notes": ""},
		{"Metric": "Room Capacity", "Value": fmt.Sprintf("%d", analysis.RoomCapacity), "Notes": ""},
		{"Metric": "Sufficient", "Value": fmt.Sprintf("%t", analysis.Sufficient), "Notes": ""},
	}
	for _, rec := range analysis.Recommendations {
		rows = append(rows, map[string]string{
			"Metric": string(rec.Kind),
			"Value":  fmt.Sprintf("%d", rec.Count),
			"Notes":  rec.Message,
		})
	}

	title := "Capacity Analysis"
	return s.render("roster", "capacity", export.Dataset{Headers: headers, Rows: rows}, title, format)
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) render(jobID, kind string, dataset export.Dataset, title string, format ExportFormat) (*ExportResult, error) {
	var payload []byte
	var err error
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", format)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	timestamp := time.Now().UTC().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s_%s.%s", kind, sanitizeFilename(jobID), timestamp, format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}

	token, expiresAt, err := s.signer.Generate(jobID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download token")
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/%s", prefix, token),
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}

type rosterNames struct {
	teachers map[string]string
	rooms    map[string]string
	courses  map[string]string
}

func (n rosterNames) teacher(id string) string { return lookupName(n.teachers, id) }
func (n rosterNames) room(id string) string    { return lookupName(n.rooms, id) }
func (n rosterNames) course(id string) string  { return lookupName(n.courses, id) }

func lookupName(names map[string]string, id string) string {
	if id == "" {
		return ""
	}
	if name, ok := names[id]; ok {
		return name
	}
	return id
}

func (s *ExportService) loadNames(ctx context.Context) (rosterNames, error) {
	teachers, err := s.roster.ListActiveTeachers(ctx)
	if err != nil {
		return rosterNames{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	rooms, err := s.roster.ListActiveRooms(ctx)
	if err != nil {
		return rosterNames{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	courses, err := s.roster.ListActiveCourses(ctx)
	if err != nil {
		return rosterNames{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}

	names := rosterNames{
		teachers: make(map[string]string, len(teachers)),
		rooms:    make(map[string]string, len(rooms)),
		courses:  make(map[string]string, len(courses)),
	}
	for _, t := range teachers {
		names.teachers[t.ID] = t.FullName
	}
	for _, r := range rooms {
		names.rooms[r.ID] = r.RoomNumber
	}
	for _, c := range courses {
		names.courses[c.ID] = c.CourseName
	}
	return names, nil
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func dayName(day int) string {
	switch day {
	case models.Monday:
		return "Monday"
	case models.Tuesday:
		return "Tuesday"
	case models.Wednesday:
		return "Wednesday"
	case models.Thursday:
		return "Thursday"
	case models.Friday:
		return "Friday"
	default:
		return "Unscheduled"
	}
}

func formatMinute(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
