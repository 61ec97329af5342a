package service

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
	"github.com/noah-isme/sma-timetable-engine/pkg/storage"
)

type memStorage struct {
	files map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{files: make(map[string][]byte)}
}

func (m *memStorage) Save(filename string, data []byte) (string, error) {
	m.files[filename] = data
	return filename, nil
}

func (m *memStorage) Open(filename string) (*os.File, error) {
	return nil, os.ErrNotExist
}

func (m *memStorage) Delete(filename string) error {
	delete(m.files, filename)
	return nil
}

func (m *memStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	return nil, nil
}

func exportTestService() (*ExportService, *stubScheduleRepo, *stubLunchRepo, *memStorage) {
	p := solverTestProblem()
	repo := newStubScheduleRepo()
	repo.schedules[p.ScheduleID] = &models.Schedule{ID: p.ScheduleID, Name: "Fall Draft", Status: models.ScheduleStatusDraft}
	for _, slot := range p.Slots {
		copy := slot
		copy.TimeSlotID = "mon-p1"
		copy.RoomID = "r-101"
		repo.slots[slot.ID] = &copy
	}

	lunch := newStubLunchRepo(lunchTestWaves(2, 30)...)
	store := newMemStorage()
	roster := &stubRosterReader{
		teachers: p.Teachers,
		rooms:    p.Rooms,
		courses:  p.Courses,
		students: []models.Student{
			{ID: "s-1", FirstName: "Grace", LastName: "Hopper", GradeLevel: "10", Active: true},
		},
	}
	signer := storage.NewSignedURLSigner("export-secret", time.Hour)
	svc := NewExportService(repo, roster, lunch, nil, store, signer, ExportConfig{APIPrefix: "/api/v1"}, zap.NewNop())
	return svc, repo, lunch, store
}

func TestExportTimetableCSV(t *testing.T) {
	svc, _, _, store := exportTestService()

	result, err := svc.ExportTimetable(context.Background(), "sched-1", ExportFormatCSV)
	require.NoError(t, err)

	assert.Equal(t, ExportFormatCSV, result.Format)
	assert.Contains(t, result.URL, "/api/v1/exports/")
	assert.True(t, result.ExpiresAt.After(time.Now()))

	payload, ok := store.files[result.RelativePath]
	require.True(t, ok)
	content := string(payload)
	assert.Contains(t, content, "Day,Period,Start,End,Course,Teacher,Room,Students,Pinned")
	assert.Contains(t, content, "Algebra I")
	assert.Contains(t, content, "Ada Byron")
	assert.Contains(t, content, "Monday")
}

func TestExportTimetableUnknownSchedule(t *testing.T) {
	svc, _, _, _ := exportTestService()

	_, err := svc.ExportTimetable(context.Background(), "no-such", ExportFormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrScheduleNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportLunchRosterCSV(t *testing.T) {
	svc, _, lunch, store := exportTestService()

	require.NoError(t, lunch.UpsertStudentAssignment(context.Background(), &models.StudentLunchAssignment{
		ID:         "a-1",
		StudentID:  "s-1",
		WaveID:     "wave-1",
		ScheduleID: "sched-1",
		Method:     models.LunchBalanced,
	}))

	result, err := svc.ExportLunchRoster(context.Background(), "sched-1", ExportFormatCSV)
	require.NoError(t, err)

	content := string(store.files[result.RelativePath])
	assert.Contains(t, content, "Hopper, Grace")
	assert.Contains(t, content, "Wave 1")
}

func TestExportCapacityReportPDF(t *testing.T) {
	svc, _, _, store := exportTestService()

	result, err := svc.ExportCapacityReport(context.Background(), ExportFormatPDF)
	require.NoError(t, err)

	payload := store.files[result.RelativePath]
	require.NotEmpty(t, payload)
	assert.True(t, strings.HasPrefix(string(payload), "%PDF"))
}

func TestExportRoundTripToken(t *testing.T) {
	svc, _, _, _ := exportTestService()

	result, err := svc.ExportTimetable(context.Background(), "sched-1", ExportFormatCSV)
	require.NoError(t, err)

	jobID, relPath, expiresAt, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, "sched-1", jobID)
	assert.Equal(t, result.RelativePath, relPath)
	assert.WithinDuration(t, result.ExpiresAt, expiresAt, time.Second)
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	svc, _, _, _ := exportTestService()

	_, err := svc.ExportTimetable(context.Background(), "sched-1", ExportFormat("xlsx"))
	require.Error(t, err)
}
