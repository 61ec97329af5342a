package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-engine/internal/dto"
	"github.com/noah-isme/sma-timetable-engine/internal/models"
	"github.com/noah-isme/sma-timetable-engine/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
	"github.com/noah-isme/sma-timetable-engine/pkg/response"
)

// RosterHandler exposes CRUD endpoints for the teacher, room, course, and
// student facts the solver consumes.
type RosterHandler struct {
	service *service.RosterService
}

// NewRosterHandler creates a new roster handler.
func NewRosterHandler(svc *service.RosterService) *RosterHandler {
	return &RosterHandler{service: svc}
}

func pageQuery(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, size
}

func activeQuery(c *gin.Context) *bool {
	raw := c.Query("active")
	if raw == "" {
		return nil
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &val
}

// ListTeachers godoc
// @Summary List teachers
// @Tags Roster
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param department query string false "Department filter"
// @Param active query bool false "Active filter"
// @Param search query string false "Search term"
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
func (h *RosterHandler) ListTeachers(c *gin.Context) {
	var filter models.TeacherFilter
	filter.Page, filter.PageSize = pageQuery(c)
	filter.Active = activeQuery(c)
	filter.Department = c.Query("department")
	filter.Search = c.Query("search")
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	teachers, pagination, err := h.service.ListTeachers(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, pagination)
}

// GetTeacher godoc
// @Summary Get teacher
// @Tags Roster
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teachers/{id} [get]
func (h *RosterHandler) GetTeacher(c *gin.Context) {
	teacher, err := h.service.GetTeacher(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// CreateTeacher godoc
// @Summary Create teacher
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body dto.TeacherRequest true "Teacher payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /teachers [post]
func (h *RosterHandler) CreateTeacher(c *gin.Context) {
	var req dto.TeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid teacher payload"))
		return
	}

	teacher, err := h.service.CreateTeacher(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, teacher)
}

// UpdateTeacher godoc
// @Summary Update teacher
// @Tags Roster
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body dto.TeacherRequest true "Teacher payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teachers/{id} [put]
func (h *RosterHandler) UpdateTeacher(c *gin.Context) {
	var req dto.TeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid teacher payload"))
		return
	}

	teacher, err := h.service.UpdateTeacher(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// DeleteTeacher godoc
// @Summary Delete teacher
// @Tags Roster
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teachers/{id} [delete]
func (h *RosterHandler) DeleteTeacher(c *gin.Context) {
	if err := h.service.DeleteTeacher(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListRooms godoc
// @Summary List rooms
// @Tags Roster
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param room_type query string false "Room type filter"
// @Param building query string false "Building filter"
// @Param active query bool false "Active filter"
// @Success 200 {object} response.Envelope
// @Router /rooms [get]
func (h *RosterHandler) ListRooms(c *gin.Context) {
	var filter models.RoomFilter
	filter.Page, filter.PageSize = pageQuery(c)
	filter.Active = activeQuery(c)
	filter.Type = models.RoomType(c.Query("room_type"))
	filter.Building = c.Query("building")
	filter.Search = c.Query("search")

	rooms, pagination, err := h.service.ListRooms(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, pagination)
}

// GetRoom godoc
// @Summary Get room
// @Tags Roster
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /rooms/{id} [get]
func (h *RosterHandler) GetRoom(c *gin.Context) {
	room, err := h.service.GetRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil)
}

// CreateRoom godoc
// @Summary Create room
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body dto.RoomRequest true "Room payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /rooms [post]
func (h *RosterHandler) CreateRoom(c *gin.Context) {
	var req dto.RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid room payload"))
		return
	}

	room, err := h.service.CreateRoom(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, room)
}

// UpdateRoom godoc
// @Summary Update room
// @Tags Roster
// @Accept json
// @Produce json
// @Param id path string true "Room ID"
// @Param payload body dto.RoomRequest true "Room payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /rooms/{id} [put]
func (h *RosterHandler) UpdateRoom(c *gin.Context) {
	var req dto.RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid room payload"))
		return
	}

	room, err := h.service.UpdateRoom(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil)
}

// DeleteRoom godoc
// @Summary Delete room
// @Tags Roster
// @Produce json
// @Param id path string true "Room ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /rooms/{id} [delete]
func (h *RosterHandler) DeleteRoom(c *gin.Context) {
	if err := h.service.DeleteRoom(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListCourses godoc
// @Summary List courses
// @Tags Roster
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param subject query string false "Subject filter"
// @Param grade_level query string false "Grade level filter"
// @Param active query bool false "Active filter"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *RosterHandler) ListCourses(c *gin.Context) {
	var filter models.CourseFilter
	filter.Page, filter.PageSize = pageQuery(c)
	filter.Active = activeQuery(c)
	filter.Subject = c.Query("subject")
	filter.GradeLevel = c.Query("grade_level")
	filter.Search = c.Query("search")

	courses, pagination, err := h.service.ListCourses(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// GetCourse godoc
// @Summary Get course
// @Tags Roster
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *RosterHandler) GetCourse(c *gin.Context) {
	course, err := h.service.GetCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// CreateCourse godoc
// @Summary Create course
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body dto.CourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses [post]
func (h *RosterHandler) CreateCourse(c *gin.Context) {
	var req dto.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}

	course, err := h.service.CreateCourse(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// UpdateCourse godoc
// @Summary Update course
// @Tags Roster
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.CourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [put]
func (h *RosterHandler) UpdateCourse(c *gin.Context) {
	var req dto.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}

	course, err := h.service.UpdateCourse(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// DeleteCourse godoc
// @Summary Delete course
// @Tags Roster
// @Produce json
// @Param id path string true "Course ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [delete]
func (h *RosterHandler) DeleteCourse(c *gin.Context) {
	if err := h.service.DeleteCourse(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListStudents godoc
// @Summary List students
// @Tags Roster
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param grade_level query string false "Grade level filter"
// @Param active query bool false "Active filter"
// @Param search query string false "Search term"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *RosterHandler) ListStudents(c *gin.Context) {
	var filter models.StudentFilter
	filter.Page, filter.PageSize = pageQuery(c)
	filter.Active = activeQuery(c)
	filter.GradeLevel = c.Query("grade_level")
	filter.Search = c.Query("search")

	students, pagination, err := h.service.ListStudents(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// GetStudent godoc
// @Summary Get student
// @Tags Roster
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *RosterHandler) GetStudent(c *gin.Context) {
	student, err := h.service.GetStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// CreateStudent godoc
// @Summary Create student
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body dto.StudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students [post]
func (h *RosterHandler) CreateStudent(c *gin.Context) {
	var req dto.StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}

	student, err := h.service.CreateStudent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// UpdateStudent godoc
// @Summary Update student
// @Tags Roster
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.StudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [put]
func (h *RosterHandler) UpdateStudent(c *gin.Context) {
	var req dto.StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}

	student, err := h.service.UpdateStudent(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// DeleteStudent godoc
// @Summary Delete student
// @Tags Roster
// @Produce json
// @Param id path string true "Student ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [delete]
func (h *RosterHandler) DeleteStudent(c *gin.Context) {
	if err := h.service.DeleteStudent(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
