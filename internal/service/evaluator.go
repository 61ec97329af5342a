package service

import (
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

// Score is the outcome of evaluating a candidate assignment. Hard counts
// weighted infeasibility violations; Soft aggregates quality penalties and
// rewards. Feasible means Hard == 0.
type Score struct {
	Hard int     `json:"hard"`
	Soft float64 `json:"soft"`
}

// Feasible reports whether the assignment violates no hard rule.
func (s Score) Feasible() bool { return s.Hard == 0 }

// Better reports whether s is preferable to other: fewer hard violations
// first, then the higher soft score.
func (s Score) Better(other Score) bool {
	if s.Hard != other.Hard {
		return s.Hard < other.Hard
	}
	return s.Soft > other.Soft
}

// qualityExpectedMax normalizes soft penalties when deriving the 0-100
// quality score.
const qualityExpectedMax = 1000.0

// QualityScore maps a Score onto a 0-100 scale: infeasible schedules score
// zero; feasible ones degrade non-linearly with the soft penalty total.
func QualityScore(s Score) float64 {
	if s.Hard != 0 {
		return 0
	}
	if s.Soft >= 0 {
		return 100
	}
	normalized := 1 - math.Abs(s.Soft)/qualityExpectedMax
	if normalized < 0 {
		normalized = 0
	}
	q := 100 * math.Pow(normalized, 0.7)
	return math.Max(0, math.Min(100, q))
}

// EvaluationFacts is the id-indexed arena of reference facts the evaluator
// scores against. The maps are read-only during evaluation.
type EvaluationFacts struct {
	Teachers  map[string]models.Teacher
	Rooms     map[string]models.Room
	Courses   map[string]models.Course
	Students  map[string]models.Student
	TimeSlots map[string]models.TimeSlot

	// Lunch facts are optional; lunch invariants are skipped when absent.
	Waves        map[string]models.LunchWave
	StudentWaves map[string]string
	TeacherWaves map[string]string
}

// BuildEvaluationFacts indexes fact slices by id.
func BuildEvaluationFacts(teachers []models.Teacher, rooms []models.Room, courses []models.Course, students []models.Student, timeSlots []models.TimeSlot) *EvaluationFacts {
	f := &EvaluationFacts{
		Teachers:  make(map[string]models.Teacher, len(teachers)),
		Rooms:     make(map[string]models.Room, len(rooms)),
		Courses:   make(map[string]models.Course, len(courses)),
		Students:  make(map[string]models.Student, len(students)),
		TimeSlots: make(map[string]models.TimeSlot, len(timeSlots)),
	}
	for _, t := range teachers {
		f.Teachers[t.ID] = t
	}
	for _, r := range rooms {
		f.Rooms[r.ID] = r
	}
	for _, c := range courses {
		f.Courses[c.ID] = c
	}
	for _, s := range students {
		f.Students[s.ID] = s
	}
	for _, ts := range timeSlots {
		f.TimeSlots[ts.ID] = ts
	}
	return f
}

// Soft rule weights.
const (
	penaltyUnassignedSlot     = 10
	targetPeriodsPerDay       = 5
	rewardHistoricalPairing   = 50
	rewardRoomSubjectAffinity = 5
	rewardPinnedSlot          = 100
	penaltyHomeRoom           = 20
	penaltyDepartmentZone     = 2
	penaltyBackToBackSubject  = 15
	penaltyBuildingTransition = 25
	classSizeTolerance        = 5
	teacherLoadUnderWeight    = 30
	teacherLoadOverWeight     = 100
	minDailyPeriods           = 2
)

// Hard rule weights.
const (
	hardWeightLabRequirement   = 50
	hardWeightRoomTypeMismatch = 30
	maxConsecutivePeriods      = 3
	defaultMaxDailyPeriods     = 6
)

// ConstraintEvaluator scores candidate assignments. It is pure with respect
// to its inputs; multipliers allow individual constraints to be emphasized
// on re-solve.
type ConstraintEvaluator struct {
	multipliers map[models.ConstraintType]float64
	logger      *zap.Logger
}

// NewConstraintEvaluator builds an evaluator with neutral weights.
func NewConstraintEvaluator(logger *zap.Logger) *ConstraintEvaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConstraintEvaluator{
		multipliers: make(map[models.ConstraintType]float64),
		logger:      logger,
	}
}

// WithMultiplier returns a copy of the evaluator with the given constraint's
// contribution scaled. Used by ImproveForConstraint to double a weight.
func (e *ConstraintEvaluator) WithMultiplier(t models.ConstraintType, factor float64) *ConstraintEvaluator {
	out := &ConstraintEvaluator{
		multipliers: make(map[models.ConstraintType]float64, len(e.multipliers)+1),
		logger:      e.logger,
	}
	for k, v := range e.multipliers {
		out.multipliers[k] = v
	}
	out.multipliers[t] = factor
	return out
}

func (e *ConstraintEvaluator) factor(t models.ConstraintType) float64 {
	if f, ok := e.multipliers[t]; ok {
		return f
	}
	return 1
}

// Evaluate scores the full slot set against the fact arena.
func (e *ConstraintEvaluator) Evaluate(slots []models.ScheduleSlot, facts *EvaluationFacts) Score {
	var score Score

	e.hardTeacherOverlap(slots, facts, &score)
	e.hardRoomOccupancy(slots, facts, &score)
	e.hardRoomSuitability(slots, facts, &score)
	e.hardTeacherLimits(slots, facts, &score)
	e.hardIEPCaps(slots, facts, &score)
	e.hardMultiRoom(slots, facts, &score)
	e.hardLunch(slots, facts, &score)

	e.softAssignment(slots, facts, &score)
	e.softQualification(slots, facts, &score)
	e.softRoomFit(slots, facts, &score)
	e.softTravelAndZones(slots, facts, &score)
	e.softWorkload(slots, facts, &score)
	e.softMultiRoom(slots, facts, &score)

	return score
}

// ---------------------------------------------------------------------------
// hard rules

func (e *ConstraintEvaluator) hardTeacherOverlap(slots []models.ScheduleSlot, facts *EvaluationFacts, score *Score) {
	byTeacher := groupSlots(slots, func(s models.ScheduleSlot) string { return s.TeacherID })
	for _, group := range byTeacher {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if slotsOverlap(group[i], group[j], facts) {
					score.Hard++
				}
			}
		}
	}
}

func (e *ConstraintEvaluator) hardRoomOccupancy(slots []models.ScheduleSlot, facts *EvaluationFacts, score *Score) {
	type occupancy struct {
		classes  int
		students int
	}
	usage := make(map[string]*occupancy)
	for _, s := range slots {
		if s.RoomID == "" || s.TimeSlotID == "" {
			continue
		}
		key := s.RoomID + "|" + s.TimeSlotID
		if usage[key] == nil {
			usage[key] = &occupancy{}
		}
		usage[key].classes++
		usage[key].students += len(s.StudentIDs)
	}
	for key, occ := range usage {
		roomID := key[:strings.Index(key, "|")]
		room, ok := facts.Rooms[roomID]
		if !ok {
			continue
		}
		if occ.classes > room.ConcurrentLimit() {
			score.Hard += occ.classes - room.ConcurrentLimit()
		}
		if occ.students > room.EffectiveCapacity() {
			score.Hard++
		}
	}
}

func (e *ConstraintEvaluator) hardRoomSuitability(slots []models.ScheduleSlot, facts *EvaluationFacts, score *Score) {
	for _, s := range slots {
		if s.RoomID == "" || s.CourseID == "" {
			continue
		}
		course, okC := facts.Courses[s.CourseID]
		room, okR := facts.Rooms[s.RoomID]
		if !okC || !okR {
			continue
		}

		if course.RequiresLab && !room.Type.IsLab() {
			score.Hard += hardWeightLabRequirement
		}
		if subjectRoomTypeMismatch(course.Subject, room.Type) {
			score.Hard += hardWeightRoomTypeMismatch
		}
		teacher, okT := facts.Teachers[s.TeacherID]
		if okT && !teacher.AllowedRoom(s.RoomID) {
			score.Hard++
		}
	}
}

// subjectRoomTypeMismatch encodes the subject-name heuristics: science and
// computer classes stay out of gyms/auditoriums/cafeterias, PE requires the
// gym, and music avoids gyms, cafeterias, and labs.
func subjectRoomTypeMismatch(subject string, roomType models.RoomType) bool {
	subj := strings.ToLower(subject)
	switch {
	case containsAny(subj, "science", "chemistry", "physics", "biology", "computer", "programming", "technology"):
		return roomType == models.RoomTypeGym || roomType == models.RoomTypeAuditorium || roomType == models.RoomTypeCafeteria
	case containsAny(subj, "physical education", "pe", "gym", "athletics"):
		return roomType != models.RoomTypeGym
	case containsAny(subj, "music", "band", "orchestra", "choir"):
		return roomType == models.RoomTypeGym || roomType == models.RoomTypeCafeteria ||
			roomType == models.RoomTypeLab || roomType == models.RoomTypeComputerLab
	}
	return false
}

func (e *ConstraintEvaluator) hardTeacherLimits(slots []models.ScheduleSlot, facts *EvaluationFacts, score *Score) {
	byTeacher := groupSlots(slots, func(s models.ScheduleSlot) string { return s.TeacherID })
	for teacherID, group := range byTeacher {
		teacher, ok := facts.Teachers[teacherID]
		if !ok {
			continue
		}

		byDay := make(map[int][]models.TimeSlot)
		for _, s := range group {
			ts, ok := facts.TimeSlots[s.TimeSlotID]
			if !ok {
				continue
			}
			byDay[ts.Day] = append(byDay[ts.Day], ts)

			if teacher.PlanningPeriod > 0 && ts.Period == teacher.PlanningPeriod {
				score.Hard++
			}
			if !teacher.AvailableAt(ts.Day, ts.Period) {
				score.Hard++
			}
		}

		maxDaily := teacher.MaxPeriodsPerDay
		if maxDaily <= 0 {
			maxDaily = defaultMaxDailyPeriods
		}
		for _, daySlots := range byDay {
			if len(daySlots) > maxDaily {
				score.Hard += len(daySlots) - maxDaily
			}
			sort.Slice(daySlots, func(i, j int) bool { return daySlots[i].Period < daySlots[j].Period })
			run := 1
			for i := 1; i < len(daySlots); i++ {
				if daySlots[i].Period == daySlots[i-1].Period+1 {
					run++
					if run > maxConsecutivePeriods {
						score.Hard++
					}
				} else {
					run = 1
				}
			}
		}
	}
}

func (e *ConstraintEvaluator) hardIEPCaps(slots []models.ScheduleSlot, facts *EvaluationFacts, score *Score) {
	if len(facts.Students) == 0 {
		return
	}
	for _, s := range slots {
		total := len(s.StudentIDs)
		if total <= 20 {
			continue
		}
		iep := 0
		for _, id := range s.StudentIDs {
			if st, ok := facts.Students[id]; ok && st.HasIEP {
				iep++
			}
		}
		if iep >= 3 {
			score.Hard += total - 20
		}
	}
}

func (e *ConstraintEvaluator) hardMultiRoom(slots []models.ScheduleSlot, facts *EvaluationFacts, score *Score) {
	// A multi-room course occupies every declared room for each of its
	// sessions; any other class in one of those rooms at the same time is a
	// clash.
	occupied := make(map[string][]string) // roomID|timeSlotID -> slot ids
	for _, s := range slots {
		if s.RoomID != "" && s.TimeSlotID != "" {
			key := s.RoomID + "|" + s.TimeSlotID
			occupied[key] = append(occupied[key], s.ID)
		}
	}
	for _, s := range slots {
		course, ok := facts.Courses[s.CourseID]
		if !ok || !course.MultiRoom || s.TimeSlotID == "" {
			continue
		}
		for _, roomID := range course.AssignedRoomIDs {
			if roomID == s.RoomID {
				continue
			}
			for _, otherID := range occupied[roomID+"|"+s.TimeSlotID] {
				if otherID != s.ID {
					score.Hard++
				}
			}
		}
	}
}

func (e *ConstraintEvaluator) hardLunch(slots []models.ScheduleSlot, facts *EvaluationFacts, score *Score) {
	if len(facts.Waves) == 0 {
		return
	}

	studentLunch := make(map[string]models.ScheduleSlot)
	teacherLunch := make(map[string]models.ScheduleSlot)
	for _, s := range slots {
		if !s.IsLunchPeriod {
			continue
		}
		for _, id := range s.StudentIDs {
			studentLunch[id] = s
		}
		if s.TeacherID != "" {
			teacherLunch[s.TeacherID] = s
		}
	}

	checkPerson := func(personID string, waveID string, lunch map[string]models.ScheduleSlot, classSlots []models.ScheduleSlot) {
		slot, hasLunch := lunch[personID]
		if !hasLunch {
			score.Hard++
			return
		}
		wave, ok := facts.Waves[waveID]
		if !ok {
			score.Hard++
			return
		}
		if slot.LunchWave != wave.WaveNumber {
			score.Hard++
		}
		// The person must be free during their wave's window.
		for _, cs := range classSlots {
			ts, ok := facts.TimeSlots[cs.TimeSlotID]
			if !ok {
				continue
			}
			if ts.Start < wave.EndMinute && wave.StartMinute < ts.End {
				score.Hard++
			}
		}
	}

	classByStudent := make(map[string][]models.ScheduleSlot)
	classByTeacher := make(map[string][]models.ScheduleSlot)
	for _, s := range slots {
		if s.IsLunchPeriod {
			continue
		}
		for _, id := range s.StudentIDs {
			classByStudent[id] = append(classByStudent[id], s)
		}
		if s.TeacherID != "" {
			classByTeacher[s.TeacherID] = append(classByTeacher[s.TeacherID], s)
		}
	}

	for studentID, waveID := range facts.StudentWaves {
		checkPerson(studentID, waveID, studentLunch, classByStudent[studentID])
	}
	for teacherID, waveID := range facts.TeacherWaves {
		checkPerson(teacherID, waveID, teacherLunch, classByTeacher[teacherID])
	}
}

// ---------------------------------------------------------------------------
// soft rules

func (e *ConstraintEvaluator) softAssignment(slots []models.ScheduleSlot, facts *EvaluationFacts, score *Score) {
	for _, s := range slots {
		if s.Pinned {
			score.Soft += rewardPinnedSlot
			continue
		}
		if !s.Assigned() {
			score.Soft -= penaltyUnassignedSlot * e.factor(models.ConstraintAllCoursesScheduled)
			continue
		}
		if room, ok := facts.Rooms[s.RoomID]; ok && len(s.StudentIDs) > 0 {
			score.Soft += float64(len(s.StudentIDs)*100) / float64(room.EffectiveCapacity())
		}
		if course, ok := facts.Courses[s.CourseID]; ok && course.ComplexityScore >= 7 {
			if ts, ok := facts.TimeSlots[s.TimeSlotID]; ok && ts.Start >= models.AfternoonCutoffMinute {
				score.Soft -= float64(course.ComplexityScore)
			}
		}
	}

	// Class size balance across sections of the same course.
	byCourse := groupSlots(slots, func(s models.ScheduleSlot) string { return s.CourseID })
	for _, group := range byCourse {
		if len(group) < 2 {
			continue
		}
		min, max := len(group[0].StudentIDs), len(group[0].StudentIDs)
		for _, s := range group[1:] {
			n := len(s.StudentIDs)
			if n < min {
				min = n
			}
			if n > max {
				max = n
			}
		}
		if diff := max - min; diff > classSizeTolerance {
			score.Soft -= float64(diff-classSizeTolerance) * e.factor(models.ConstraintBalanceClassSizes)
		}
	}
}

// qualificationRule is one rung of the teacher-qualification ladder. Rules
// are evaluated top-down and the first match wins.
type qualificationRule struct {
	name    string
	applies func(t models.Teacher, c models.Course) bool
	penalty float64
}

func qualificationLadder() []qualificationRule {
	return []qualificationRule{
		{
			name: "explicit assignment",
			applies: func(t models.Teacher, c models.Course) bool {
				return c.ExplicitTeacherID != "" && c.ExplicitTeacherID == t.ID
			},
			penalty: 0,
		},
		{
			name: "subject certification",
			applies: func(t models.Teacher, c models.Course) bool {
				for _, cert := range t.Certifications {
					if strings.EqualFold(cert, c.Subject) {
						return true
					}
				}
				return false
			},
			penalty: 0,
		},
		{
			name: "legacy certification",
			applies: func(t models.Teacher, c models.Course) bool {
				if t.LegacyCertification == "" {
					return false
				}
				return strings.Contains(strings.ToLower(t.LegacyCertification), strings.ToLower(c.Subject))
			},
			penalty: 0,
		},
		{
			name: "department inference",
			applies: func(t models.Teacher, c models.Course) bool {
				dept := strings.ToLower(strings.TrimSpace(t.Department))
				subj := strings.ToLower(strings.TrimSpace(c.Subject))
				if dept == "" || subj == "" {
					return false
				}
				return strings.Contains(dept, subj) || strings.Contains(subj, dept)
			},
			penalty: 10,
		},
	}
}

const qualificationNoMatchPenalty = 100

// QualificationPenalty walks the ladder top-down with early exit.
func QualificationPenalty(t models.Teacher, c models.Course) float64 {
	for _, rule := range qualificationLadder() {
		if rule.applies(t, c) {
			return rule.penalty
		}
	}
	return qualificationNoMatchPenalty
}

func (e *ConstraintEvaluator) softQualification(slots []models.ScheduleSlot, facts *EvaluationFacts, score *Score) {
	for _, s := range slots {
		if s.Pinned || s.TeacherID == "" || s.CourseID == "" {
			continue
		}
		teacher, okT := facts.Teachers[s.TeacherID]
		course, okC := facts.Courses[s.CourseID]
		if !okT || !okC {
			continue
		}
		score.Soft -= QualificationPenalty(teacher, course) * e.factor(models.ConstraintTeacherQualification)

		for _, id := range teacher.HistoricalCourseIDs {
			if id == course.ID {
				score.Soft += rewardHistoricalPairing
				break
			}
		}
	}
}

func (e *ConstraintEvaluator) softRoomFit(slots []models.ScheduleSlot, facts *EvaluationFacts, score *Score) {
	// Room-subject affinity: reward repeated same-subject/same-room pairs.
	seen := make(map[string]bool)
	for _, s := range slots {
		if s.RoomID == "" || s.CourseID == "" {
			continue
		}
		course, ok := facts.Courses[s.CourseID]
		if !ok {
			continue
		}
		key := s.RoomID + "|" + strings.ToLower(course.Subject)
		if seen[key] {
			score.Soft += rewardRoomSubjectAffinity
		}
		seen[key] = true
	}

	for _, s := range slots {
		if s.Pinned || s.RoomID == "" {
			continue
		}
		course, okC := facts.Courses[s.CourseID]
		room, okR := facts.Rooms[s.RoomID]
		if !okC || !okR {
			continue
		}

		if teacher, ok := facts.Teachers[s.TeacherID]; ok && teacher.HomeRoomID != "" &&
			teacher.HomeRoomID != s.RoomID && !homeRoomExempt(course) {
			score.Soft -= penaltyHomeRoom
		}

		score.Soft -= activityRoomPenalty(course, room)
		score.Soft -= equipmentPenalty(course, room) * e.factor(models.ConstraintEquipmentAvailable)
	}
}

// homeRoomExempt excludes courses that inherently need a special space from
// the home-room preference.
func homeRoomExempt(c models.Course) bool {
	if c.RequiresLab {
		return true
	}
	subj := strings.ToLower(c.Subject)
	activity := strings.ToLower(c.ActivityType)
	return containsAny(subj, "physical education", "pe", "music", "band", "orchestra", "choir") ||
		containsAny(activity, "gym", "athletics")
}

// activityRoomPenalty grades how badly a course's activity fits the room's
// advertised tags: 50 for a critical mismatch, 20 for a tolerable one, 10
// for general PE outside the gym, 5 otherwise.
func activityRoomPenalty(c models.Course, r models.Room) float64 {
	activity := strings.ToLower(c.ActivityType)
	if activity == "" {
		return 0
	}

	for _, tag := range r.ActivityTags {
		if strings.Contains(activity, strings.ToLower(tag)) {
			return 0
		}
	}

	switch {
	case containsAny(activity, "weights", "swimming", "lab work"):
		if r.Type == models.RoomTypeGym {
			return 20
		}
		return 50
	case containsAny(activity, "general pe", "fitness"):
		if r.Type != models.RoomTypeGym {
			return 10
		}
		return 5
	default:
		return 5
	}
}

// Equipment shortfall weights for the internal 0-100 compatibility score.
const (
	equipWeightRoomType   = 100
	equipWeightProjector  = 30
	equipWeightSmartboard = 30
	equipWeightComputers  = 40
	equipWeightAdditional = 10
)

// equipmentPenalty computes an internal compatibility score from 100 and
// maps it onto the graduated 0/2/5/10 penalty scale.
func equipmentPenalty(c models.Course, r models.Room) float64 {
	internal := 0
	if c.RequiredRoomType != "" && c.RequiredRoomType != r.Type {
		internal += equipWeightRoomType
	}
	if c.RequiresProjector && !r.HasProjector {
		internal += equipWeightProjector
	}
	if c.RequiresSmartboard && !r.HasSmartboard {
		internal += equipWeightSmartboard
	}
	if c.RequiresComputers && !r.HasComputers {
		internal += equipWeightComputers
	}
	for _, eq := range c.RequiredEquipment {
		if !r.HasEquipment(eq) {
			internal += equipWeightAdditional
		}
	}

	compat := 100 - internal
	switch {
	case compat >= 100:
		return 0
	case compat >= 70:
		return 2
	case compat > 0:
		return 5
	default:
		return 10
	}
}

func (e *ConstraintEvaluator) softTravelAndZones(slots []models.ScheduleSlot, facts *EvaluationFacts, score *Score) {
	for _, s := range slots {
		if s.Pinned || s.RoomID == "" || s.TeacherID == "" {
			continue
		}
		teacher, okT := facts.Teachers[s.TeacherID]
		room, okR := facts.Rooms[s.RoomID]
		if !okT || !okR {
			continue
		}
		// Individual room preferences supersede the department zone rule.
		if len(teacher.RoomPreferences) > 0 {
			continue
		}
		zone := departmentZone(teacher.Department)
		if zone != "" && room.Zone != "" && room.Zone != zone {
			score.Soft -= penaltyDepartmentZone
		}
	}

	byTeacher := groupSlots(slots, func(s models.ScheduleSlot) string { return s.TeacherID })
	for _, group := range byTeacher {
		ordered := sortByTime(group, facts)
		for i := 0; i < len(ordered)-1; i++ {
			cur, next := ordered[i], ordered[i+1]
			curTS, ok1 := facts.TimeSlots[cur.TimeSlotID]
			nextTS, ok2 := facts.TimeSlots[next.TimeSlotID]
			if !ok1 || !ok2 || curTS.Day != nextTS.Day {
				continue
			}
			// Consecutive means back-to-back or within a five-minute
			// passing window.
			if nextTS.Start-curTS.End > 5 || nextTS.Start < curTS.End {
				continue
			}

			curRoom, okR1 := facts.Rooms[cur.RoomID]
			nextRoom, okR2 := facts.Rooms[next.RoomID]
			if okR1 && okR2 {
				score.Soft -= travelPenalty(curRoom, nextRoom) * e.factor(models.ConstraintMinimizeTeacherTravel)
				if curRoom.Building != nextRoom.Building {
					score.Soft -= penaltyBuildingTransition
				}
			}

			curCourse, okC1 := facts.Courses[cur.CourseID]
			nextCourse, okC2 := facts.Courses[next.CourseID]
			if okC1 && okC2 && cur.CourseID != next.CourseID &&
				strings.EqualFold(curCourse.Subject, nextCourse.Subject) {
				score.Soft -= penaltyBackToBackSubject
			}
		}
	}
}

// travelPenalty grades teacher movement between consecutive classes: free in
// the same room, 1 within a zone, 3 within a building, 5 across buildings.
func travelPenalty(from, to models.Room) float64 {
	if from.ID == to.ID {
		return 0
	}
	if from.Zone != "" && from.Zone == to.Zone {
		return 1
	}
	if from.Building == to.Building {
		return 3
	}
	return 5
}

// departmentZone maps department names onto preferred campus zones.
func departmentZone(department string) string {
	dept := strings.ToLower(department)
	switch {
	case strings.Contains(dept, "math"):
		return "Math Wing"
	// Technology departments first so "Computer Science" does not fall
	// into the science bucket.
	case strings.Contains(dept, "technology"), strings.Contains(dept, "computer"):
		return "Technology Wing"
	case strings.Contains(dept, "science"):
		return "Science Wing"
	case strings.Contains(dept, "english"), strings.Contains(dept, "language arts"):
		return "English Wing"
	case strings.Contains(dept, "social"), strings.Contains(dept, "history"):
		return "Social Studies Wing"
	case strings.Contains(dept, "physical education"), strings.Contains(dept, "pe"):
		return "Athletics Building"
	case strings.Contains(dept, "art"), strings.Contains(dept, "music"), strings.Contains(dept, "drama"):
		return "Arts Building"
	case strings.Contains(dept, "vocational"), strings.Contains(dept, "career"):
		return "Vocational Building"
	}
	return ""
}

func (e *ConstraintEvaluator) softWorkload(slots []models.ScheduleSlot, facts *EvaluationFacts, score *Score) {
	byTeacher := groupSlots(slots, func(s models.ScheduleSlot) string { return s.TeacherID })

	for teacherID, group := range byTeacher {
		// Pinned slots are placed by hand and do not count against the
		// teacher's daily load.
		perDay := make(map[int]int)
		for _, s := range group {
			if s.Pinned {
				continue
			}
			if ts, ok := facts.TimeSlots[s.TimeSlotID]; ok {
				perDay[ts.Day]++
			}
		}
		for _, count := range perDay {
			if d := count - targetPeriodsPerDay; d != 0 {
				score.Soft -= math.Abs(float64(d)) * e.factor(models.ConstraintBalanceTeacherLoad)
			}
		}

		teacher, ok := facts.Teachers[teacherID]
		if !ok {
			continue
		}
		maxDaily := teacher.MaxPeriodsPerDay
		if maxDaily <= 0 {
			maxDaily = defaultMaxDailyPeriods
		}
		for _, count := range perDay {
			if count < minDailyPeriods {
				score.Soft -= float64(minDailyPeriods-count) * teacherLoadUnderWeight
			}
			if count > maxDaily {
				score.Soft -= float64(count-maxDaily) * teacherLoadOverWeight
			}
		}
	}
}

func (e *ConstraintEvaluator) softMultiRoom(slots []models.ScheduleSlot, facts *EvaluationFacts, score *Score) {
	for _, s := range slots {
		course, ok := facts.Courses[s.CourseID]
		if !ok || !course.MultiRoom || len(course.AssignedRoomIDs) < 2 {
			continue
		}

		rooms := make([]models.Room, 0, len(course.AssignedRoomIDs))
		totalCapacity := 0
		for _, id := range course.AssignedRoomIDs {
			if r, ok := facts.Rooms[id]; ok {
				rooms = append(rooms, r)
				totalCapacity += r.EffectiveCapacity()
			}
		}
		if len(rooms) < 2 {
			continue
		}

		tolerance := course.MaxRoomDistanceMinutes
		if tolerance <= 0 {
			tolerance = 5
		}
		anchor := rooms[0]
		for _, r := range rooms[1:] {
			d := roomDistanceMinutes(anchor, r)
			if d <= tolerance {
				continue
			}
			excess := d - tolerance
			switch {
			case excess <= 2:
				score.Soft -= 5
			case excess <= 4:
				score.Soft -= 15
			default:
				score.Soft -= 30
			}
		}

		if need := len(s.StudentIDs); need > 0 && totalCapacity > 0 {
			pct := float64(totalCapacity) * 100 / float64(need)
			switch {
			case pct >= 100:
			case pct >= 90:
				score.Soft -= 5
			case pct >= 70:
				score.Soft -= 15
			default:
				score.Soft -= 30
			}
		}
	}
}

// roomDistanceMinutes estimates walking minutes between two rooms from
// building, floor, and zone differences.
func roomDistanceMinutes(a, b models.Room) int {
	if a.ID == b.ID {
		return 0
	}
	d := 1
	if a.Building != b.Building {
		d += 5
	}
	if a.Floor != b.Floor {
		d += 2
	}
	if a.Zone != b.Zone {
		d += 3
	}
	return d
}

// ---------------------------------------------------------------------------
// helpers

func groupSlots(slots []models.ScheduleSlot, key func(models.ScheduleSlot) string) map[string][]models.ScheduleSlot {
	out := make(map[string][]models.ScheduleSlot)
	for _, s := range slots {
		k := key(s)
		if k == "" {
			continue
		}
		out[k] = append(out[k], s)
	}
	return out
}

func slotsOverlap(a, b models.ScheduleSlot, facts *EvaluationFacts) bool {
	tsA, okA := facts.TimeSlots[a.TimeSlotID]
	tsB, okB := facts.TimeSlots[b.TimeSlotID]
	if !okA || !okB {
		return false
	}
	return tsA.Overlaps(tsB)
}

func sortByTime(slots []models.ScheduleSlot, facts *EvaluationFacts) []models.ScheduleSlot {
	out := append([]models.ScheduleSlot(nil), slots...)
	sort.SliceStable(out, func(i, j int) bool {
		a, okA := facts.TimeSlots[out[i].TimeSlotID]
		b, okB := facts.TimeSlots[out[j].TimeSlotID]
		if !okA || !okB {
			return okA
		}
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		return a.Start < b.Start
	})
	return out
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
