// Command solver_bench runs each solver algorithm against a synthetic
// roster and prints score and timing, so parameter changes can be compared
// without a database.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
	"github.com/noah-isme/sma-timetable-engine/internal/service"
)

func main() {
	var (
		teachers   int
		rooms      int
		courses    int
		seed       int64
		timeout    time.Duration
		algorithms algorithmList
	)

	flag.IntVar(&teachers, "teachers", 20, "synthetic teacher count")
	flag.IntVar(&rooms, "rooms", 15, "synthetic room count")
	flag.IntVar(&courses, "courses", 40, "synthetic course count")
	flag.Int64Var(&seed, "seed", 1, "random seed for roster generation")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "per-algorithm solve budget")
	flag.Var(&algorithms, "algorithms", "comma-free repeatable flag, e.g. -algorithms GENETIC -algorithms SIMULATED_ANNEALING")
	flag.Parse()

	if len(algorithms) == 0 {
		algorithms = algorithmList{
			models.AlgorithmSimulatedAnnealing,
			models.AlgorithmGenetic,
			models.AlgorithmHillClimbing,
			models.AlgorithmTabuSearch,
		}
	}

	logger := zap.NewNop()
	svc := service.NewSolverService(nil, logger)
	problem := syntheticProblem(teachers, rooms, courses, seed)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ALGORITHM\tHARD\tSOFT\tQUALITY\tITERATIONS\tDURATION")

	for _, alg := range algorithms {
		p := *problem
		p.Config = models.DefaultOptimizationConfig()
		p.Config.Algorithm = alg
		p.Config.MaxRuntimeSeconds = int(timeout.Seconds())

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		solution, err := svc.Solve(ctx, &p, nil)
		cancel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", alg, err)
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%.2f\t%.1f\t%d\t%s\n",
			alg, solution.Score.Hard, solution.Score.Soft, solution.Quality,
			solution.Iterations, solution.Duration.Round(time.Millisecond))
	}
	w.Flush()
}

type algorithmList []models.Algorithm

func (l *algorithmList) String() string {
	out := ""
	for i, a := range *l {
		if i > 0 {
			out += ","
		}
		out += string(a)
	}
	return out
}

func (l *algorithmList) Set(v string) error {
	*l = append(*l, models.Algorithm(v))
	return nil
}

// syntheticProblem builds a roster sized by the flags. Every course gets one
// unassigned slot per weekly session; the solver does the placement.
func syntheticProblem(teacherCount, roomCount, courseCount int, seed int64) *service.Problem {
	rng := rand.New(rand.NewSource(seed))
	subjects := []string{"Math", "Science", "English", "History", "PE", "Art"}
	grades := []string{"9", "10", "11", "12"}

	p := &service.Problem{
		ScheduleID: "bench",
		TimeSlots:  models.StandardTimeGrid(),
	}

	for i := 0; i < teacherCount; i++ {
		p.Teachers = append(p.Teachers, models.Teacher{
			ID:               fmt.Sprintf("t-%03d", i),
			FullName:         fmt.Sprintf("Teacher %03d", i),
			Department:       subjects[i%len(subjects)],
			Certifications:   []string{subjects[i%len(subjects)]},
			MaxPeriodsPerDay: 6,
			MaxHoursPerWeek:  30,
			Active:           true,
		})
	}

	for i := 0; i < roomCount; i++ {
		t := models.RoomTypeClassroom
		if i%5 == 0 {
			t = models.RoomTypeScienceLab
		}
		p.Rooms = append(p.Rooms, models.Room{
			ID:                   fmt.Sprintf("r-%03d", i),
			RoomNumber:           fmt.Sprintf("%d", 100+i),
			Capacity:             25 + rng.Intn(10),
			Type:                 t,
			MaxConcurrentClasses: 1,
			Building:             "Main",
			Active:               true,
		})
	}

	for i := 0; i < courseCount; i++ {
		subject := subjects[i%len(subjects)]
		course := models.Course{
			ID:              fmt.Sprintf("c-%03d", i),
			CourseName:      fmt.Sprintf("%s %d", subject, i),
			Subject:         subject,
			GradeLevel:      grades[i%len(grades)],
			RequiresLab:     subject == "Science" && i%2 == 0,
			SessionsPerWeek: 1 + rng.Intn(3),
			Active:          true,
		}
		p.Courses = append(p.Courses, course)
		for s := 0; s < course.SessionsPerWeek; s++ {
			p.Slots = append(p.Slots, models.ScheduleSlot{
				ID:         fmt.Sprintf("slot-%03d-%d", i, s),
				ScheduleID: p.ScheduleID,
				CourseID:   course.ID,
			})
		}
	}

	for i := 0; i < courseCount*6; i++ {
		p.Students = append(p.Students, models.Student{
			ID:         fmt.Sprintf("s-%04d", i),
			FirstName:  fmt.Sprintf("First%04d", i),
			LastName:   fmt.Sprintf("Last%04d", i),
			GradeLevel: grades[i%len(grades)],
			Active:     true,
		})
	}

	return p
}
