// Command ttgen generates a timetable from an infrastructure file without the HTTP service.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/engine"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/pkg/infrafile"
)

type options struct {
	infraPath string
	prefsPath string
	seed      int64
	seeded    bool
	days      int
	byDay     bool
}

// dayView is the -by-day rendering: each course's classes grouped per day in start order.
type dayView struct {
	Seed     int64                                      `json:"seed"`
	Days     []engine.Day                               `json:"days"`
	Courses  map[string]map[engine.Day][]engine.Session `json:"courses"`
	Warnings []engine.Warning                           `json:"warnings"`
}

func newDayView(result *engine.Result) dayView {
	view := dayView{
		Seed:     result.Seed,
		Days:     result.Days,
		Courses:  make(map[string]map[engine.Day][]engine.Session, len(result.Schedules)),
		Warnings: result.Warnings,
	}
	for id, schedule := range result.Schedules {
		view.Courses[id] = schedule.ByDay()
	}
	return view
}

func main() {
	var opts options
	flag.StringVar(&opts.infraPath, "infra", "", "infrastructure file (.yaml, .yml or .json)")
	flag.StringVar(&opts.prefsPath, "prefs", "", "optional teacher preferences file")
	flag.Int64Var(&opts.seed, "seed", 0, "random seed; omitted draws one from the clock")
	flag.IntVar(&opts.days, "days", 0, "working days per week (5 or 6); overrides the file")
	flag.BoolVar(&opts.byDay, "by-day", false, "group each course's classes per day")
	flag.Parse()
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			opts.seeded = true
		}
	})

	logr, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(opts, os.Stdout, logr); err != nil {
		logr.Error("generation failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(opts options, out io.Writer, logr *zap.Logger) error {
	if opts.infraPath == "" {
		return fmt.Errorf("-infra is required")
	}
	if opts.days != 0 && opts.days != 5 && opts.days != 6 {
		return fmt.Errorf("-days must be 5 or 6, got %d", opts.days)
	}

	var doc models.InfrastructureDocument
	if err := infrafile.Load(opts.infraPath, &doc); err != nil {
		return err
	}
	var prefs []engine.TeacherPreference
	if opts.prefsPath != "" {
		if err := infrafile.Load(opts.prefsPath, &prefs); err != nil {
			return err
		}
	}

	in := doc.EngineInput(engine.WorkingDays(5))
	if opts.days != 0 {
		in.Days = engine.WorkingDays(opts.days)
	}
	if !opts.seeded {
		opts.seed = time.Now().UnixNano()
	}

	eng := engine.New(engine.NewPreferenceStore(prefs...), logr, engine.DefaultOptions())
	result, err := eng.Generate(in, engine.NewSeededSource(opts.seed))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if opts.byDay {
		return enc.Encode(newDayView(result))
	}
	return enc.Encode(result)
}
