package engine

import "sort"

// TeacherLoad is the weekly teaching demand of one teacher implied by the course configuration.
type TeacherLoad struct {
	Teacher        string `json:"teacher"`
	HoursPerWeek   int    `json:"hoursPerWeek"`
	MaxWeeklyHours int    `json:"maxWeeklyHours"`
	Overloaded     bool   `json:"overloaded"`
}

// LoadReport summarises the weekly load of every teacher, heaviest first.
type LoadReport struct {
	Teachers   []TeacherLoad `json:"teachers"`
	TotalHours int           `json:"totalHours"`
}

// TeachingLoad counts lectures, two hours per lab round and the lectures an elective teacher
// gives alongside the main subject. Subjects without a teacher are booked to "Undefined Teacher".
func TeachingLoad(courses []Course, prefs *PreferenceStore) LoadReport {
	if prefs == nil {
		prefs = NewPreferenceStore()
	}
	hours := make(map[string]int)
	for _, course := range courses {
		for _, subj := range course.Subjects {
			teacher := subj.Teacher
			if teacher == "" {
				teacher = "Undefined Teacher"
			}
			hours[teacher] += subj.LecturesPerWeek
			if subj.RequiresLab && subj.LabsPerWeek > 0 {
				hours[teacher] += subj.LabsPerWeek * 2
			}
			if subj.IsElective && subj.ElectiveTeacher != "" {
				hours[subj.ElectiveTeacher] += subj.LecturesPerWeek
			}
		}
	}

	report := LoadReport{Teachers: make([]TeacherLoad, 0, len(hours))}
	for teacher, h := range hours {
		pref := prefs.Get(teacher)
		report.Teachers = append(report.Teachers, TeacherLoad{
			Teacher:        teacher,
			HoursPerWeek:   h,
			MaxWeeklyHours: pref.MaxWeeklyHours,
			Overloaded:     pref.Enabled && h > pref.MaxWeeklyHours,
		})
		report.TotalHours += h
	}
	sort.Slice(report.Teachers, func(i, j int) bool {
		if report.Teachers[i].HoursPerWeek != report.Teachers[j].HoursPerWeek {
			return report.Teachers[i].HoursPerWeek > report.Teachers[j].HoursPerWeek
		}
		return report.Teachers[i].Teacher < report.Teachers[j].Teacher
	})
	return report
}
