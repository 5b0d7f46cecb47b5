package engine

import "math"

// Satisfaction summarises how well a schedule honours one teacher's preferences.
type Satisfaction struct {
	TotalClasses         int    `json:"totalClasses"`
	PreferredSlotsUsed   int    `json:"preferredSlotsUsed"`
	BlockedSlotsViolated int    `json:"blockedSlotsViolated"`
	PreferredDaysUsed    int    `json:"preferredDaysUsed"`
	SatisfactionScore    int    `json:"satisfactionScore"`
	Grade                string `json:"grade"`
}

// SatisfactionReport grades every enabled teacher in the store against the given sessions.
func SatisfactionReport(prefs *PreferenceStore, sessions []Session) map[string]Satisfaction {
	report := make(map[string]Satisfaction)
	if prefs == nil {
		return report
	}
	byTeacher := make(map[string][]Session)
	for _, s := range sessions {
		byTeacher[s.Teacher] = append(byTeacher[s.Teacher], s)
	}

	for _, pref := range prefs.All() {
		if !pref.Enabled {
			continue
		}
		var sat Satisfaction
		for _, cls := range byTeacher[pref.Name] {
			sat.TotalClasses++
			if prefs.IsSlotPreferred(pref.Name, cls.Day, cls.Start) {
				sat.PreferredSlotsUsed++
			}
			if prefs.IsSlotBlocked(pref.Name, cls.Day, cls.Start) {
				sat.BlockedSlotsViolated++
			}
			if prefs.IsDayPreferred(pref.Name, cls.Day) {
				sat.PreferredDaysUsed++
			}
		}
		if sat.TotalClasses > 0 {
			ratio := float64(sat.PreferredSlotsUsed+sat.PreferredDaysUsed) / float64(sat.TotalClasses*2)
			sat.SatisfactionScore = int(math.Round(ratio * 100))
		}
		sat.Grade = gradeFor(sat.SatisfactionScore)
		report[pref.Name] = sat
	}
	return report
}

func gradeFor(score int) string {
	switch {
	case score >= 80:
		return "Excellent"
	case score >= 60:
		return "Good"
	case score >= 40:
		return "Fair"
	default:
		return "Poor"
	}
}
