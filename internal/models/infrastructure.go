package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/noah-isme/sma-timetable-api/internal/engine"
)

// DefaultInfrastructureID keys the single college infrastructure document.
const DefaultInfrastructureID = "default"

// InfrastructureDocument is the college configuration consumed by the generator.
type InfrastructureDocument struct {
	Teachers        []string            `json:"allTeachers" yaml:"allTeachers"`
	Rooms           []string            `json:"allRooms" yaml:"allRooms"`
	Specializations []string            `json:"specializations,omitempty" yaml:"specializations"`
	TimeSettings    engine.TimeSettings `json:"timeSettings" yaml:"timeSettings"`
	Courses         []engine.Course     `json:"courses" yaml:"courses"`
	WorkingDays     []engine.Day        `json:"workingDays,omitempty" yaml:"workingDays"`
}

// EngineInput converts the document into a generation input. Empty working days fall back
// to the given default week.
func (d InfrastructureDocument) EngineInput(defaultDays []engine.Day) engine.Input {
	days := d.WorkingDays
	if len(days) == 0 {
		days = defaultDays
	}
	return engine.Input{
		Teachers:     d.Teachers,
		Rooms:        d.Rooms,
		Courses:      d.Courses,
		TimeSettings: d.TimeSettings.WithDefaults(),
		Days:         days,
	}
}

// Value marshals the document to JSON for persistence.
func (d InfrastructureDocument) Value() (driver.Value, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal infrastructure document: %w", err)
	}
	return data, nil
}

// Scan unmarshals the JSONB column.
func (d *InfrastructureDocument) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*d = InfrastructureDocument{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for InfrastructureDocument", value)
	}
	if len(data) == 0 {
		*d = InfrastructureDocument{}
		return nil
	}
	if err := json.Unmarshal(data, d); err != nil {
		return fmt.Errorf("unmarshal infrastructure document: %w", err)
	}
	return nil
}

// Infrastructure is the persisted row.
type Infrastructure struct {
	ID        string                 `db:"id" json:"id"`
	Document  InfrastructureDocument `db:"document" json:"document"`
	UpdatedAt time.Time              `db:"updated_at" json:"updated_at"`
}
