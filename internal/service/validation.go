package service

import (
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-timetable-api/internal/engine"
)

// registerTimetableValidations adds the clock, slot key and weekday rules used by the DTOs.
func registerTimetableValidations(v *validator.Validate) *validator.Validate {
	if v == nil {
		v = validator.New()
	}
	v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := engine.ParseClock(fl.Field().String())
		return err == nil
	})
	v.RegisterValidation("slotkey", func(fl validator.FieldLevel) bool {
		_, _, err := engine.ParseSlotKey(fl.Field().String())
		return err == nil
	})
	v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		return engine.IsWorkingDay(engine.Day(fl.Field().String()))
	})
	return v
}
