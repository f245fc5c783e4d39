package models

// Wire formats for dates and times of day.
const (
	DateFormat = "2006-01-02"
	TimeFormat = "15:04"
)

// Bounds enforced when hospitals configure weekly schedules.
const (
	MinSlotDurationMinutes = 5
	MaxSlotDurationMinutes = 480
	MinCapacityPerSlot     = 1
	MaxCapacityPerSlot     = 100
	MinutesPerDay          = 24 * 60
)

// Materialization horizon bounds, in days ahead of today.
const (
	DefaultHorizonDays = 30
	MaxHorizonDays     = 90
)
