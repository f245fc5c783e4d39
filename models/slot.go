package models

import "time"

// Slot is one bookable unit of a doctor's day. Occupancy counts confirmed
// appointments plus live (unexpired) reservations; it never exceeds MaxCapacity.
// Version increments on every mutation so concurrent writers can be detected.
type Slot struct {
	ID               string    `bson:"id" json:"id"`
	HospitalID       string    `bson:"hospital_id" json:"hospital_id"`
	DoctorID         string    `bson:"doctor_id" json:"doctor_id"`
	ScheduleID       string    `bson:"schedule_id" json:"schedule_id"`
	Date             string    `bson:"date" json:"date"` // "2006-01-02"
	Start            int       `bson:"start" json:"start"`
	End              int       `bson:"end" json:"end"`
	MaxCapacity      int       `bson:"max_capacity" json:"max_capacity"`
	CurrentOccupancy int       `bson:"current_occupancy" json:"current_occupancy"`
	ConsultationType string    `bson:"consultation_type" json:"consultation_type"`
	Fee              float64   `bson:"fee" json:"fee"`
	Currency         string    `bson:"currency" json:"currency"`
	Blocked          bool      `bson:"blocked" json:"blocked"`
	Version          int64     `bson:"version" json:"version"`
	CreatedAt        time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time `bson:"updated_at" json:"updated_at"`
}

// Remaining reports how many seats are still takeable.
func (s Slot) Remaining() int {
	if r := s.MaxCapacity - s.CurrentOccupancy; r > 0 {
		return r
	}
	return 0
}

// Available reports whether the slot can accept another reservation.
func (s Slot) Available() bool {
	return !s.Blocked && s.CurrentOccupancy < s.MaxCapacity
}

// StartsAt resolves the slot's start instant in the given location.
func (s Slot) StartsAt(loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(DateFormat, s.Date, loc)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(time.Duration(s.Start) * time.Minute), nil
}

// Reservation is a short-lived hold on one seat of a slot, taken while the
// patient completes payment. The pair (slot_id, holder_token) is unique, so a
// holder can never double-count against the same slot.
type Reservation struct {
	ID          string    `bson:"id" json:"id"`
	SlotID      string    `bson:"slot_id" json:"slot_id"`
	HolderToken string    `bson:"holder_token" json:"holder_token"`
	PatientID   string    `bson:"patient_id" json:"patient_id"`
	ExpiresAt   time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// Expired reports whether the hold has lapsed as of now.
func (r Reservation) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// AvailableSlot is the read-model row returned to patients browsing a
// doctor's calendar. Remaining is derived at query time.
type AvailableSlot struct {
	SlotID           string  `json:"slot_id"`
	DoctorID         string  `json:"doctor_id"`
	Date             string  `json:"date"`
	Start            int     `json:"start"`
	End              int     `json:"end"`
	StartLabel       string  `json:"start_label"` // "15:04"
	EndLabel         string  `json:"end_label"`
	Remaining        int     `json:"remaining"`
	ConsultationType string  `json:"consultation_type"`
	Fee              float64 `json:"fee"`
	Currency         string  `json:"currency"`
}
