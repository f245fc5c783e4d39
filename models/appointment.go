package models

import "time"

// AppointmentStatus is the lifecycle state of a booking.
type AppointmentStatus string

const (
	StatusPendingPayment AppointmentStatus = "pending_payment"
	StatusConfirmed      AppointmentStatus = "confirmed"
	StatusCheckedIn      AppointmentStatus = "checked_in"
	StatusCompleted      AppointmentStatus = "completed"
	StatusCancelled      AppointmentStatus = "cancelled"
	StatusNoShow         AppointmentStatus = "no_show"
)

// Terminal reports whether no further transitions are allowed from s.
func (s AppointmentStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// CancelActor identifies who initiated a cancellation; the refund policy
// branches on it.
type CancelActor string

const (
	CancelByPatient  CancelActor = "patient"
	CancelByDoctor   CancelActor = "doctor"
	CancelByHospital CancelActor = "hospital"
	CancelByAdmin    CancelActor = "admin"
	CancelBySystem   CancelActor = "system"
)

// StatusChange is one entry of an appointment's audit trail.
type StatusChange struct {
	From   AppointmentStatus `bson:"from" json:"from"`
	To     AppointmentStatus `bson:"to" json:"to"`
	Actor  string            `bson:"actor" json:"actor"`
	Reason string            `bson:"reason,omitempty" json:"reason,omitempty"`
	At     time.Time         `bson:"at" json:"at"`
}

// Appointment is the booking record tying a patient to one slot. SlotID,
// Date and Start are denormalized from the slot at booking time so reads
// and the no-show sweep never join back to the slot collection.
type Appointment struct {
	ID               string            `bson:"id" json:"id"`
	HospitalID       string            `bson:"hospital_id" json:"hospital_id"`
	DoctorID         string            `bson:"doctor_id" json:"doctor_id"`
	PatientID        string            `bson:"patient_id" json:"patient_id"`
	SlotID           string            `bson:"slot_id" json:"slot_id"`
	Date             string            `bson:"date" json:"date"`
	Start            int               `bson:"start" json:"start"`
	End              int               `bson:"end" json:"end"`
	ConsultationType string            `bson:"consultation_type" json:"consultation_type"`
	Status           AppointmentStatus `bson:"status" json:"status"`
	Fee              float64           `bson:"fee" json:"fee"`
	PlatformFee      float64           `bson:"platform_fee" json:"platform_fee"`
	Currency         string            `bson:"currency" json:"currency"`
	PaymentOrderID   string            `bson:"payment_order_id,omitempty" json:"payment_order_id,omitempty"`
	ReservationToken string            `bson:"reservation_token,omitempty" json:"reservation_token,omitempty"`
	Notes            string            `bson:"notes,omitempty" json:"notes,omitempty"`
	CancelActor      CancelActor       `bson:"cancel_actor,omitempty" json:"cancel_actor,omitempty"`
	CancelReason     string            `bson:"cancel_reason,omitempty" json:"cancel_reason,omitempty"`
	CheckedInAt      *time.Time        `bson:"checked_in_at,omitempty" json:"checked_in_at,omitempty"`
	History          []StatusChange    `bson:"history" json:"history"`
	Version          int64             `bson:"version" json:"version"`
	CreatedAt        time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time         `bson:"updated_at" json:"updated_at"`
}

// StartsAt resolves the appointment's start instant in the given location.
func (a Appointment) StartsAt(loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(DateFormat, a.Date, loc)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(time.Duration(a.Start) * time.Minute), nil
}

// Active reports whether the appointment still holds a seat on its slot.
func (a Appointment) Active() bool {
	switch a.Status {
	case StatusPendingPayment, StatusConfirmed, StatusCheckedIn:
		return true
	}
	return false
}
