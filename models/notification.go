package models

import "time"

// NotificationEvent names the booking lifecycle moments patients and
// hospitals are notified about.
type NotificationEvent string

const (
	NotifyBookingConfirmed    NotificationEvent = "booking_confirmed"
	NotifyBookingCancelled    NotificationEvent = "booking_cancelled"
	NotifyBookingExpired      NotificationEvent = "booking_expired"
	NotifyBookingRescheduled  NotificationEvent = "booking_rescheduled"
	NotifyAppointmentReminder NotificationEvent = "appointment_reminder"
	NotifyRefundProcessed     NotificationEvent = "refund_processed"
	NotifyMarkedNoShow        NotificationEvent = "marked_no_show"
)

// NotificationPayload is the task body queued for async delivery.
type NotificationPayload struct {
	Event         NotificationEvent `json:"event"`
	AppointmentID string            `json:"appointment_id"`
	PatientID     string            `json:"patient_id"`
	DoctorID      string            `json:"doctor_id"`
	HospitalID    string            `json:"hospital_id"`
	Date          string            `json:"date"`
	Start         int               `json:"start"`
	Detail        map[string]string `json:"detail,omitempty"`
	QueuedAt      time.Time         `json:"queued_at"`
}
