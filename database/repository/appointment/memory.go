// File: database/repository/appointment/memory.go
package appointmentRepo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roza-in/server/models"
)

// memoryAppointmentRepo mirrors the Mongo implementation's conditional
// transition semantics for tests.
type memoryAppointmentRepo struct {
	mu    sync.Mutex
	appts map[string]*models.Appointment
}

// NewMemoryAppointmentRepo constructs an empty in-memory AppointmentRepository.
func NewMemoryAppointmentRepo() AppointmentRepository {
	return &memoryAppointmentRepo{appts: make(map[string]*models.Appointment)}
}

func (r *memoryAppointmentRepo) Create(ctx context.Context, appt models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if appt.ID == "" {
		appt.ID = uuid.New().String()
	}
	cp := appt
	r.appts[cp.ID] = &cp
	return nil
}

func (r *memoryAppointmentRepo) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *appt
	cp.History = append([]models.StatusChange(nil), appt.History...)
	return &cp, nil
}

func (r *memoryAppointmentRepo) GetByPatient(ctx context.Context, patientID string, limit int64) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Appointment
	for _, appt := range r.appts {
		if appt.PatientID == patientID {
			out = append(out, *appt)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].Start > out[j].Start
	})
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryAppointmentRepo) GetByDoctorAndDate(ctx context.Context, doctorID, date string) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Appointment
	for _, appt := range r.appts {
		if appt.DoctorID == doctorID && appt.Date == date {
			out = append(out, *appt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

func (r *memoryAppointmentRepo) SetPaymentOrder(ctx context.Context, id, orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.appts[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	appt.PaymentOrderID = orderID
	appt.Version++
	appt.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memoryAppointmentRepo) TransitionStatus(ctx context.Context, p TransitionParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.appts[p.ID]
	if !ok || appt.Status != p.From {
		return ErrStaleTransition
	}
	appt.Status = p.To
	appt.UpdatedAt = p.At
	if p.CancelActor != "" {
		appt.CancelActor = p.CancelActor
		appt.CancelReason = p.Reason
	}
	if p.To == models.StatusCheckedIn {
		at := p.At
		appt.CheckedInAt = &at
	}
	appt.History = append(appt.History, models.StatusChange{
		From:   p.From,
		To:     p.To,
		Actor:  p.Actor,
		Reason: p.Reason,
		At:     p.At,
	})
	appt.Version++
	return nil
}

func (r *memoryAppointmentRepo) SwapSlot(ctx context.Context, p SlotSwapParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.appts[p.ID]
	if !ok || appt.Status != p.ExpectStatus || appt.SlotID != p.ExpectSlotID {
		return ErrStaleTransition
	}
	appt.SlotID = p.NewSlot.ID
	appt.Date = p.NewSlot.Date
	appt.Start = p.NewSlot.Start
	appt.End = p.NewSlot.End
	appt.ConsultationType = p.NewSlot.ConsultationType
	appt.ReservationToken = p.ReservationToken
	if p.AdoptFee {
		appt.Fee = p.NewSlot.Fee
		appt.PlatformFee = p.PlatformFee
		appt.Currency = p.NewSlot.Currency
	}
	appt.History = append(appt.History, models.StatusChange{
		From:   p.ExpectStatus,
		To:     p.ExpectStatus,
		Actor:  p.Actor,
		Reason: fmt.Sprintf("rescheduled from slot %s to slot %s", p.ExpectSlotID, p.NewSlot.ID),
		At:     p.At,
	})
	appt.UpdatedAt = p.At
	appt.Version++
	return nil
}

func (r *memoryAppointmentRepo) ListConfirmedStartedBefore(ctx context.Context, date string, startBefore int, limit int64) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Appointment
	for _, appt := range r.appts {
		if appt.Status != models.StatusConfirmed {
			continue
		}
		if appt.Date < date || (appt.Date == date && appt.Start < startBefore) {
			out = append(out, *appt)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Start < out[j].Start
	})
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}
