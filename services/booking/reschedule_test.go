// File: services/booking/reschedule_test.go
package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/roza-in/server/models"
	"github.com/roza-in/server/services/appointment"
)

// ---------- Helper ----------

// seedPricedSlot stores a slot with its own fee, for moves across price
// points.
func (f *bookingFixture) seedPricedSlot(id string, start int, fee float64) models.Slot {
	f.t.Helper()
	slot := models.Slot{
		ID:               id,
		HospitalID:       "hosp-1",
		DoctorID:         "doc-1",
		Date:             "2026-03-02",
		Start:            start,
		End:              start + 30,
		MaxCapacity:      1,
		ConsultationType: "in_person",
		Fee:              fee,
		Currency:         "INR",
		Version:          1,
	}
	if _, err := f.slots.UpsertGenerated(context.Background(), []models.Slot{slot}); err != nil {
		f.t.Fatalf("seeding slot %s: %v", id, err)
	}
	return slot
}

// ---------- Reschedule ----------

func TestReschedule_FullTargetLeavesOriginalUntouched(t *testing.T) {
	f := newBookingFixture(t)
	slotA := f.seedSlot("slot-a", 600, 1)
	slotB := f.seedSlot("slot-b", 660, 1)

	booked := f.book(slotA.ID, "pat-1")
	f.pay(booked.Appointment.ID)
	f.book(slotB.ID, "pat-2") // fills the target

	_, err := f.svc.Reschedule(context.Background(), models.RescheduleRequest{
		AppointmentID: booked.Appointment.ID,
		NewSlotID:     slotB.ID,
		PatientID:     "pat-1",
	})
	if !errors.Is(err, ErrSlotFull) {
		t.Fatalf("error = %v, want ErrSlotFull", err)
	}

	appt := f.appointment(booked.Appointment.ID)
	if appt.Status != models.StatusConfirmed || appt.SlotID != slotA.ID {
		t.Errorf("appointment = %s on %s, want confirmed on %s", appt.Status, appt.SlotID, slotA.ID)
	}
	if got := f.slotOccupancy(slotA.ID); got != 1 {
		t.Errorf("original slot occupancy = %d, want 1", got)
	}
	if got := f.slotOccupancy(slotB.ID); got != 1 {
		t.Errorf("target slot occupancy = %d, want 1", got)
	}
}

func TestReschedule_PendingMoveAdoptsNewFee(t *testing.T) {
	f := newBookingFixture(t)
	slotA := f.seedSlot("slot-a", 600, 1)
	slotB := f.seedPricedSlot("slot-b", 660, 800)

	booked := f.book(slotA.ID, "pat-1")
	firstOrder := booked.Appointment.PaymentOrderID

	result, err := f.svc.Reschedule(context.Background(), models.RescheduleRequest{
		AppointmentID: booked.Appointment.ID,
		NewSlotID:     slotB.ID,
		PatientID:     "pat-1",
	})
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	appt := result.Appointment
	if appt.SlotID != slotB.ID || appt.Start != 660 {
		t.Errorf("appointment on %s starting %d, want %s starting 660", appt.SlotID, appt.Start, slotB.ID)
	}
	// An unpaid booking reprices to the target slot.
	if appt.Fee != 800 || appt.PlatformFee != 80 {
		t.Errorf("fees = %v/%v, want 800/80", appt.Fee, appt.PlatformFee)
	}
	if appt.Status != models.StatusPendingPayment {
		t.Errorf("status = %s, want %s", appt.Status, models.StatusPendingPayment)
	}

	// Seat moved: old freed, new held until the fresh TTL.
	if got := f.slotOccupancy(slotA.ID); got != 0 {
		t.Errorf("old slot occupancy = %d, want 0", got)
	}
	if got := f.slotOccupancy(slotB.ID); got != 1 {
		t.Errorf("new slot occupancy = %d, want 1", got)
	}
	if result.ReservedTill.IsZero() {
		t.Error("pending move lost its reservation deadline")
	}

	// The old order priced the old slot; a replacement must exist.
	if result.PaymentOrder == nil {
		t.Fatal("no payment order on repriced booking")
	}
	if result.PaymentOrder.ID == firstOrder {
		t.Error("payment order was not reopened after repricing")
	}
	if result.PaymentOrder.Amount != 800 {
		t.Errorf("new order amount = %v, want 800", result.PaymentOrder.Amount)
	}
}

func TestReschedule_ConfirmedMoveKeepsFee(t *testing.T) {
	f := newBookingFixture(t)
	slotA := f.seedSlot("slot-a", 600, 1)
	slotB := f.seedPricedSlot("slot-b", 660, 800)

	booked := f.book(slotA.ID, "pat-1")
	f.pay(booked.Appointment.ID)

	result, err := f.svc.Reschedule(context.Background(), models.RescheduleRequest{
		AppointmentID: booked.Appointment.ID,
		NewSlotID:     slotB.ID,
		PatientID:     "pat-1",
	})
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	appt := result.Appointment
	if appt.Status != models.StatusConfirmed || appt.SlotID != slotB.ID {
		t.Errorf("appointment = %s on %s, want confirmed on %s", appt.Status, appt.SlotID, slotB.ID)
	}
	// Already paid: the price does not move with the slot.
	if appt.Fee != 500 || appt.PlatformFee != 50 {
		t.Errorf("fees = %v/%v, want 500/50", appt.Fee, appt.PlatformFee)
	}

	if got := f.slotOccupancy(slotA.ID); got != 0 {
		t.Errorf("old slot occupancy = %d, want 0", got)
	}
	if got := f.slotOccupancy(slotB.ID); got != 1 {
		t.Errorf("new slot occupancy = %d, want 1", got)
	}
	// The new seat is permanent, not a hold; no payment deadline returns.
	hold, err := f.slots.GetReservation(context.Background(), slotB.ID, appt.ID)
	if err != nil || hold != nil {
		t.Errorf("hold on new slot = %v, %v; want converted to occupancy", hold, err)
	}
	if !result.ReservedTill.IsZero() {
		t.Errorf("confirmed move carries reservation deadline %v", result.ReservedTill)
	}
	if result.PaymentOrder != nil {
		t.Error("confirmed move opened a new payment order")
	}
}

func TestReschedule_SameSlotIsNoop(t *testing.T) {
	f := newBookingFixture(t)
	slot := f.seedSlot("slot-a", 600, 1)
	booked := f.book(slot.ID, "pat-1")

	result, err := f.svc.Reschedule(context.Background(), models.RescheduleRequest{
		AppointmentID: booked.Appointment.ID,
		NewSlotID:     slot.ID,
		PatientID:     "pat-1",
	})
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if result.Appointment.SlotID != slot.ID {
		t.Errorf("slot = %s, want %s", result.Appointment.SlotID, slot.ID)
	}
	if got := f.slotOccupancy(slot.ID); got != 1 {
		t.Errorf("occupancy = %d, want 1", got)
	}
}

func TestReschedule_GuardsStateAndOwnership(t *testing.T) {
	f := newBookingFixture(t)
	slotA := f.seedSlot("slot-a", 600, 1)
	slotB := f.seedSlot("slot-b", 660, 1)

	booked := f.book(slotA.ID, "pat-1")
	f.pay(booked.Appointment.ID)

	// Wrong patient.
	_, err := f.svc.Reschedule(context.Background(), models.RescheduleRequest{
		AppointmentID: booked.Appointment.ID,
		NewSlotID:     slotB.ID,
		PatientID:     "pat-2",
	})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("foreign patient error = %v, want ErrForbidden", err)
	}

	// Checked-in appointments stay put.
	if _, err := f.lifecycle.CheckIn(context.Background(), booked.Appointment.ID, "doc-1"); err != nil {
		t.Fatalf("check-in: %v", err)
	}
	_, err = f.svc.Reschedule(context.Background(), models.RescheduleRequest{
		AppointmentID: booked.Appointment.ID,
		NewSlotID:     slotB.ID,
		PatientID:     "pat-1",
	})
	var te *appointment.TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("checked-in reschedule error = %v, want transition conflict", err)
	}
	if got := f.slotOccupancy(slotB.ID); got != 0 {
		t.Errorf("target occupancy = %d after refused move, want 0", got)
	}
}

func TestReschedule_RejectsPastTarget(t *testing.T) {
	f := newBookingFixture(t)
	slotA := f.seedSlot("slot-a", 600, 1)
	slotB := f.seedSlot("slot-b", 540, 1) // 09:00

	booked := f.book(slotA.ID, "pat-1")
	f.now = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

	_, err := f.svc.Reschedule(context.Background(), models.RescheduleRequest{
		AppointmentID: booked.Appointment.ID,
		NewSlotID:     slotB.ID,
		PatientID:     "pat-1",
	})
	if !errors.Is(err, ErrSlotInPast) {
		t.Fatalf("error = %v, want ErrSlotInPast", err)
	}
}

func TestReschedule_SendsRescheduledEvent(t *testing.T) {
	f := newBookingFixture(t)
	slotA := f.seedSlot("slot-a", 600, 1)
	slotB := f.seedSlot("slot-b", 660, 1)
	booked := f.book(slotA.ID, "pat-1")

	if _, err := f.svc.Reschedule(context.Background(), models.RescheduleRequest{
		AppointmentID: booked.Appointment.ID,
		NewSlotID:     slotB.ID,
		PatientID:     "pat-1",
	}); err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	events := f.notifier.Events()
	if len(events) != 1 || events[0] != models.NotifyBookingRescheduled {
		t.Fatalf("events = %v, want [booking_rescheduled]", events)
	}
	detail := f.notifier.Sent[0].Detail
	if detail["old_slot_id"] != slotA.ID || detail["new_slot_id"] != slotB.ID {
		t.Errorf("detail = %v", detail)
	}
}
