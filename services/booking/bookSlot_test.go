// File: services/booking/bookSlot_test.go
package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	appointmentRepo "github.com/roza-in/server/database/repository/appointment"
	refundRepo "github.com/roza-in/server/database/repository/refund"
	scheduleRepo "github.com/roza-in/server/database/repository/schedule"
	slotRepo "github.com/roza-in/server/database/repository/slot"
	"github.com/roza-in/server/models"
	"github.com/roza-in/server/services/appointment"
	"github.com/roza-in/server/services/notification"
	"github.com/roza-in/server/services/scheduling"
)

// ---------- Fixture ----------

// bookNow is 07:00 on the slot date; the seeded slots start at 10:00.
var bookNow = time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)

type fakeGateway struct {
	mu          sync.Mutex
	configured  bool
	createErr   error
	fetchErr    error
	fetchStatus models.PaymentOrderStatus
	created     []models.OrderRequest
}

func (g *fakeGateway) Configured() bool { return g.configured }

func (g *fakeGateway) CreateOrder(_ context.Context, req models.OrderRequest) (*models.PaymentOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.created = append(g.created, req)
	return &models.PaymentOrder{
		ID:           fmt.Sprintf("order-%d", len(g.created)),
		Provider:     "test",
		Amount:       req.Amount,
		Currency:     req.Currency,
		Status:       models.OrderCreated,
		ClientSecret: "secret",
	}, nil
}

func (g *fakeGateway) FetchOrder(_ context.Context, orderID string) (*models.PaymentOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	return &models.PaymentOrder{ID: orderID, Status: g.fetchStatus}, nil
}

// bookingFixture wires the full service against in-memory stores with a
// controllable clock. Tests advance time by assigning f.now.
type bookingFixture struct {
	t         *testing.T
	svc       *DefaultBookingService
	slots     slotRepo.SlotRepository
	schedules scheduleRepo.ScheduleRepository
	appts     appointmentRepo.AppointmentRepository
	refunds   refundRepo.RefundRepository
	lifecycle *appointment.DefaultService
	gateway   *fakeGateway
	notifier  *notification.Recorder
	now       time.Time
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	f := &bookingFixture{t: t, now: bookNow}
	clock := func() time.Time { return f.now }

	f.slots = slotRepo.NewMemorySlotRepo()
	f.schedules = scheduleRepo.NewMemoryScheduleRepo()
	f.appts = appointmentRepo.NewMemoryAppointmentRepo()
	f.refunds = refundRepo.NewMemoryRefundRepo()
	f.gateway = &fakeGateway{configured: true}
	f.notifier = &notification.Recorder{}

	reservations := NewReservationManager(f.slots, 30*time.Minute)
	reservations.Now = clock

	f.lifecycle = appointment.NewService(f.appts, f.refunds, appointment.DefaultRefundPolicy(), time.UTC, 30*time.Minute)
	f.lifecycle.Now = clock

	mat := scheduling.NewMaterializer(f.schedules, f.slots, time.UTC, 30)
	mat.Now = clock

	f.svc = NewBookingService(f.slots, f.appts, reservations, f.lifecycle, f.gateway,
		f.notifier, NewMemoryIdempotencyStore(), mat, nil, time.UTC, 10, 0)
	f.svc.Now = clock
	return f
}

// seedSlot stores a bookable slot on 2026-03-02 at the given start minute.
func (f *bookingFixture) seedSlot(id string, start, capacity int) models.Slot {
	f.t.Helper()
	slot := models.Slot{
		ID:               id,
		HospitalID:       "hosp-1",
		DoctorID:         "doc-1",
		Date:             "2026-03-02",
		Start:            start,
		End:              start + 30,
		MaxCapacity:      capacity,
		ConsultationType: "in_person",
		Fee:              500,
		Currency:         "INR",
		Version:          1,
	}
	if _, err := f.slots.UpsertGenerated(context.Background(), []models.Slot{slot}); err != nil {
		f.t.Fatalf("seeding slot %s: %v", id, err)
	}
	return slot
}

func (f *bookingFixture) book(slotID, patientID string) *models.BookingResult {
	f.t.Helper()
	result, err := f.svc.Book(context.Background(), models.BookingRequest{SlotID: slotID, PatientID: patientID})
	if err != nil {
		f.t.Fatalf("booking slot %s: %v", slotID, err)
	}
	return result
}

// pay confirms the appointment the way the gateway callback would.
func (f *bookingFixture) pay(appointmentID string) {
	f.t.Helper()
	err := f.svc.ApplyPaymentEvent(context.Background(), models.PaymentEvent{
		AppointmentID: appointmentID,
		Status:        models.OrderPaid,
		ReceivedAt:    f.now,
	})
	if err != nil {
		f.t.Fatalf("confirming payment for %s: %v", appointmentID, err)
	}
}

func (f *bookingFixture) slotOccupancy(slotID string) int {
	f.t.Helper()
	slot, err := f.slots.GetByID(context.Background(), slotID)
	if err != nil {
		f.t.Fatalf("reloading slot %s: %v", slotID, err)
	}
	return slot.CurrentOccupancy
}

func (f *bookingFixture) appointment(id string) *models.Appointment {
	f.t.Helper()
	appt, err := f.appts.GetByID(context.Background(), id)
	if err != nil {
		f.t.Fatalf("reloading appointment %s: %v", id, err)
	}
	return appt
}

// ---------- Book ----------

func TestBook_CreatesPendingAppointment(t *testing.T) {
	f := newBookingFixture(t)
	slot := f.seedSlot("slot-1", 600, 1)

	result := f.book(slot.ID, "pat-1")
	appt := result.Appointment

	if appt.Status != models.StatusPendingPayment {
		t.Errorf("status = %s, want %s", appt.Status, models.StatusPendingPayment)
	}
	if appt.ReservationToken != appt.ID {
		t.Errorf("reservation token %s != appointment id %s", appt.ReservationToken, appt.ID)
	}
	if appt.Fee != 500 || appt.PlatformFee != 50 {
		t.Errorf("fees = %v/%v, want 500/50", appt.Fee, appt.PlatformFee)
	}
	if want := bookNow.Add(30 * time.Minute); !result.ReservedTill.Equal(want) {
		t.Errorf("reserved till %v, want %v", result.ReservedTill, want)
	}
	if result.PaymentOrder == nil || result.PaymentIssue != "" {
		t.Errorf("payment order = %v, issue = %q", result.PaymentOrder, result.PaymentIssue)
	}
	if len(appt.History) != 1 || appt.History[0].Reason != "booking created" {
		t.Errorf("history = %+v", appt.History)
	}

	if got := f.slotOccupancy(slot.ID); got != 1 {
		t.Errorf("occupancy = %d, want 1", got)
	}
	hold, err := f.slots.GetReservation(context.Background(), slot.ID, appt.ID)
	if err != nil || hold == nil {
		t.Fatalf("hold = %v, %v; want live reservation", hold, err)
	}
	if stored := f.appointment(appt.ID); stored.PaymentOrderID == "" {
		t.Error("payment order id not persisted on appointment")
	}
}

func TestBook_CapacityOneSecondBookerLoses(t *testing.T) {
	f := newBookingFixture(t)
	slot := f.seedSlot("slot-1", 600, 1)

	results := make([]*models.BookingResult, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.Book(context.Background(), models.BookingRequest{
				SlotID:    slot.ID,
				PatientID: fmt.Sprintf("pat-%d", i),
			})
		}(i)
	}
	wg.Wait()

	var won, full int
	for i := range errs {
		switch {
		case errs[i] == nil:
			won++
			if results[i].Appointment.Status != models.StatusPendingPayment {
				t.Errorf("winner status = %s", results[i].Appointment.Status)
			}
		case errors.Is(errs[i], ErrSlotFull):
			full++
		default:
			t.Errorf("unexpected error: %v", errs[i])
		}
	}
	if won != 1 || full != 1 {
		t.Errorf("winners = %d, slot-full losers = %d; want 1 and 1", won, full)
	}
	if got := f.slotOccupancy(slot.ID); got != 1 {
		t.Errorf("occupancy = %d, want 1", got)
	}
}

func TestBook_IdempotencyKeyReplaysResult(t *testing.T) {
	f := newBookingFixture(t)
	slot := f.seedSlot("slot-1", 600, 1)
	req := models.BookingRequest{SlotID: slot.ID, PatientID: "pat-1", IdempotencyKey: "retry-1"}

	first, err := f.svc.Book(context.Background(), req)
	if err != nil {
		t.Fatalf("first book: %v", err)
	}
	second, err := f.svc.Book(context.Background(), req)
	if err != nil {
		t.Fatalf("replayed book: %v", err)
	}
	if second.Appointment.ID != first.Appointment.ID {
		t.Errorf("replay created a second appointment %s", second.Appointment.ID)
	}
	if got := f.slotOccupancy(slot.ID); got != 1 {
		t.Errorf("occupancy = %d after replay, want 1", got)
	}
}

func TestBook_FailedAttemptFreesIdempotencyKey(t *testing.T) {
	f := newBookingFixture(t)
	slot := f.seedSlot("slot-1", 600, 1)

	// First attempt targets a slot that does not exist.
	req := models.BookingRequest{SlotID: "no-such-slot", PatientID: "pat-1", IdempotencyKey: "retry-1"}
	if _, err := f.svc.Book(context.Background(), req); !errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("error = %v, want ErrSlotNotFound", err)
	}

	// The same key must be usable for the corrected request.
	req.SlotID = slot.ID
	if _, err := f.svc.Book(context.Background(), req); err != nil {
		t.Fatalf("retry with corrected slot: %v", err)
	}
}

func TestBook_GatewayUnconfiguredKeepsHold(t *testing.T) {
	f := newBookingFixture(t)
	f.gateway.configured = false
	slot := f.seedSlot("slot-1", 600, 1)

	result := f.book(slot.ID, "pat-1")
	if result.PaymentIssue != PaymentIssueNotConfigured {
		t.Errorf("payment issue = %q, want %q", result.PaymentIssue, PaymentIssueNotConfigured)
	}
	if result.PaymentOrder != nil {
		t.Error("order attached despite unconfigured gateway")
	}

	// Booking still stands: row created, seat held until the TTL.
	if got := f.appointment(result.Appointment.ID).Status; got != models.StatusPendingPayment {
		t.Errorf("status = %s, want %s", got, models.StatusPendingPayment)
	}
	hold, err := f.slots.GetReservation(context.Background(), slot.ID, result.Appointment.ID)
	if err != nil || hold == nil {
		t.Errorf("hold = %v, %v; want live reservation", hold, err)
	}
}

func TestBook_OrderCreationFailureKeepsHold(t *testing.T) {
	f := newBookingFixture(t)
	f.gateway.createErr = errors.New("gateway down")
	slot := f.seedSlot("slot-1", 600, 1)

	result := f.book(slot.ID, "pat-1")
	if result.PaymentIssue != PaymentIssueOrderFailed {
		t.Errorf("payment issue = %q, want %q", result.PaymentIssue, PaymentIssueOrderFailed)
	}
	if got := f.slotOccupancy(slot.ID); got != 1 {
		t.Errorf("occupancy = %d, want 1", got)
	}
}

func TestBook_RejectsPastBlockedAndMissingSlots(t *testing.T) {
	f := newBookingFixture(t)
	past := f.seedSlot("slot-past", 600, 1)
	blocked := f.seedSlot("slot-blocked", 660, 1)
	if err := f.slots.SetBlocked(context.Background(), blocked.ID, true); err != nil {
		t.Fatalf("blocking slot: %v", err)
	}

	// 10:00 sharp: a slot starting right now is no longer bookable.
	f.now = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	if _, err := f.svc.Book(context.Background(), models.BookingRequest{SlotID: past.ID, PatientID: "pat-1"}); !errors.Is(err, ErrSlotInPast) {
		t.Errorf("past slot error = %v, want ErrSlotInPast", err)
	}
	if _, err := f.svc.Book(context.Background(), models.BookingRequest{SlotID: blocked.ID, PatientID: "pat-1"}); !errors.Is(err, ErrSlotUnavailable) {
		t.Errorf("blocked slot error = %v, want ErrSlotUnavailable", err)
	}
	if _, err := f.svc.Book(context.Background(), models.BookingRequest{SlotID: "ghost", PatientID: "pat-1"}); !errors.Is(err, ErrSlotNotFound) {
		t.Errorf("missing slot error = %v, want ErrSlotNotFound", err)
	}
}

func TestBook_ValidatesInput(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.svc.Book(context.Background(), models.BookingRequest{PatientID: "pat-1"})
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("missing slot id error = %v, want validation error", err)
	}
	_, err = f.svc.Book(context.Background(), models.BookingRequest{SlotID: "slot-1"})
	if !errors.As(err, &ve) {
		t.Errorf("missing patient id error = %v, want validation error", err)
	}
}
