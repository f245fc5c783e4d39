// File: services/booking/reservation_test.go
package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	slotRepo "github.com/roza-in/server/database/repository/slot"
	"github.com/roza-in/server/models"
)

// ---------- Helper ----------

var reserveNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func newReservationManager(t *testing.T, capacity int) (*ReservationManager, slotRepo.SlotRepository, string) {
	t.Helper()
	repo := slotRepo.NewMemorySlotRepo()
	_, err := repo.UpsertGenerated(context.Background(), []models.Slot{{
		ID:          "slot-1",
		DoctorID:    "doc-1",
		Date:        "2026-03-02",
		Start:       540,
		End:         570,
		MaxCapacity: capacity,
	}})
	if err != nil {
		t.Fatalf("seeding slot: %v", err)
	}
	m := NewReservationManager(repo, 30*time.Minute)
	m.Now = func() time.Time { return reserveNow }
	return m, repo, "slot-1"
}

func occupancy(t *testing.T, repo slotRepo.SlotRepository, slotID string) int {
	t.Helper()
	slot, err := repo.GetByID(context.Background(), slotID)
	if err != nil {
		t.Fatalf("reloading slot: %v", err)
	}
	return slot.CurrentOccupancy
}

// ---------- Reserve ----------

func TestReserve_TakesSeatAndRecordsHold(t *testing.T) {
	m, repo, slotID := newReservationManager(t, 2)
	ctx := context.Background()

	res, err := m.Reserve(ctx, slotID, "appt-1", "pat-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.SlotID != slotID || res.HolderToken != "appt-1" || res.PatientID != "pat-1" {
		t.Errorf("hold fields = %s/%s/%s", res.SlotID, res.HolderToken, res.PatientID)
	}
	if want := reserveNow.Add(30 * time.Minute); !res.ExpiresAt.Equal(want) {
		t.Errorf("hold expires at %v, want %v", res.ExpiresAt, want)
	}
	if got := occupancy(t, repo, slotID); got != 1 {
		t.Errorf("occupancy = %d, want 1", got)
	}
}

func TestReserve_ConcurrentNeverOversells(t *testing.T) {
	const capacity, callers = 2, 8
	m, repo, slotID := newReservationManager(t, capacity)

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token := fmt.Sprintf("appt-%d", i)
			_, errs[i] = m.Reserve(context.Background(), slotID, token, "pat-1")
		}(i)
	}
	wg.Wait()

	var won, full int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrSlotFull):
			full++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if won != capacity {
		t.Errorf("%d callers won, want exactly %d", won, capacity)
	}
	if full != callers-capacity {
		t.Errorf("%d callers saw slot full, want %d", full, callers-capacity)
	}
	if got := occupancy(t, repo, slotID); got != capacity {
		t.Errorf("occupancy = %d, want %d", got, capacity)
	}
}

func TestReserve_SameHolderReturnsExistingHold(t *testing.T) {
	m, repo, slotID := newReservationManager(t, 2)
	ctx := context.Background()

	first, err := m.Reserve(ctx, slotID, "appt-1", "pat-1")
	if err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	// A crashed-and-retried booking reserves again with the same token.
	second, err := m.Reserve(ctx, slotID, "appt-1", "pat-1")
	if err != nil {
		t.Fatalf("second reserve: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("retry produced a new hold %s, want existing %s", second.ID, first.ID)
	}
	if got := occupancy(t, repo, slotID); got != 1 {
		t.Errorf("occupancy = %d after retry, want 1", got)
	}
}

// releasingSlotRepo releases the clashing hold the moment a duplicate
// insert is refused, reproducing a sweep or explicit release landing
// between the failed insert and the read that returns the existing hold.
type releasingSlotRepo struct {
	slotRepo.SlotRepository
}

func (r *releasingSlotRepo) InsertReservation(ctx context.Context, res models.Reservation) error {
	err := r.SlotRepository.InsertReservation(ctx, res)
	if errors.Is(err, slotRepo.ErrDuplicateHold) {
		if deleted, delErr := r.SlotRepository.DeleteReservation(ctx, res.SlotID, res.HolderToken); delErr == nil && deleted {
			_ = r.SlotRepository.ReleaseSeat(ctx, res.SlotID)
		}
	}
	return err
}

func TestReserve_DuplicateHoldReleasedMidFlight(t *testing.T) {
	m, repo, slotID := newReservationManager(t, 2)
	ctx := context.Background()

	if _, err := m.Reserve(ctx, slotID, "appt-1", "pat-1"); err != nil {
		t.Fatalf("first reserve: %v", err)
	}

	// The retry collides with its own earlier hold, which disappears
	// before it can be read back. The caller must still get a hold or an
	// error, never neither.
	m.Slots = &releasingSlotRepo{SlotRepository: repo}
	res, err := m.Reserve(ctx, slotID, "appt-1", "pat-1")
	if err != nil {
		t.Fatalf("retried reserve: %v", err)
	}
	if res == nil {
		t.Fatal("retried reserve returned neither hold nor error")
	}
	if res.SlotID != slotID || res.HolderToken != "appt-1" {
		t.Errorf("hold fields = %s/%s", res.SlotID, res.HolderToken)
	}
	if got := occupancy(t, repo, slotID); got != 1 {
		t.Errorf("occupancy = %d, want 1", got)
	}
	hold, err := repo.GetReservation(ctx, slotID, "appt-1")
	if err != nil || hold == nil {
		t.Fatalf("hold = %v, %v; want the fresh hold persisted", hold, err)
	}
	if hold.ID != res.ID {
		t.Errorf("persisted hold %s != returned %s", hold.ID, res.ID)
	}
}

func TestReserve_FullThenReleasedSeat(t *testing.T) {
	m, _, slotID := newReservationManager(t, 1)
	ctx := context.Background()

	if _, err := m.Reserve(ctx, slotID, "appt-1", "pat-1"); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	if _, err := m.Reserve(ctx, slotID, "appt-2", "pat-2"); !errors.Is(err, ErrSlotFull) {
		t.Fatalf("second reserve error = %v, want ErrSlotFull", err)
	}

	released, err := m.Release(ctx, slotID, "appt-1")
	if err != nil || !released {
		t.Fatalf("release = %v, %v; want true, nil", released, err)
	}
	if _, err := m.Reserve(ctx, slotID, "appt-2", "pat-2"); err != nil {
		t.Fatalf("reserve after release: %v", err)
	}
}

func TestReserve_ExpiredHoldsClassifyAsLocked(t *testing.T) {
	m, _, slotID := newReservationManager(t, 1)
	ctx := context.Background()

	if _, err := m.Reserve(ctx, slotID, "appt-1", "pat-1"); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	// While the hold is live, the slot is just full.
	m.Now = func() time.Time { return reserveNow.Add(time.Minute) }
	if _, err := m.Reserve(ctx, slotID, "appt-2", "pat-2"); !errors.Is(err, ErrSlotFull) {
		t.Fatalf("error with live hold = %v, want ErrSlotFull", err)
	}

	// Once the hold lapses without the sweeper running, the same failure
	// reads as transient.
	m.Now = func() time.Time { return reserveNow.Add(31 * time.Minute) }
	if _, err := m.Reserve(ctx, slotID, "appt-2", "pat-2"); !errors.Is(err, ErrSlotLocked) {
		t.Fatalf("error with expired hold = %v, want ErrSlotLocked", err)
	}
}

func TestReserve_BlockedAndMissingSlots(t *testing.T) {
	m, repo, slotID := newReservationManager(t, 1)
	ctx := context.Background()

	if err := repo.SetBlocked(ctx, slotID, true); err != nil {
		t.Fatalf("blocking slot: %v", err)
	}
	if _, err := m.Reserve(ctx, slotID, "appt-1", "pat-1"); !errors.Is(err, ErrSlotUnavailable) {
		t.Errorf("blocked slot error = %v, want ErrSlotUnavailable", err)
	}
	if _, err := m.Reserve(ctx, "no-such-slot", "appt-1", "pat-1"); !errors.Is(err, ErrSlotNotFound) {
		t.Errorf("missing slot error = %v, want ErrSlotNotFound", err)
	}
}

// ---------- Release and Confirm ----------

func TestRelease_IsIdempotent(t *testing.T) {
	m, repo, slotID := newReservationManager(t, 1)
	ctx := context.Background()

	if _, err := m.Reserve(ctx, slotID, "appt-1", "pat-1"); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if released, err := m.Release(ctx, slotID, "appt-1"); err != nil || !released {
		t.Fatalf("first release = %v, %v; want true, nil", released, err)
	}
	// Second release finds no row and must not touch occupancy.
	if released, err := m.Release(ctx, slotID, "appt-1"); err != nil || released {
		t.Fatalf("second release = %v, %v; want false, nil", released, err)
	}
	if got := occupancy(t, repo, slotID); got != 0 {
		t.Errorf("occupancy = %d, want 0", got)
	}
}

func TestConfirm_KeepsSeatCounted(t *testing.T) {
	m, repo, slotID := newReservationManager(t, 1)
	ctx := context.Background()

	if _, err := m.Reserve(ctx, slotID, "appt-1", "pat-1"); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := m.Confirm(ctx, slotID, "appt-1"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got := occupancy(t, repo, slotID); got != 1 {
		t.Fatalf("occupancy after confirm = %d, want 1", got)
	}

	// The hold row is gone, so a stray release is a no-op and the seat
	// stays with the confirmed appointment.
	if released, err := m.Release(ctx, slotID, "appt-1"); err != nil || released {
		t.Fatalf("release after confirm = %v, %v; want false, nil", released, err)
	}
	if got := occupancy(t, repo, slotID); got != 1 {
		t.Errorf("occupancy after stray release = %d, want 1", got)
	}
}

func TestReleaseConfirmed_FreesSeat(t *testing.T) {
	m, repo, slotID := newReservationManager(t, 1)
	ctx := context.Background()

	if _, err := m.Reserve(ctx, slotID, "appt-1", "pat-1"); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := m.Confirm(ctx, slotID, "appt-1"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := m.ReleaseConfirmed(ctx, slotID, "appt-1"); err != nil {
		t.Fatalf("release confirmed: %v", err)
	}
	if got := occupancy(t, repo, slotID); got != 0 {
		t.Errorf("occupancy = %d, want 0", got)
	}
}
