// File: database/repository/slot/memory.go
package slotRepo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roza-in/server/models"
)

// memorySlotRepo is an in-process SlotRepository with the same conditional
// write semantics as the Mongo implementation. Service tests run against it
// so concurrency behavior can be exercised without a database.
type memorySlotRepo struct {
	mu           sync.Mutex
	slots        map[string]*models.Slot
	byKey        map[string]string // doctor|date|start -> slot id
	reservations map[string]models.Reservation
}

// NewMemorySlotRepo constructs an empty in-memory SlotRepository.
func NewMemorySlotRepo() SlotRepository {
	return &memorySlotRepo{
		slots:        make(map[string]*models.Slot),
		byKey:        make(map[string]string),
		reservations: make(map[string]models.Reservation),
	}
}

func slotKey(doctorID, date string, start int) string {
	return fmt.Sprintf("%s|%s|%d", doctorID, date, start)
}

func resKey(slotID, holderToken string) string {
	return slotID + "|" + holderToken
}

func (r *memorySlotRepo) UpsertGenerated(ctx context.Context, slots []models.Slot) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var created int64
	for _, slot := range slots {
		key := slotKey(slot.DoctorID, slot.Date, slot.Start)
		if _, exists := r.byKey[key]; exists {
			continue
		}
		if slot.ID == "" {
			slot.ID = uuid.New().String()
		}
		cp := slot
		r.slots[cp.ID] = &cp
		r.byKey[key] = cp.ID
		created++
	}
	return created, nil
}

func (r *memorySlotRepo) GetByID(ctx context.Context, slotID string) (*models.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.slots[slotID]
	if !ok {
		return nil, ErrSlotNotFound
	}
	cp := *slot
	return &cp, nil
}

func (r *memorySlotRepo) GetByDoctorAndDate(ctx context.Context, doctorID, date string) ([]models.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Slot
	for _, slot := range r.slots {
		if slot.DoctorID == doctorID && slot.Date == date {
			out = append(out, *slot)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

func (r *memorySlotRepo) ListOpen(ctx context.Context, doctorID, fromDate, toDate string) ([]models.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Slot
	for _, slot := range r.slots {
		if slot.DoctorID != doctorID || slot.Date < fromDate || slot.Date > toDate {
			continue
		}
		if slot.Available() {
			out = append(out, *slot)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Start < out[j].Start
	})
	return out, nil
}

func (r *memorySlotRepo) SetBlocked(ctx context.Context, slotID string, blocked bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.slots[slotID]
	if !ok {
		return ErrSlotNotFound
	}
	slot.Blocked = blocked
	slot.Version++
	slot.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memorySlotRepo) SetBlockedByDoctorDate(ctx context.Context, doctorID, date string, blocked bool) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, slot := range r.slots {
		if slot.DoctorID == doctorID && slot.Date == date && slot.Blocked != blocked {
			slot.Blocked = blocked
			slot.Version++
			n++
		}
	}
	return n, nil
}

func (r *memorySlotRepo) DeleteEmptyByDoctorDate(ctx context.Context, doctorID, date string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, slot := range r.slots {
		if slot.DoctorID == doctorID && slot.Date == date && slot.CurrentOccupancy == 0 {
			delete(r.slots, id)
			delete(r.byKey, slotKey(slot.DoctorID, slot.Date, slot.Start))
			n++
		}
	}
	return n, nil
}

func (r *memorySlotRepo) TryAcquireSeat(ctx context.Context, slotID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.slots[slotID]
	if !ok || slot.Blocked || slot.CurrentOccupancy >= slot.MaxCapacity {
		return ErrSeatUnavailable
	}
	slot.CurrentOccupancy++
	slot.Version++
	return nil
}

func (r *memorySlotRepo) ReleaseSeat(ctx context.Context, slotID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.slots[slotID]
	if !ok || slot.CurrentOccupancy <= 0 {
		return ErrSlotNotFound
	}
	slot.CurrentOccupancy--
	slot.Version++
	return nil
}

func (r *memorySlotRepo) InsertReservation(ctx context.Context, res models.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := resKey(res.SlotID, res.HolderToken)
	if _, exists := r.reservations[key]; exists {
		return ErrDuplicateHold
	}
	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	r.reservations[key] = res
	return nil
}

func (r *memorySlotRepo) GetReservation(ctx context.Context, slotID, holderToken string) (*models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.reservations[resKey(slotID, holderToken)]
	if !ok {
		return nil, nil
	}
	cp := res
	return &cp, nil
}

func (r *memorySlotRepo) DeleteReservation(ctx context.Context, slotID, holderToken string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := resKey(slotID, holderToken)
	if _, ok := r.reservations[key]; !ok {
		return false, nil
	}
	delete(r.reservations, key)
	return true, nil
}

func (r *memorySlotRepo) ListExpiredReservations(ctx context.Context, now time.Time, limit int64) ([]models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Reservation
	for _, res := range r.reservations {
		if res.Expired(now) {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memorySlotRepo) CountLiveReservations(ctx context.Context, slotID string, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, res := range r.reservations {
		if res.SlotID == slotID && !res.Expired(now) {
			n++
		}
	}
	return n, nil
}

func (r *memorySlotRepo) CountHolds(ctx context.Context, slotID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, res := range r.reservations {
		if res.SlotID == slotID {
			n++
		}
	}
	return n, nil
}
