// File: services/booking/reservation.go
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	slotRepo "github.com/roza-in/server/database/repository/slot"
	"github.com/roza-in/server/models"
	"github.com/roza-in/server/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// reserveAttempts bounds the acquire loop. A second attempt only happens
// when the follow-up read saw capacity free up between our write and the
// read; anything more is the caller's retry to make.
const reserveAttempts = 2

// errHoldVanished reports that a duplicate hold disappeared between the
// failed insert and the read meant to return it. Internal to Reserve,
// which converts it into a fresh acquire attempt.
var errHoldVanished = errors.New("existing hold vanished")

// ReservationManager owns the seat-hold protocol: one conditional occupancy
// increment plus one reservation row per hold, both keyed so that racing
// processes can never oversell a slot or double-hold a seat. It keeps no
// state of its own; every instance of the service can run one.
type ReservationManager struct {
	Slots slotRepo.SlotRepository
	TTL   time.Duration
	Now   func() time.Time // injectable for tests
}

// NewReservationManager wires a manager with the given hold TTL.
func NewReservationManager(slots slotRepo.SlotRepository, ttl time.Duration) *ReservationManager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &ReservationManager{Slots: slots, TTL: ttl, Now: time.Now}
}

func (m *ReservationManager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// Reserve takes one seat of slotID on behalf of holderToken. On success the
// returned reservation is live until its ExpiresAt. Failure is classified:
// ErrSlotFull, ErrSlotLocked, ErrSlotUnavailable or ErrSlotNotFound. Calling
// again with the same holderToken while a hold is live returns that hold, so
// a crashed-and-retried booking never burns a second seat.
func (m *ReservationManager) Reserve(ctx context.Context, slotID, holderToken, patientID string) (*models.Reservation, error) {
	for attempt := 1; ; attempt++ {
		err := m.Slots.TryAcquireSeat(ctx, slotID)
		if err == nil {
			res, holdErr := m.insertHold(ctx, slotID, holderToken, patientID)
			if errors.Is(holdErr, errHoldVanished) {
				// Our earlier hold was released between the duplicate
				// insert and the follow-up read, so the seat it covered
				// is free again. Take it from the top.
				if attempt < reserveAttempts {
					continue
				}
				return nil, ErrSlotLocked
			}
			return res, holdErr
		}
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			return nil, ErrSlotNotFound
		}
		if !errors.Is(err, slotRepo.ErrSeatUnavailable) {
			return nil, fmt.Errorf("acquiring seat on slot %s: %w", slotID, err)
		}

		classified, retryable := m.classify(ctx, slotID)
		if retryable && attempt < reserveAttempts {
			continue
		}
		return nil, classified
	}
}

// insertHold records the reservation row behind a seat we already took. If
// the row can't be written the seat is handed back; if it can't be written
// because this holder already has one, the seat is handed back and the
// existing hold returned instead.
func (m *ReservationManager) insertHold(ctx context.Context, slotID, holderToken, patientID string) (*models.Reservation, error) {
	now := m.now().UTC()
	res := models.Reservation{
		ID:          uuid.New().String(),
		SlotID:      slotID,
		HolderToken: holderToken,
		PatientID:   patientID,
		ExpiresAt:   now.Add(m.TTL),
		CreatedAt:   now,
	}
	insErr := m.Slots.InsertReservation(ctx, res)
	if insErr == nil {
		return &res, nil
	}

	if relErr := m.Slots.ReleaseSeat(ctx, slotID); relErr != nil {
		utils.GetLogger().Error("seat rollback after failed hold insert",
			zap.String("slotId", slotID),
			zap.String("holder", holderToken),
			zap.Error(relErr))
	}
	if errors.Is(insErr, slotRepo.ErrDuplicateHold) {
		existing, getErr := m.Slots.GetReservation(ctx, slotID, holderToken)
		if getErr != nil {
			return nil, fmt.Errorf("reading existing hold on slot %s: %w", slotID, getErr)
		}
		if existing == nil {
			// A sweep or release deleted the duplicate before we could
			// read it back. Never hand a nil hold to the caller.
			return nil, errHoldVanished
		}
		return existing, nil
	}
	return nil, fmt.Errorf("recording hold on slot %s: %w", slotID, insErr)
}

// classify explains a lost acquire. retryable means the read shows a free
// seat now, so the conditional write is worth one more try.
func (m *ReservationManager) classify(ctx context.Context, slotID string) (error, bool) {
	slot, err := m.Slots.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			return ErrSlotNotFound, false
		}
		return fmt.Errorf("classifying full slot %s: %w", slotID, err), false
	}
	if slot.Blocked {
		return ErrSlotUnavailable, false
	}
	if slot.CurrentOccupancy < slot.MaxCapacity {
		// A release landed between our write and this read.
		return ErrSlotFull, true
	}

	holds, err := m.Slots.CountHolds(ctx, slotID)
	if err != nil {
		return ErrSlotFull, false
	}
	live, err := m.Slots.CountLiveReservations(ctx, slotID, m.now())
	if err != nil {
		return ErrSlotFull, false
	}
	if holds > live {
		// Part of the occupancy is expired holds the sweeper hasn't
		// reclaimed yet; a retry after the sweep interval can succeed.
		return ErrSlotLocked, false
	}
	return ErrSlotFull, false
}

// Confirm converts a hold into permanent occupancy: the reservation row is
// removed but the seat stays counted. Safe to repeat.
func (m *ReservationManager) Confirm(ctx context.Context, slotID, holderToken string) error {
	_, err := m.Slots.DeleteReservation(ctx, slotID, holderToken)
	return err
}

// Release gives a held seat back: the reservation row is removed and, only
// if a row was actually removed, occupancy is decremented. The guard makes
// Release idempotent and safe against tokens that never held the slot.
func (m *ReservationManager) Release(ctx context.Context, slotID, holderToken string) (bool, error) {
	deleted, err := m.Slots.DeleteReservation(ctx, slotID, holderToken)
	if err != nil {
		return false, err
	}
	if !deleted {
		return false, nil
	}
	if err := m.Slots.ReleaseSeat(ctx, slotID); err != nil {
		return false, fmt.Errorf("releasing seat on slot %s: %w", slotID, err)
	}
	return true, nil
}

// ReleaseConfirmed frees the seat behind a confirmed appointment being
// cancelled. Confirmation already removed the reservation row, so the seat
// is decremented unconditionally; any stale row left by a crashed confirm
// is cleared along the way.
func (m *ReservationManager) ReleaseConfirmed(ctx context.Context, slotID, holderToken string) error {
	if _, err := m.Slots.DeleteReservation(ctx, slotID, holderToken); err != nil {
		utils.GetLogger().Warn("stale hold cleanup before seat release",
			zap.String("slotId", slotID),
			zap.String("holder", holderToken),
			zap.Error(err))
	}
	return m.Slots.ReleaseSeat(ctx, slotID)
}
