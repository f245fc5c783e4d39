// File: services/booking/availability.go
package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roza-in/server/models"
	"github.com/roza-in/server/utils"

	"go.uber.org/zap"
)

// ListAvailableSlots returns a doctor's open slots over [fromDate, toDate].
// The range is lazily materialized first, so a doctor whose horizon hasn't
// been generated yet still shows a calendar. Results sit behind a short
// Redis cache; staleness is bounded by the cache TTL and resolved at
// booking time by the conditional seat write.
func (s *DefaultBookingService) ListAvailableSlots(ctx context.Context, doctorID, fromDate, toDate string) ([]models.AvailableSlot, error) {
	now := s.now().In(s.Location)
	today := now.Format(models.DateFormat)
	if fromDate == "" {
		fromDate = today
	}
	if toDate == "" {
		toDate = fromDate
	}
	if _, err := utils.ParseDate(fromDate, s.Location); err != nil {
		return nil, models.Invalidf("invalid from date %q: %v", fromDate, err)
	}
	if _, err := utils.ParseDate(toDate, s.Location); err != nil {
		return nil, models.Invalidf("invalid to date %q: %v", toDate, err)
	}
	if toDate < fromDate {
		return nil, models.Invalidf("date range is inverted: %s after %s", fromDate, toDate)
	}

	cacheKey := fmt.Sprintf("%s%s:%s:%s", utils.AvailabilityCachePrefix, doctorID, fromDate, toDate)
	if cached := s.cachedAvailability(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	if _, err := s.Materializer.EnsureRange(ctx, doctorID, fromDate, toDate); err != nil {
		return nil, fmt.Errorf("materializing slots for doctor %s: %w", doctorID, err)
	}

	slots, err := s.Slots.ListOpen(ctx, doctorID, fromDate, toDate)
	if err != nil {
		return nil, err
	}

	nowMinutes := now.Hour()*60 + now.Minute()
	out := make([]models.AvailableSlot, 0, len(slots))
	for _, slot := range slots {
		if slot.Date < today {
			continue
		}
		if slot.Date == today && slot.Start <= nowMinutes {
			continue
		}
		out = append(out, models.AvailableSlot{
			SlotID:           slot.ID,
			DoctorID:         slot.DoctorID,
			Date:             slot.Date,
			Start:            slot.Start,
			End:              slot.End,
			StartLabel:       utils.MinutesToClock(slot.Start),
			EndLabel:         utils.MinutesToClock(slot.End),
			Remaining:        slot.Remaining(),
			ConsultationType: slot.ConsultationType,
			Fee:              slot.Fee,
			Currency:         slot.Currency,
		})
	}

	s.storeAvailability(ctx, cacheKey, out)
	return out, nil
}

func (s *DefaultBookingService) cachedAvailability(ctx context.Context, key string) []models.AvailableSlot {
	if s.Cache == nil {
		return nil
	}
	raw, err := s.Cache.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	var out []models.AvailableSlot
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func (s *DefaultBookingService) storeAvailability(ctx context.Context, key string, slots []models.AvailableSlot) {
	if s.Cache == nil {
		return
	}
	b, err := json.Marshal(slots)
	if err != nil {
		return
	}
	if err := s.Cache.Set(ctx, key, b, utils.AvailabilityCacheTTL).Err(); err != nil {
		utils.GetLogger().Debug("availability cache write failed",
			zap.String("key", key), zap.Error(err))
	}
}

// invalidateAvailability drops cached reads for one doctor/date after a
// mutation. Best effort; the TTL bounds staleness anyway.
func (s *DefaultBookingService) invalidateAvailability(ctx context.Context, doctorID string) {
	if s.Cache == nil {
		return
	}
	pattern := utils.AvailabilityCachePrefix + doctorID + ":*"
	keys, err := s.Cache.Keys(ctx, pattern).Result()
	if err != nil || len(keys) == 0 {
		return
	}
	if err := s.Cache.Del(ctx, keys...).Err(); err != nil {
		utils.GetLogger().Debug("availability cache invalidate failed",
			zap.String("doctorId", doctorID), zap.Error(err))
	}
}

// reminderTime computes when the pre-appointment reminder should fire.
func (s *DefaultBookingService) reminderTime(appt models.Appointment) (time.Time, bool) {
	if s.ReminderLead <= 0 {
		return time.Time{}, false
	}
	startsAt, err := appt.StartsAt(s.Location)
	if err != nil {
		return time.Time{}, false
	}
	fireAt := startsAt.Add(-s.ReminderLead)
	if !fireAt.After(s.now()) {
		return time.Time{}, false
	}
	return fireAt, true
}
