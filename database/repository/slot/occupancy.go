// File: database/repository/slot/occupancy.go
package slotRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// TryAcquireSeat increments occupancy with the capacity check inside the
// filter. Mongo applies the filter and the $inc atomically per document, so
// two racing callers can never both match a slot with one seat left.
func (r *mongoSlotRepo) TryAcquireSeat(ctx context.Context, slotID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":      slotID,
		"blocked": false,
		"$expr":   bson.M{"$lt": bson.A{"$current_occupancy", "$max_capacity"}},
	}
	update := bson.M{
		"$inc": bson.M{"current_occupancy": 1, "version": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	res, err := r.slots.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to acquire seat on slot %s: %w", slotID, err)
	}
	if res.MatchedCount == 0 {
		return ErrSeatUnavailable
	}
	return nil
}

// ReleaseSeat decrements occupancy, guarded so a stray double-release can
// never push the counter below zero.
func (r *mongoSlotRepo) ReleaseSeat(ctx context.Context, slotID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":                slotID,
		"current_occupancy": bson.M{"$gt": 0},
	}
	update := bson.M{
		"$inc": bson.M{"current_occupancy": -1, "version": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	res, err := r.slots.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to release seat on slot %s: %w", slotID, err)
	}
	if res.MatchedCount == 0 {
		return ErrSlotNotFound
	}
	return nil
}
