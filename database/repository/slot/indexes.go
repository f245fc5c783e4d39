// FILE: database/repository/slot/indexes.go
package slotRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the slot collections.
// The unique (doctor_id, date, start) index is what makes regeneration an
// idempotent upsert; the unique (slot_id, holder_token) index is what stops
// one holder from double-counting against a slot.
func (r *mongoSlotRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slotIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "doctor_id", Value: 1}, {Key: "date", Value: 1}, {Key: "start", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("doctor_date_start_unique"),
		},
		{
			Keys:    bson.D{{Key: "doctor_id", Value: 1}, {Key: "date", Value: 1}, {Key: "blocked", Value: 1}},
			Options: options.Index().SetName("doctor_date_blocked_idx"),
		},
		{
			Keys:    bson.D{{Key: "hospital_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetName("hospital_date_idx"),
		},
	}
	if _, err := r.slots.Indexes().CreateMany(ctx, slotIndexes); err != nil {
		return fmt.Errorf("failed to create slot indexes: %w", err)
	}

	reservationIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slot_id", Value: 1}, {Key: "holder_token", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("slot_holder_unique"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("expires_at_idx"),
		},
	}
	if _, err := r.reservations.Indexes().CreateMany(ctx, reservationIndexes); err != nil {
		return fmt.Errorf("failed to create reservation indexes: %w", err)
	}
	return nil
}
