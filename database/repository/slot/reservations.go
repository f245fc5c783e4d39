// File: database/repository/slot/reservations.go
package slotRepo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/roza-in/server/models"
)

// InsertReservation records a hold. The unique (slot_id, holder_token)
// index turns a concurrent duplicate into ErrDuplicateHold instead of a
// second counted row.
func (r *mongoSlotRepo) InsertReservation(ctx context.Context, res models.Reservation) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	if _, err := r.reservations.InsertOne(ctx, res); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateHold
		}
		return fmt.Errorf("failed to insert reservation: %w", err)
	}
	return nil
}

func (r *mongoSlotRepo) GetReservation(ctx context.Context, slotID, holderToken string) (*models.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var res models.Reservation
	filter := bson.M{"slot_id": slotID, "holder_token": holderToken}
	if err := r.reservations.FindOne(ctx, filter).Decode(&res); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch reservation: %w", err)
	}
	return &res, nil
}

// DeleteReservation removes a hold and reports whether a row actually went
// away. Callers must only release the seat when it did; that keeps release
// idempotent and immune to foreign tokens.
func (r *mongoSlotRepo) DeleteReservation(ctx context.Context, slotID, holderToken string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"slot_id": slotID, "holder_token": holderToken}
	res, err := r.reservations.DeleteOne(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to delete reservation: %w", err)
	}
	return res.DeletedCount == 1, nil
}

func (r *mongoSlotRepo) ListExpiredReservations(ctx context.Context, now time.Time, limit int64) ([]models.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "expires_at", Value: 1}}).
		SetLimit(limit)
	cursor, err := r.reservations.Find(ctx, bson.M{"expires_at": bson.M{"$lte": now}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired reservations: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.Reservation
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("error decoding reservations: %w", err)
	}
	return out, nil
}

func (r *mongoSlotRepo) CountLiveReservations(ctx context.Context, slotID string, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"slot_id": slotID, "expires_at": bson.M{"$gt": now}}
	n, err := r.reservations.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count live reservations: %w", err)
	}
	return n, nil
}

// CountHolds counts every reservation row on a slot, expired or not. The
// difference against CountLiveReservations tells a failed reserve whether
// seats are merely awaiting the expiry sweep.
func (r *mongoSlotRepo) CountHolds(ctx context.Context, slotID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n, err := r.reservations.CountDocuments(ctx, bson.M{"slot_id": slotID})
	if err != nil {
		return 0, fmt.Errorf("failed to count reservations: %w", err)
	}
	return n, nil
}
