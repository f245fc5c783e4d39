// File: database/repository/slot/crud.go
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

// UpsertGenerated writes generated slots keyed by (doctor_id, date, start).
// Existing rows are left untouched so regeneration never resets occupancy
// or capacity on slots patients already booked. Returns how many new rows
// were created.
func (r *mongoSlotRepo) UpsertGenerated(ctx context.Context, slots []models.Slot) (int64, error) {
	if len(slots) == 0 {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	writes := make([]mongo.WriteModel, 0, len(slots))
	for _, slot := range slots {
		if slot.ID == "" {
			slot.ID = uuid.New().String()
		}
		filter := bson.M{
			"doctor_id": slot.DoctorID,
			"date":      slot.Date,
			"start":     slot.Start,
		}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(filter).
			SetUpdate(bson.M{"$setOnInsert": slot}).
			SetUpsert(true))
	}

	res, err := r.slots.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("failed to upsert generated slots: %w", err)
	}
	return res.UpsertedCount, nil
}

func (r *mongoSlotRepo) GetByID(ctx context.Context, slotID string) (*models.Slot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var slot models.Slot
	err := r.slots.FindOne(ctx, bson.M{"id": slotID}).Decode(&slot)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("failed to fetch slot %s: %w", slotID, err)
	}
	return &slot, nil
}

func (r *mongoSlotRepo) GetByDoctorAndDate(ctx context.Context, doctorID, date string) ([]models.Slot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}})
	cursor, err := r.slots.Find(ctx, bson.M{"doctor_id": doctorID, "date": date}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch slots: %w", err)
	}
	defer cursor.Close(ctx)

	var slots []models.Slot
	if err := cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("error decoding slots: %w", err)
	}
	return slots, nil
}

func (r *mongoSlotRepo) SetBlocked(ctx context.Context, slotID string, blocked bool) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{"blocked": blocked, "updated_at": time.Now().UTC()},
		"$inc": bson.M{"version": 1},
	}
	res, err := r.slots.UpdateOne(ctx, bson.M{"id": slotID}, update)
	if err != nil {
		return fmt.Errorf("failed to set block state for slot: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrSlotNotFound
	}
	return nil
}

// SetBlockedByDoctorDate flips every slot of a doctor-day, used when an
// override closes or reopens a date.
func (r *mongoSlotRepo) SetBlockedByDoctorDate(ctx context.Context, doctorID, date string, blocked bool) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{"blocked": blocked, "updated_at": time.Now().UTC()},
		"$inc": bson.M{"version": 1},
	}
	res, err := r.slots.UpdateMany(ctx, bson.M{"doctor_id": doctorID, "date": date}, update)
	if err != nil {
		return 0, fmt.Errorf("failed to block slots for %s on %s: %w", doctorID, date, err)
	}
	return res.ModifiedCount, nil
}

// DeleteEmptyByDoctorDate removes only unoccupied slots for a doctor-day.
// Occupied rows stay so existing appointments keep a slot to point at.
func (r *mongoSlotRepo) DeleteEmptyByDoctorDate(ctx context.Context, doctorID, date string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"doctor_id":         doctorID,
		"date":              date,
		"current_occupancy": 0,
	}
	res, err := r.slots.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete empty slots: %w", err)
	}
	return res.DeletedCount, nil
}
