// File: database/repository/schedule/overrides.go
package scheduleRepo

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

func (r *mongoScheduleRepo) CreateOverride(ctx context.Context, ov models.ScheduleOverride) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if ov.ID == "" {
		ov.ID = uuid.New().String()
	}
	ov.CreatedAt = time.Now().UTC()

	if _, err := r.overrides.InsertOne(ctx, ov); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrOverrideExists
		}
		return "", fmt.Errorf("failed to insert override: %w", err)
	}
	return ov.ID, nil
}

// DeleteOverride removes an override and returns the deleted row so the
// caller can re-materialize the date it covered.
func (r *mongoScheduleRepo) DeleteOverride(ctx context.Context, overrideID string) (*models.ScheduleOverride, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var ov models.ScheduleOverride
	err := r.overrides.FindOneAndDelete(ctx, bson.M{"id": overrideID}).Decode(&ov)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrOverrideNotFound
		}
		return nil, fmt.Errorf("failed to delete override: %w", err)
	}
	return &ov, nil
}

func (r *mongoScheduleRepo) GetOverride(ctx context.Context, doctorID, date string) (*models.ScheduleOverride, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var ov models.ScheduleOverride
	err := r.overrides.FindOne(ctx, bson.M{"doctor_id": doctorID, "date": date}).Decode(&ov)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch override: %w", err)
	}
	return &ov, nil
}

func (r *mongoScheduleRepo) GetOverridesInRange(ctx context.Context, doctorID, fromDate, toDate string) ([]models.ScheduleOverride, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"doctor_id": doctorID,
		"date":      bson.M{"$gte": fromDate, "$lte": toDate},
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	cursor, err := r.overrides.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch overrides: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.ScheduleOverride
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("error decoding overrides: %w", err)
	}
	return out, nil
}
