// FILE: database/repository/schedule/indexes.go
package scheduleRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the schedule collections.
func (r *mongoScheduleRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	scheduleIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "doctor_id", Value: 1}, {Key: "day_of_week", Value: 1}},
			Options: options.Index().SetName("doctor_day_idx"),
		},
	}
	if _, err := r.schedules.Indexes().CreateMany(ctx, scheduleIndexes); err != nil {
		return fmt.Errorf("failed to create schedule indexes: %w", err)
	}

	overrideIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// One override per doctor-day keeps precedence unambiguous.
		{
			Keys:    bson.D{{Key: "doctor_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("doctor_date_unique"),
		},
	}
	if _, err := r.overrides.Indexes().CreateMany(ctx, overrideIndexes); err != nil {
		return fmt.Errorf("failed to create override indexes: %w", err)
	}
	return nil
}
