// File: database/repository/slot/queries.go
package slotRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/roza-in/server/models"
)

// ListOpen returns unblocked slots with spare capacity for a doctor over an
// inclusive date range, ordered by date then start.
func (r *mongoSlotRepo) ListOpen(ctx context.Context, doctorID, fromDate, toDate string) ([]models.Slot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"doctor_id": doctorID,
		"date":      bson.M{"$gte": fromDate, "$lte": toDate},
		"blocked":   false,
		"$expr":     bson.M{"$lt": bson.A{"$current_occupancy", "$max_capacity"}},
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "start", Value: 1}})

	cursor, err := r.slots.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list open slots: %w", err)
	}
	defer cursor.Close(ctx)

	var slots []models.Slot
	if err := cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("error decoding slots: %w", err)
	}
	return slots, nil
}
