// File: database/repository/schedule/crud.go
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

func (r *mongoScheduleRepo) Create(ctx context.Context, ws models.WeeklySchedule) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if ws.ID == "" {
		ws.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	ws.CreatedAt = now
	ws.UpdatedAt = now

	if _, err := r.schedules.InsertOne(ctx, ws); err != nil {
		return "", fmt.Errorf("failed to insert weekly schedule: %w", err)
	}
	return ws.ID, nil
}

func (r *mongoScheduleRepo) Update(ctx context.Context, ws models.WeeklySchedule) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	ws.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"day_of_week":       ws.DayOfWeek,
		"start":             ws.Start,
		"end":               ws.End,
		"break_start":       ws.BreakStart,
		"break_end":         ws.BreakEnd,
		"slot_duration":     ws.SlotDuration,
		"max_per_slot":      ws.MaxPerSlot,
		"consultation_type": ws.ConsultationType,
		"fee":               ws.Fee,
		"currency":          ws.Currency,
		"active":            ws.Active,
		"updated_at":        ws.UpdatedAt,
	}}

	res, err := r.schedules.UpdateOne(ctx, bson.M{"id": ws.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update weekly schedule: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

func (r *mongoScheduleRepo) Deactivate(ctx context.Context, scheduleID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"active": false, "updated_at": time.Now().UTC()}}
	res, err := r.schedules.UpdateOne(ctx, bson.M{"id": scheduleID}, update)
	if err != nil {
		return fmt.Errorf("failed to deactivate schedule: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

func (r *mongoScheduleRepo) GetByID(ctx context.Context, id string) (*models.WeeklySchedule, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var ws models.WeeklySchedule
	if err := r.schedules.FindOne(ctx, bson.M{"id": id}).Decode(&ws); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("failed to fetch schedule %s: %w", id, err)
	}
	return &ws, nil
}

func (r *mongoScheduleRepo) GetActiveByDoctor(ctx context.Context, doctorID string) ([]models.WeeklySchedule, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "day_of_week", Value: 1}, {Key: "start", Value: 1}})
	cursor, err := r.schedules.Find(ctx, bson.M{"doctor_id": doctorID, "active": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch doctor schedules: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.WeeklySchedule
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("error decoding schedules: %w", err)
	}
	return out, nil
}

// ListActiveDoctorIDs returns every doctor with at least one active weekly
// schedule. The nightly materialization walks this set.
func (r *mongoScheduleRepo) ListActiveDoctorIDs(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	values, err := r.schedules.Distinct(ctx, "doctor_id", bson.M{"active": true})
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled doctors: %w", err)
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if id, ok := v.(string); ok {
			out = append(out, id)
		}
	}
	return out, nil
}
