// File: database/repository/refund/crud.go
package refundRepo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/roza-in/server/models"
)

func (r *mongoRefundRepo) Create(ctx context.Context, rec models.RefundRecord) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, rec); err != nil {
		return "", fmt.Errorf("failed to insert refund record: %w", err)
	}
	return rec.ID, nil
}

func (r *mongoRefundRepo) GetByAppointment(ctx context.Context, appointmentID string) (*models.RefundRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var rec models.RefundRecord
	err := r.coll.FindOne(ctx, bson.M{"appointment_id": appointmentID}).Decode(&rec)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrRefundNotFound
		}
		return nil, fmt.Errorf("failed to fetch refund for appointment %s: %w", appointmentID, err)
	}
	return &rec, nil
}

func (r *mongoRefundRepo) SetStatus(ctx context.Context, refundID string, status models.RefundStatus, failureReason string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set := bson.M{"status": status, "updated_at": time.Now().UTC()}
	if failureReason != "" {
		set["failure_reason"] = failureReason
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": refundID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update refund status: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrRefundNotFound
	}
	return nil
}
