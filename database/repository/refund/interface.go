// File: database/repository/refund/interface.go
package refundRepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/roza-in/server/database"
	"github.com/roza-in/server/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrRefundNotFound means no refund row matched.
var ErrRefundNotFound = errors.New("refund not found")

// RefundRepository persists refund audit rows.
type RefundRepository interface {
	Create(ctx context.Context, rec models.RefundRecord) (string, error)
	GetByAppointment(ctx context.Context, appointmentID string) (*models.RefundRecord, error)
	SetStatus(ctx context.Context, refundID string, status models.RefundStatus, failureReason string) error
}

type mongoRefundRepo struct {
	coll *mongo.Collection
}

// NewMongoRefundRepo constructs a new MongoDB RefundRepository.
func NewMongoRefundRepo() RefundRepository {
	repo := &mongoRefundRepo{coll: database.DB().Collection("refunds")}
	if err := repo.EnsureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}
