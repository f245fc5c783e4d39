// File: database/repository/refund/memory.go
package refundRepo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roza-in/server/models"
)

type memoryRefundRepo struct {
	mu      sync.Mutex
	records map[string]*models.RefundRecord
}

// NewMemoryRefundRepo constructs an empty in-memory RefundRepository.
func NewMemoryRefundRepo() RefundRepository {
	return &memoryRefundRepo{records: make(map[string]*models.RefundRecord)}
}

func (r *memoryRefundRepo) Create(ctx context.Context, rec models.RefundRecord) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	cp := rec
	r.records[cp.ID] = &cp
	return cp.ID, nil
}

func (r *memoryRefundRepo) GetByAppointment(ctx context.Context, appointmentID string) (*models.RefundRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.records {
		if rec.AppointmentID == appointmentID {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, ErrRefundNotFound
}

func (r *memoryRefundRepo) SetStatus(ctx context.Context, refundID string, status models.RefundStatus, failureReason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[refundID]
	if !ok {
		return ErrRefundNotFound
	}
	rec.Status = status
	if failureReason != "" {
		rec.FailureReason = failureReason
	}
	rec.UpdatedAt = time.Now().UTC()
	return nil
}
