// File: database/repository/appointment/transitions.go
package appointmentRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/roza-in/server/models"
)

// TransitionStatus applies one status move with the expected current status
// inside the filter. Mongo matches and updates a single document atomically,
// so of all concurrent movers (payment confirmation, cancellation, the
// expiry sweep) exactly one wins; the rest get ErrStaleTransition.
func (r *mongoAppointmentRepo) TransitionStatus(ctx context.Context, p TransitionParams) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": p.ID, "status": p.From}

	set := bson.M{
		"status":     p.To,
		"updated_at": p.At,
	}
	if p.CancelActor != "" {
		set["cancel_actor"] = p.CancelActor
		set["cancel_reason"] = p.Reason
	}
	if p.To == models.StatusCheckedIn {
		set["checked_in_at"] = p.At
	}
	change := models.StatusChange{
		From:   p.From,
		To:     p.To,
		Actor:  p.Actor,
		Reason: p.Reason,
		At:     p.At,
	}
	update := bson.M{
		"$set":  set,
		"$push": bson.M{"history": change},
		"$inc":  bson.M{"version": 1},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to transition appointment %s: %w", p.ID, err)
	}
	if res.MatchedCount == 0 {
		return ErrStaleTransition
	}
	return nil
}

// SwapSlot repoints an appointment at a new slot, guarded by the status and
// slot the caller last observed. The status itself does not change; the
// history entry records the move for the audit trail.
func (r *mongoAppointmentRepo) SwapSlot(ctx context.Context, p SlotSwapParams) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":      p.ID,
		"status":  p.ExpectStatus,
		"slot_id": p.ExpectSlotID,
	}

	set := bson.M{
		"slot_id":           p.NewSlot.ID,
		"date":              p.NewSlot.Date,
		"start":             p.NewSlot.Start,
		"end":               p.NewSlot.End,
		"consultation_type": p.NewSlot.ConsultationType,
		"reservation_token": p.ReservationToken,
		"updated_at":        p.At,
	}
	if p.AdoptFee {
		set["fee"] = p.NewSlot.Fee
		set["platform_fee"] = p.PlatformFee
		set["currency"] = p.NewSlot.Currency
	}
	change := models.StatusChange{
		From:   p.ExpectStatus,
		To:     p.ExpectStatus,
		Actor:  p.Actor,
		Reason: fmt.Sprintf("rescheduled from slot %s to slot %s", p.ExpectSlotID, p.NewSlot.ID),
		At:     p.At,
	}
	update := bson.M{
		"$set":  set,
		"$push": bson.M{"history": change},
		"$inc":  bson.M{"version": 1},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to swap slot on appointment %s: %w", p.ID, err)
	}
	if res.MatchedCount == 0 {
		return ErrStaleTransition
	}
	return nil
}

// ListConfirmedStartedBefore returns confirmed appointments whose start lies
// strictly in the past relative to (date, startBefore). The no-show sweep
// feeds on this.
func (r *mongoAppointmentRepo) ListConfirmedStartedBefore(ctx context.Context, date string, startBefore int, limit int64) ([]models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"status": models.StatusConfirmed,
		"$or": bson.A{
			bson.M{"date": bson.M{"$lt": date}},
			bson.M{"date": date, "start": bson.M{"$lt": startBefore}},
		},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: 1}, {Key: "start", Value: 1}}).
		SetLimit(limit)

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue confirmed appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.Appointment
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("error decoding appointments: %w", err)
	}
	return out, nil
}
