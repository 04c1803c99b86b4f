package orders

import (
	"context"
	"errors"
	"strings"

	"github.com/lateeflat25-prog/9jabukabackend/internal/apperr"
	"github.com/lateeflat25-prog/9jabukabackend/internal/models"
)

// ParseStatus accepts only pending, accepted and rejected.
func ParseStatus(raw string) (models.OrderStatus, error) {
	status := models.OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case models.OrderPending, models.OrderAccepted, models.OrderRejected:
		return status, nil
	default:
		return "", apperr.New(apperr.KindInvalidStatus, "invalid status %q", raw)
	}
}

// Terminal reports whether no transition may leave status.
func Terminal(status models.OrderStatus) bool {
	return status == models.OrderAccepted || status == models.OrderRejected
}

// CheckTransition enforces pending -> accepted | rejected. Re-applying
// pending to a pending order is a no-op.
func CheckTransition(from, to models.OrderStatus) error {
	if Terminal(from) {
		return apperr.New(apperr.KindInvalidTransition, "order is already %s", from)
	}
	if from != models.OrderPending {
		return apperr.New(apperr.KindInvalidTransition, "unknown current status %q", from)
	}
	return nil
}

// StatusUpdater applies admin status changes.
type StatusUpdater struct {
	store Store
}

func NewStatusUpdater(store Store) *StatusUpdater {
	return &StatusUpdater{store: store}
}

// UpdateStatus moves order id to the requested status. Only the status field
// is written.
func (u *StatusUpdater) UpdateStatus(ctx context.Context, id, requested string) (*models.Order, error) {
	next, err := ParseStatus(requested)
	if err != nil {
		return nil, err
	}

	current, err := u.store.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.New(apperr.KindOrderNotFound, "order not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "order lookup failed")
	}

	if err := CheckTransition(current.Status, next); err != nil {
		return nil, err
	}
	if current.Status == next {
		return current, nil
	}

	updated, err := u.store.UpdateStatus(ctx, id, current.Status, next)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, apperr.New(apperr.KindOrderNotFound, "order not found")
	case errors.Is(err, ErrStatusConflict):
		// Another admin finished the order first; the only way out of pending
		// is into a terminal state.
		return nil, apperr.New(apperr.KindInvalidTransition, "order is no longer pending")
	case err != nil:
		return nil, apperr.Wrap(apperr.KindInternal, err, "order status update failed")
	}
	return updated, nil
}
