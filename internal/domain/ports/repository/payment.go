package repository

import (
	"context"
	"time"

	"course-commerce/internal/domain/model"
)

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	// FindByReference locks the row FOR UPDATE when called inside a transaction.
	FindByReference(ctx context.Context, tx Tx, reference string) (*model.Payment, error)
	// UpdateStatusIfPending transitions status only when the current status is
	// still pending. Returns false when another invocation already settled the
	// payment; the caller must then skip settlement side effects.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, status model.PaymentStatus, paidAt *time.Time) (bool, error)
	// ListPendingOlderThan feeds the reconciler.
	ListPendingOlderThan(ctx context.Context, tx Tx, cutoff time.Time, limit int) ([]*model.Payment, error)
}
