package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"course-commerce/internal/domain/ports/repository"
	"course-commerce/internal/infra/metrics"
	"course-commerce/internal/usecase"
)

// PaymentReconciler periodically scans for stale pending payments and tries
// to finalize them by calling PaymentUseCase.Verify(reference). This covers
// payers who never returned through the gateway redirect and processes that
// crashed mid-verification. Verify is idempotent, so racing the redirect
// handler is harmless.
type PaymentReconciler struct {
	uc         usecase.PaymentUseCase
	payments   repository.PaymentRepository
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a pending payment must be to retry
	log        *zerolog.Logger
}

func NewPaymentReconciler(uc usecase.PaymentUseCase, payments repository.PaymentRepository, interval, staleAfter time.Duration, logger *zerolog.Logger) *PaymentReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	compLog := logger.With().Str("component", "PaymentReconciler").Logger()
	return &PaymentReconciler{uc: uc, payments: payments, interval: interval, staleAfter: staleAfter, log: &compLog}
}

func (w *PaymentReconciler) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *PaymentReconciler) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	pending, err := w.payments.ListPendingOlderThan(ctx, nil, cutoff, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("list pending error")
		return
	}
	for _, p := range pending {
		if p.Reference == "" {
			continue
		}
		outcome, err := w.uc.Verify(ctx, p.Reference)
		if err != nil {
			metrics.IncReconcile("error")
			w.log.Warn().Err(err).Str("payment", p.ID).Str("reference", p.Reference).Msg("reconcile verify failed")
			continue
		}
		if outcome.Settled {
			metrics.IncReconcile("settled")
		} else {
			metrics.IncReconcile("noop")
		}
		w.log.Info().Str("payment", p.ID).Str("status", string(outcome.Payment.Status)).Msg("reconciled payment")
	}
}
