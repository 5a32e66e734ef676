package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"course-commerce/internal/usecase"
)

// TokenPurgeWorker deletes expired action tokens so the table stays small.
// Consumption already rejects expired tokens; this is housekeeping only.
type TokenPurgeWorker struct {
	interval time.Duration
	tokenUC  *usecase.TokenUseCase
	log      *zerolog.Logger
}

func NewTokenPurgeWorker(interval time.Duration, tokenUC *usecase.TokenUseCase, logger *zerolog.Logger) *TokenPurgeWorker {
	compLog := logger.With().Str("component", "TokenPurgeWorker").Logger()
	return &TokenPurgeWorker{
		interval: interval,
		tokenUC:  tokenUC,
		log:      &compLog,
	}
}

func (w *TokenPurgeWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := w.tokenUC.PurgeExpired(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("token purge failed")
			}
			if n > 0 {
				w.log.Info().Int("count", n).Msg("expired tokens purged")
			}
		}
	}
}
