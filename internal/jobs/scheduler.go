package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"chirpnet/api/internal/config"
	"chirpnet/api/internal/service"
)

// Scheduler runs periodic maintenance. Refresh-token records are only
// deleted on logout, so anything older than the refresh TTL is dead
// weight and gets purged daily.
type Scheduler struct {
	cron   *cron.Cron
	tokens service.RefreshTokenStore
	cfg    *config.AppConfig
	log    zerolog.Logger
}

func NewScheduler(tokens service.RefreshTokenStore, cfg *config.AppConfig, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		tokens: tokens,
		cfg:    cfg,
		log:    log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 0 3 * * *", s.purgeExpiredRefreshTokens); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits briefly for a running purge to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) purgeExpiredRefreshTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-s.cfg.Security.RefreshToken.TTL)
	deleted, err := s.tokens.DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		s.log.Error().Err(err).Msg("refresh token purge failed")
		return
	}
	if deleted > 0 {
		s.log.Info().Int64("deleted", deleted).Msg("purged expired refresh tokens")
	}
}
