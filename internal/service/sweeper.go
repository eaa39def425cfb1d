package service

import (
	"Cookbook/internal/repo"
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper периодически чистит временное хранилище медиа.
type Sweeper struct {
	media    *MediaService
	drafts   repo.DraftRepository
	maxAge   time.Duration
	interval time.Duration
	logger   *zap.SugaredLogger
}

func NewSweeper(media *MediaService, drafts repo.DraftRepository, maxAge, interval time.Duration, logger *zap.SugaredLogger) *Sweeper {
	return &Sweeper{media: media, drafts: drafts, maxAge: maxAge, interval: interval, logger: logger}
}

// Run блокируется до отмены ctx.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// draftExists: объекты под drafts/{id}/ с id не в формате UUID черновику принадлежать не могут.
func (s *Sweeper) draftExists(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	return s.drafts.Exists(ctx, id)
}

// SweepOnce выполняет один проход очистки.
func (s *Sweeper) SweepOnce(ctx context.Context) int {
	n, err := s.media.SweepTemp(ctx, s.maxAge, s.draftExists)
	if err != nil {
		s.logger.Warnw("temp sweep failed", "deleted", n, "error", err)
		return n
	}
	if n > 0 {
		s.logger.Infow("temp sweep done", "deleted", n)
	}
	return n
}
