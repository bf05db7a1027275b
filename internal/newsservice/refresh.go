package newsservice

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/newsroll/internal/sse"
)

// Refresh drops the cached index, loads it again and announces the result.
// It returns the number of entries loaded.
func (s *Service) Refresh(ctx context.Context) (int, error) {
	key := s.settings.Key
	s.cache.Invalidate(key)
	entries, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("index refresh failed",
			slog.String("key", key.String()),
			slog.String("error", err.Error()))
		s.notify(sse.KindFailed)
		return 0, err
	}
	s.logger.Info("index refreshed",
		slog.String("key", key.String()),
		slog.Int("entries", len(entries)))
	s.notify(sse.KindRefreshed)
	return len(entries), nil
}

// IndexChanged invalidates the cached index after a change reported by a
// watcher and announces it with kind.
func (s *Service) IndexChanged(kind string) {
	s.cache.Invalidate(s.settings.Key)
	s.notify(kind)
}

func (s *Service) notify(kind string) {
	if s.notifier != nil {
		s.notifier.PublishIndexEvent(kind, s.settings.Key.String())
	}
}

// RunRefresher calls Refresh every interval until ctx is cancelled.
func (s *Service) RunRefresher(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_, _ = s.Refresh(ctx)
		}
	}
}
