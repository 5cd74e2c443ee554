package services

import (
	"context"
	"log"
	"time"
)

type messagePurger interface {
	PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// CleanupService bulk-deletes messages older than the configured TTL on a
// fixed interval. It runs outside the request path; row deletion may race
// with concurrent hide/read updates, which simply no-op on deleted rows.
type CleanupService struct {
	store    messagePurger
	ttl      time.Duration
	interval time.Duration
}

func NewCleanupService(store messagePurger, ttl, interval time.Duration) *CleanupService {
	return &CleanupService{
		store:    store,
		ttl:      ttl,
		interval: interval,
	}
}

// Run blocks until ctx is cancelled, purging once per interval.
func (s *CleanupService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.purge(ctx)
		}
	}
}

func (s *CleanupService) purge(ctx context.Context) {
	deleted, err := s.store.PurgeOlderThan(ctx, s.ttl)
	if err != nil {
		log.Printf("message cleanup: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("message cleanup: deleted %d messages older than %s", deleted, s.ttl)
	}
}
