package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// jobRefSource reports the highest job reference already allocated in one of
// the entity tables.
type jobRefSource interface {
	MaxJobRef(ctx context.Context) (int, error)
}

// JobRefService mints sequential job references shared across import
// shipments, export shipments and custom clearances. The counter is seeded
// from the database once and advances in memory; the mutex makes allocation
// safe under concurrent creates.
type JobRefService struct {
	sources []jobRefSource
	floor   int
	logger  *zap.Logger

	mu     sync.Mutex
	seeded bool
	last   int
}

// NewJobRefService constructs an allocator over the provided sources.
func NewJobRefService(floor int, logger *zap.Logger, sources ...jobRefSource) *JobRefService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobRefService{sources: sources, floor: floor, logger: logger}
}

// Next returns the next unused job reference.
func (s *JobRefService) Next(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.seeded {
		last := s.floor
		for _, source := range s.sources {
			max, err := source.MaxJobRef(ctx)
			if err != nil {
				return 0, fmt.Errorf("seed job ref counter: %w", err)
			}
			if max > last {
				last = max
			}
		}
		s.last = last
		s.seeded = true
		s.logger.Info("job ref counter seeded", zap.Int("last", last))
	}

	s.last++
	return s.last, nil
}
