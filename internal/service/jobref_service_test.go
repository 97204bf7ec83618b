package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type jobRefSourceStub struct {
	max   int
	err   error
	calls int
}

func (s *jobRefSourceStub) MaxJobRef(ctx context.Context) (int, error) {
	s.calls++
	return s.max, s.err
}

func TestJobRefServiceStartsAtFloor(t *testing.T) {
	svc := NewJobRefService(26000, nil, &jobRefSourceStub{max: 0})

	ref, err := svc.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 26001, ref)
}

func TestJobRefServiceSeedsFromHighestSource(t *testing.T) {
	svc := NewJobRefService(26000, nil,
		&jobRefSourceStub{max: 26110},
		&jobRefSourceStub{max: 27045},
		&jobRefSourceStub{max: 26900},
	)

	ref, err := svc.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 27046, ref)
}

func TestJobRefServiceSequential(t *testing.T) {
	svc := NewJobRefService(26000, nil, &jobRefSourceStub{max: 26005})

	first, err := svc.Next(context.Background())
	require.NoError(t, err)
	second, err := svc.Next(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 26006, first)
	assert.Equal(t, 26007, second)
}

func TestJobRefServiceSeedsOnce(t *testing.T) {
	source := &jobRefSourceStub{max: 26005}
	svc := NewJobRefService(26000, nil, source)

	for i := 0; i < 3; i++ {
		_, err := svc.Next(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 1, source.calls)
}

func TestJobRefServiceSeedFailure(t *testing.T) {
	source := &jobRefSourceStub{err: errors.New("connection refused")}
	svc := NewJobRefService(26000, nil, source)

	_, err := svc.Next(context.Background())
	require.Error(t, err)

	// A failed seed must not poison the counter; the next call retries.
	source.err = nil
	source.max = 26020
	ref, err := svc.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 26021, ref)
}
