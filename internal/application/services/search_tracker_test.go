package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthconnect/backend/internal/application/services"
	"github.com/healthconnect/backend/internal/domain/entities"
)

func TestSearchTracker_PublishesLatest(t *testing.T) {
	tracker := services.NewSearchTracker(time.Minute)

	result, err := tracker.Run(context.Background(), "session-1", func(ctx context.Context) (*entities.SearchResult, error) {
		return &entities.SearchResult{RadiusMeters: 5000}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), result.Generation)

	latest, ok := tracker.Latest("session-1")
	require.True(t, ok)
	assert.Same(t, result, latest)

	_, ok = tracker.Latest("session-2")
	assert.False(t, ok)
}

func TestSearchTracker_StaleSearchCannotOverwriteNewer(t *testing.T) {
	tracker := services.NewSearchTracker(time.Minute)

	slowStarted := make(chan struct{})
	releaseSlow := make(chan struct{})
	slowDone := make(chan error, 1)

	go func() {
		_, err := tracker.Run(context.Background(), "session-1", func(ctx context.Context) (*entities.SearchResult, error) {
			close(slowStarted)
			<-releaseSlow
			// Ignores cancellation to model a provider that answers late.
			return &entities.SearchResult{RadiusMeters: 1000}, nil
		})
		slowDone <- err
	}()
	<-slowStarted

	fast, err := tracker.Run(context.Background(), "session-1", func(ctx context.Context) (*entities.SearchResult, error) {
		return &entities.SearchResult{RadiusMeters: 25000}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), fast.Generation)

	close(releaseSlow)
	assert.ErrorIs(t, <-slowDone, services.ErrStaleSearch)

	latest, ok := tracker.Latest("session-1")
	require.True(t, ok)
	assert.Equal(t, 25000, latest.RadiusMeters)
}

func TestSearchTracker_NewSearchCancelsPrevious(t *testing.T) {
	tracker := services.NewSearchTracker(time.Minute)

	started := make(chan struct{})
	firstDone := make(chan error, 1)

	go func() {
		_, err := tracker.Run(context.Background(), "session-1", func(ctx context.Context) (*entities.SearchResult, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		})
		firstDone <- err
	}()
	<-started

	_, err := tracker.Run(context.Background(), "session-1", func(ctx context.Context) (*entities.SearchResult, error) {
		return &entities.SearchResult{}, nil
	})
	require.NoError(t, err)

	select {
	case err := <-firstDone:
		assert.ErrorIs(t, err, services.ErrStaleSearch)
	case <-time.After(2 * time.Second):
		t.Fatal("first search was not cancelled")
	}
}

func TestSearchTracker_SessionsAreIndependent(t *testing.T) {
	tracker := services.NewSearchTracker(time.Minute)

	_, err := tracker.Run(context.Background(), "a", func(ctx context.Context) (*entities.SearchResult, error) {
		return &entities.SearchResult{RadiusMeters: 1000}, nil
	})
	require.NoError(t, err)
	_, err = tracker.Run(context.Background(), "b", func(ctx context.Context) (*entities.SearchResult, error) {
		return &entities.SearchResult{RadiusMeters: 2000}, nil
	})
	require.NoError(t, err)

	a, _ := tracker.Latest("a")
	b, _ := tracker.Latest("b")
	assert.Equal(t, 1000, a.RadiusMeters)
	assert.Equal(t, 2000, b.RadiusMeters)
}

func TestSearchTracker_ErrorKeepsPreviousResult(t *testing.T) {
	tracker := services.NewSearchTracker(time.Minute)

	_, err := tracker.Run(context.Background(), "s", func(ctx context.Context) (*entities.SearchResult, error) {
		return &entities.SearchResult{RadiusMeters: 5000}, nil
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = tracker.Run(context.Background(), "s", func(ctx context.Context) (*entities.SearchResult, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	latest, ok := tracker.Latest("s")
	require.True(t, ok)
	assert.Equal(t, 5000, latest.RadiusMeters)
}
