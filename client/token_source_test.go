package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cognibank/cognibank/internal/auth"
	"github.com/cognibank/cognibank/pkg/rfc3339"
)

func tokenInfoExpiring(at time.Time) *auth.TokenInfo {
	return &auth.TokenInfo{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiryDate:   rfc3339.Format(at),
	}
}

func TestTokenSource_NotAuthenticated(t *testing.T) {
	s := NewTokenSource(func(ctx context.Context, rt string) (*auth.TokenInfo, error) {
		t.Fatal("refresh must not be called")
		return nil, nil
	}, DefaultStalenessOffset)

	_, err := s.Token(context.Background())
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestTokenSource_FreshTokenSkipsRefresh(t *testing.T) {
	var refreshes int32
	s := NewTokenSource(func(ctx context.Context, rt string) (*auth.TokenInfo, error) {
		atomic.AddInt32(&refreshes, 1)
		return nil, errors.New("unexpected refresh")
	}, time.Minute)

	require.NoError(t, s.Authenticate(tokenInfoExpiring(time.Now().Add(time.Hour))))

	tok, err := s.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "access-1", tok)
	require.EqualValues(t, 0, atomic.LoadInt32(&refreshes))
}

func TestTokenSource_StaleTokenRefreshes(t *testing.T) {
	var refreshes int32
	s := NewTokenSource(func(ctx context.Context, rt string) (*auth.TokenInfo, error) {
		atomic.AddInt32(&refreshes, 1)
		require.Equal(t, "refresh-1", rt)
		return &auth.TokenInfo{
			AccessToken:  "access-2",
			RefreshToken: "refresh-1",
			ExpiryDate:   rfc3339.Format(time.Now().Add(time.Hour)),
		}, nil
	}, time.Minute)

	// expires within the offset, so it counts as stale
	require.NoError(t, s.Authenticate(tokenInfoExpiring(time.Now().Add(time.Second))))

	tok, err := s.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "access-2", tok)

	// the refreshed token is installed: no second refresh
	tok, err = s.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "access-2", tok)
	require.EqualValues(t, 1, atomic.LoadInt32(&refreshes))
}

func TestTokenSource_RefreshFailurePropagates(t *testing.T) {
	boom := errors.New("refresh exploded")
	s := NewTokenSource(func(ctx context.Context, rt string) (*auth.TokenInfo, error) {
		return nil, boom
	}, time.Minute)
	require.NoError(t, s.Authenticate(tokenInfoExpiring(time.Now().Add(time.Second))))

	_, err := s.Token(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestTokenSource_InvalidExpiryDate(t *testing.T) {
	s := NewTokenSource(nil, time.Minute)
	err := s.Authenticate(&auth.TokenInfo{AccessToken: "a", RefreshToken: "r", ExpiryDate: "yesterday"})
	require.Error(t, err)
}

// Concurrent callers hitting a stale token must collapse into one refresh
// call, and all of them must end up with the refreshed token.
func TestTokenSource_SingleFlight(t *testing.T) {
	var refreshes int32
	s := NewTokenSource(func(ctx context.Context, rt string) (*auth.TokenInfo, error) {
		atomic.AddInt32(&refreshes, 1)
		time.Sleep(50 * time.Millisecond) // hold the flight open so callers pile up
		return &auth.TokenInfo{
			AccessToken:  "access-2",
			RefreshToken: rt,
			ExpiryDate:   rfc3339.Format(time.Now().Add(time.Hour)),
		}, nil
	}, time.Minute)
	require.NoError(t, s.Authenticate(tokenInfoExpiring(time.Now().Add(time.Second))))

	const callers = 25
	var wg sync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = s.Token(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, "access-2", tokens[i])
	}
	require.EqualValues(t, 1, atomic.LoadInt32(&refreshes))
}

// When the collapsed refresh fails, every waiter sees the failure.
func TestTokenSource_SingleFlightFailure(t *testing.T) {
	boom := errors.New("refresh exploded")
	var refreshes int32
	s := NewTokenSource(func(ctx context.Context, rt string) (*auth.TokenInfo, error) {
		atomic.AddInt32(&refreshes, 1)
		time.Sleep(50 * time.Millisecond)
		return nil, boom
	}, time.Minute)
	require.NoError(t, s.Authenticate(tokenInfoExpiring(time.Now().Add(time.Second))))

	const callers = 10
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Token(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.ErrorIs(t, errs[i], boom)
	}
	require.EqualValues(t, 1, atomic.LoadInt32(&refreshes))
}
