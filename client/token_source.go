package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/cognibank/cognibank/internal/auth"
	"github.com/cognibank/cognibank/pkg/rfc3339"
)

// ErrNotAuthenticated is returned for protected calls before a successful
// sign-in seeded the token source.
var ErrNotAuthenticated = errors.New("not authenticated")

// DefaultStalenessOffset refreshes the token around 10 minutes before it
// actually expires (Cognito tokens live about an hour). Set a very large
// offset to force a refresh on every call, e.g. to exercise the refresh path.
const DefaultStalenessOffset = 10 * time.Minute

// RefreshFunc exchanges a refresh token for a new token bundle.
type RefreshFunc func(ctx context.Context, refreshToken string) (*auth.TokenInfo, error)

// TokenSource hands out the current access token for outgoing protected
// calls, refreshing it first when now + offset has reached the expiry date.
// Concurrent callers hitting a stale token collapse into a single refresh
// call; if that refresh fails, every waiter gets the failure.
type TokenSource struct {
	refresh RefreshFunc
	offset  time.Duration
	now     func() time.Time

	group singleflight.Group

	mu        sync.RWMutex
	tokenInfo *auth.TokenInfo
	expiry    time.Time
}

func NewTokenSource(refresh RefreshFunc, offset time.Duration) *TokenSource {
	return &TokenSource{refresh: refresh, offset: offset, now: time.Now}
}

// Authenticate seeds the session state from a sign-in (or refresh) result.
func (s *TokenSource) Authenticate(tokenInfo *auth.TokenInfo) error {
	expiry, err := rfc3339.Parse(tokenInfo.ExpiryDate)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.tokenInfo = tokenInfo
	s.expiry = expiry
	s.mu.Unlock()
	return nil
}

// Token returns a fresh access token, refreshing single-flight when stale.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	tokenInfo, expiry := s.tokenInfo, s.expiry
	s.mu.RUnlock()
	if tokenInfo == nil {
		return "", ErrNotAuthenticated
	}
	if s.fresh(expiry) {
		return tokenInfo.AccessToken, nil
	}

	v, err, _ := s.group.Do("refresh", func() (interface{}, error) {
		// re-check: a flight that completed while we queued may already
		// have installed a fresh token
		s.mu.RLock()
		current, expiry := s.tokenInfo, s.expiry
		s.mu.RUnlock()
		if current == nil {
			return nil, ErrNotAuthenticated
		}
		if s.fresh(expiry) {
			return current.AccessToken, nil
		}
		refreshed, err := s.refresh(ctx, current.RefreshToken)
		if err != nil {
			return nil, err
		}
		if err := s.Authenticate(refreshed); err != nil {
			return nil, err
		}
		return refreshed.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// fresh reports whether a token with the given expiry can still be attached
// without refreshing first.
func (s *TokenSource) fresh(expiry time.Time) bool {
	return s.now().Add(s.offset).Before(expiry)
}
