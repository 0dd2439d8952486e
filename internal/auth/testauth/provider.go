// Package testauth implements the identity provider and claims resolver
// without AWS Cognito, using a deterministic strategy where every user shares
// one password and the bearer token is literally the user ID. It keeps
// end-to-end flows fast and hermetic while honoring the exact same contract
// as the Cognito-backed variants.
package testauth

import (
	"context"
	"strings"
	"time"

	"github.com/cognibank/cognibank/internal/auth"
	"github.com/cognibank/cognibank/internal/models"
	"github.com/cognibank/cognibank/internal/rpcerr"
	"github.com/cognibank/cognibank/pkg/rfc3339"
)

// Config tunes the deterministic token scheme.
type Config struct {
	// Password shared by every user, in plain text.
	Password string

	// TokenLifespan bounds how long an issued access token stays fresh.
	TokenLifespan time.Duration

	// RefreshTokenPrefix makes refresh tokens `prefix + userID`.
	RefreshTokenPrefix string
}

func DefaultConfig() Config {
	return Config{
		Password:           "Password1;",
		TokenLifespan:      10 * time.Minute,
		RefreshTokenPrefix: "__refresh_token__",
	}
}

// Provider is the deterministic auth.IdentityProvider.
type Provider struct {
	cfg Config
	now func() time.Time
}

func NewProvider(cfg Config) *Provider {
	return &Provider{cfg: cfg, now: time.Now}
}

// Register is a no-op: there is no external credential store to populate.
func (p *Provider) Register(ctx context.Context, u *models.User, password string) error {
	return nil
}

func (p *Provider) SignIn(ctx context.Context, userID, password string) (*auth.TokenInfo, error) {
	if password != p.cfg.Password {
		return nil, auth.ErrCredentialsRejected
	}
	return p.tokenInfo(userID), nil
}

func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*auth.TokenInfo, error) {
	if !strings.HasPrefix(refreshToken, p.cfg.RefreshTokenPrefix) {
		return nil, rpcerr.Newf(rpcerr.InvalidArgument,
			"expected refresh token to start with %s", p.cfg.RefreshTokenPrefix)
	}
	userID := strings.TrimPrefix(refreshToken, p.cfg.RefreshTokenPrefix)
	return p.tokenInfo(userID), nil
}

func (p *Provider) tokenInfo(userID string) *auth.TokenInfo {
	return &auth.TokenInfo{
		AccessToken:  userID,
		RefreshToken: p.cfg.RefreshTokenPrefix + userID,
		ExpiryDate:   rfc3339.Format(p.now().Add(p.cfg.TokenLifespan)),
	}
}
