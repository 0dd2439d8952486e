package auth

import (
	"context"
	"errors"

	"github.com/cognibank/cognibank/internal/models"
)

// ErrCredentialsRejected reports that the identity provider rejected the
// presented credential (wrong password, unknown login, revoked refresh
// token). It is an expected outcome, distinct from the rpcerr taxonomy:
// sign-in turns it into a failure status, refresh into Unauthenticated.
var ErrCredentialsRejected = errors.New("credentials rejected")

// IdentityProvider abstracts the external identity backend. The login
// identifier is always the immutable user ID, never the email. Two
// implementations exist: cognito.Provider against AWS Cognito and
// testauth.Provider for hermetic end-to-end tests; callers must not be able
// to tell them apart except by the literal token values.
type IdentityProvider interface {
	// Register records the credential for a freshly created user. The
	// credential must be immediately usable: no out-of-band confirmation
	// step may be left pending.
	Register(ctx context.Context, u *models.User, password string) error

	// SignIn verifies the credential and issues a token bundle.
	// ErrCredentialsRejected when the provider turns the credential down;
	// rpcerr kinds (Unavailable, Internal) for everything else.
	SignIn(ctx context.Context, userID, password string) (*TokenInfo, error)

	// Refresh exchanges a still-valid refresh token for a fresh access
	// token. The returned bundle carries the original refresh token
	// verbatim. ErrCredentialsRejected when the refresh token is rejected.
	Refresh(ctx context.Context, refreshToken string) (*TokenInfo, error)
}
