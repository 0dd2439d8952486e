package auth

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/cognibank/cognibank/internal/models"
	"github.com/cognibank/cognibank/internal/rpcerr"
	"github.com/cognibank/cognibank/internal/users"
	"github.com/cognibank/cognibank/pkg/logger"
)

// Sign-in status values on the wire.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// SignInResult is the sign-in outcome. A failure (unknown email, wrong
// password) is a normal result, not an error: TokenInfo and Me are nil and
// Status is StatusFailure.
type SignInResult struct {
	Status    string
	TokenInfo *TokenInfo
	Me        *models.MeInfo
}

// Service implements the auth RPC surface (signUp, signIn, refreshToken) by
// composing an IdentityProvider with the user directory.
type Service struct {
	provider  IdentityProvider
	directory users.Directory
}

func NewService(provider IdentityProvider, directory users.Directory) *Service {
	return &Service{provider: provider, directory: directory}
}

// SignUp creates the user record and registers its credential with the
// identity provider. The directory validates the extra payload and assigns
// the immutable user ID, which is also the provider-side login identifier.
func (s *Service) SignUp(ctx context.Context, email, password string, extra json.RawMessage) (string, error) {
	u, err := s.directory.CreateFromSignUp(ctx, email, extra)
	if err != nil {
		return "", err
	}
	if err := s.provider.Register(ctx, u, password); err != nil {
		return "", err
	}
	logger.Infof("signed up user %s", u.ID)
	return u.ID, nil
}

// SignIn looks up the user by email and verifies the credential with the
// identity provider. Unknown email and rejected credentials both come back as
// a failure result; provider errors (unavailable, contract violations)
// propagate as typed errors.
func (s *Service) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	u, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		logger.Warnf("sign-in: no user with email %s", email)
		return &SignInResult{Status: StatusFailure}, nil
	}

	tokenInfo, err := s.provider.SignIn(ctx, u.ID, password)
	if err != nil {
		if errors.Is(err, ErrCredentialsRejected) {
			logger.Warnf("sign-in: credentials rejected for user %s", u.ID)
			return &SignInResult{Status: StatusFailure}, nil
		}
		return nil, err
	}
	if tokenInfo.RefreshToken == "" {
		return nil, rpcerr.New(rpcerr.Internal, "identity provider issued no refresh token at sign-in")
	}

	me := s.directory.MeInfo(u)
	return &SignInResult{Status: StatusSuccess, TokenInfo: tokenInfo, Me: &me}, nil
}

// RefreshToken exchanges a refresh token for a new access token. The refresh
// token in the result is the one the caller presented, verbatim.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*TokenInfo, error) {
	tokenInfo, err := s.provider.Refresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrCredentialsRejected) {
			return nil, rpcerr.Wrap(rpcerr.Unauthenticated, "cannot refresh token", err)
		}
		return nil, err
	}
	if tokenInfo.RefreshToken != refreshToken {
		return nil, rpcerr.New(rpcerr.Internal, "identity provider swapped the refresh token on refresh")
	}
	return tokenInfo, nil
}
