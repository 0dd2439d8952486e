package cognito

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/cognibank/cognibank/internal/auth"
	"github.com/cognibank/cognibank/internal/rpcerr"
	"github.com/cognibank/cognibank/internal/users"
)

// userIDClaim is the Cognito claim carrying the pool username, which is our
// immutable user ID.
const userIDClaim = "cognito:username"

// ClaimsResolver validates Cognito-issued ID tokens against the pool's
// published key set and audience, then re-checks that the referenced user
// still exists in the directory. It runs on every protected request and is
// read-only.
type ClaimsResolver struct {
	verifier  *oidc.IDTokenVerifier
	directory users.Directory
}

// NewClaimsResolver discovers the pool's OIDC configuration (JWKS included)
// from its well-known endpoint.
func NewClaimsResolver(ctx context.Context, cfg Config, directory users.Directory) (*ClaimsResolver, error) {
	provider, err := oidc.NewProvider(ctx, cfg.issuer())
	if err != nil {
		return nil, fmt.Errorf("failed to discover cognito OIDC configuration: %w", err)
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})
	return &ClaimsResolver{verifier: verifier, directory: directory}, nil
}

func (r *ClaimsResolver) Resolve(ctx context.Context, token string) (*auth.Claims, error) {
	idToken, err := r.verifier.Verify(ctx, token)
	if err != nil {
		return nil, rpcerr.Wrap(rpcerr.Unauthenticated, "invalid token", err)
	}

	var claims struct {
		Username string `json:"cognito:username"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, rpcerr.Wrap(rpcerr.Unauthenticated, "cannot parse token claims", err)
	}
	if claims.Username == "" {
		return nil, rpcerr.Newf(rpcerr.Unauthenticated, "%s is not set", userIDClaim)
	}

	u, err := r.directory.FindByID(ctx, claims.Username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, rpcerr.Newf(rpcerr.Unauthenticated, "expected user %s to exist", claims.Username)
	}
	return &auth.Claims{UserID: claims.Username}, nil
}
