package testauth

import (
	"context"

	"github.com/cognibank/cognibank/internal/auth"
	"github.com/cognibank/cognibank/internal/rpcerr"
	"github.com/cognibank/cognibank/internal/users"
)

// ClaimsResolver resolves bearer tokens issued by Provider: the token is the
// user ID. The directory existence check still runs on every request, so a
// token for a user that vanished is rejected just like in the Cognito case.
type ClaimsResolver struct {
	directory users.Directory
}

func NewClaimsResolver(directory users.Directory) *ClaimsResolver {
	return &ClaimsResolver{directory: directory}
}

func (r *ClaimsResolver) Resolve(ctx context.Context, token string) (*auth.Claims, error) {
	userID := token
	u, err := r.directory.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, rpcerr.Newf(rpcerr.Unauthenticated, "expected user %s to exist", userID)
	}
	return &auth.Claims{UserID: userID}, nil
}
