package auth

import "context"

// Claims are the authenticated-identity facts derived from a validated bearer
// token. They are rebuilt on every protected request and never persisted.
type Claims struct {
	UserID string
}

// ClaimsResolver turns an opaque bearer token into Claims or fails with an
// rpcerr-typed error (Unauthenticated for rejected/unknown tokens). Resolvers
// run on every protected request and must be read-only: a token referencing a
// user that no longer exists in the directory must fail, even if the token
// itself is still valid.
type ClaimsResolver interface {
	Resolve(ctx context.Context, token string) (*Claims, error)
}
