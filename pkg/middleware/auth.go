package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cognibank/cognibank/internal/auth"
	"github.com/cognibank/cognibank/internal/rpcerr"
)

const claimsKey = "authClaims"

// ClaimsResolver is the minimal interface the middleware depends on
type ClaimsResolver interface {
	Resolve(ctx context.Context, token string) (*auth.Claims, error)
}

// Auth returns a Gin middleware that extracts the bearer token from the
// Authorization header, resolves it into claims, and injects the claims into
// the request context. Requests without a valid token never reach the
// handler.
func Auth(resolver ClaimsResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			rpcerr.Abort(c, rpcerr.New(rpcerr.Unauthenticated, "missing Authorization header"))
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			rpcerr.Abort(c, rpcerr.New(rpcerr.Unauthenticated, "invalid Authorization header"))
			return
		}

		claims, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			rpcerr.Abort(c, err)
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// ClaimsFrom returns the claims injected by Auth, or nil when the request
// did not pass through it.
func ClaimsFrom(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}
