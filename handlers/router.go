package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/cognibank/cognibank/internal/auth"
	"github.com/cognibank/cognibank/internal/users"
	"github.com/cognibank/cognibank/pkg/middleware"
)

// RegisterRoutes mounts the RPC surface under /api: the public auth RPCs and
// the banking RPCs behind the claims-resolving auth middleware.
func RegisterRoutes(r *gin.Engine, svc *auth.Service, directory users.Directory, resolver middleware.ClaimsResolver) {
	api := r.Group("/api")
	NewAuthHandler(svc).Register(api)
	NewBankingHandler(directory).Register(api, middleware.Auth(resolver))
}

// NewRouter builds a bare engine with just the RPC routes. The server binary
// layers logging, CORS, metrics and rate limiting on top; tests use this
// directly.
func NewRouter(svc *auth.Service, directory users.Directory, resolver middleware.ClaimsResolver) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	RegisterRoutes(r, svc, directory, resolver)
	return r
}
