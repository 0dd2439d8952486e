package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cognibank/cognibank/internal/auth"
	"github.com/cognibank/cognibank/internal/rpcerr"
	"github.com/cognibank/cognibank/pkg/metrics"
)

// SignUpRequest carries the credentials plus an opaque extra payload that the
// user directory validates (not the auth service).
type SignUpRequest struct {
	Email    string          `json:"email" binding:"required"`
	Password string          `json:"password" binding:"required"`
	Extra    json.RawMessage `json:"extra"`
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// AuthHandler exposes the auth service RPCs
type AuthHandler struct {
	svc *auth.Service
}

func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register routes under /auth
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.POST("/signUp", h.SignUp)
	a.POST("/signIn", h.SignIn)
	a.POST("/refreshToken", h.RefreshToken)
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		rpcerr.Abort(c, rpcerr.Wrap(rpcerr.InvalidArgument, "malformed signUp request", err))
		return
	}
	userID, err := h.svc.SignUp(c.Request.Context(), req.Email, req.Password, req.Extra)
	if err != nil {
		rpcerr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": userID})
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		rpcerr.Abort(c, rpcerr.Wrap(rpcerr.InvalidArgument, "malformed signIn request", err))
		return
	}
	res, err := h.svc.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		metrics.SignIns.WithLabelValues("error").Inc()
		rpcerr.Abort(c, err)
		return
	}
	if res.Status != auth.StatusSuccess {
		// a normal outcome, not an error: bad credentials answer 200
		metrics.SignIns.WithLabelValues("failure").Inc()
		c.JSON(http.StatusOK, gin.H{"status": auth.StatusFailure})
		return
	}
	metrics.SignIns.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, gin.H{
		"status":    auth.StatusSuccess,
		"tokenInfo": res.TokenInfo,
		"me":        res.Me,
	})
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		rpcerr.Abort(c, rpcerr.Wrap(rpcerr.InvalidArgument, "malformed refreshToken request", err))
		return
	}
	tokenInfo, err := h.svc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		rpcerr.Abort(c, err)
		return
	}
	metrics.TokenRefreshes.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, tokenInfo)
}
