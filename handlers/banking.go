package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cognibank/cognibank/internal/models"
	"github.com/cognibank/cognibank/internal/rpcerr"
	"github.com/cognibank/cognibank/internal/users"
	"github.com/cognibank/cognibank/pkg/metrics"
	"github.com/cognibank/cognibank/pkg/middleware"
)

type TransferRequest struct {
	ToUserID string `json:"toUserId" binding:"required"`
	Amount   int64  `json:"amount" binding:"required,gt=0"`
}

// BankingHandler implements the protected banking RPCs. The acting user is
// always the one in the resolved claims, never a client-supplied ID.
type BankingHandler struct {
	directory users.Directory
}

func NewBankingHandler(directory users.Directory) *BankingHandler {
	return &BankingHandler{directory: directory}
}

// Register routes under /banking, behind the given auth middleware.
func (h *BankingHandler) Register(rg *gin.RouterGroup, authmw gin.HandlerFunc) {
	b := rg.Group("/banking", authmw)
	b.POST("/getBalance", h.GetBalance)
	b.POST("/transfer", h.Transfer)
}

func (h *BankingHandler) GetBalance(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		rpcerr.Abort(c, rpcerr.New(rpcerr.Internal, "no auth claims on protected request"))
		return
	}
	u, err := h.directory.FindByID(c.Request.Context(), claims.UserID)
	if err != nil {
		rpcerr.Abort(c, err)
		return
	}
	if u == nil {
		// the token just validated against this user; its absence is an
		// invariant violation, not a normal client error
		rpcerr.Abort(c, rpcerr.Newf(rpcerr.NotFound, "user %s not found", claims.UserID))
		return
	}
	c.JSON(http.StatusOK, gin.H{"value": u.Balance})
}

func (h *BankingHandler) Transfer(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		rpcerr.Abort(c, rpcerr.New(rpcerr.Internal, "no auth claims on protected request"))
		return
	}
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		rpcerr.Abort(c, rpcerr.Wrap(rpcerr.InvalidArgument, "malformed transfer request", err))
		return
	}
	if req.ToUserID == claims.UserID {
		rpcerr.Abort(c, rpcerr.New(rpcerr.InvalidArgument, "cannot transfer to self"))
		return
	}
	if err := h.transfer(c, claims.UserID, req.ToUserID, req.Amount); err != nil {
		metrics.Transfers.WithLabelValues("error").Inc()
		rpcerr.Abort(c, err)
		return
	}
	metrics.Transfers.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, gin.H{})
}

// transfer moves amount from the authenticated user to the destination. The
// balance check and both writes happen inside one directory transaction, so
// concurrent transfers cannot lose updates or overdraw.
func (h *BankingHandler) transfer(c *gin.Context, fromID, toID string, amount int64) error {
	ctx := c.Request.Context()

	// look up both parties first to report the right error kind
	from, err := h.directory.FindByID(ctx, fromID)
	if err != nil {
		return err
	}
	if from == nil {
		// should be prevented by proper authentication
		return rpcerr.New(rpcerr.Internal, "'from' user not found")
	}
	to, err := h.directory.FindByID(ctx, toID)
	if err != nil {
		return err
	}
	if to == nil {
		return rpcerr.New(rpcerr.NotFound, "'to' user not found")
	}

	return h.directory.Modify(ctx, []string{fromID, toID}, func(us []*models.User) error {
		from, to := us[0], us[1]
		if from.Balance < amount {
			return rpcerr.New(rpcerr.FailedPrecondition, "'from' user has insufficient funds")
		}
		from.Balance -= amount
		to.Balance += amount
		return nil
	})
}
