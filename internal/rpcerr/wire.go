package rpcerr

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/cognibank/cognibank/pkg/logger"
)

// wireBody is the JSON error envelope: {"error":{"kind":"...","message":"..."}}.
type wireBody struct {
	Error wireError `json:"error"`
}

type wireError struct {
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
}

// Abort writes err as a JSON error response and aborts the gin chain. Errors
// that are not *Error are reported as Internal with a generic message so no
// internals leak to clients; the real error is logged server-side.
func Abort(c *gin.Context, err error) {
	var e *Error
	if !errors.As(err, &e) {
		logger.Errorf("unclassified error on %s: %v", c.FullPath(), err)
		e = New(Internal, "internal error")
	}
	c.AbortWithStatusJSON(e.Kind.HTTPStatus(), wireBody{
		Error: wireError{Kind: string(e.Kind), Message: e.Message},
	})
}

// FromResponse decodes a JSON error envelope read from body into an *Error.
// Used by the client to turn non-2xx responses back into typed errors.
func FromResponse(status int, body io.Reader) *Error {
	var wb wireBody
	if err := json.NewDecoder(body).Decode(&wb); err != nil || wb.Error.Kind == "" {
		return Newf(Internal, "unexpected response (HTTP %d)", status)
	}
	return New(kindFromWire(wb.Error.Kind), wb.Error.Message)
}
