package rpcerr

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestKindOf(t *testing.T) {
	require.Equal(t, NotFound, KindOf(New(NotFound, "gone")))
	require.Equal(t, Unavailable, KindOf(fmt.Errorf("rpc: %w", New(Unavailable, "down"))))
	require.Equal(t, Internal, KindOf(errors.New("plain")), "unclassified errors report as internal")
}

func TestErrorMessage(t *testing.T) {
	require.Equal(t, "not_found: gone", New(NotFound, "gone").Error())
	require.Equal(t, "internal", New(Internal, "").Error())

	cause := errors.New("boom")
	wrapped := Wrap(Unavailable, "backend down", cause)
	require.Equal(t, "unavailable: backend down: boom", wrapped.Error())
	require.ErrorIs(t, wrapped, cause)
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		InvalidArgument:    http.StatusBadRequest,
		Unauthenticated:    http.StatusUnauthorized,
		NotFound:           http.StatusNotFound,
		FailedPrecondition: http.StatusPreconditionFailed,
		Unavailable:        http.StatusServiceUnavailable,
		Internal:           http.StatusInternalServerError,
	}
	for kind, status := range cases {
		require.Equal(t, status, kind.HTTPStatus(), kind)
	}
	require.Equal(t, http.StatusInternalServerError, Kind("made_up").HTTPStatus())
}

func abortWith(err error) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/x", nil)
	Abort(c, err)
	return w
}

func TestAbort(t *testing.T) {
	w := abortWith(New(FailedPrecondition, "insufficient funds"))
	require.Equal(t, http.StatusPreconditionFailed, w.Code)
	require.JSONEq(t,
		`{"error":{"kind":"failed_precondition","message":"insufficient funds"}}`,
		w.Body.String())
}

func TestAbort_HidesUnclassifiedErrors(t *testing.T) {
	w := abortWith(errors.New("pq: connection reset by peer"))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotContains(t, w.Body.String(), "connection reset", "internals must not leak")
	require.JSONEq(t, `{"error":{"kind":"internal","message":"internal error"}}`, w.Body.String())
}

func TestAbort_HidesWrappedCause(t *testing.T) {
	w := abortWith(Wrap(Unauthenticated, "invalid token", errors.New("jwks fetch: secret detail")))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotContains(t, w.Body.String(), "secret detail")
	require.Contains(t, w.Body.String(), "invalid token")
}

func TestFromResponse(t *testing.T) {
	body := strings.NewReader(`{"error":{"kind":"not_found","message":"'to' user not found"}}`)
	e := FromResponse(http.StatusNotFound, body)
	require.Equal(t, NotFound, e.Kind)
	require.Equal(t, "'to' user not found", e.Message)
}

func TestFromResponse_Malformed(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not json", "<html>bad gateway</html>"},
		{"empty", ""},
		{"missing kind", `{"error":{"message":"hm"}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := FromResponse(http.StatusBadGateway, bytes.NewReader([]byte(tc.body)))
			require.Equal(t, Internal, e.Kind)
			require.Contains(t, e.Message, "502")
		})
	}
}

func TestFromResponse_UnknownKind(t *testing.T) {
	body := strings.NewReader(`{"error":{"kind":"resource_exhausted","message":"slow down"}}`)
	e := FromResponse(http.StatusTooManyRequests, body)
	require.Equal(t, Internal, e.Kind, "kinds from newer servers degrade to internal")
}
