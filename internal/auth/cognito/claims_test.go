package cognito

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/cognibank/cognibank/internal/models"
	"github.com/cognibank/cognibank/internal/rpcerr"
	"github.com/cognibank/cognibank/internal/users"
)

const testKeyID = "test-key"

// fakeIssuer is a minimal OIDC issuer: a discovery document, a JWKS endpoint,
// and a signing key to mint ID tokens with.
type fakeIssuer struct {
	srv *httptest.Server
	key *rsa.PrivateKey
}

func newFakeIssuer(t *testing.T) *fakeIssuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	f := &fakeIssuer{key: key}
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                                f.srv.URL,
			"jwks_uri":                              f.srv.URL + "/jwks",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	mux.HandleFunc("/jwks", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]any{{
				"kty": "RSA",
				"alg": "RS256",
				"use": "sig",
				"kid": testKeyID,
				"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
			}},
		})
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

// mint issues a signed ID token; extra overrides the default claims.
func (f *fakeIssuer) mint(t *testing.T, extra map[string]any) string {
	t.Helper()
	claims := jwt.MapClaims{
		"iss": f.srv.URL,
		"aud": "client-id",
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
	for k, v := range extra {
		claims[k] = v
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = testKeyID
	signed, err := tok.SignedString(f.key)
	require.NoError(t, err)
	return signed
}

func newTestResolver(t *testing.T, issuer *fakeIssuer, dir users.Directory) *ClaimsResolver {
	t.Helper()
	cfg := Config{ClientID: "client-id", IssuerURL: issuer.srv.URL}
	r, err := NewClaimsResolver(context.Background(), cfg, dir)
	require.NoError(t, err)
	return r
}

func TestClaimsResolverResolve(t *testing.T) {
	issuer := newFakeIssuer(t)
	dir := users.NewMemoryDirectory(1000)
	require.NoError(t, dir.Create(context.Background(), &models.User{ID: "user-1", Email: "a@example.com"}))
	r := newTestResolver(t, issuer, dir)

	token := issuer.mint(t, map[string]any{userIDClaim: "user-1"})
	claims, err := r.Resolve(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
}

func TestClaimsResolverResolve_Rejections(t *testing.T) {
	issuer := newFakeIssuer(t)
	dir := users.NewMemoryDirectory(1000)
	require.NoError(t, dir.Create(context.Background(), &models.User{ID: "user-1", Email: "a@example.com"}))
	r := newTestResolver(t, issuer, dir)

	cases := []struct {
		name  string
		token string
	}{
		{"garbage token", "not-a-jwt"},
		{"expired token", issuer.mint(t, map[string]any{
			userIDClaim: "user-1",
			"exp":       time.Now().Add(-time.Hour).Unix(),
		})},
		{"wrong audience", issuer.mint(t, map[string]any{
			userIDClaim: "user-1",
			"aud":       "someone-else",
		})},
		{"missing username claim", issuer.mint(t, nil)},
		{"user no longer exists", issuer.mint(t, map[string]any{userIDClaim: "ghost"})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), tc.token)
			require.Equal(t, rpcerr.Unauthenticated, rpcerr.KindOf(err))
		})
	}
}
