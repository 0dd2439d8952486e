package auth

// TokenInfo is the credential bundle issued at sign-in and on each refresh.
// It is immutable once issued; a refresh supersedes it with a new bundle that
// carries the same refresh token.
type TokenInfo struct {
	// AccessToken is the opaque bearer token presented on protected requests.
	AccessToken string `json:"accessToken"`

	// RefreshToken is the long-lived credential exchanged for new access
	// tokens. The identity provider does not reissue it on refresh.
	RefreshToken string `json:"refreshToken"`

	// ExpiryDate is the absolute access-token expiry, RFC3339 in UTC. It is
	// set by the server; clients schedule refresh from it but never compute
	// it themselves.
	ExpiryDate string `json:"expiryDate"`
}
