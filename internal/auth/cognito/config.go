// Package cognito implements the identity provider and claims resolver
// against an AWS Cognito user pool. Sign-up auto-confirms the credential so
// users do not have to verify their email address before first use, and the
// pool username is always the immutable user ID, never the email.
package cognito

import "fmt"

// Config identifies the Cognito user pool and app client.
type Config struct {
	// Region is the AWS region hosting the user pool.
	Region string

	// UserPoolID is the Cognito user pool ID.
	UserPoolID string

	// ClientID is the Cognito app client ID. It is also the expected
	// audience of issued ID tokens.
	ClientID string

	// AccessKeyID / SecretAccessKey are static AWS credentials for the
	// admin API calls. Empty values fall back to the SDK default chain.
	AccessKeyID     string
	SecretAccessKey string

	// IssuerURL overrides the derived pool issuer. Leave empty outside of
	// tests.
	IssuerURL string
}

// issuer returns the OIDC issuer for the pool. Cognito publishes the
// discovery document and JWKS under this URL.
func (c Config) issuer() string {
	if c.IssuerURL != "" {
		return c.IssuerURL
	}
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", c.Region, c.UserPoolID)
}
