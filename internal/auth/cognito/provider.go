package cognito

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"

	"github.com/cognibank/cognibank/internal/auth"
	"github.com/cognibank/cognibank/internal/models"
	"github.com/cognibank/cognibank/internal/rpcerr"
	"github.com/cognibank/cognibank/pkg/logger"
	"github.com/cognibank/cognibank/pkg/rfc3339"
)

// api is the slice of the Cognito client the provider depends on.
type api interface {
	SignUp(ctx context.Context, in *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	AdminConfirmSignUp(ctx context.Context, in *cip.AdminConfirmSignUpInput, optFns ...func(*cip.Options)) (*cip.AdminConfirmSignUpOutput, error)
	AdminInitiateAuth(ctx context.Context, in *cip.AdminInitiateAuthInput, optFns ...func(*cip.Options)) (*cip.AdminInitiateAuthOutput, error)
}

// Provider implements auth.IdentityProvider on AWS Cognito.
type Provider struct {
	cfg    Config
	client api
	now    func() time.Time
}

func NewProvider(cfg Config) *Provider {
	opts := cip.Options{Region: cfg.Region}
	if cfg.AccessKeyID != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}
	return &Provider{cfg: cfg, client: cip.New(opts), now: time.Now}
}

// Register signs the user up in the pool and immediately admin-confirms the
// account; email verification can happen later without blocking access.
func (p *Provider) Register(ctx context.Context, u *models.User, password string) error {
	_, err := p.client.SignUp(ctx, &cip.SignUpInput{
		ClientId: aws.String(p.cfg.ClientID),
		// Pool usernames cannot be changed after creation, so the email
		// does not belong there; the email lands in the attributes to
		// keep email-based sign-in possible on our side.
		Username: aws.String(u.ID),
		Password: aws.String(password),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(u.Email)},
		},
	})
	if err != nil {
		return classifyError(err)
	}

	_, err = p.client.AdminConfirmSignUp(ctx, &cip.AdminConfirmSignUpInput{
		UserPoolId: aws.String(p.cfg.UserPoolID),
		Username:   aws.String(u.ID),
	})
	if err != nil {
		return classifyError(err)
	}
	logger.Infof("registered user %s with cognito", u.ID)
	return nil
}

func (p *Provider) SignIn(ctx context.Context, userID, password string) (*auth.TokenInfo, error) {
	tokenInfo, err := p.initiateAuth(ctx, types.AuthFlowTypeAdminUserPasswordAuth, map[string]string{
		"USERNAME": userID,
		"PASSWORD": password,
	})
	if err != nil {
		return nil, err
	}
	if tokenInfo.RefreshToken == "" {
		return nil, rpcerr.New(rpcerr.Internal, "expected a refresh token from cognito at sign-in")
	}
	return tokenInfo, nil
}

func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*auth.TokenInfo, error) {
	tokenInfo, err := p.initiateAuth(ctx, types.AuthFlowTypeRefreshTokenAuth, map[string]string{
		"REFRESH_TOKEN": refreshToken,
	})
	if err != nil {
		return nil, err
	}
	// Cognito never reissues the refresh token on refresh; the caller's
	// token stays valid and is handed back verbatim.
	if tokenInfo.RefreshToken != "" {
		return nil, rpcerr.New(rpcerr.Internal, "unexpected refresh token from cognito on refresh")
	}
	tokenInfo.RefreshToken = refreshToken
	return tokenInfo, nil
}

func (p *Provider) initiateAuth(ctx context.Context, flow types.AuthFlowType, params map[string]string) (*auth.TokenInfo, error) {
	out, err := p.client.AdminInitiateAuth(ctx, &cip.AdminInitiateAuthInput{
		UserPoolId:     aws.String(p.cfg.UserPoolID),
		ClientId:       aws.String(p.cfg.ClientID),
		AuthFlow:       flow,
		AuthParameters: params,
	})
	if err != nil {
		return nil, classifyError(err)
	}
	if out.ChallengeName != "" {
		// MFA and friends would need an interactive round-trip we do not
		// implement; failing loudly beats a silent fallback.
		return nil, rpcerr.Newf(rpcerr.Internal, "authentication challenge %s is not implemented", out.ChallengeName)
	}
	return p.convertResult(out.AuthenticationResult)
}

// convertResult maps a Cognito authentication result to our token bundle. The
// bearer token is the ID token: its audience is the app client ID, which is
// what the claims resolver verifies against.
func (p *Provider) convertResult(res *types.AuthenticationResultType) (*auth.TokenInfo, error) {
	if res == nil {
		return nil, rpcerr.New(rpcerr.Internal, "cognito returned no authentication result")
	}
	if got := aws.ToString(res.TokenType); got != "Bearer" {
		return nil, rpcerr.Newf(rpcerr.Internal, "expected a bearer token; got token type %q", got)
	}
	if res.IdToken == nil || res.AccessToken == nil || res.ExpiresIn <= 0 {
		return nil, rpcerr.New(rpcerr.Internal, "incomplete authentication result from cognito")
	}
	return &auth.TokenInfo{
		AccessToken:  aws.ToString(res.IdToken),
		RefreshToken: aws.ToString(res.RefreshToken),
		ExpiryDate:   rfc3339.Format(p.now().Add(time.Duration(res.ExpiresIn) * time.Second)),
	}, nil
}

// classifyError maps Cognito API failures onto the error taxonomy: rejected
// credentials are an expected outcome, other API errors are contract
// violations, and transport failures are retryable.
func classifyError(err error) error {
	var notAuthorized *types.NotAuthorizedException
	var userNotFound *types.UserNotFoundException
	if errors.As(err, &notAuthorized) || errors.As(err, &userNotFound) {
		logger.Warnf("cognito rejected credentials: %v", err)
		return fmt.Errorf("%w: %v", auth.ErrCredentialsRejected, err)
	}

	var tooMany *types.TooManyRequestsException
	if errors.As(err, &tooMany) {
		return rpcerr.Wrap(rpcerr.Unavailable, "cognito is throttling requests", err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return rpcerr.Wrap(rpcerr.Internal, fmt.Sprintf("unexpected cognito error %s", apiErr.ErrorCode()), err)
	}

	// No API-level error: the service itself was unreachable.
	return rpcerr.Wrap(rpcerr.Unavailable, "cognito is not available", err)
}
