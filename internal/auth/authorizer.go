package auth

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// ResultType is the outcome of an external authorization flow.
type ResultType string

const (
	ResultSuccess ResultType = "success"
	ResultError   ResultType = "error"
	ResultDismiss ResultType = "dismiss"
	ResultCancel  ResultType = "cancel"
)

// errorAccessDenied is the OAuth error value for a user denial.
const errorAccessDenied = "access_denied"

// AuthorizationRequest describes one authorization flow.
type AuthorizationRequest struct {
	URL   string
	State string
}

// AuthorizationResult is what the identity provider redirected back with.
type AuthorizationResult struct {
	Type  ResultType
	Code  string
	Error string
}

// Granted reports whether the result carries a usable authorization code.
func (r AuthorizationResult) Granted() bool {
	return r.Type == ResultSuccess && r.Error != errorAccessDenied && r.Code != ""
}

// Authorizer runs the external authorization flow (browser, redirect).
type Authorizer interface {
	Authorize(ctx context.Context, req AuthorizationRequest) (AuthorizationResult, error)
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, req AuthorizationRequest) (AuthorizationResult, error)

func (f AuthorizerFunc) Authorize(ctx context.Context, req AuthorizationRequest) (AuthorizationResult, error) {
	return f(ctx, req)
}

// StaticAuthorizer returns the same result for every request.
type StaticAuthorizer struct {
	Result AuthorizationResult
	Err    error
}

func (s StaticAuthorizer) Authorize(context.Context, AuthorizationRequest) (AuthorizationResult, error) {
	return s.Result, s.Err
}

// OAuthConfig builds the provider configuration for the fixed client id and scope.
func OAuthConfig(clientID, scope, redirectURL string) *oauth2.Config {
	cfg := &oauth2.Config{
		ClientID:    clientID,
		Endpoint:    github.Endpoint,
		RedirectURL: redirectURL,
	}
	if scope != "" {
		cfg.Scopes = []string{scope}
	}
	return cfg
}

// NewAuthorizationRequest builds an authorize URL with a fresh state value.
func NewAuthorizationRequest(cfg *oauth2.Config) AuthorizationRequest {
	state := uuid.NewString()
	return AuthorizationRequest{
		URL:   cfg.AuthCodeURL(state),
		State: state,
	}
}
