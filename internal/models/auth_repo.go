package models

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
)

// AuthSession is what the identity provider hands back after a sign-in.
type AuthSession struct {
	UserID       string
	Email        string
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

type SocialAuthorization struct {
	URL      string
	Verifier string
}

type SocialProvider string

const (
	ProviderGoogle   SocialProvider = "google"
	ProviderFacebook SocialProvider = "facebook"
)

func ParseSocialProvider(raw string) (SocialProvider, error) {
	switch SocialProvider(strings.ToLower(strings.TrimSpace(raw))) {
	case ProviderGoogle:
		return ProviderGoogle, nil
	case ProviderFacebook:
		return ProviderFacebook, nil
	}
	return "", ValidationError{Field: "provider", Msg: fmt.Sprintf("unsupported provider %q", raw)}
}

type AuthRepo interface {
	SignUp(ctx context.Context, email, password string) (*AuthSession, error)
	SignIn(ctx context.Context, email, password string) (*AuthSession, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthSession, error)
	AuthorizeSocial(ctx context.Context, provider SocialProvider) (*SocialAuthorization, error)
	ExchangeCode(ctx context.Context, code, verifier string) (*AuthSession, error)
	RecoverPassword(ctx context.Context, email string) error
}

func sessionFromToken(res *types.TokenResponse) *AuthSession {
	return &AuthSession{
		UserID:       res.User.ID.String(),
		Email:        res.User.Email,
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresIn:    res.ExpiresIn,
	}
}

func (su *SupabaseRepo) SignUp(ctx context.Context, email, password string) (*AuthSession, error) {
	res, err := su.supabaseClient.Auth.Signup(types.SignupRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, classifyAuthError("sign up", err)
	}

	// with email confirmation on, only the user is returned
	id := res.User.ID
	if id == uuid.Nil {
		id = res.Session.User.ID
	}
	if id == uuid.Nil {
		return nil, UnavailableError{Op: "sign up", Err: fmt.Errorf("provider returned no user id")}
	}
	return &AuthSession{
		UserID:       id.String(),
		Email:        email,
		AccessToken:  res.Session.AccessToken,
		RefreshToken: res.Session.RefreshToken,
		ExpiresIn:    res.Session.ExpiresIn,
	}, nil
}

func (su *SupabaseRepo) SignIn(ctx context.Context, email, password string) (*AuthSession, error) {
	res, err := su.supabaseClient.Auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, classifyAuthError("sign in", err)
	}
	return sessionFromToken(res), nil
}

func (su *SupabaseRepo) RefreshToken(ctx context.Context, refreshToken string) (*AuthSession, error) {
	res, err := su.supabaseClient.Auth.RefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	return sessionFromToken(res), nil
}

func (su *SupabaseRepo) AuthorizeSocial(ctx context.Context, provider SocialProvider) (*SocialAuthorization, error) {
	req := types.AuthorizeRequest{FlowType: types.FlowPKCE}
	switch provider {
	case ProviderGoogle:
		req.Provider = types.ProviderGoogle
	case ProviderFacebook:
		req.Provider = types.ProviderFacebook
	default:
		return nil, ValidationError{Field: "provider", Msg: fmt.Sprintf("unsupported provider %q", provider)}
	}

	res, err := su.supabaseClient.Auth.Authorize(req)
	if err != nil {
		return nil, UnavailableError{Op: "authorize " + string(provider), Err: err}
	}
	return &SocialAuthorization{URL: res.AuthorizationURL, Verifier: res.Verifier}, nil
}

func (su *SupabaseRepo) ExchangeCode(ctx context.Context, code, verifier string) (*AuthSession, error) {
	res, err := su.supabaseClient.Auth.Token(types.TokenRequest{
		GrantType:    "pkce",
		Code:         code,
		CodeVerifier: verifier,
	})
	if err != nil {
		return nil, classifyAuthError("exchange code", err)
	}
	return sessionFromToken(res), nil
}

func (su *SupabaseRepo) RecoverPassword(ctx context.Context, email string) error {
	if err := su.supabaseClient.Auth.Recover(types.RecoverRequest{Email: email}); err != nil {
		return UnavailableError{Op: "password reset", Err: err}
	}
	return nil
}

func classifyAuthError(op string, err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "already registered"), strings.Contains(msg, "already exists"):
		return ConflictError{Resource: "account", Msg: "email already in use", Err: err}
	case strings.Contains(msg, "invalid login credentials"), strings.Contains(msg, "invalid_grant"):
		return ValidationError{Field: "credentials", Msg: "invalid email or password", Err: err}
	case strings.Contains(msg, "password should be"), strings.Contains(msg, "weak_password"):
		return ValidationError{Field: "password", Msg: "password is too weak", Err: err}
	case strings.Contains(msg, "unable to validate email"), strings.Contains(msg, "invalid format"):
		return ValidationError{Field: "email", Msg: "invalid email address", Err: err}
	}
	return UnavailableError{Op: op, Err: err}
}
