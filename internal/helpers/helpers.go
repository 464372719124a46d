package helpers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joshua-takyi/luwas/internal/models"
)

const MinPasswordLength = 6

type CustomClaims struct {
	Role        string `json:"role"`
	Email       string `json:"email"`
	AppMetadata struct {
		Provider  string   `json:"provider"`
		Providers []string `json:"providers"`
	} `json:"app_metadata"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	IsAnonymous  bool                   `json:"is_anonymous"`
	jwt.RegisteredClaims
}

type TokenVerifier interface {
	Verify(tokenStr string) (*CustomClaims, error)
}

// JWTVerifier checks provider-issued access tokens. Asymmetric tokens are
// checked against the project's JWKS; HS256 tokens need the shared secret.
type JWTVerifier struct {
	jwks   *keyfunc.JWKS
	secret []byte
}

// NewJWTVerifier fetches the JWKS once and keeps it refreshed in the
// background until ctx ends.
func NewJWTVerifier(ctx context.Context, supabaseURL, secret string, refresh time.Duration) (*JWTVerifier, error) {
	v := &JWTVerifier{}
	if secret != "" {
		v.secret = []byte(secret)
	}

	jwksURL := strings.TrimRight(supabaseURL, "/") + "/auth/v1/.well-known/jwks.json"
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   refresh,
		RefreshUnknownKID: true,
	})
	if err != nil {
		if v.secret == nil {
			return nil, fmt.Errorf("failed to load JWKS from %s: %w", jwksURL, err)
		}
	} else {
		v.jwks = jwks
	}
	return v, nil
}

func (v *JWTVerifier) keyfunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); ok {
		if v.secret == nil {
			return nil, errors.New("HS256 token but no JWT secret configured")
		}
		return v.secret, nil
	}
	if v.jwks == nil {
		return nil, errors.New("no JWKS available for asymmetric token")
	}
	return v.jwks.Keyfunc(token)
}

func (v *JWTVerifier) Verify(tokenStr string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, v.keyfunc,
		jwt.WithValidMethods([]string{"HS256", "RS256", "ES256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// CheckPassword enforces the registration rules before anything leaves the server.
func CheckPassword(password, confirm string) error {
	if password == "" {
		return models.ValidationError{Field: "password", Msg: "password is required"}
	}
	if len([]rune(password)) < MinPasswordLength {
		return models.ValidationError{Field: "password", Msg: fmt.Sprintf("password must be at least %d characters", MinPasswordLength)}
	}
	if password != confirm {
		return models.ValidationError{Field: "confirmPassword", Msg: "passwords do not match"}
	}
	return nil
}

func StringTrim(s string) string {
	return strings.TrimSpace(s)
}
