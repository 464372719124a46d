package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/luwas/internal/helpers"
	"github.com/joshua-takyi/luwas/internal/models"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
	RefreshTokenHeader = "X-Refresh-Token"
	AccessTokenHeader  = "X-Access-Token"

	RefreshTokenMaxAge = 3600 * 24 * 30
)

// IdentityResolver turns a verified subject into the request identity.
type IdentityResolver interface {
	Identity(ctx context.Context, uid, email, provider string) helpers.Identity
	RefreshToken(ctx context.Context, refreshToken string) (*models.AuthSession, error)
}

type Authenticator struct {
	verifier     helpers.TokenVerifier
	resolver     IdentityResolver
	secureCookie bool
	logger       *slog.Logger
}

func NewAuthenticator(verifier helpers.TokenVerifier, resolver IdentityResolver, secureCookie bool, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		verifier:     verifier,
		resolver:     resolver,
		secureCookie: secureCookie,
		logger:       logger.With("component", "auth"),
	}
}

// SetSessionCookies stores both tokens as http-only cookies.
func SetSessionCookies(c *gin.Context, session *models.AuthSession, secure bool) {
	c.SetCookie(AccessTokenCookie, session.AccessToken, session.ExpiresIn, "/", "", secure, true)
	if session.RefreshToken != "" {
		c.SetCookie(RefreshTokenCookie, session.RefreshToken, RefreshTokenMaxAge, "/", "", secure, true)
	}
}

func ClearSessionCookies(c *gin.Context, secure bool) {
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", secure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", "", secure, true)
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if token, err := c.Cookie(AccessTokenCookie); err == nil {
		return token
	}
	return ""
}

func refreshToken(c *gin.Context) string {
	if h := c.GetHeader(RefreshTokenHeader); h != "" {
		return h
	}
	if token, err := c.Cookie(RefreshTokenCookie); err == nil {
		return token
	}
	return ""
}

// authenticate returns ok=false when the caller presented no usable credentials.
// An expired access token is refreshed once when a refresh token is available.
func (a *Authenticator) authenticate(c *gin.Context) (helpers.Identity, bool) {
	token := bearerToken(c)
	refresh := refreshToken(c)
	if token == "" && refresh == "" {
		return helpers.Anonymous(), false
	}

	var claims *helpers.CustomClaims
	var err error
	if token != "" {
		claims, err = a.verifier.Verify(token)
	}
	if token == "" || err != nil {
		if refresh == "" {
			a.logger.Debug("token rejected", "error", err)
			return helpers.Anonymous(), false
		}
		session, refreshErr := a.resolver.RefreshToken(c.Request.Context(), refresh)
		if refreshErr != nil {
			a.logger.Info("token refresh failed", "error", refreshErr)
			return helpers.Anonymous(), false
		}
		claims, err = a.verifier.Verify(session.AccessToken)
		if err != nil {
			a.logger.Warn("refreshed token validation failed", "error", err)
			return helpers.Anonymous(), false
		}
		SetSessionCookies(c, session, a.secureCookie)
		c.Header(AccessTokenHeader, session.AccessToken)
		a.logger.Info("Token refreshed successfully", "user_id", session.UserID, "expires_in", session.ExpiresIn)
	}

	if claims.IsAnonymous {
		return helpers.Anonymous(), true
	}
	return a.resolver.Identity(c.Request.Context(), claims.Subject, claims.Email, claims.AppMetadata.Provider), true
}

// OptionalAuth admits anonymous callers; handlers read the result with helpers.IdentityFrom.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := a.authenticate(c)
		helpers.SetIdentity(c, id)
		c.Next()
	}
}

func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := a.authenticate(c)
		if id.Anonymous {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse("Unauthorized access"))
			return
		}
		helpers.SetIdentity(c, id)
		c.Next()
	}
}
