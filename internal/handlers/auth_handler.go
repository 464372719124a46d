package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/luwas/internal/middleware"
	"github.com/joshua-takyi/luwas/internal/models"
	"github.com/joshua-takyi/luwas/internal/services"
)

const (
	verifierCookie = "pkce_verifier"
	verifierMaxAge = 600
)

type authUser struct {
	User       *models.User `json:"user"`
	Completion int          `json:"completion"`
}

func Register(u *services.UserService, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email           string `json:"email"`
			Password        string `json:"password"`
			ConfirmPassword string `json:"confirmPassword"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "body", "invalid request payload")
			return
		}

		session, user, err := u.Register(c.Request.Context(), req.Email, req.Password, req.ConfirmPassword)
		if err != nil {
			respondError(c, err)
			return
		}
		// with email confirmation enabled there is no session yet
		if session.AccessToken != "" {
			middleware.SetSessionCookies(c, session, secure)
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(authUser{user, user.Completion()}, "Account created"))
	}
}

func Login(u *services.UserService, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "body", "invalid request payload")
			return
		}

		session, user, err := u.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		middleware.SetSessionCookies(c, session, secure)
		// Return user info but not tokens
		c.JSON(http.StatusOK, models.SuccessResponse(authUser{user, user.Completion()}, "Signed in"))
	}
}

// Refresh rotates the session explicitly; the auth middleware does the same
// transparently when an access token has expired.
func Refresh(u *services.UserService, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(middleware.RefreshTokenCookie)
		if err != nil || token == "" {
			token = c.GetHeader(middleware.RefreshTokenHeader)
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("refresh token not found"))
			return
		}

		session, err := u.RefreshToken(c.Request.Context(), token)
		if err != nil {
			middleware.ClearSessionCookies(c, secure)
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("session expired, please sign in again"))
			return
		}
		middleware.SetSessionCookies(c, session, secure)
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"expiresIn": session.ExpiresIn}, "Session refreshed"))
	}
}

// SocialAuthorize starts the PKCE flow and redirects to the provider.
// The verifier waits in a short-lived cookie for the callback.
func SocialAuthorize(u *services.UserService, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth, err := u.SocialAuthorize(c.Request.Context(), c.Param("provider"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.SetCookie(verifierCookie, auth.Verifier, verifierMaxAge, "/", "", secure, true)

		if c.Query("mode") == "json" {
			c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"url": auth.URL}, ""))
			return
		}
		c.Redirect(http.StatusTemporaryRedirect, auth.URL)
	}
}

func SocialCallback(u *services.UserService, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := models.ParseSocialProvider(c.Param("provider")); err != nil {
			respondError(c, err)
			return
		}
		if e := c.Query("error"); e != "" {
			msg := c.Query("error_description")
			if msg == "" {
				msg = e
			}
			c.JSON(http.StatusBadRequest, models.ErrorResponse(msg))
			return
		}

		verifier, _ := c.Cookie(verifierCookie)
		session, user, err := u.SocialCallback(c.Request.Context(), c.Query("code"), verifier)
		if err != nil {
			respondError(c, err)
			return
		}
		c.SetCookie(verifierCookie, "", -1, "/", "", secure, true)
		middleware.SetSessionCookies(c, session, secure)
		c.JSON(http.StatusOK, models.SuccessResponse(authUser{user, user.Completion()}, "Signed in"))
	}
}

func RequestPasswordReset(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email string `json:"email"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "body", "invalid request payload")
			return
		}
		if err := u.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "If the address is registered, a reset link is on its way"))
	}
}

// Logout handler
func Logout(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.ClearSessionCookies(c, secure)
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "Logged out successfully"))
	}
}
