package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DanielTrujilloS/DafaMedicSistema/middlewares"
	"github.com/DanielTrujilloS/DafaMedicSistema/models"
	"github.com/DanielTrujilloS/DafaMedicSistema/services"
	"github.com/DanielTrujilloS/DafaMedicSistema/utils"
)

type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
	Verify(token string) (utils.SessionPayload, error)
}

// CookieOptions are the attributes shared by the cookies this service sets.
type CookieOptions struct {
	Name   string
	MaxAge int
	Secure bool
}

func (o CookieOptions) set(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(o.Name, value, maxAge, "/", "", o.Secure, true)
}

type AuthController struct {
	auth   Authenticator
	cookie CookieOptions
}

func NewAuthController(auth Authenticator, cookie CookieOptions) *AuthController {
	return &AuthController{auth: auth, cookie: cookie}
}

func (ac *AuthController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	token, err := ac.auth.Login(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		slog.Error("Login failed", "email", req.Email, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	ac.cookie.set(c, token, ac.cookie.MaxAge)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (ac *AuthController) Logout(c *gin.Context) {
	ac.cookie.set(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Me runs behind middlewares.RequireSession.
func (ac *AuthController) Me(c *gin.Context) {
	p, ok := middlewares.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.JSON(http.StatusOK, p)
}
