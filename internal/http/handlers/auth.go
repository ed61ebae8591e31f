package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klaape/klaape-api/internal/apperr"
	"github.com/klaape/klaape-api/internal/auth"
	"github.com/klaape/klaape-api/internal/config"
	"github.com/klaape/klaape-api/internal/domain/identity"
)

type Accounts interface {
	Register(ctx context.Context, req identity.CreateIdentityRequest) (identity.Identity, error)
	Login(ctx context.Context, username, password string) (identity.Identity, auth.Issued, error)
	Logout(ctx context.Context, token string) error
}

type AuthHandler struct {
	svc Accounts
	cfg config.Config
	// tokenFrom extracts the caller's token (header or cookie)
	tokenFrom func(*gin.Context) string
}

func NewAuthHandler(svc Accounts, cfg config.Config, tokenFrom func(*gin.Context) string) *AuthHandler {
	return &AuthHandler{svc: svc, cfg: cfg, tokenFrom: tokenFrom}
}

// POST /api/signup/
func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req identity.CreateIdentityRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.svc.Register(cctx, req)
	if err != nil {
		RespondServiceError(ctx, err, "Not found")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message":  "User created successfully",
		"user_id":  u.ID,
		"username": u.Username,
	})
}

// POST /api/login/
func (h *AuthHandler) Login(ctx *gin.Context) {
	var req identity.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// bcrypt dominates; keep the DB share short
	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, issued, err := h.svc.Login(cctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, apperr.ErrUnauthorized) {
			RespondUnauthorized(ctx, "invalid_credentials", "Invalid credentials")
			return
		}
		RespondServiceError(ctx, err, "Not found")
		return
	}

	h.setSessionCookie(ctx, issued.Token, issued.ExpiresAt)

	ctx.JSON(http.StatusOK, gin.H{
		"message":      "Login successful",
		"user_id":      u.ID,
		"username":     u.Username,
		"access_token": issued.Token,
	})
}

// POST /api/logout/
func (h *AuthHandler) Logout(ctx *gin.Context) {
	if raw := h.tokenFrom(ctx); raw != "" {
		cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.svc.Logout(cctx, raw); err != nil {
			RespondServiceError(ctx, err, "Not found")
			return
		}
	}

	h.clearSessionCookie(ctx)
	ctx.Status(http.StatusNoContent)
}

func (h *AuthHandler) setSessionCookie(ctx *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}

	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(h.cfg.CookieName, token, maxAge, "/", "", h.cfg.Env == "prod", true)
}

func (h *AuthHandler) clearSessionCookie(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(h.cfg.CookieName, "", -1, "/", "", h.cfg.Env == "prod", true)
}
