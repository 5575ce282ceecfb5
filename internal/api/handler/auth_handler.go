package handler

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"loanshop/internal/api/handler/dto"
	"loanshop/internal/config"
	"loanshop/internal/pkg/apperrors"

	"github.com/golang-jwt/jwt/v5"
)

type AuthHandler struct {
	cfg    config.Config
	logger *slog.Logger
}

func NewAuthHandler(cfg config.Config, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		cfg:    cfg,
		logger: logger.With("component", "AuthHandler"),
	}
}

// Login checks the configured back-office credentials and issues a
// bearer token for the rest of the API.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	auth := h.cfg.Server.Auth
	emailOK := subtle.ConstantTimeCompare([]byte(req.Email), []byte(auth.AdminEmail)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(auth.AdminPassword)) == 1
	if !emailOK || !passOK {
		h.logger.WarnContext(r.Context(), "Login rejected", slog.String("email", req.Email))
		respondError(w, apperrors.ErrUnauthorized)
		return
	}

	expiresAt := time.Now().Add(24 * time.Hour)
	claims := jwt.MapClaims{
		"sub": req.Email,
		"iat": time.Now().Unix(),
		"exp": expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(auth.JWTSecret))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to sign token", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.TokenResponse{Token: signed, ExpiresAt: expiresAt.Unix()})
}
