// Handles the admin gate: login, logout and session introspection.

package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/maruel/ksid"

	"github.com/finoptiv/shelf/internal/server/dto"
	"github.com/finoptiv/shelf/internal/server/reqctx"
	"github.com/finoptiv/shelf/internal/storage"
	"github.com/finoptiv/shelf/internal/storage/library"
	"github.com/finoptiv/shelf/internal/utils"
)

const tokenExpiration = 24 * time.Hour

// AuthHandler handles authentication requests.
type AuthHandler struct {
	sessions  *library.SessionService
	cfg       *storage.ServerConfig
	jwtSecret []byte
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(sessions *library.SessionService, cfg *storage.ServerConfig) *AuthHandler {
	return &AuthHandler{
		sessions:  sessions,
		cfg:       cfg,
		jwtSecret: cfg.JWTSecret,
	}
}

// Login checks the admin password and returns a JWT token.
func (h *AuthHandler) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	if !h.cfg.CheckAdminPassword(req.Password) {
		return nil, dto.NewAPIError(401, dto.ErrorCodeUnauthorized, "Invalid credentials")
	}

	// Get request metadata from context
	clientIP := reqctx.ClientIP(ctx)
	userAgent := reqctx.UserAgent(ctx)

	token, expiresAt, err := h.GenerateTokenWithSession(clientIP, userAgent)
	if err != nil {
		return nil, mapLibraryError(err, "Failed to generate token")
	}

	return &dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
	}, nil
}

// GenerateTokenWithSession creates a session and generates a JWT token with session ID.
func (h *AuthHandler) GenerateTokenWithSession(clientIP, userAgent string) (string, time.Time, error) {
	expiresAt := time.Now().Add(tokenExpiration)

	// Pre-generate session ID so we can include it in the JWT
	sessionID := ksid.NewID()

	// Build claims with session ID
	claims := jwt.MapClaims{
		"sid": sessionID.String(),
		"exp": expiresAt.Unix(),
		"iat": time.Now().Unix(),
	}

	// Generate the token
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(h.jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}

	// Create session with the pre-generated ID and token hash
	deviceInfo := userAgent
	if len(deviceInfo) > 200 {
		deviceInfo = deviceInfo[:200]
	}
	if _, err := h.sessions.CreateWithID(sessionID, utils.HashToken(tokenString), deviceInfo, clientIP, storage.ToTime(expiresAt), h.cfg.Quotas.MaxSessions); err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// GetMe reports whether the caller holds a valid admin session.
func (h *AuthHandler) GetMe(ctx context.Context, req *dto.GetMeRequest) (*dto.GetMeResponse, error) {
	sessionID := reqctx.SessionID(ctx)
	if sessionID.IsZero() {
		return &dto.GetMeResponse{Admin: false}, nil
	}

	session, err := h.sessions.Get(sessionID)
	if err != nil {
		return &dto.GetMeResponse{Admin: false}, nil
	}

	return &dto.GetMeResponse{
		Admin:     true,
		SessionID: session.ID.String(),
		ExpiresAt: int64(session.ExpiresAt),
	}, nil
}

// Logout revokes the current session.
func (h *AuthHandler) Logout(ctx context.Context, _ *dto.LogoutRequest) (*dto.LogoutResponse, error) {
	sessionID := reqctx.SessionID(ctx)
	if sessionID.IsZero() {
		return &dto.LogoutResponse{Ok: true}, nil
	}

	if err := h.sessions.Revoke(sessionID); err != nil {
		slog.ErrorContext(ctx, "Failed to revoke session", "error", err, "session_id", sessionID)
		return nil, dto.InternalWithError("Failed to logout", err)
	}

	return &dto.LogoutResponse{Ok: true}, nil
}
