package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"fieldforce-backend/internal/ctxkeys"
	"fieldforce-backend/internal/logger"
	"fieldforce-backend/internal/models"
	"fieldforce-backend/internal/roster"
	"fieldforce-backend/internal/service"
)

// AuthHandler manages login and profile retrieval.
type AuthHandler struct {
	users     *service.Directory
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewAuthHandler creates an AuthHandler signing tokens with jwtSecret that
// live for ttl.
func NewAuthHandler(users *service.Directory, jwtSecret string, ttl time.Duration) *AuthHandler {
	return &AuthHandler{users: users, jwtSecret: []byte(jwtSecret), ttl: ttl, now: time.Now}
}

// Login authenticates a user with email + password and returns a JWT token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.users.Authenticate(ctx, req.Email, req.Password)
	if errors.Is(err, service.ErrBadCredentials) {
		// Same message for unknown email and wrong password.
		JSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid email or password", "code": "BAD_CREDENTIALS"})
		return
	}
	if err != nil {
		Fail(w, r, err)
		return
	}

	token, err := h.generateToken(p)
	if err != nil {
		logger.FromContext(r.Context()).Error("sign token", zap.Error(err))
		JSONError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	JSON(w, http.StatusOK, models.AuthResponse{Token: token, User: p.Public()})
}

// Me returns the profile of the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor := ctxkeys.Actor(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.users.View(ctx, actor, actor.UserID)
	if err != nil {
		Fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, p)
}

// generateToken signs the user's id, role and status.
func (h *AuthHandler) generateToken(p roster.Profile) (string, error) {
	now := h.now()
	claims := jwt.MapClaims{
		"userId": p.ID,
		"role":   string(p.Role),
		"status": string(p.Status),
		"exp":    now.Add(h.ttl).Unix(),
		"iat":    now.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.jwtSecret)
}
