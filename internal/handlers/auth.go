package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/toteco/apiserver/internal/metrics"
	"github.com/toteco/apiserver/internal/services"
	"github.com/toteco/apiserver/internal/validation"
)

type contextKey string

const contextClaimsKey contextKey = "claims"

// AuthHandler provides the login endpoint.
type AuthHandler struct {
	auth    *services.AuthService
	metrics *metrics.Metrics
	logger  logrus.FieldLogger
}

func NewAuthHandler(auth *services.AuthService, m *metrics.Metrics, logger logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{auth: auth, metrics: m, logger: logger}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, auth *services.AuthService, m *metrics.Metrics, logger logrus.FieldLogger) {
	handler := NewAuthHandler(auth, m, logger)

	r.Post("/login", handler.Login)
}

// Login verifies credentials and returns a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req, validation.LoginRules) {
		return
	}

	token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.countLogin("invalid")
		} else {
			h.countLogin("error")
		}
		writeServiceError(w, h.logger, err, "authenticate")
		return
	}

	h.countLogin("success")
	writeJSON(w, http.StatusOK, LoginResponse{Token: token})
}

func (h *AuthHandler) countLogin(result string) {
	if h.metrics != nil {
		h.metrics.Login(result)
	}
}

// RequireAuth rejects requests without a valid bearer token for an existing
// account and stores the verified claims on the request context.
func RequireAuth(auth *services.AuthService, logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			claims, err := auth.Authenticate(r.Context(), tokenString)
			if err != nil {
				if errors.Is(err, services.ErrUnauthorized) {
					writeError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				writeServiceError(w, logger, err, "authenticate")
				return
			}

			ctx := context.WithValue(r.Context(), contextClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func claimsFromContext(ctx context.Context) (services.TokenClaims, bool) {
	claims, ok := ctx.Value(contextClaimsKey).(services.TokenClaims)
	return claims, ok
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("missing token")
	}
	return token, nil
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}
