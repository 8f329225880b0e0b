package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"civicpulse/models"
	"civicpulse/utils"
)

type contextKey string

const (
	actorIDKey   contextKey = "actor_id"
	actorRoleKey contextKey = "actor_role"
)

// AuthMiddleware validates JWT tokens and puts the actor in the request context
type AuthMiddleware struct {
	jwtSecret []byte
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{jwtSecret: []byte(jwtSecret)}
}

// RequireAuth accepts any valid token (citizen, admin or worker)
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return m.RequireRole()(next)
}

// RequireRole accepts a valid token whose role is one of roles; no roles means any role.
// Missing or invalid token → 401, wrong role → 403.
func (m *AuthMiddleware) RequireRole(roles ...models.ActorRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Authorization header required")
				return
			}

			// Check Bearer prefix
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Invalid authorization format. Expected: Bearer <token>")
				return
			}

			claims, err := utils.ParseJWT(parts[1], m.jwtSecret)
			if err != nil {
				respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Invalid or expired token")
				return
			}

			role := models.ActorRole(claims.Role)
			switch role {
			case models.RoleCitizen, models.RoleAdmin, models.RoleWorker:
			default:
				respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Invalid token: unknown role")
				return
			}
			if len(roles) > 0 && !hasRole(roles, role) {
				respondWithError(w, http.StatusForbidden, "Forbidden", "Your role cannot access this endpoint")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), claims.Subject, role)))
		})
	}
}

func hasRole(roles []models.ActorRole, role models.ActorRole) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// WithActor stores the authenticated actor in ctx
func WithActor(ctx context.Context, actorID string, role models.ActorRole) context.Context {
	ctx = context.WithValue(ctx, actorIDKey, actorID)
	return context.WithValue(ctx, actorRoleKey, role)
}

// ActorFromContext returns the actor set by RequireAuth / RequireRole
func ActorFromContext(ctx context.Context) (string, models.ActorRole, bool) {
	id, ok := ctx.Value(actorIDKey).(string)
	if !ok || id == "" {
		return "", "", false
	}
	role, _ := ctx.Value(actorRoleKey).(models.ActorRole)
	return id, role, true
}

// Helper function for error responses
func respondWithError(w http.ResponseWriter, statusCode int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: errorType, Message: message, Code: statusCode})
}
