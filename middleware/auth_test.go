package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicpulse/models"
	"civicpulse/utils"
)

const testSecret = "test-secret"

func echoActor() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, role, ok := ActorFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(id + "/" + string(role)))
	})
}

func bearer(t *testing.T, subject, role string) string {
	t.Helper()
	token, err := utils.GenerateJWT(subject, role, []byte(testSecret), 1)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRequireRole(t *testing.T) {
	m := NewAuthMiddleware(testSecret)
	workerOnly := m.RequireRole(models.RoleWorker)(echoActor())
	anyone := m.RequireAuth(echoActor())

	tests := []struct {
		name    string
		handler http.Handler
		header  string
		code    int
		body    string
	}{
		{"no header", anyone, "", http.StatusUnauthorized, ""},
		{"not bearer", anyone, "Token abc", http.StatusUnauthorized, ""},
		{"bad signature", anyone, "Bearer not-a-jwt", http.StatusUnauthorized, ""},
		{"unknown role", anyone, bearer(t, "u1", "mayor"), http.StatusUnauthorized, ""},
		{"citizen on any", anyone, bearer(t, "c1", "citizen"), http.StatusOK, "c1/citizen"},
		{"citizen on worker route", workerOnly, bearer(t, "c1", "citizen"), http.StatusForbidden, ""},
		{"worker on worker route", workerOnly, bearer(t, "w1", "worker"), http.StatusOK, "w1/worker"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			tt.handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.code, rr.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rr.Body.String())
			} else {
				assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
			}
		})
	}
}

func TestRejectsTokenSignedWithOtherSecret(t *testing.T) {
	token, err := utils.GenerateJWT("w1", "worker", []byte("other"), 1)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	NewAuthMiddleware(testSecret).RequireAuth(echoActor()).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
