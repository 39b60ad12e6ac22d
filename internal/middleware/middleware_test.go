package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aura-webinar/webinar-service/internal/auth"
	"github.com/aura-webinar/webinar-service/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(jwtService *auth.JWTService, roles ...models.Role) *gin.Engine {
	r := gin.New()
	r.Use(Logger(zap.NewNop()))
	r.GET("/me", JWT(jwtService), RequireRole(roles...), func(c *gin.Context) {
		id, role, ok := UserFromContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "role": role})
	})
	return r
}

func TestJWTAndRole(t *testing.T) {
	jwtService := auth.NewJWTService("secret", 1)
	r := newRouter(jwtService, models.RoleMentor, models.RoleAdmin)

	mentorToken, err := jwtService.Generate(uuid.New(), "m@x.com", models.RoleMentor)
	require.NoError(t, err)
	studentToken, err := jwtService.Generate(uuid.New(), "s@x.com", models.RoleStudent)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer abc", want: http.StatusUnauthorized},
		{name: "student forbidden", header: "Bearer " + studentToken, want: http.StatusForbidden},
		{name: "mentor allowed", header: "Bearer " + mentorToken, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS("http://localhost:3000"))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
