package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/you/missionlog/domain"
	"github.com/you/missionlog/internal/http/middleware"
	"github.com/you/missionlog/internal/http/response"
	"github.com/you/missionlog/internal/logging"
)

var fixedTime = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

type envelope struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

func newErrs(production bool) *response.ErrorMapper {
	return response.NewErrorMapper(production, logging.Discard())
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// asPrincipal stands in for the auth middleware
func asPrincipal(p *domain.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p != nil {
			c.Set(middleware.PrincipalKey, p)
			c.Request = c.Request.WithContext(middleware.WithPrincipal(c.Request.Context(), p))
		}
		c.Next()
	}
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func sampleIdentity(id string, role domain.Role) *domain.Identity {
	return &domain.Identity{
		ID:           id,
		Email:        id + "@example.com",
		DisplayName:  "Pat",
		PasswordHash: "hashed_secret1",
		Role:         role,
		CreatedAt:    fixedTime,
		UpdatedAt:    fixedTime,
	}
}

var (
	studentPrincipal = &domain.Principal{ID: "s1", Email: "s1@example.com", DisplayName: "Sam", Role: domain.RoleStudent}
	mentorPrincipal  = &domain.Principal{ID: "m1", Email: "m1@staff.example", DisplayName: "Mo", Role: domain.RoleMentor}
	adminPrincipal   = &domain.Principal{ID: "a1", Email: "a1@example.com", DisplayName: "Al", Role: domain.RoleAdmin}
)
