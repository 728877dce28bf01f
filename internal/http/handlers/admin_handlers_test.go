package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/you/missionlog/domain"
	"github.com/you/missionlog/internal/mocks"
)

func setupAdminRouter(authSvc domain.AuthService, policies domain.PolicyService, principal *domain.Principal) *gin.Engine {
	h := NewAdminHandlers(authSvc, policies, newErrs(false))
	r := newEngine()
	admin := r.Group("/admin", asPrincipal(principal))
	admin.GET("/users/:id", h.GetUser)
	admin.PATCH("/users/:id/role", h.ChangeRole)
	admin.GET("/policies", h.Policies)
	return r
}

func TestAdminHandlers_GetUser(t *testing.T) {
	authSvc := mocks.NewMockAuthService()
	authSvc.GetProfileFunc = func(ctx context.Context, id string) (*domain.Identity, error) {
		if id == "u1" {
			return sampleIdentity(id, domain.RoleMentor), nil
		}
		return nil, domain.ErrIdentityNotFound
	}
	r := setupAdminRouter(authSvc, mocks.NewMockPolicyService(), adminPrincipal)

	w, env := doJSON(t, r, http.MethodGet, "/admin/users/u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "mentor", env.Data["identity"].(map[string]any)["role"])

	w, env = doJSON(t, r, http.MethodGet, "/admin/users/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, domain.ErrIdentityNotFound.Error(), env.Message)
}

func TestAdminHandlers_ChangeRole(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		serviceErr     error
		expectedStatus int
	}{
		{name: "promote to mentor", body: gin.H{"role": "mentor"}, expectedStatus: http.StatusOK},
		{name: "unknown role", body: gin.H{"role": "owner"}, expectedStatus: http.StatusBadRequest},
		{name: "missing role", body: gin.H{}, expectedStatus: http.StatusBadRequest},
		{name: "unknown identity", body: gin.H{"role": "mentor"}, serviceErr: domain.ErrIdentityNotFound, expectedStatus: http.StatusNotFound},
		{name: "forbidden actor", body: gin.H{"role": "admin"}, serviceErr: domain.ErrForbidden, expectedStatus: http.StatusForbidden},
		{name: "self demotion", body: gin.H{"role": "student"}, serviceErr: domain.NewValidationError("role", "admins cannot demote themselves"), expectedStatus: http.StatusBadRequest},
		{name: "store failure", body: gin.H{"role": "mentor"}, serviceErr: errors.New("deadlock"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotActor *domain.Principal
			var gotRole domain.Role
			authSvc := mocks.NewMockAuthService()
			authSvc.ChangeRoleFunc = func(ctx context.Context, actor *domain.Principal, id string, role domain.Role) (*domain.Identity, error) {
				gotActor, gotRole = actor, role
				if tt.serviceErr != nil {
					return nil, tt.serviceErr
				}
				return sampleIdentity(id, role), nil
			}

			r := setupAdminRouter(authSvc, mocks.NewMockPolicyService(), adminPrincipal)
			w, env := doJSON(t, r, http.MethodPatch, "/admin/users/u1/role", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedStatus == http.StatusOK {
				assert.Same(t, adminPrincipal, gotActor)
				assert.Equal(t, domain.RoleMentor, gotRole)
				assert.Equal(t, "mentor", env.Data["identity"].(map[string]any)["role"])
			}
		})
	}
}

func TestAdminHandlers_Policies(t *testing.T) {
	policies := mocks.NewMockPolicyService()
	policies.PoliciesFunc = func() ([][]string, error) {
		return [][]string{
			{"admin", "*", "publish"},
			{"mentor", "role:student", "publish"},
			{"broken"},
		}, nil
	}
	r := setupAdminRouter(mocks.NewMockAuthService(), policies, adminPrincipal)

	w, env := doJSON(t, r, http.MethodGet, "/admin/policies", nil)
	require.Equal(t, http.StatusOK, w.Code)

	list := env.Data["policies"].([]any)
	require.Len(t, list, 2)
	assert.Equal(t, map[string]any{"role": "mentor", "channel": "role:student", "action": "publish"}, list[1])
}
