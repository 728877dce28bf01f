package services

import (
	"github.com/casbin/casbin/v2"
	"github.com/you/missionlog/domain"
	"github.com/you/missionlog/internal/infrastructure/auth"
)

// PolicyServiceImpl implements domain.PolicyService using Casbin
type PolicyServiceImpl struct {
	enforcer casbin.IEnforcer
}

// NewPolicyService creates a new policy service
func NewPolicyService(enforcer casbin.IEnforcer) *PolicyServiceImpl {
	return &PolicyServiceImpl{enforcer: enforcer}
}

// CanPublish implements domain.PolicyService. Malformed channels are never allowed.
func (p *PolicyServiceImpl) CanPublish(role domain.Role, channel string) (bool, error) {
	if !role.Valid() || !domain.ValidChannel(channel) {
		return false, nil
	}
	return p.enforcer.Enforce(string(role), channel, auth.ActionPublish)
}

// Policies implements domain.PolicyService
func (p *PolicyServiceImpl) Policies() ([][]string, error) {
	return p.enforcer.GetPolicy()
}

var _ domain.PolicyService = (*PolicyServiceImpl)(nil)
