package services

import (
	"strings"

	"github.com/you/missionlog/domain"
)

// RoleResolverImpl implements domain.RoleResolver.
// The admin address wins, then the staff domain and its subdomains map to mentor,
// and everything else is a student.
type RoleResolverImpl struct {
	adminEmail  string
	staffDomain string
}

// NewRoleResolver creates a resolver for one admin address and one staff domain
func NewRoleResolver(adminEmail, staffDomain string) *RoleResolverImpl {
	return &RoleResolverImpl{
		adminEmail:  domain.NormalizeEmail(adminEmail),
		staffDomain: strings.TrimPrefix(strings.ToLower(strings.TrimSpace(staffDomain)), "@"),
	}
}

// Resolve implements domain.RoleResolver
func (r *RoleResolverImpl) Resolve(email string) domain.Role {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return domain.RoleStudent
	}
	if r.adminEmail != "" && email == r.adminEmail {
		return domain.RoleAdmin
	}

	at := strings.LastIndex(email, "@")
	if at < 0 || r.staffDomain == "" {
		return domain.RoleStudent
	}
	host := email[at+1:]
	if host == r.staffDomain || strings.HasSuffix(host, "."+r.staffDomain) {
		return domain.RoleMentor
	}
	return domain.RoleStudent
}

var _ domain.RoleResolver = (*RoleResolverImpl)(nil)
