package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/you/missionlog/domain"
	"gorm.io/gorm"
)

// ActionPublish is the casbin action checked before pushing to a channel
const ActionPublish = "publish"

// publishModel matches role, channel pattern and action; channel patterns use keyMatch ("role:*")
const publishModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch(r.obj, p.obj) && r.act == p.act
`

// DefaultPublishPolicies are seeded when the policy table is empty
var DefaultPublishPolicies = [][]string{
	{string(domain.RoleAdmin), "*", ActionPublish},
	{string(domain.RoleMentor), "role:student", ActionPublish},
	{string(domain.RoleMentor), "role:mentor", ActionPublish},
	{string(domain.RoleMentor), "subject:*", ActionPublish},
}

// NewPolicyEnforcer builds an enforcer persisted through the gorm adapter
func NewPolicyEnforcer(db *gorm.DB) (*casbin.Enforcer, error) {
	adp, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize casbin gorm adapter: %w", err)
	}
	m, err := model.NewModelFromString(publishModel)
	if err != nil {
		return nil, err
	}
	e, err := casbin.NewEnforcer(m, adp)
	if err != nil {
		return nil, err
	}
	if err := e.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := SeedDefaultPolicies(e); err != nil {
		return nil, err
	}
	return e, nil
}

// NewMemoryPolicyEnforcer builds an enforcer with no persistence
func NewMemoryPolicyEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(publishModel)
	if err != nil {
		return nil, err
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}
	if err := SeedDefaultPolicies(e); err != nil {
		return nil, err
	}
	return e, nil
}

// SeedDefaultPolicies adds DefaultPublishPolicies when no policy exists yet
func SeedDefaultPolicies(e *casbin.Enforcer) error {
	policies, err := e.GetPolicy()
	if err != nil {
		return err
	}
	if len(policies) > 0 {
		return nil
	}
	if _, err := e.AddPolicies(DefaultPublishPolicies); err != nil {
		return fmt.Errorf("failed to seed publish policies: %w", err)
	}
	return nil
}
