package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMemoryPolicyEnforcer_DefaultPolicies(t *testing.T) {
	e, err := NewMemoryPolicyEnforcer()
	require.NoError(t, err)

	tests := []struct {
		role    string
		channel string
		allowed bool
	}{
		{"admin", "role:student", true},
		{"admin", "role:admin", true},
		{"admin", "subject:42", true},
		{"mentor", "role:student", true},
		{"mentor", "role:mentor", true},
		{"mentor", "subject:42", true},
		{"mentor", "role:admin", false},
		{"student", "role:student", false},
		{"student", "subject:42", false},
	}

	for _, tt := range tests {
		t.Run(tt.role+"->"+tt.channel, func(t *testing.T) {
			ok, err := e.Enforce(tt.role, tt.channel, ActionPublish)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, ok)
		})
	}
}

func TestPolicyEnforcer_PersistsWithGormAdapter(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	e, err := NewPolicyEnforcer(db)
	require.NoError(t, err)

	policies, err := e.GetPolicy()
	require.NoError(t, err)
	assert.Len(t, policies, len(DefaultPublishPolicies))

	// a second enforcer over the same database must not seed twice
	e2, err := NewPolicyEnforcer(db)
	require.NoError(t, err)
	policies, err = e2.GetPolicy()
	require.NoError(t, err)
	assert.Len(t, policies, len(DefaultPublishPolicies))
}
