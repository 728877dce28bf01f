package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/you/missionlog/domain"
	"gorm.io/gorm"
)

// IdentityRepositoryImpl implements domain.CredentialStore using GORM
type IdentityRepositoryImpl struct {
	db  *gorm.DB
	now domain.Clock
}

// DBIdentity represents the database model for Identity (with GORM tags)
type DBIdentity struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Email        string    `gorm:"uniqueIndex;size:255;not null"`
	DisplayName  string    `gorm:"size:255;not null"`
	PasswordHash string    `gorm:"column:password;not null"`
	Role         string    `gorm:"index;size:32;not null"`
	CreatedAt    time.Time `gorm:"index"`
	UpdatedAt    time.Time
}

// TableName returns the table name for GORM
func (DBIdentity) TableName() string {
	return "identities"
}

// NewIdentityRepository creates a new identity repository
func NewIdentityRepository(db *gorm.DB) *IdentityRepositoryImpl {
	return &IdentityRepositoryImpl{db: db, now: time.Now}
}

// Create implements domain.CredentialStore. It assigns ID and timestamps
// when they are empty and maps unique email violations to ErrDuplicateIdentity.
func (r *IdentityRepositoryImpl) Create(ctx context.Context, identity *domain.Identity) error {
	identity.Email = domain.NormalizeEmail(identity.Email)
	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = r.now().UTC()
	}
	if identity.UpdatedAt.IsZero() {
		identity.UpdatedAt = identity.CreatedAt
	}

	if err := r.db.WithContext(ctx).Create(domainToDB(identity)).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateIdentity
		}
		return fmt.Errorf("failed to create identity: %w", err)
	}
	return nil
}

// FindByEmail implements domain.CredentialStore
func (r *IdentityRepositoryImpl) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	return r.findOne(ctx, "email = ?", domain.NormalizeEmail(email))
}

// FindByID implements domain.CredentialStore
func (r *IdentityRepositoryImpl) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	return r.findOne(ctx, "id = ?", id)
}

// UpdateProfile implements domain.CredentialStore
func (r *IdentityRepositoryImpl) UpdateProfile(ctx context.Context, id, displayName string) (*domain.Identity, error) {
	return r.update(ctx, id, map[string]any{"display_name": displayName})
}

// UpdateRole implements domain.CredentialStore
func (r *IdentityRepositoryImpl) UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.Identity, error) {
	if !role.Valid() {
		return nil, domain.NewValidationError("role", "must be one of student, mentor, admin")
	}
	return r.update(ctx, id, map[string]any{"role": string(role)})
}

func (r *IdentityRepositoryImpl) update(ctx context.Context, id string, fields map[string]any) (*domain.Identity, error) {
	fields["updated_at"] = r.now().UTC()

	res := r.db.WithContext(ctx).Model(&DBIdentity{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update identity: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrIdentityNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *IdentityRepositoryImpl) findOne(ctx context.Context, query string, arg any) (*domain.Identity, error) {
	var row DBIdentity
	err := r.db.WithContext(ctx).Where(query, arg).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, err
	}
	return dbToDomain(&row), nil
}

// isUniqueViolation recognizes duplicate keys whether or not the dialector
// translates driver errors
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

// domainToDB converts domain identity to database identity
func domainToDB(identity *domain.Identity) *DBIdentity {
	return &DBIdentity{
		ID:           identity.ID,
		Email:        identity.Email,
		DisplayName:  identity.DisplayName,
		PasswordHash: identity.PasswordHash,
		Role:         string(identity.Role),
		CreatedAt:    identity.CreatedAt,
		UpdatedAt:    identity.UpdatedAt,
	}
}

// dbToDomain converts database identity to domain identity
func dbToDomain(row *DBIdentity) *domain.Identity {
	return &domain.Identity{
		ID:           row.ID,
		Email:        row.Email,
		DisplayName:  row.DisplayName,
		PasswordHash: row.PasswordHash,
		Role:         domain.Role(row.Role),
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

// Compile-time interface compliance verification
var _ domain.CredentialStore = (*IdentityRepositoryImpl)(nil)
