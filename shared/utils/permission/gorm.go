package permission

import (
	"context"
	"errors"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tenanthub-backend/shared/database/models"
)

// GormCatalog is the database-backed permission catalog.
type GormCatalog struct {
	db *gorm.DB
}

// NewGormCatalog creates a catalog over the given database.
func NewGormCatalog(db *gorm.DB) *GormCatalog {
	return &GormCatalog{db: db}
}

func (c *GormCatalog) GetRole(ctx context.Context, roleID uuid.UUID) (*models.Role, error) {
	var role models.Role
	err := c.db.WithContext(ctx).
		Preload("RolePermissions.Permission").
		Where("id = ?", roleID).
		First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	return &role, nil
}

func (c *GormCatalog) GetPermission(ctx context.Context, id uuid.UUID) (*models.Permission, error) {
	var perm models.Permission
	err := c.db.WithContext(ctx).Where("id = ?", id).First(&perm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPermissionNotFound
		}
		return nil, err
	}
	return &perm, nil
}

func (c *GormCatalog) GetPermissionBySlug(ctx context.Context, slug string) (*models.Permission, error) {
	var perm models.Permission
	err := c.db.WithContext(ctx).Where("slug = ?", slug).First(&perm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPermissionNotFound
		}
		return nil, err
	}
	return &perm, nil
}

func (c *GormCatalog) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	var perms []models.Permission
	if err := c.db.WithContext(ctx).Order("slug ASC").Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

// GormGrantStore persists time-window grants in postgres.
type GormGrantStore struct {
	db *gorm.DB
}

// NewGormGrantStore creates a grant store over the given database.
func NewGormGrantStore(db *gorm.DB) *GormGrantStore {
	return &GormGrantStore{db: db}
}

// Create inserts a grant after an overlap check. The check-then-insert
// is serialized per (role, permission) with a transaction-scoped
// advisory lock, so two concurrent creates with overlapping windows
// yield one success and one ErrOverlappingGrant.
func (s *GormGrantStore) Create(ctx context.Context, grant *models.TimeWindowGrant) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", advisoryKey(grant.RoleID, grant.PermissionID)).Error; err != nil {
			return err
		}

		var count int64
		err := tx.Model(&models.TimeWindowGrant{}).
			Where("role_id = ? AND permission_id = ? AND is_active = ?", grant.RoleID, grant.PermissionID, true).
			Where("starts_at < ? AND expires_at > ?", grant.ExpiresAt, grant.StartsAt).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrOverlappingGrant
		}

		return tx.Create(grant).Error
	})
}

func (s *GormGrantStore) Get(ctx context.Context, id uuid.UUID) (*models.TimeWindowGrant, error) {
	var grant models.TimeWindowGrant
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&grant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGrantNotFound
		}
		return nil, err
	}
	return &grant, nil
}

func (s *GormGrantStore) ListByRole(ctx context.Context, roleID uuid.UUID) ([]models.TimeWindowGrant, error) {
	var grants []models.TimeWindowGrant
	err := s.db.WithContext(ctx).
		Preload("Permission").
		Where("role_id = ?", roleID).
		Order("starts_at ASC").
		Find(&grants).Error
	if err != nil {
		return nil, err
	}
	return grants, nil
}

func (s *GormGrantStore) ActiveGrants(ctx context.Context, roleID uuid.UUID, asOf time.Time) ([]models.TimeWindowGrant, error) {
	var grants []models.TimeWindowGrant
	err := s.db.WithContext(ctx).
		Preload("Permission").
		Where("role_id = ? AND is_active = ?", roleID, true).
		Where("starts_at <= ? AND expires_at > ?", asOf, asOf).
		Find(&grants).Error
	if err != nil {
		return nil, err
	}
	return grants, nil
}

func (s *GormGrantStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Model(&models.TimeWindowGrant{}).
		Where("id = ?", id).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.TimeWindowGrant{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrGrantNotFound
		}
	}
	return nil
}

func (s *GormGrantStore) SweepExpired(ctx context.Context, asOf time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&models.TimeWindowGrant{}).
		Where("is_active = ? AND expires_at <= ?", true, asOf).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}

// advisoryKey maps a (role, permission) pair onto a 64-bit advisory lock
// key.
func advisoryKey(roleID, permissionID uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write(roleID[:])
	h.Write(permissionID[:])
	return int64(h.Sum64())
}
