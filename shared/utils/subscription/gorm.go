package subscription

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tenanthub-backend/shared/database/models/billing"
)

// GormStore is the postgres-backed subscription store. Conditional
// transitions rely on UPDATE ... WHERE id = ? AND status = ? so the
// database serializes racing writers; no application-level locking is
// needed.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(ctx context.Context, sub *billing.OrgAppSubscription) error {
	return s.db.WithContext(ctx).Create(sub).Error
}

func (s *GormStore) Get(ctx context.Context, organizationID, appID uuid.UUID) (*billing.OrgAppSubscription, error) {
	var sub billing.OrgAppSubscription
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND app_id = ?", organizationID, appID).
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *GormStore) GetByID(ctx context.Context, id uuid.UUID) (*billing.OrgAppSubscription, error) {
	var sub billing.OrgAppSubscription
	err := s.db.WithContext(ctx).First(&sub, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *GormStore) List(ctx context.Context, organizationID uuid.UUID) ([]billing.OrgAppSubscription, error) {
	var subs []billing.OrgAppSubscription
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("created_at DESC").
		Find(&subs).Error
	return subs, err
}

func (s *GormStore) UpdateAutoRenew(ctx context.Context, id uuid.UUID, autoRenew bool) error {
	result := s.db.WithContext(ctx).
		Model(&billing.OrgAppSubscription{}).
		Where("id = ?", id).
		Update("auto_renew", autoRenew)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ApplyTransition(ctx context.Context, id uuid.UUID, expect Expect, updates map[string]interface{}) (bool, error) {
	query := s.db.WithContext(ctx).
		Model(&billing.OrgAppSubscription{}).
		Where("id = ? AND status = ?", id, expect.Status)
	if expect.NextBillingDate != nil {
		query = query.Where("next_billing_date = ?", *expect.NextBillingDate)
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *GormStore) DueTrials(ctx context.Context, asOf time.Time, limit int) ([]billing.OrgAppSubscription, error) {
	var subs []billing.OrgAppSubscription
	err := s.db.WithContext(ctx).
		Where("status = ? AND trial_ends_at IS NOT NULL AND trial_ends_at <= ?", billing.SubscriptionStatusTrial, asOf).
		Order("trial_ends_at ASC").
		Limit(limit).
		Find(&subs).Error
	return subs, err
}

func (s *GormStore) DueRenewals(ctx context.Context, asOf time.Time, limit int) ([]billing.OrgAppSubscription, error) {
	var subs []billing.OrgAppSubscription
	err := s.db.WithContext(ctx).
		Where("status = ? AND auto_renew = ? AND next_billing_date IS NOT NULL AND next_billing_date <= ?",
			billing.SubscriptionStatusActive, true, asOf).
		Order("next_billing_date ASC").
		Limit(limit).
		Find(&subs).Error
	return subs, err
}

func (s *GormStore) DueExpiries(ctx context.Context, asOf time.Time, limit int) ([]billing.OrgAppSubscription, error) {
	var subs []billing.OrgAppSubscription
	err := s.db.WithContext(ctx).
		Where("status IN ? AND subscription_end <= ?",
			[]string{billing.SubscriptionStatusTrial, billing.SubscriptionStatusActive}, asOf).
		Order("subscription_end ASC").
		Limit(limit).
		Find(&subs).Error
	return subs, err
}

func (s *GormStore) ExpiringSoon(ctx context.Context, from, to time.Time) ([]billing.OrgAppSubscription, error) {
	var subs []billing.OrgAppSubscription
	err := s.db.WithContext(ctx).
		Where("status = ? AND subscription_end > ? AND subscription_end <= ?",
			billing.SubscriptionStatusActive, from, to).
		Order("subscription_end ASC").
		Find(&subs).Error
	return subs, err
}

// GormAppStore backs the app catalog lookups for the ledger.
type GormAppStore struct {
	db *gorm.DB
}

func NewGormAppStore(db *gorm.DB) *GormAppStore {
	return &GormAppStore{db: db}
}

func (s *GormAppStore) GetApp(ctx context.Context, id uuid.UUID) (*billing.App, error) {
	var app billing.App
	err := s.db.WithContext(ctx).First(&app, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAppNotFound
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (s *GormAppStore) IncrementSubscriptionCount(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).
		Model(&billing.App{}).
		Where("id = ?", id).
		UpdateColumn("subscription_count", gorm.Expr("subscription_count + 1")).Error
}

func (s *GormAppStore) DecrementSubscriptionCount(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).
		Model(&billing.App{}).
		Where("id = ? AND subscription_count > 0", id).
		UpdateColumn("subscription_count", gorm.Expr("subscription_count - 1")).Error
}
