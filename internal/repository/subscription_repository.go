package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"subtrackr/internal/model"
)

// SubscriptionRepository is the owner-scoped subscription store. Every
// method takes the owner id and filters on it, so a record owned by
// someone else is indistinguishable from a missing one: both yield
// gorm.ErrRecordNotFound.
type SubscriptionRepository interface {
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]model.Subscription, error)
	// Create stores sub under owner, overwriting any UserID it carries.
	Create(ctx context.Context, owner uuid.UUID, sub *model.Subscription) error
	FindOwned(ctx context.Context, owner, id uuid.UUID) (*model.Subscription, error)
	UpdateOwned(ctx context.Context, owner, id uuid.UUID, changes model.SubscriptionChanges) (*model.Subscription, error)
	DeleteOwned(ctx context.Context, owner, id uuid.UUID) (*model.Subscription, error)
	DeleteAllOwned(ctx context.Context, owner uuid.UUID) (int64, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository.
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func owned(db *gorm.DB, owner, id uuid.UUID) *gorm.DB {
	return db.Where("id = ? AND user_id = ?", id, owner)
}

// ListByOwner returns all of owner's subscriptions, oldest first.
func (r *subscriptionRepository) ListByOwner(ctx context.Context, owner uuid.UUID) ([]model.Subscription, error) {
	subs := make([]model.Subscription, 0)
	if err := r.db.WithContext(ctx).Where("user_id = ?", owner).Order("created_at").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *subscriptionRepository) Create(ctx context.Context, owner uuid.UUID, sub *model.Subscription) error {
	sub.UserID = owner
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *subscriptionRepository) FindOwned(ctx context.Context, owner, id uuid.UUID) (*model.Subscription, error) {
	var sub model.Subscription
	if err := owned(r.db.WithContext(ctx), owner, id).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// UpdateOwned applies changes and returns the post-update record.
func (r *subscriptionRepository) UpdateOwned(ctx context.Context, owner, id uuid.UUID, changes model.SubscriptionChanges) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := owned(tx, owner, id).First(&sub).Error; err != nil {
			return err
		}
		cols := changes.Columns()
		if len(cols) == 0 {
			return nil
		}
		if err := owned(tx.Model(&model.Subscription{}), owner, id).Updates(cols).Error; err != nil {
			return err
		}
		return owned(tx, owner, id).First(&sub).Error
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// DeleteOwned physically removes the record and returns it as it was.
func (r *subscriptionRepository) DeleteOwned(ctx context.Context, owner, id uuid.UUID) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := owned(tx, owner, id).First(&sub).Error; err != nil {
			return err
		}
		res := owned(tx, owner, id).Delete(&model.Subscription{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) DeleteAllOwned(ctx context.Context, owner uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", owner).Delete(&model.Subscription{})
	return res.RowsAffected, res.Error
}
