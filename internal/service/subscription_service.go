package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"subtrackr/internal/auth"
	apperrors "subtrackr/internal/errors"
	"subtrackr/internal/model"
	"subtrackr/internal/repository"
)

// SubscriptionService manages the subscriptions of the authenticated user.
// Every call is scoped to id.UserID; a record owned by someone else is
// reported exactly like a missing one.
type SubscriptionService interface {
	List(ctx context.Context, id auth.Identity) ([]model.Subscription, error)
	Create(ctx context.Context, id auth.Identity, sub *model.Subscription) (*model.Subscription, error)
	Update(ctx context.Context, id auth.Identity, subID uuid.UUID, changes model.SubscriptionChanges) (*model.Subscription, error)
	Delete(ctx context.Context, id auth.Identity, subID uuid.UUID) (*model.Subscription, error)
}

type subscriptionService struct {
	repo repository.SubscriptionRepository
	log  *zap.Logger
}

// NewSubscriptionService creates a new subscription service.
func NewSubscriptionService(repo repository.SubscriptionRepository, log *zap.Logger) SubscriptionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &subscriptionService{repo: repo, log: log}
}

func (s *subscriptionService) List(ctx context.Context, id auth.Identity) ([]model.Subscription, error) {
	subs, err := s.repo.ListByOwner(ctx, id.UserID)
	if err != nil {
		return nil, internalError(s.log, "list subscriptions", err)
	}
	return subs, nil
}

// Create persists sub under the caller. Any owner already set on sub is
// ignored.
func (s *subscriptionService) Create(ctx context.Context, id auth.Identity, sub *model.Subscription) (*model.Subscription, error) {
	if sub == nil {
		return nil, apperrors.NewValidationError("error creating subscription", nil)
	}
	sub.ID = uuid.Nil
	if err := s.repo.Create(ctx, id.UserID, sub); err != nil {
		return nil, internalError(s.log, "create subscription", err)
	}
	return sub, nil
}

func (s *subscriptionService) Update(ctx context.Context, id auth.Identity, subID uuid.UUID, changes model.SubscriptionChanges) (*model.Subscription, error) {
	sub, err := s.repo.UpdateOwned(ctx, id.UserID, subID, changes)
	if err != nil {
		return nil, s.translate("update subscription", err)
	}
	return sub, nil
}

func (s *subscriptionService) Delete(ctx context.Context, id auth.Identity, subID uuid.UUID) (*model.Subscription, error) {
	sub, err := s.repo.DeleteOwned(ctx, id.UserID, subID)
	if err != nil {
		return nil, s.translate("delete subscription", err)
	}
	return sub, nil
}

func (s *subscriptionService) translate(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrSubscriptionNotFound
	}
	return internalError(s.log, op, err)
}
