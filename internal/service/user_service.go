package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"subtrackr/internal/auth"
	"subtrackr/internal/cache"
	apperrors "subtrackr/internal/errors"
	"subtrackr/internal/model"
	"subtrackr/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// UserService exposes profile and preference operations for the
// authenticated user.
type UserService interface {
	Profile(ctx context.Context, id auth.Identity) (*model.Profile, error)
	UpdateProfile(ctx context.Context, id auth.Identity, changes model.ProfileChanges) (*model.Profile, error)
	DeleteAccount(ctx context.Context, id auth.Identity) error
	GetPreferences(ctx context.Context, id auth.Identity) (*model.Preferences, error)
	UpdatePreferences(ctx context.Context, id auth.Identity, prefs *model.Preferences) (*model.Preferences, error)
}

type userService struct {
	repo       repository.UserRepository
	tokenStore auth.TokenStoreInterface
	cache      *cache.Client
	log        *zap.Logger
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, tokenStore auth.TokenStoreInterface, cache *cache.Client, log *zap.Logger) UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &userService{repo: repo, tokenStore: tokenStore, cache: cache, log: log}
}

func profileCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id)
}

func (s *userService) Profile(ctx context.Context, id auth.Identity) (*model.Profile, error) {
	var cached model.Profile
	if s.cache.GetJSON(ctx, profileCacheKey(id.UserID), &cached) {
		return &cached, nil
	}

	user, err := s.findUser(ctx, id.UserID)
	if err != nil {
		return nil, err
	}

	profile := user.Profile()
	_ = s.cache.SetJSON(ctx, profileCacheKey(id.UserID), profile, userCacheTTL)
	return profile, nil
}

// UpdateProfile applies the non-nil changes. A phone or account already
// held by another user is a conflict.
func (s *userService) UpdateProfile(ctx context.Context, id auth.Identity, changes model.ProfileChanges) (*model.Profile, error) {
	if changes.Phone != nil || changes.Account != nil {
		current, err := s.findUser(ctx, id.UserID)
		if err != nil {
			return nil, err
		}
		phone, account := current.Phone, current.Account
		if changes.Phone != nil {
			phone = *changes.Phone
		}
		if changes.Account != nil {
			account = *changes.Account
		}
		taken, err := s.repo.FindByPhoneOrAccount(ctx, phone, account, id.UserID)
		if err == nil && taken != nil {
			return nil, apperrors.ErrUserAlreadyExists
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internalError(s.log, "check profile uniqueness", err)
		}
	}

	user, err := s.repo.UpdateProfile(ctx, id.UserID, changes)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperrors.ErrUserNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return nil, apperrors.ErrUserAlreadyExists
	case err != nil:
		return nil, internalError(s.log, "update profile", err)
	}

	_ = s.cache.Delete(ctx, profileCacheKey(id.UserID))
	return user.Profile(), nil
}

// DeleteAccount removes the user with all their subscriptions and revokes
// the token the request was made with.
func (s *userService) DeleteAccount(ctx context.Context, id auth.Identity) error {
	if err := s.repo.Delete(ctx, id.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return internalError(s.log, "delete user", err)
	}
	_ = s.cache.Delete(ctx, profileCacheKey(id.UserID))

	if err := revoke(ctx, s.tokenStore, id); err != nil {
		s.log.Warn("revoke token after account deletion", zap.String("user_id", id.UserID.String()), zap.Error(err))
	}
	return nil
}

// GetPreferences returns the stored preferences, or the defaults when the
// stored document is incomplete. Defaults are not persisted.
func (s *userService) GetPreferences(ctx context.Context, id auth.Identity) (*model.Preferences, error) {
	user, err := s.findUser(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	if prefs, ok := model.DecodePreferences(user.Preferences); ok {
		return prefs, nil
	}
	return model.DefaultPreferences(), nil
}

// UpdatePreferences replaces the stored document wholesale.
func (s *userService) UpdatePreferences(ctx context.Context, id auth.Identity, prefs *model.Preferences) (*model.Preferences, error) {
	if !prefs.Complete() {
		return nil, apperrors.ErrInvalidPreferences
	}

	payload, err := json.Marshal(prefs)
	if err != nil {
		return nil, apperrors.ErrInvalidPreferences
	}
	if err := s.repo.UpdatePreferences(ctx, id.UserID, datatypes.JSON(payload)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, internalError(s.log, "update preferences", err)
	}
	_ = s.cache.Delete(ctx, profileCacheKey(id.UserID))
	return prefs, nil
}

func (s *userService) findUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, internalError(s.log, "find user", err)
	}
	return user, nil
}
