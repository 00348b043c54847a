package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"subtrackr/internal/auth"
	"subtrackr/internal/cache"
	apperrors "subtrackr/internal/errors"
	"subtrackr/internal/model"
	"subtrackr/internal/repository"
)

const bcryptCost = 10

// RegisterInput carries the fields of a new user.
type RegisterInput struct {
	Username string
	Email    string
	Phone    int64
	Account  int64
	Password string
}

// AuthService handles registration and credential operations.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*model.Profile, error)
	Login(ctx context.Context, phone int64, password string) (token string, err error)
	// Logout revokes token when it is present and still valid. An empty or
	// unverifiable token is acknowledged without error.
	Logout(ctx context.Context, token string) error
	ChangePassword(ctx context.Context, id auth.Identity, currentPassword, newPassword string) error
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	cache      *cache.Client
	log        *zap.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	userRepo repository.UserRepository,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	cache *cache.Client,
	log *zap.Logger,
) AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		tokenStore: tokenStore,
		cache:      cache,
		log:        log,
	}
}

// Register creates a user with a hashed password and empty preferences.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.Profile, error) {
	existing, err := s.userRepo.FindByPhoneOrAccount(ctx, in.Phone, in.Account, uuid.Nil)
	if err == nil && existing != nil {
		return nil, apperrors.ErrUserAlreadyExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, internalError(s.log, "check user existence", err)
	}

	hash, err := hashPassword(s.log, in.Password, bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     in.Username,
		Email:        in.Email,
		Phone:        in.Phone,
		Account:      in.Account,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// The unique indexes catch a registration racing this one.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrUserAlreadyExists
		}
		return nil, internalError(s.log, "create user", err)
	}

	return user.Profile(), nil
}

// Login verifies phone and password and issues an access token.
func (s *authService) Login(ctx context.Context, phone int64, password string) (string, error) {
	user, err := s.userRepo.FindByPhone(ctx, phone)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperrors.ErrUserNotFound
	}
	if err != nil {
		return "", internalError(s.log, "find user by phone", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", apperrors.ErrInvalidPassword
	}

	token, err := s.jwtService.Issue(auth.Identity{UserID: user.ID, Phone: user.Phone})
	if err != nil {
		return "", internalError(s.log, "issue token", err)
	}
	return token, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	id, err := s.jwtService.Verify(token)
	if err != nil {
		return nil
	}
	if err := revoke(ctx, s.tokenStore, *id); err != nil {
		return internalError(s.log, "revoke token", err)
	}
	return nil
}

// ChangePassword replaces the password after checking the current one.
func (s *authService) ChangePassword(ctx context.Context, id auth.Identity, currentPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, id.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrUserNotFound
	}
	if err != nil {
		return internalError(s.log, "find user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return apperrors.ErrInvalidPassword
	}

	hash, err := hashPassword(s.log, newPassword, bcryptCost)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return internalError(s.log, "update password", err)
	}
	_ = s.cache.Delete(ctx, profileCacheKey(user.ID))
	return nil
}

func hashPassword(log *zap.Logger, password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperrors.NewValidationError("validation failed", fmt.Errorf("password must be at most 72 bytes"))
	}
	if err != nil {
		return "", internalError(log, "hash password", err)
	}
	return string(hash), nil
}

// revoke denylists the token behind id for the rest of its lifetime.
func revoke(ctx context.Context, store auth.TokenStoreInterface, id auth.Identity) error {
	if id.TokenID == "" || id.ExpiresAt.IsZero() {
		return nil
	}
	remaining := time.Until(id.ExpiresAt)
	if remaining <= 0 {
		return nil
	}
	return store.Revoke(ctx, id.TokenID, remaining)
}

// internalError logs the cause and returns an error that maps to a
// generic 500.
func internalError(log *zap.Logger, op string, err error) error {
	log.Error("store operation failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%s: %w", op, apperrors.ErrInternal)
}
