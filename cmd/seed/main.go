package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"subtrackr/internal/config"
	"subtrackr/internal/db"
	apperrors "subtrackr/internal/errors"
	"subtrackr/internal/logging"
	"subtrackr/internal/model"
	"subtrackr/internal/repository"
	"subtrackr/internal/service"
)

// Fixture is the YAML document of demo users and their subscriptions.
type Fixture struct {
	Users []SeedUser `yaml:"users"`
}

// SeedUser is one demo user.
type SeedUser struct {
	Username      string             `yaml:"username"`
	Email         string             `yaml:"email"`
	Phone         int64              `yaml:"phone"`
	Account       int64              `yaml:"account"`
	Password      string             `yaml:"password"`
	Subscriptions []SeedSubscription `yaml:"subscriptions"`
}

// SeedSubscription is one demo subscription.
type SeedSubscription struct {
	SubscriptionName string `yaml:"subscription_name"`
	Price            string `yaml:"price"`
	RenewalDate      string `yaml:"renewal_date"`
	Category         string `yaml:"category"`
	Notes            string `yaml:"notes"`
}

// seedResult counts what a run changed.
type seedResult struct {
	UsersCreated         int
	UsersExisting        int
	SubscriptionsCreated int
	SubscriptionsSkipped int
}

func main() {
	var fixturePath string

	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Load demo users and subscriptions from a YAML fixture",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			log, err := logging.New(cfg.LogLevel, cfg.LogFile)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() { _ = log.Sync() }()

			f, err := os.Open(fixturePath)
			if err != nil {
				return fmt.Errorf("open fixture: %w", err)
			}
			defer f.Close()
			fixture, err := parseFixture(f)
			if err != nil {
				return err
			}

			gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
			if err != nil {
				return err
			}
			if err := db.Migrate(gormDB, false, log); err != nil {
				return err
			}
			log.Info("connected to database", zap.String("driver", cfg.DBDriver))

			userRepo := repository.NewUserRepository(gormDB)
			subRepo := repository.NewSubscriptionRepository(gormDB)
			authService := service.NewAuthService(userRepo, nil, nil, nil, log)

			res, err := seed(cmd.Context(), fixture, authService, userRepo, subRepo)
			if err != nil {
				return err
			}
			log.Info("seed completed",
				zap.Int("users_created", res.UsersCreated),
				zap.Int("users_existing", res.UsersExisting),
				zap.Int("subscriptions_created", res.SubscriptionsCreated),
				zap.Int("subscriptions_skipped", res.SubscriptionsSkipped),
			)
			return nil
		},
	}
	cmd.Flags().StringVarP(&fixturePath, "file", "f", "fixtures/seed.yaml", "path to the YAML fixture")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseFixture(r io.Reader) (*Fixture, error) {
	var fixture Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fixture); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &fixture, nil
}

// seed registers every fixture user that does not exist yet and adds the
// subscriptions they are missing, matched by name. Running it twice is a
// no-op.
func seed(
	ctx context.Context,
	fixture *Fixture,
	authService service.AuthService,
	users repository.UserRepository,
	subs repository.SubscriptionRepository,
) (seedResult, error) {
	var res seedResult
	for _, u := range fixture.Users {
		_, err := authService.Register(ctx, service.RegisterInput{
			Username: u.Username,
			Email:    u.Email,
			Phone:    u.Phone,
			Account:  u.Account,
			Password: u.Password,
		})
		switch {
		case err == nil:
			res.UsersCreated++
		case errors.Is(err, apperrors.ErrConflict):
			res.UsersExisting++
		default:
			return res, fmt.Errorf("register %s: %w", u.Username, err)
		}

		owner, err := users.FindByPhone(ctx, u.Phone)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// phone conflicts with nobody but account is taken by another user
			return res, fmt.Errorf("user %s: account %d belongs to someone else", u.Username, u.Account)
		}
		if err != nil {
			return res, fmt.Errorf("find %s: %w", u.Username, err)
		}

		existing, err := subs.ListByOwner(ctx, owner.ID)
		if err != nil {
			return res, fmt.Errorf("list subscriptions of %s: %w", u.Username, err)
		}
		have := make(map[string]bool, len(existing))
		for _, s := range existing {
			have[s.SubscriptionName] = true
		}

		for _, s := range u.Subscriptions {
			if have[s.SubscriptionName] {
				res.SubscriptionsSkipped++
				continue
			}
			sub, err := s.toModel()
			if err != nil {
				return res, fmt.Errorf("subscription %q of %s: %w", s.SubscriptionName, u.Username, err)
			}
			if err := subs.Create(ctx, owner.ID, sub); err != nil {
				return res, fmt.Errorf("create subscription %q: %w", s.SubscriptionName, err)
			}
			have[s.SubscriptionName] = true
			res.SubscriptionsCreated++
		}
	}
	return res, nil
}

func (s SeedSubscription) toModel() (*model.Subscription, error) {
	if s.SubscriptionName == "" {
		return nil, errors.New("subscription_name is required")
	}
	price, err := decimal.NewFromString(s.Price)
	if err != nil {
		return nil, fmt.Errorf("invalid price %q: %w", s.Price, err)
	}
	renewal, err := model.ParseRenewalDate(s.RenewalDate)
	if err != nil {
		return nil, err
	}
	return &model.Subscription{
		SubscriptionName: s.SubscriptionName,
		Price:            price,
		RenewalDate:      renewal,
		Category:         s.Category,
		Notes:            s.Notes,
	}, nil
}
