package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"subtrackr/internal/auth"
	"subtrackr/internal/middleware"
	"subtrackr/internal/model"
	"subtrackr/internal/service"
)

type testValidator struct {
	v *validator.Validate
}

func (tv *testValidator) Validate(i interface{}) error {
	return tv.v.Struct(i)
}

type noRevocations struct{}

func (noRevocations) Revoke(context.Context, string, time.Duration) error { return nil }
func (noRevocations) IsRevoked(context.Context, string) (bool, error)     { return false, nil }

// fixture drives handlers through the real auth middleware.
type fixture struct {
	e      *echo.Echo
	jwt    *auth.JWTService
	caller auth.Identity
	token  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	e := echo.New()
	e.Validator = &testValidator{v: validator.New()}
	jwtService := auth.NewJWTService("test-secret", time.Hour)
	caller := auth.Identity{UserID: uuid.New(), Phone: 555}
	token, err := jwtService.Issue(caller)
	require.NoError(t, err)
	return &fixture{e: e, jwt: jwtService, caller: caller, token: token}
}

// call runs h for a request. When authed is true the request carries the
// fixture's bearer token and passes through the auth middleware.
func (f *fixture) call(h echo.HandlerFunc, method, target, body string, authed bool, params ...string) (*httptest.ResponseRecorder, error) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if authed {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+f.token)
		h = middleware.Auth(f.jwt, noRevocations{}, nil)(h)
	}
	rec := httptest.NewRecorder()
	c := f.e.NewContext(req, rec)
	if len(params) == 2 {
		c.SetParamNames(params[0])
		c.SetParamValues(params[1])
	}
	return rec, h(c)
}

// matchCaller matches the identity built from the fixture's token.
func (f *fixture) matchCaller() interface{} {
	return mock.MatchedBy(func(id auth.Identity) bool {
		return id.UserID == f.caller.UserID && id.Phone == f.caller.Phone
	})
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, in service.RegisterInput) (*model.Profile, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, phone int64, password string) (string, error) {
	args := m.Called(ctx, phone, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockAuthService) ChangePassword(ctx context.Context, id auth.Identity, currentPassword, newPassword string) error {
	args := m.Called(ctx, id, currentPassword, newPassword)
	return args.Error(0)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Profile(ctx context.Context, id auth.Identity) (*model.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, id auth.Identity, changes model.ProfileChanges) (*model.Profile, error) {
	args := m.Called(ctx, id, changes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockUserService) DeleteAccount(ctx context.Context, id auth.Identity) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserService) GetPreferences(ctx context.Context, id auth.Identity) (*model.Preferences, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Preferences), args.Error(1)
}

func (m *MockUserService) UpdatePreferences(ctx context.Context, id auth.Identity, prefs *model.Preferences) (*model.Preferences, error) {
	args := m.Called(ctx, id, prefs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Preferences), args.Error(1)
}

type MockSubscriptionService struct {
	mock.Mock
}

func (m *MockSubscriptionService) List(ctx context.Context, id auth.Identity) ([]model.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Subscription), args.Error(1)
}

func (m *MockSubscriptionService) Create(ctx context.Context, id auth.Identity, sub *model.Subscription) (*model.Subscription, error) {
	args := m.Called(ctx, id, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

func (m *MockSubscriptionService) Update(ctx context.Context, id auth.Identity, subID uuid.UUID, changes model.SubscriptionChanges) (*model.Subscription, error) {
	args := m.Called(ctx, id, subID, changes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

func (m *MockSubscriptionService) Delete(ctx context.Context, id auth.Identity, subID uuid.UUID) (*model.Subscription, error) {
	args := m.Called(ctx, id, subID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}
