package router

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"subtrackr/internal/model"
)

// memStore is an in-memory stand-in for both repositories.
type memStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]model.User
	subs  map[uuid.UUID]model.Subscription
}

func newMemStore() *memStore {
	return &memStore{
		users: make(map[uuid.UUID]model.User),
		subs:  make(map[uuid.UUID]model.Subscription),
	}
}

type memUsers struct{ *memStore }

type memSubs struct{ *memStore }

func (s memUsers) Create(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Phone == user.Phone || u.Account == user.Account {
			return gorm.ErrDuplicatedKey
		}
	}
	if err := user.BeforeCreate(nil); err != nil {
		return err
	}
	user.CreatedAt, user.UpdatedAt = time.Now(), time.Now()
	s.users[user.ID] = *user
	return nil
}

func (s memUsers) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (s memUsers) FindByPhone(_ context.Context, phone int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Phone == phone {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s memUsers) FindByPhoneOrAccount(_ context.Context, phone, account int64, excludeID uuid.UUID) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID != excludeID && (u.Phone == phone || u.Account == account) {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s memUsers) UpdateProfile(_ context.Context, id uuid.UUID, changes model.ProfileChanges) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if changes.Username != nil {
		u.Username = *changes.Username
	}
	if changes.Email != nil {
		u.Email = *changes.Email
	}
	if changes.Phone != nil {
		u.Phone = *changes.Phone
	}
	if changes.Account != nil {
		u.Account = *changes.Account
	}
	u.UpdatedAt = time.Now()
	s.users[id] = u
	return &u, nil
}

func (s memUsers) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	return s.update(id, func(u *model.User) { u.PasswordHash = passwordHash })
}

func (s memUsers) UpdatePreferences(_ context.Context, id uuid.UUID, preferences datatypes.JSON) error {
	return s.update(id, func(u *model.User) { u.Preferences = preferences })
}

func (s memUsers) update(id uuid.UUID, fn func(*model.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now()
	s.users[id] = u
	return nil
}

func (s memUsers) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.users, id)
	for subID, sub := range s.subs {
		if sub.UserID == id {
			delete(s.subs, subID)
		}
	}
	return nil
}

func (s memSubs) ListByOwner(_ context.Context, owner uuid.UUID) ([]model.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := []model.Subscription{}
	for _, sub := range s.subs {
		if sub.UserID == owner {
			subs = append(subs, sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].CreatedAt.Before(subs[j].CreatedAt) })
	return subs, nil
}

func (s memSubs) Create(_ context.Context, owner uuid.UUID, sub *model.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub.UserID = owner
	if err := sub.BeforeCreate(nil); err != nil {
		return err
	}
	sub.CreatedAt, sub.UpdatedAt = time.Now(), time.Now()
	s.subs[sub.ID] = *sub
	return nil
}

func (s memSubs) FindOwned(_ context.Context, owner, id uuid.UUID) (*model.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[id]
	if !ok || sub.UserID != owner {
		return nil, gorm.ErrRecordNotFound
	}
	return &sub, nil
}

func (s memSubs) UpdateOwned(_ context.Context, owner, id uuid.UUID, changes model.SubscriptionChanges) (*model.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[id]
	if !ok || sub.UserID != owner {
		return nil, gorm.ErrRecordNotFound
	}
	if changes.SubscriptionName != nil {
		sub.SubscriptionName = *changes.SubscriptionName
	}
	if changes.Price != nil {
		sub.Price = *changes.Price
	}
	if changes.RenewalDate != nil {
		sub.RenewalDate = *changes.RenewalDate
	}
	if changes.Category != nil {
		sub.Category = *changes.Category
	}
	if changes.Notes != nil {
		sub.Notes = *changes.Notes
	}
	sub.UpdatedAt = time.Now()
	s.subs[id] = sub
	return &sub, nil
}

func (s memSubs) DeleteOwned(_ context.Context, owner, id uuid.UUID) (*model.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[id]
	if !ok || sub.UserID != owner {
		return nil, gorm.ErrRecordNotFound
	}
	delete(s.subs, id)
	return &sub, nil
}

func (s memSubs) DeleteAllOwned(_ context.Context, owner uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, sub := range s.subs {
		if sub.UserID == owner {
			delete(s.subs, id)
			n++
		}
	}
	return n, nil
}

// memDenylist is an in-memory token denylist.
type memDenylist struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (d *memDenylist) Revoke(_ context.Context, tokenID string, _ time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.revoked[tokenID] = true
	return nil
}

func (d *memDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.revoked[tokenID], nil
}
