package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User is a registered account holder. Phone and Account are the contact
// identifiers and are each unique across all users.
type User struct {
	ID           uuid.UUID      `json:"_id" gorm:"type:char(36);primaryKey"`
	Username     string         `json:"username" gorm:"size:255;not null"`
	Email        string         `json:"email" gorm:"size:255"`
	Phone        int64          `json:"phone" gorm:"uniqueIndex;not null"`
	Account      int64          `json:"account" gorm:"uniqueIndex;not null"`
	PasswordHash string         `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Preferences  datatypes.JSON `json:"-"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`

	// Relations
	Subscriptions []Subscription `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate sets UUID and an empty preferences document before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if len(u.Preferences) == 0 {
		u.Preferences = datatypes.JSON("{}")
	}
	return nil
}

// Profile is the non-sensitive view of a user.
type Profile struct {
	ID        uuid.UUID `json:"_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Phone     int64     `json:"phone"`
	Account   int64     `json:"account"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Profile strips the password hash and preferences from u.
func (u *User) Profile() *Profile {
	return &Profile{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Phone:     u.Phone,
		Account:   u.Account,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// ProfileChanges holds the optional fields of a profile update.
type ProfileChanges struct {
	Username *string
	Email    *string
	Phone    *int64
	Account  *int64
}

// Columns returns the column assignments for the non-nil fields.
func (c ProfileChanges) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if c.Username != nil {
		cols["username"] = *c.Username
	}
	if c.Email != nil {
		cols["email"] = *c.Email
	}
	if c.Phone != nil {
		cols["phone"] = *c.Phone
	}
	if c.Account != nil {
		cols["account"] = *c.Account
	}
	return cols
}
