package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// Prices travel as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Subscription is a recurring-payment record owned by exactly one user.
type Subscription struct {
	ID               uuid.UUID       `json:"_id" gorm:"type:char(36);primaryKey"`
	UserID           uuid.UUID       `json:"user_id" gorm:"type:char(36);not null;index"`
	SubscriptionName string          `json:"subscription_name" gorm:"size:255;not null"`
	Price            decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	RenewalDate      time.Time       `json:"renewal_date" gorm:"not null"`
	Category         string          `json:"category,omitempty" gorm:"size:100"`
	Notes            string          `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// SubscriptionChanges holds the fields of a partial subscription update.
// Nil fields are left untouched. The owner is not updatable.
type SubscriptionChanges struct {
	SubscriptionName *string
	Price            *decimal.Decimal
	RenewalDate      *time.Time
	Category         *string
	Notes            *string
}

// Columns returns the column assignments for the non-nil fields.
func (c SubscriptionChanges) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if c.SubscriptionName != nil {
		cols["subscription_name"] = *c.SubscriptionName
	}
	if c.Price != nil {
		cols["price"] = *c.Price
	}
	if c.RenewalDate != nil {
		cols["renewal_date"] = *c.RenewalDate
	}
	if c.Category != nil {
		cols["category"] = *c.Category
	}
	if c.Notes != nil {
		cols["notes"] = *c.Notes
	}
	return cols
}

var renewalDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

// ParseRenewalDate accepts a calendar date or an RFC 3339 timestamp.
func ParseRenewalDate(s string) (time.Time, error) {
	for _, layout := range renewalDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid renewal date %q", s)
}
