package model

import (
	"bytes"
	"encoding/json"
)

// Preference section keys. A stored document is complete only when it
// carries all four as non-empty objects.
const (
	SectionNotifications = "notifications"
	SectionDisplay       = "display"
	SectionPrivacy       = "privacy"
	SectionSubscriptions = "subscriptions"
)

var preferenceSections = []string{
	SectionNotifications,
	SectionDisplay,
	SectionPrivacy,
	SectionSubscriptions,
}

// NotificationPreferences controls reminders and reports.
type NotificationPreferences struct {
	EmailNotifications bool `json:"emailNotifications"`
	PushNotifications  bool `json:"pushNotifications"`
	RenewalReminders   bool `json:"renewalReminders"`
	WeeklyReports      bool `json:"weeklyReports"`
	ReminderDays       int  `json:"reminderDays"`
}

// DisplayPreferences controls presentation.
type DisplayPreferences struct {
	DarkMode   bool   `json:"darkMode"`
	Currency   string `json:"currency"`
	DateFormat string `json:"dateFormat"`
	Language   string `json:"language"`
}

// PrivacyPreferences controls data use.
type PrivacyPreferences struct {
	DataSharing       bool `json:"dataSharing"`
	AnalyticsTracking bool `json:"analyticsTracking"`
	MarketingEmails   bool `json:"marketingEmails"`
}

// SubscriptionPreferences controls subscription management helpers.
type SubscriptionPreferences struct {
	DefaultCategory    string `json:"defaultCategory"`
	AutoSync           bool   `json:"autoSync"`
	DuplicateDetection bool   `json:"duplicateDetection"`
	TrialReminders     bool   `json:"trialReminders"`
}

// Preferences is embedded in a user record. Sections are pointers so that
// an absent section can be told apart from a zero-valued one.
type Preferences struct {
	Notifications *NotificationPreferences `json:"notifications" validate:"required"`
	Display       *DisplayPreferences      `json:"display" validate:"required"`
	Privacy       *PrivacyPreferences      `json:"privacy" validate:"required"`
	Subscriptions *SubscriptionPreferences `json:"subscriptions" validate:"required"`
}

// Complete reports whether all four sections are set.
func (p *Preferences) Complete() bool {
	return p != nil &&
		p.Notifications != nil &&
		p.Display != nil &&
		p.Privacy != nil &&
		p.Subscriptions != nil
}

// DefaultPreferences returns a fresh copy of the canonical defaults.
// Reads of an incomplete stored document return this instead of a merge.
func DefaultPreferences() *Preferences {
	return &Preferences{
		Notifications: &NotificationPreferences{
			EmailNotifications: true,
			PushNotifications:  false,
			RenewalReminders:   true,
			WeeklyReports:      false,
			ReminderDays:       7,
		},
		Display: &DisplayPreferences{
			DarkMode:   false,
			Currency:   "USD",
			DateFormat: "MM/DD/YYYY",
			Language:   "en",
		},
		Privacy: &PrivacyPreferences{
			DataSharing:       false,
			AnalyticsTracking: true,
			MarketingEmails:   false,
		},
		Subscriptions: &SubscriptionPreferences{
			DefaultCategory:    "",
			AutoSync:           true,
			DuplicateDetection: true,
			TrialReminders:     true,
		},
	}
}

// DecodePreferences parses a stored preferences document. ok is false
// when the document is missing, malformed, or any section is absent,
// null, or an empty object.
func DecodePreferences(raw []byte) (prefs *Preferences, ok bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, false
	}

	var sections map[string]json.RawMessage
	if err := json.Unmarshal(raw, &sections); err != nil {
		return nil, false
	}
	for _, name := range preferenceSections {
		section, found := sections[name]
		if !found {
			return nil, false
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(section, &fields); err != nil || len(fields) == 0 {
			return nil, false
		}
	}

	var p Preferences
	if err := json.Unmarshal(raw, &p); err != nil || !p.Complete() {
		return nil, false
	}
	return &p, true
}
