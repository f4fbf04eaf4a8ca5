// Package models defines client-side data models and wire DTOs used by the
// Draped client.
package models

import "github.com/dmitrijs2005/draped/internal/timex"

// Plan is the subscription tier of a user.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// User is the profile returned with every auth response. It is replaced
// wholesale, never patched.
type User struct {
	ID                string          `json:"id"`
	Email             string          `json:"email"`
	Name              *string         `json:"name"`
	ProfilePictureURL *string         `json:"profile_picture_url"`
	Plan              Plan            `json:"plan"`
	CreditsRemaining  int             `json:"credits_remaining"`
	CreatedAt         timex.Timestamp `json:"created_at"`
	LastLogin         timex.Timestamp `json:"last_login"`
}

// DisplayName returns the name when set, otherwise the email.
func (u User) DisplayName() string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	return u.Email
}

// Clone returns a deep copy so callers cannot mutate shared state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Name != nil {
		n := *u.Name
		c.Name = &n
	}
	if u.ProfilePictureURL != nil {
		p := *u.ProfilePictureURL
		c.ProfilePictureURL = &p
	}
	return &c
}

// QuotaWindow is one usage window (daily or monthly).
type QuotaWindow struct {
	Used      int `json:"used"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

type Quota struct {
	Daily            QuotaWindow     `json:"daily"`
	Monthly          QuotaWindow     `json:"monthly"`
	LastDailyReset   timex.Timestamp `json:"last_daily_reset"`
	LastMonthlyReset timex.Timestamp `json:"last_monthly_reset"`
}

// Profile is the /user/profile response: the user plus their quota.
type Profile struct {
	User
	Quota Quota `json:"quota"`
}
