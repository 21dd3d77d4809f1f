package models

import "time"

// WaitlistUser is a prospective user recorded before onboarding
type WaitlistUser struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Name      string         `json:"name,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type WaitlistQuery struct {
	Search string
	Limit  int
	Offset int
}

type WaitlistPage struct {
	Users  []WaitlistUser `json:"users"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}
