package models

import "time"

// EmailTemplate is a reusable subject/body pair. Text and HTML are the
// canonical body fields; legacy wire names are mapped by the email package.
type EmailTemplate struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Subject     string    `json:"subject"`
	Text        string    `json:"textContent,omitempty"`
	HTML        string    `json:"htmlContent,omitempty"`
	Variables   []string  `json:"variables,omitempty"`
	Type        string    `json:"type,omitempty"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	FromEmail   string    `json:"fromEmail,omitempty"`
	FromName    string    `json:"fromName,omitempty"`
	ReplyTo     string    `json:"replyTo,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (t *EmailTemplate) HasHTML() bool {
	return t.HTML != ""
}

// TemplateInput is the create/update payload
type TemplateInput struct {
	Name      string   `json:"name,omitempty"`
	Subject   string   `json:"subject,omitempty"`
	Text      string   `json:"textContent,omitempty"`
	HTML      string   `json:"htmlContent,omitempty"`
	Variables []string `json:"variables,omitempty"`
	Category  string   `json:"category,omitempty"`
	IsActive  *bool    `json:"isActive,omitempty"`
}

type TemplateQuery struct {
	Page     int
	Limit    int
	Category string
	IsActive *bool
	Search   string
}
