package models

import (
	"strconv"
	"strings"
	"time"
)

type FeedbackStatus string

const (
	FeedbackStatusOpen       FeedbackStatus = "open"
	FeedbackStatusTriaged    FeedbackStatus = "triaged"
	FeedbackStatusInProgress FeedbackStatus = "in_progress"
	FeedbackStatusResolved   FeedbackStatus = "resolved"
	FeedbackStatusClosed     FeedbackStatus = "closed"
)

// FeedbackStatuses lists statuses in the order the filter offers them
var FeedbackStatuses = []FeedbackStatus{
	FeedbackStatusOpen,
	FeedbackStatusTriaged,
	FeedbackStatusInProgress,
	FeedbackStatusResolved,
	FeedbackStatusClosed,
}

// Valid reports whether s is one of the known statuses
func (s FeedbackStatus) Valid() bool {
	for _, known := range FeedbackStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Label returns a human readable status, e.g. "In Progress"
func (s FeedbackStatus) Label() string {
	words := strings.Fields(strings.ReplaceAll(string(s), "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

type AttachmentType string

const (
	AttachmentImage    AttachmentType = "image"
	AttachmentVideo    AttachmentType = "video"
	AttachmentDocument AttachmentType = "document"
	AttachmentURL      AttachmentType = "url"
	AttachmentText     AttachmentType = "text"
)

type FeedbackAttachment struct {
	ID       string         `json:"id"`
	URL      string         `json:"url"`
	Type     AttachmentType `json:"type"`
	Filename string         `json:"filename,omitempty"`
	Size     int64          `json:"size,omitempty"`
	MimeType string         `json:"mimeType,omitempty"`
}

// Kind returns the rendering kind; unknown types render as documents
func (a FeedbackAttachment) Kind() AttachmentType {
	switch a.Type {
	case AttachmentImage, AttachmentVideo, AttachmentURL, AttachmentText:
		return a.Type
	default:
		return AttachmentDocument
	}
}

// DisplayName returns the filename or a per-kind fallback label
func (a FeedbackAttachment) DisplayName() string {
	if a.Filename != "" {
		return a.Filename
	}
	switch a.Kind() {
	case AttachmentImage:
		return "Image"
	case AttachmentVideo:
		return "Video"
	case AttachmentURL:
		return "URL"
	case AttachmentText:
		return "Text Content"
	default:
		return "Document"
	}
}

type Feedback struct {
	ID          int64                `json:"id"`
	Subject     string               `json:"subject"`
	Message     string               `json:"message"`
	Status      FeedbackStatus       `json:"status"`
	Metadata    map[string]any       `json:"metadata,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
	UserID      *int64               `json:"userId,omitempty"`
	UserEmail   string               `json:"userEmail,omitempty"`
	Attachments []FeedbackAttachment `json:"attachments,omitempty"`
}

// Submitter returns the submitting user's email or a user id placeholder
func (f *Feedback) Submitter() string {
	if f.UserEmail != "" {
		return f.UserEmail
	}
	if f.UserID != nil && *f.UserID != 0 {
		return "User " + strconv.FormatInt(*f.UserID, 10)
	}
	return "User N/A"
}

// HasDetails reports whether the feedback carries metadata or attachments
func (f *Feedback) HasDetails() bool {
	return len(f.Metadata) > 0 || len(f.Attachments) > 0
}

type FeedbackQuery struct {
	Status FeedbackStatus
	Page   int
	Limit  int
	Search string
}

type FeedbackMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

type FeedbackPage struct {
	Items []Feedback    `json:"items"`
	Meta  *FeedbackMeta `json:"meta,omitempty"`
}
