// Package console holds the per-session page controllers behind the web UI.
// A controller owns its page state; handlers call it and render a snapshot.
package console

import (
	"context"
	"errors"
	"strings"

	"github.com/foxzi/backoffice/internal/apiclient"
	"github.com/foxzi/backoffice/internal/models"
)

// ErrStale is returned by a load whose response was discarded because a
// newer load started after it
var ErrStale = errors.New("response superseded by a newer request")

type FeedbackLister interface {
	List(ctx context.Context, q models.FeedbackQuery) (*models.FeedbackPage, error)
}

type WaitlistLister interface {
	List(ctx context.Context, q models.WaitlistQuery) (*models.WaitlistPage, error)
}

type TemplateLister interface {
	ListActive(ctx context.Context) ([]models.EmailTemplate, error)
}

type EmailSender interface {
	Send(ctx context.Context, req models.SendEmailRequest) (*models.SendEmailResponse, error)
}

// errorText picks the user visible text for err: the server's message when
// present, the error text otherwise, else fallback
func errorText(err error, fallback string) string {
	if msg := apiclient.Message(err); msg != "" {
		return msg
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallback
}
