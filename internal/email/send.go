// Package email sends ad-hoc email through the admin API and manages the
// reusable templates stored there.
package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/foxzi/backoffice/internal/apiclient"
	"github.com/foxzi/backoffice/internal/metrics"
	"github.com/foxzi/backoffice/internal/models"
)

const sendPath = "/api/admin/users/send-email"

// ErrEndpointMissing marks a 404 from a send-email endpoint
var ErrEndpointMissing = errors.New("email sending endpoint not available")

// MissingEndpointError rewrites a 404 from path into a descriptive error
func MissingEndpointError(path string) error {
	return &endpointError{path: path}
}

type endpointError struct {
	path string
}

func (e *endpointError) Error() string {
	return "Email sending endpoint not available. The backend endpoint " + e.path + " may not be implemented yet."
}

func (e *endpointError) Is(target error) bool {
	return target == ErrEndpointMissing
}

// Service sends email to registered users
type Service struct {
	client *apiclient.Client
	logger *slog.Logger
}

func NewService(client *apiclient.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, logger: logger.With("component", "email")}
}

// Send submits one message addressed to every recipient in req.Email
func (s *Service) Send(ctx context.Context, req models.SendEmailRequest) (*models.SendEmailResponse, error) {
	if len(req.Email) == 0 {
		return nil, errors.New("at least one recipient is required")
	}

	var resp models.SendEmailResponse
	if err := s.client.Post(ctx, sendPath, req, &resp); err != nil {
		metrics.AddEmails("users", 0, len(req.Email))
		if apiclient.IsNotFound(err) {
			return nil, MissingEndpointError(sendPath)
		}
		return nil, fmt.Errorf("send email: %w", err)
	}

	sent := resp.SentCount
	if sent == 0 && resp.Success {
		sent = resp.Recipients(len(req.Email))
	}
	metrics.AddEmails("users", sent, resp.FailedCount)

	s.logger.Info("email submitted",
		"recipients", len(req.Email),
		"success", resp.Success,
		"sent", resp.SentCount,
		"failed", resp.FailedCount,
	)
	return &resp, nil
}
