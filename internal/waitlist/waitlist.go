// Package waitlist reads waitlist entrants from the document store and
// sends them email through the admin API.
package waitlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/foxzi/backoffice/internal/apiclient"
	"github.com/foxzi/backoffice/internal/email"
	"github.com/foxzi/backoffice/internal/metrics"
	"github.com/foxzi/backoffice/internal/models"
)

const sendPath = "/api/admin/waitlist/send-email"

// ErrFetchFailed wraps every document store failure
var ErrFetchFailed = errors.New("failed to fetch waitlist users")

type Options struct {
	DefaultLimit int  // page size when the query names none
	SearchCap    int  // documents fetched for client-side search
	ServerSearch bool // use the store's Searcher when it has one
}

type Service struct {
	store  Store
	client *apiclient.Client
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

func NewService(store Store, client *apiclient.Client, opts Options, logger *slog.Logger) *Service {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 100
	}
	if opts.SearchCap <= 0 {
		opts.SearchCap = 1000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		client: client,
		opts:   opts,
		logger: logger.With("component", "waitlist"),
		now:    time.Now,
	}
}

// List returns one window of entrants, newest first. Total is the number of
// entrants matching q.Search, not the size of the collection.
func (s *Service) List(ctx context.Context, q models.WaitlistQuery) (*models.WaitlistPage, error) {
	if s.store == nil {
		return nil, fmt.Errorf("%w: no document store configured", ErrFetchFailed)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = s.opts.DefaultLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	term := strings.TrimSpace(q.Search)

	if searcher, ok := s.store.(Searcher); ok && s.opts.ServerSearch {
		docs, total, err := searcher.Search(ctx, term, limit, offset)
		metrics.IncWaitlistFetch("server", err)
		if err != nil {
			s.logger.Error("waitlist search failed", "error", err)
			return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
		}
		now := s.now()
		users := make([]models.WaitlistUser, 0, len(docs))
		for _, doc := range docs {
			users = append(users, normalize(doc, now))
		}
		return &models.WaitlistPage{Users: users, Total: total, Limit: limit, Offset: offset}, nil
	}

	return s.listClientSide(ctx, term, limit, offset)
}

// listClientSide widens the fetch when searching, filters after retrieval
// and slices the filtered set
func (s *Service) listClientSide(ctx context.Context, term string, limit, offset int) (*models.WaitlistPage, error) {
	fetch := limit
	if term != "" {
		fetch = s.opts.SearchCap
	}

	docs, err := s.store.Recent(ctx, fetch)
	metrics.IncWaitlistFetch("client", err)
	if err != nil {
		s.logger.Error("waitlist fetch failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	now := s.now()
	lowered := strings.ToLower(term)
	filtered := make([]models.WaitlistUser, 0, len(docs))
	for _, doc := range docs {
		u := normalize(doc, now)
		if term != "" && !matches(u, lowered) {
			continue
		}
		filtered = append(filtered, u)
	}

	start := min(offset, len(filtered))
	end := min(start+limit, len(filtered))

	return &models.WaitlistPage{
		Users:  filtered[start:end],
		Total:  len(filtered),
		Limit:  limit,
		Offset: offset,
	}, nil
}

// SendEmail submits one message through the waitlist send endpoint
func (s *Service) SendEmail(ctx context.Context, req models.SendEmailRequest) (*models.SendEmailResponse, error) {
	var resp models.SendEmailResponse
	if err := s.client.Post(ctx, sendPath, req, &resp); err != nil {
		if apiclient.IsNotFound(err) {
			return nil, email.MissingEndpointError(sendPath)
		}
		return nil, fmt.Errorf("send waitlist email: %w", err)
	}
	return &resp, nil
}

// SendEmailToMultiple sends one message per recipient, in order, and
// aggregates the outcome. Invalid addresses fail without a request.
func (s *Service) SendEmailToMultiple(ctx context.Context, emails []string, subject, text, html string) (*models.SendEmailResponse, error) {
	return s.sendEach(ctx, emails, func(i int) (models.SendEmailRequest, error) {
		return models.SendEmailRequest{
			Email:   models.Recipients{emails[i]},
			Subject: subject,
			Text:    text,
			HTML:    html,
		}, nil
	})
}

// SendPersonalized renders tmpl for each entrant ({{name}}, {{firstName}},
// {{email}}) and sends it like SendEmailToMultiple. A render failure counts
// as a failed recipient.
func (s *Service) SendPersonalized(ctx context.Context, users []models.WaitlistUser, tmpl models.EmailTemplate) (*models.SendEmailResponse, error) {
	if err := email.ValidateTemplate(tmpl); err != nil {
		return nil, err
	}

	addrs := make([]string, len(users))
	for i, u := range users {
		addrs[i] = u.Email
	}

	return s.sendEach(ctx, addrs, func(i int) (models.SendEmailRequest, error) {
		out, err := email.Render(tmpl, email.RecipientData(users[i].Email, users[i].Name))
		if err != nil {
			return models.SendEmailRequest{}, err
		}
		return models.SendEmailRequest{
			Email:   models.Recipients{users[i].Email},
			Subject: out.Subject,
			Text:    out.Text,
			HTML:    out.HTML,
		}, nil
	})
}

// sendEach stops at ctx cancellation and returns the summary so far with the
// context error
func (s *Service) sendEach(ctx context.Context, addrs []string, build func(i int) (models.SendEmailRequest, error)) (*models.SendEmailResponse, error) {
	var sent int
	var failed []string

	for i, addr := range addrs {
		if err := ctx.Err(); err != nil {
			return summarize(sent, failed), err
		}

		if !email.ValidAddress(addr) {
			s.logger.Warn("skipping invalid address", "email", addr)
			failed = append(failed, addr)
			continue
		}

		req, err := build(i)
		if err == nil {
			_, err = s.SendEmail(ctx, req)
		}
		if err == nil {
			sent++
			continue
		}
		s.logger.Error("failed to send waitlist email", "email", addr, "error", err)
		failed = append(failed, addr)
	}

	return summarize(sent, failed), nil
}

func summarize(sent int, failed []string) *models.SendEmailResponse {
	metrics.AddEmails("waitlist", sent, len(failed))

	result := &models.SendEmailResponse{
		Success:     len(failed) == 0,
		Message:     fmt.Sprintf("Sent %d email(s), %d failed", sent, len(failed)),
		SentCount:   sent,
		FailedCount: len(failed),
	}
	if len(failed) > 0 {
		result.FailedEmails = failed
	}
	return result
}
