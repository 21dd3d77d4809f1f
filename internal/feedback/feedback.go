// Package feedback lists feedback tickets from the admin API.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/foxzi/backoffice/internal/apiclient"
	"github.com/foxzi/backoffice/internal/models"
)

const listPath = "/api/admin/feedbacks"

// ErrEndpointMissing is returned when the API answers 404 for the listing
var ErrEndpointMissing = errors.New("feedbacks endpoint not available")

type Service struct {
	client *apiclient.Client
}

func NewService(client *apiclient.Client) *Service {
	return &Service{client: client}
}

// List fetches one page of feedback. At most q.Limit items are returned and
// meta.TotalPages is recomputed from meta.Total.
func (s *Service) List(ctx context.Context, q models.FeedbackQuery) (*models.FeedbackPage, error) {
	params := url.Values{}
	if q.Status != "" {
		params.Set("status", string(q.Status))
	}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}

	var page models.FeedbackPage
	if err := s.client.Get(ctx, listPath, params, &page); err != nil {
		if apiclient.IsNotFound(err) {
			return nil, ErrEndpointMissing
		}
		return nil, fmt.Errorf("list feedbacks: %w", err)
	}

	limit := q.Limit
	if limit <= 0 && page.Meta != nil {
		limit = page.Meta.Limit
	}
	if limit > 0 && len(page.Items) > limit {
		page.Items = page.Items[:limit]
	}
	if page.Items == nil {
		page.Items = []models.Feedback{}
	}
	if page.Meta != nil {
		if limit > 0 {
			page.Meta.Limit = limit
		}
		page.Meta.TotalPages = TotalPages(page.Meta.Total, page.Meta.Limit)
	}

	return &page, nil
}

// TotalPages returns ceil(total/limit), never less than 1
func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 1
	}
	return (total + limit - 1) / limit
}
