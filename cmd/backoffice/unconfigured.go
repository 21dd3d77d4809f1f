package main

import (
	"context"
	"fmt"

	"github.com/foxzi/backoffice/internal/models"
	"github.com/foxzi/backoffice/internal/waitlist"
)

// unconfiguredWaitlist stands in for the waitlist when no document store
// is configured
type unconfiguredWaitlist struct{}

func (unconfiguredWaitlist) List(ctx context.Context, q models.WaitlistQuery) (*models.WaitlistPage, error) {
	return nil, fmt.Errorf("%w: waitlist.mongo_uri is not configured", waitlist.ErrFetchFailed)
}
