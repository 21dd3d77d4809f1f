package console

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/foxzi/backoffice/internal/debounce"
	"github.com/foxzi/backoffice/internal/feedback"
	"github.com/foxzi/backoffice/internal/models"
)

const (
	defaultFeedbackLimit = 20
	feedbackLoadFailed   = "Failed to load feedbacks"

	MsgFeedbackEndpointMissing = "Feedbacks endpoint not available. The backend endpoint /api/admin/feedbacks may not be implemented yet."
)

var ErrFeedbackNotLoaded = errors.New("feedback is not on the current page")

// FeedbackView is a render snapshot of the feedback page
type FeedbackView struct {
	Filters        models.FeedbackQuery
	SearchInput    string
	Items          []models.Feedback
	Meta           models.FeedbackMeta
	Error          string
	Loaded         bool
	Selected       *models.Feedback
	ShowPagination bool
}

// FeedbackPage drives the feedback listing
type FeedbackPage struct {
	svc      FeedbackLister
	debounce *debounce.Debouncer

	mu          sync.Mutex
	filters     models.FeedbackQuery
	searchInput string
	items       []models.Feedback
	meta        models.FeedbackMeta
	errMsg      string
	loaded      bool
	selected    *models.Feedback
	gen         uint64
}

func NewFeedbackPage(svc FeedbackLister, searchDelay time.Duration) *FeedbackPage {
	return &FeedbackPage{
		svc:      svc,
		debounce: debounce.New(searchDelay),
		filters:  models.FeedbackQuery{Page: 1, Limit: defaultFeedbackLimit},
		meta:     defaultFeedbackMeta(),
	}
}

func defaultFeedbackMeta() models.FeedbackMeta {
	return models.FeedbackMeta{Total: 0, Page: 1, Limit: defaultFeedbackLimit, TotalPages: 1}
}

// Load fetches the page for the current filters. A response that arrives
// after a newer Load started is dropped and ErrStale returned.
func (p *FeedbackPage) Load(ctx context.Context) error {
	p.mu.Lock()
	p.gen++
	gen := p.gen
	q := p.filters
	p.mu.Unlock()

	page, err := p.svc.List(ctx, q)

	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.gen {
		return ErrStale
	}
	p.loaded = true

	if err != nil {
		p.items = nil
		if errors.Is(err, feedback.ErrEndpointMissing) {
			p.errMsg = MsgFeedbackEndpointMissing
		} else {
			p.errMsg = errorText(err, feedbackLoadFailed)
		}
		return err
	}

	if page == nil {
		page = &models.FeedbackPage{}
	}
	p.errMsg = ""
	p.items = page.Items
	if page.Meta != nil {
		p.meta = *page.Meta
	} else {
		p.meta = defaultFeedbackMeta()
	}
	return nil
}

// EnsureLoaded performs the first load
func (p *FeedbackPage) EnsureLoaded(ctx context.Context) error {
	p.mu.Lock()
	loaded := p.loaded
	p.mu.Unlock()
	if loaded {
		return nil
	}
	return p.Load(ctx)
}

// Refresh reloads with the current filters
func (p *FeedbackPage) Refresh(ctx context.Context) error {
	return p.Load(ctx)
}

func (p *FeedbackPage) SetStatus(ctx context.Context, status models.FeedbackStatus) error {
	if status != "" && !status.Valid() {
		return fmt.Errorf("invalid status: %s", status)
	}
	p.mu.Lock()
	p.filters.Status = status
	p.filters.Page = 1
	p.mu.Unlock()
	return p.Load(ctx)
}

func (p *FeedbackPage) SetPage(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}
	p.mu.Lock()
	p.filters.Page = page
	p.mu.Unlock()
	return p.Load(ctx)
}

func (p *FeedbackPage) SetLimit(ctx context.Context, limit int) error {
	if limit < 1 {
		limit = defaultFeedbackLimit
	}
	p.mu.Lock()
	p.filters.Limit = limit
	p.filters.Page = 1
	p.mu.Unlock()
	return p.Load(ctx)
}

// Search waits out the debounce window, then applies term and reloads
// from page 1. A call superseded by newer input returns
// debounce.ErrSuperseded without fetching.
func (p *FeedbackPage) Search(ctx context.Context, term string) error {
	p.mu.Lock()
	p.searchInput = term
	p.mu.Unlock()

	if err := p.debounce.Wait(ctx); err != nil {
		return err
	}

	p.mu.Lock()
	p.filters.Search = term
	p.filters.Page = 1
	p.mu.Unlock()
	return p.Load(ctx)
}

// Apply replaces all filters at once and reloads when they changed or
// nothing was loaded yet
func (p *FeedbackPage) Apply(ctx context.Context, q models.FeedbackQuery) error {
	if q.Status != "" && !q.Status.Valid() {
		q.Status = ""
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultFeedbackLimit
	}

	p.mu.Lock()
	if p.loaded && p.filters == q {
		p.mu.Unlock()
		return nil
	}
	p.filters = q
	p.searchInput = q.Search
	p.mu.Unlock()
	return p.Load(ctx)
}

// Open selects a loaded feedback for the detail view
func (p *FeedbackPage) Open(id int64) (*models.Feedback, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.items {
		if p.items[i].ID == id {
			f := p.items[i]
			p.selected = &f
			return &f, nil
		}
	}
	return nil, ErrFeedbackNotLoaded
}

func (p *FeedbackPage) Close() {
	p.mu.Lock()
	p.selected = nil
	p.mu.Unlock()
}

func (p *FeedbackPage) View() FeedbackView {
	p.mu.Lock()
	defer p.mu.Unlock()

	items := make([]models.Feedback, len(p.items))
	copy(items, p.items)

	return FeedbackView{
		Filters:        p.filters,
		SearchInput:    p.searchInput,
		Items:          items,
		Meta:           p.meta,
		Error:          p.errMsg,
		Loaded:         p.loaded,
		Selected:       p.selected,
		ShowPagination: p.meta.TotalPages > 1,
	}
}
