package console

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/foxzi/backoffice/internal/debounce"
	"github.com/foxzi/backoffice/internal/email"
	"github.com/foxzi/backoffice/internal/models"
)

const (
	waitlistPageLimit  = 100
	waitlistLoadFailed = "Failed to load waitlist users"

	MsgNoSelection     = "Please select at least one user to send an email to."
	MsgSubjectRequired = "Please fill in the subject."
	MsgHTMLRequired    = "Please fill in the HTML body."
	MsgTextRequired    = "Please fill in the text body."
	MsgSentOK          = "Email sent successfully!"
)

var (
	ErrNoSelection    = errors.New(MsgNoSelection)
	ErrComposerClosed = errors.New("email composer is not open")
	ErrInvalidDraft   = errors.New("email draft is incomplete")
)

type ViewMode string

const (
	ViewEdit    ViewMode = "edit"
	ViewPreview ViewMode = "preview"
)

// Draft is the transient outbound message being composed
type Draft struct {
	TemplateID string
	Subject    string
	Text       string
	HTML       string
}

// ComposerView is a render snapshot of the open composer
type ComposerView struct {
	Templates  []models.EmailTemplate
	Draft      Draft
	UseHTML    bool // the chosen template declares HTML content
	Mode       ViewMode
	Error      string
	Recipients int
}

// WaitlistView is a render snapshot of the waitlist page
type WaitlistView struct {
	Search      string
	Users       []models.WaitlistUser
	Total       int
	Error       string
	Loaded      bool
	Selected    map[string]bool
	AllSelected bool
	Composer    *ComposerView
	Alert       string // blocking dialog text, consumed by the next render
}

func (v WaitlistView) SelectedCount() int {
	return len(v.Selected)
}

type composer struct {
	templates []models.EmailTemplate
	draft     Draft
	useHTML   bool
	mode      ViewMode
	errMsg    string
}

// WaitlistPage drives the waitlist listing, selection and composer
type WaitlistPage struct {
	users     WaitlistLister
	templates TemplateLister
	sender    EmailSender
	debounce  *debounce.Debouncer

	mu       sync.Mutex
	search   string
	list     []models.WaitlistUser
	total    int
	errMsg   string
	loaded   bool
	selected map[string]struct{}
	composer *composer
	alert    string
	gen      uint64
}

func NewWaitlistPage(users WaitlistLister, templates TemplateLister, sender EmailSender, searchDelay time.Duration) *WaitlistPage {
	return &WaitlistPage{
		users:     users,
		templates: templates,
		sender:    sender,
		debounce:  debounce.New(searchDelay),
		selected:  make(map[string]struct{}),
	}
}

// Load fetches entrants for the current search term
func (p *WaitlistPage) Load(ctx context.Context) error {
	p.mu.Lock()
	p.gen++
	gen := p.gen
	q := models.WaitlistQuery{Search: p.search, Limit: waitlistPageLimit}
	p.mu.Unlock()

	page, err := p.users.List(ctx, q)

	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.gen {
		return ErrStale
	}
	p.loaded = true

	if err != nil {
		p.list = nil
		p.total = 0
		p.errMsg = errorText(err, waitlistLoadFailed)
		return err
	}

	if page == nil {
		page = &models.WaitlistPage{}
	}
	p.errMsg = ""
	p.list = page.Users
	p.total = page.Total
	return nil
}

func (p *WaitlistPage) EnsureLoaded(ctx context.Context) error {
	p.mu.Lock()
	loaded := p.loaded
	p.mu.Unlock()
	if loaded {
		return nil
	}
	return p.Load(ctx)
}

// Search debounces term and reloads. Superseded calls return
// debounce.ErrSuperseded without fetching.
func (p *WaitlistPage) Search(ctx context.Context, term string) error {
	if err := p.debounce.Wait(ctx); err != nil {
		return err
	}
	p.mu.Lock()
	p.search = term
	p.mu.Unlock()
	return p.Load(ctx)
}

// Toggle adds or removes one id from the selection
func (p *WaitlistPage) Toggle(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.selected[id]; ok {
		delete(p.selected, id)
		return
	}
	p.selected[id] = struct{}{}
}

// ToggleAll clears the selection when every loaded entrant is selected and
// selects all loaded entrants otherwise
func (p *WaitlistPage) ToggleAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.allSelected() {
		p.selected = make(map[string]struct{})
		return
	}
	p.selected = make(map[string]struct{}, len(p.list))
	for _, u := range p.list {
		p.selected[u.ID] = struct{}{}
	}
}

func (p *WaitlistPage) allSelected() bool {
	return len(p.list) > 0 && len(p.selected) == len(p.list)
}

// Selected returns the selected ids
func (p *WaitlistPage) Selected() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.selected))
	for id := range p.selected {
		ids = append(ids, id)
	}
	return ids
}

// OpenComposer opens an empty draft and loads the active templates. A
// template load failure leaves the template list empty.
func (p *WaitlistPage) OpenComposer(ctx context.Context) error {
	p.mu.Lock()
	if len(p.selected) == 0 {
		p.alert = MsgNoSelection
		p.mu.Unlock()
		return ErrNoSelection
	}
	p.composer = &composer{mode: ViewEdit}
	p.mu.Unlock()

	templates, err := p.templates.ListActive(ctx)
	if err != nil {
		templates = nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.composer != nil {
		p.composer.templates = templates
	}
	return nil
}

// SelectTemplate fills the draft from a template. Exactly one body is
// populated: HTML when the template has HTML content, text otherwise. An
// empty id clears the draft.
func (p *WaitlistPage) SelectTemplate(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	c := p.composer
	if c == nil {
		return ErrComposerClosed
	}
	if id == "" {
		c.draft = Draft{}
		c.useHTML = false
		return nil
	}

	tmpl, ok := findTemplate(c.templates, id)
	if !ok {
		return fmt.Errorf("unknown template: %s", id)
	}

	c.draft = Draft{TemplateID: id, Subject: tmpl.Subject}
	c.useHTML = tmpl.HasHTML()
	if c.useHTML {
		c.draft.HTML = tmpl.HTML
	} else {
		c.draft.Text = tmpl.Text
	}
	return nil
}

func findTemplate(templates []models.EmailTemplate, id string) (models.EmailTemplate, bool) {
	for _, t := range templates {
		if strconv.FormatInt(t.ID, 10) == id {
			return t, true
		}
	}
	return models.EmailTemplate{}, false
}

// UpdateDraft stores edits to the subject and the active body
func (p *WaitlistPage) UpdateDraft(subject, text, html string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := p.composer
	if c == nil {
		return ErrComposerClosed
	}
	c.draft.Subject = subject
	if c.useHTML {
		c.draft.HTML = html
	} else {
		c.draft.Text = text
	}
	return nil
}

func (p *WaitlistPage) SetViewMode(mode ViewMode) error {
	if mode != ViewEdit && mode != ViewPreview {
		return fmt.Errorf("invalid view mode: %s", mode)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.composer == nil {
		return ErrComposerClosed
	}
	p.composer.mode = mode
	return nil
}

// Draft returns the current draft and whether it is an HTML draft
func (p *WaitlistPage) Draft() (Draft, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.composer == nil {
		return Draft{}, false, ErrComposerClosed
	}
	return p.composer.draft, p.composer.useHTML, nil
}

func (p *WaitlistPage) CloseComposer() {
	p.mu.Lock()
	p.composer = nil
	p.mu.Unlock()
}

// Send validates the draft and submits one message addressed to every
// selected entrant. On success the composer closes and the selection
// clears; the summary is left in the alert.
func (p *WaitlistPage) Send(ctx context.Context) (*models.SendEmailResponse, error) {
	p.mu.Lock()
	c := p.composer
	if c == nil {
		p.mu.Unlock()
		return nil, ErrComposerClosed
	}
	draft := c.draft
	if msg := validateDraft(draft, c.useHTML); msg != "" {
		p.alert = msg
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrInvalidDraft, msg)
	}
	recipients := p.selectedEmails()
	c.errMsg = ""
	p.mu.Unlock()

	req := models.SendEmailRequest{
		Email:   recipients,
		Subject: draft.Subject,
		Text:    strings.TrimSpace(draft.Text),
		HTML:    strings.TrimSpace(draft.HTML),
	}
	resp, err := p.sender.Send(ctx, req)

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		msg := sendErrorText(err)
		if p.composer != nil {
			p.composer.errMsg = msg
		}
		p.alert = "Error: " + msg
		return nil, err
	}

	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "Unknown error"
		}
		p.alert = "Failed to send email: " + msg
		return resp, nil
	}

	p.alert = SendSummary(resp, len(recipients))
	p.composer = nil
	p.selected = make(map[string]struct{})
	return resp, nil
}

func validateDraft(d Draft, useHTML bool) string {
	switch {
	case strings.TrimSpace(d.Subject) == "":
		return MsgSubjectRequired
	case useHTML && strings.TrimSpace(d.HTML) == "":
		return MsgHTMLRequired
	case !useHTML && strings.TrimSpace(d.Text) == "":
		return MsgTextRequired
	}
	return ""
}

func sendErrorText(err error) string {
	if errors.Is(err, email.ErrEndpointMissing) {
		return err.Error()
	}
	return errorText(err, "Failed to send email")
}

// selectedEmails returns the addresses of selected entrants in list order.
// Callers hold p.mu.
func (p *WaitlistPage) selectedEmails() models.Recipients {
	emails := make(models.Recipients, 0, len(p.selected))
	for _, u := range p.list {
		if _, ok := p.selected[u.ID]; ok && u.Email != "" {
			emails = append(emails, u.Email)
		}
	}
	return emails
}

// SendSummary formats the success dialog for a send response
func SendSummary(resp *models.SendEmailResponse, selected int) string {
	var b strings.Builder
	b.WriteString(MsgSentOK)
	fmt.Fprintf(&b, "\nRecipients: %d", resp.Recipients(selected))
	if resp.FailedCount > 0 {
		fmt.Fprintf(&b, "\nFailed: %d", resp.FailedCount)
	}
	if len(resp.FailedEmails) > 0 {
		fmt.Fprintf(&b, "\nFailed emails: %s", strings.Join(resp.FailedEmails, ", "))
	}
	return b.String()
}

// TakeAlert returns and clears the pending dialog text
func (p *WaitlistPage) TakeAlert() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	a := p.alert
	p.alert = ""
	return a
}

// View snapshots the page. The pending alert is left in place; use
// TakeAlert to consume it.
func (p *WaitlistPage) View() WaitlistView {
	p.mu.Lock()
	defer p.mu.Unlock()

	users := make([]models.WaitlistUser, len(p.list))
	copy(users, p.list)
	selected := make(map[string]bool, len(p.selected))
	for id := range p.selected {
		selected[id] = true
	}

	v := WaitlistView{
		Search:      p.search,
		Users:       users,
		Total:       p.total,
		Error:       p.errMsg,
		Loaded:      p.loaded,
		Selected:    selected,
		AllSelected: p.allSelected(),
		Alert:       p.alert,
	}
	if c := p.composer; c != nil {
		v.Composer = &ComposerView{
			Templates:  c.templates,
			Draft:      c.draft,
			UseHTML:    c.useHTML,
			Mode:       c.mode,
			Error:      c.errMsg,
			Recipients: len(p.selected),
		}
	}
	return v
}
