package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/foxzi/backoffice/internal/apiclient"
	"github.com/foxzi/backoffice/internal/models"
)

const templatesPath = "/api/admin/email-templates"

var ErrTemplateNotFound = errors.New("template not found")

// TemplateService manages email templates through the admin API
type TemplateService struct {
	client *apiclient.Client
}

func NewTemplateService(client *apiclient.Client) *TemplateService {
	return &TemplateService{client: client}
}

// List returns templates matching q. The API may answer with a bare array
// or with {"templates": [...]}; any other shape yields an empty list.
func (s *TemplateService) List(ctx context.Context, q models.TemplateQuery) ([]models.EmailTemplate, error) {
	params := url.Values{}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	if q.IsActive != nil {
		params.Set("isActive", strconv.FormatBool(*q.IsActive))
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}

	var raw json.RawMessage
	if err := s.client.Get(ctx, templatesPath, params, &raw); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	wire, err := decodeTemplateList(raw)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	templates := make([]models.EmailTemplate, 0, len(wire))
	for _, w := range wire {
		templates = append(templates, w.canonical())
	}
	return templates, nil
}

// ListActive returns the templates offered in the composer
func (s *TemplateService) ListActive(ctx context.Context) ([]models.EmailTemplate, error) {
	active := true
	return s.List(ctx, models.TemplateQuery{IsActive: &active})
}

func (s *TemplateService) Get(ctx context.Context, id int64) (*models.EmailTemplate, error) {
	var w wireTemplate
	if err := s.client.Get(ctx, templatePath(id), nil, &w); err != nil {
		if apiclient.IsNotFound(err) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("get template %d: %w", id, err)
	}
	t := w.canonical()
	return &t, nil
}

func (s *TemplateService) Create(ctx context.Context, in models.TemplateInput) (*models.EmailTemplate, error) {
	if in.Name == "" || in.Subject == "" {
		return nil, errors.New("template name and subject are required")
	}

	var w wireTemplate
	if err := s.client.Post(ctx, templatesPath, in, &w); err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	t := w.canonical()
	return &t, nil
}

func (s *TemplateService) Update(ctx context.Context, id int64, in models.TemplateInput) (*models.EmailTemplate, error) {
	var w wireTemplate
	if err := s.client.Put(ctx, templatePath(id), in, &w); err != nil {
		if apiclient.IsNotFound(err) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("update template %d: %w", id, err)
	}
	t := w.canonical()
	return &t, nil
}

func (s *TemplateService) Delete(ctx context.Context, id int64) error {
	if err := s.client.Delete(ctx, templatePath(id)); err != nil {
		if apiclient.IsNotFound(err) {
			return ErrTemplateNotFound
		}
		return fmt.Errorf("delete template %d: %w", id, err)
	}
	return nil
}

func templatePath(id int64) string {
	return templatesPath + "/" + strconv.FormatInt(id, 10)
}

// wireTemplate is a template as the API sends it, legacy aliases included
type wireTemplate struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Subject     string          `json:"subject"`
	TextContent string          `json:"textContent"`
	HTMLContent string          `json:"htmlContent"`
	Body        string          `json:"body"`
	BodyHTML    string          `json:"bodyHtml"`
	Variables   json.RawMessage `json:"variables"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	FromEmail   string          `json:"fromEmail"`
	FromName    string          `json:"fromName"`
	ReplyTo     string          `json:"replyTo"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (w wireTemplate) canonical() models.EmailTemplate {
	text := w.TextContent
	if text == "" {
		text = w.Body
	}
	html := w.HTMLContent
	if html == "" {
		html = w.BodyHTML
	}
	return models.EmailTemplate{
		ID:          w.ID,
		Name:        w.Name,
		Subject:     w.Subject,
		Text:        text,
		HTML:        html,
		Variables:   variableNames(w.Variables),
		Type:        w.Type,
		Category:    w.Category,
		Description: w.Description,
		FromEmail:   w.FromEmail,
		FromName:    w.FromName,
		ReplyTo:     w.ReplyTo,
		IsActive:    w.IsActive,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

// variableNames accepts a list of names or a name to description object
func variableNames(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var described map[string]string
	if err := json.Unmarshal(raw, &described); err == nil {
		names := make([]string, 0, len(described))
		for name := range described {
			names = append(names, name)
		}
		sort.Strings(names)
		return names
	}
	return nil
}

func decodeTemplateList(raw json.RawMessage) ([]wireTemplate, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}

	switch raw[0] {
	case '[':
		var list []wireTemplate
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		return list, nil
	case '{':
		var wrapped struct {
			Templates []wireTemplate `json:"templates"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, err
		}
		return wrapped.Templates, nil
	}
	return nil, nil
}
