package email

import (
	"bytes"
	"fmt"
	htmlTemplate "html/template"
	"regexp"
	"strings"
	textTemplate "text/template"

	"github.com/foxzi/backoffice/internal/models"
)

// Rendered is a template filled in for one recipient
type Rendered struct {
	Subject string
	Text    string
	HTML    string
}

var placeholderRe = regexp.MustCompile(`\{\{\s*([^{}]*?)\s*\}\}`)

var templateKeywords = map[string]bool{
	"if": true, "else": true, "end": true, "range": true, "with": true,
	"define": true, "template": true, "block": true, "break": true, "continue": true,
}

// normalizePlaceholders rewrites {{name}} placeholders into Go template
// field references ({{.name}}). Actions, pipelines and variables are kept.
func normalizePlaceholders(s string) string {
	return placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		inner := strings.TrimSpace(m[2 : len(m)-2])
		if inner == "" || strings.HasPrefix(inner, ".") || strings.HasPrefix(inner, "$") ||
			strings.Contains(inner, "|") || strings.Contains(inner, " ") {
			return m
		}
		if templateKeywords[inner] {
			return m
		}
		return strings.Replace(m, inner, "."+inner, 1)
	})
}

// Render fills tmpl's subject and bodies with data. Missing variables
// render empty.
func Render(tmpl models.EmailTemplate, data map[string]any) (*Rendered, error) {
	subject, err := renderText("subject", tmpl.Subject, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render subject: %w", err)
	}
	out := &Rendered{Subject: subject}

	if tmpl.HTML != "" {
		if out.HTML, err = renderHTML("html", tmpl.HTML, data); err != nil {
			return nil, fmt.Errorf("failed to render html: %w", err)
		}
	} else if tmpl.Text != "" {
		if out.Text, err = renderText("text", tmpl.Text, data); err != nil {
			return nil, fmt.Errorf("failed to render text: %w", err)
		}
	}
	return out, nil
}

// ValidateTemplate checks that subject and bodies parse
func ValidateTemplate(tmpl models.EmailTemplate) error {
	if _, err := textTemplate.New("subject").Parse(normalizePlaceholders(tmpl.Subject)); err != nil {
		return fmt.Errorf("invalid subject template: %w", err)
	}
	if _, err := htmlTemplate.New("html").Parse(normalizePlaceholders(tmpl.HTML)); err != nil {
		return fmt.Errorf("invalid html template: %w", err)
	}
	if _, err := textTemplate.New("text").Parse(normalizePlaceholders(tmpl.Text)); err != nil {
		return fmt.Errorf("invalid text template: %w", err)
	}
	return nil
}

func renderText(name, src string, data map[string]any) (string, error) {
	t, err := textTemplate.New(name).Option("missingkey=zero").Parse(normalizePlaceholders(src))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return strings.ReplaceAll(buf.String(), "<no value>", ""), nil
}

func renderHTML(name, src string, data map[string]any) (string, error) {
	t, err := htmlTemplate.New(name).Option("missingkey=zero").Parse(normalizePlaceholders(src))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RecipientData is the variable set offered to templates for one entrant
func RecipientData(emailAddr, name string) map[string]any {
	first := name
	if i := strings.IndexByte(name, ' '); i > 0 {
		first = name[:i]
	}
	return map[string]any{
		"email":     emailAddr,
		"name":      name,
		"firstName": first,
	}
}
