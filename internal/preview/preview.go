// Package preview renders email bodies for the composer's preview frame.
package preview

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSecurityPolicy is sent with every preview document. The sandbox
// directive without allow-scripts keeps the frame scriptless and in an
// opaque origin even when opened directly.
const ContentSecurityPolicy = "sandbox; default-src 'none'; img-src https: http: data:; style-src 'unsafe-inline'; font-src https: data:"

var (
	emailPolicy = newEmailPolicy()
	stripPolicy = bluemonday.StrictPolicy()
)

func newEmailPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	p.AllowElements("p", "br", "div", "span", "h1", "h2", "h3", "h4", "h5", "h6", "hr")
	p.AllowElements("strong", "b", "em", "i", "u", "s", "code", "pre", "small", "center", "font")
	p.AllowElements("ul", "ol", "li", "blockquote")
	p.AllowElements("table", "thead", "tbody", "tfoot", "tr", "th", "td", "caption")

	p.AllowAttrs("href", "target").OnElements("a")
	p.AllowAttrs("src", "alt", "title", "width", "height").OnElements("img")
	p.AllowAttrs("align", "valign", "width", "height", "bgcolor", "border", "cellpadding", "cellspacing").
		OnElements("table", "tr", "td", "th")
	p.AllowAttrs("color", "face", "size").OnElements("font")
	p.AllowAttrs("class", "id").Globally()
	p.AllowStyling()
	p.AllowAttrs("style").Globally()

	p.RequireParseableURLs(true)
	p.AllowURLSchemes("http", "https", "mailto", "cid")
	return p
}

// HTML sanitizes an HTML email body
func HTML(body string) string {
	return emailPolicy.Sanitize(body)
}

var blockBreaks = strings.NewReplacer(
	"<br>", "\n", "<br/>", "\n", "<br />", "\n",
	"</p>", "</p>\n", "</div>", "</div>\n", "</li>", "</li>\n", "</tr>", "</tr>\n",
	"</h1>", "</h1>\n", "</h2>", "</h2>\n", "</h3>", "</h3>\n",
)

// StripHTML reduces an HTML body to plain text for the text/plain part.
// Block ends become line breaks; runs of blank lines collapse to one.
func StripHTML(body string) string {
	text := html.UnescapeString(stripPolicy.Sanitize(blockBreaks.Replace(body)))

	var b strings.Builder
	blank := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			blank = b.Len() > 0
			continue
		}
		if blank {
			b.WriteString("\n")
			blank = false
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(line)
	}
	return b.String()
}

// Document returns a standalone page for the preview frame: the sanitized
// HTML body when there is one, otherwise the text body verbatim.
func Document(htmlBody, textBody string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><meta charset=\"utf-8\"></head><body>")
	if strings.TrimSpace(htmlBody) != "" {
		b.WriteString(HTML(htmlBody))
	} else {
		b.WriteString(`<pre style="white-space:pre-wrap;font-family:inherit;margin:0">`)
		b.WriteString(html.EscapeString(textBody))
		b.WriteString("</pre>")
	}
	b.WriteString("</body></html>")
	return b.String()
}
