// Package render turns article field values into HTML that is safe to embed in a page.
package render

import (
	"bytes"
	"html/template"
	"log/slog"
	"strings"

	"github.com/ksysoev/wikiview/pkg/richtext"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
)

const ellipsis = "..."

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	content  = contentPolicy()
	strict   = bluemonday.StrictPolicy()
)

// contentPolicy allows the block and inline elements produced by article bodies and nothing else.
func contentPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "h1", "h2", "h3", "h4", "h5", "h6",
		"strong", "em", "u", "s", "del", "code", "pre",
		"ul", "ol", "li", "blockquote", "br", "hr",
		"table", "thead", "tbody", "tr", "th", "td",
	)
	p.AllowAttrs("class").Globally()
	p.AllowStandardURLs()
	p.AllowAttrs("href").OnElements("a")
	p.RequireNoFollowOnLinks(true)

	return p
}

// Markdown renders markdown source as sanitized HTML.
func Markdown(src string) template.HTML {
	var buf bytes.Buffer

	if err := markdown.Convert([]byte(src), &buf); err != nil {
		slog.Warn("Failed to render markdown", slog.Any("error", err))
		return template.HTML(html.EscapeString(src)) //nolint:gosec // escaped above
	}

	return template.HTML(content.SanitizeBytes(buf.Bytes())) //nolint:gosec // sanitized by policy
}

// Content renders an article body. Rich-text values are converted node by node, any other value
// is treated as markdown text. The result is always passed through the content policy.
func Content(v any) template.HTML {
	if richtext.IsRichText(v) {
		return template.HTML(content.Sanitize(richtext.ToHTML(v))) //nolint:gosec // sanitized by policy
	}

	return Markdown(richtext.ToDisplayString(v))
}

// PlainText strips all markup from s and returns the remaining text unescaped, ready for
// contextual escaping by a template.
func PlainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// Preview returns at most n runes of s, followed by an ellipsis when s was truncated.
func Preview(s string, n int) string {
	if n <= 0 {
		return s
	}

	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n]) + ellipsis
}
