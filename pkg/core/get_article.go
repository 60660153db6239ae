package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ksysoev/wikiview/pkg/render"
)

// GetArticle returns the record with the given id from the current page of records.
// When the record links to an external page and the page can be imported, its content replaces
// the record's own body. A failed import is reported in Article.ExternalError and is not an error.
func (s *Service) GetArticle(ctx context.Context, id string) (*Article, error) {
	records, err := s.records.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	for _, r := range records {
		if r.ID == id {
			return s.article(ctx, r), nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrArticleNotFound, id)
}

func (s *Service) article(ctx context.Context, r Record) *Article {
	a := &Article{
		ID:          r.ID,
		Title:       s.title(r),
		Quote:       s.text(r, s.fields.Quote),
		Comment:     s.text(r, s.fields.Comment),
		Content:     render.Content(r.Fields[s.fields.Content]),
		ExternalURL: externalLink(r.Fields[s.fields.Link]),
	}

	if a.ExternalURL == "" {
		return a
	}

	content, err := s.importer.Import(ctx, a.ExternalURL)
	if errors.Is(err, render.ErrImportDisabled) {
		return a
	}

	if err != nil {
		slog.ErrorContext(ctx, "Failed to import external page",
			slog.String("record_id", r.ID),
			slog.String("url", a.ExternalURL),
			slog.Any("error", err),
		)

		a.ExternalError = err.Error()

		return a
	}

	a.Content = content

	return a
}

// externalLink extracts a URL from a link field: a mapping carries it under "url" or "link",
// a list holds it in its first element.
func externalLink(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case map[string]any:
		for _, key := range []string{"url", "link"} {
			if u, ok := val[key].(string); ok && u != "" {
				return u
			}
		}

		return ""
	case []any:
		if len(val) == 0 {
			return ""
		}

		return externalLink(val[0])
	default:
		return ""
	}
}
