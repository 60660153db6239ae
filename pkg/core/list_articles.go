package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ksysoev/wikiview/pkg/render"
	"github.com/ksysoev/wikiview/pkg/richtext"
)

// ListArticles fetches the current page of records and maps each one to a summary.
// An empty table yields an empty, non-nil slice.
func (s *Service) ListArticles(ctx context.Context) ([]ArticleSummary, error) {
	records, err := s.records.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	articles := make([]ArticleSummary, 0, len(records))

	for _, r := range records {
		articles = append(articles, s.summary(r))
	}

	slog.DebugContext(ctx, "Listed articles", slog.Int("count", len(articles)))

	return articles, nil
}

func (s *Service) summary(r Record) ArticleSummary {
	return ArticleSummary{
		ID:      r.ID,
		Title:   s.title(r),
		Quote:   s.text(r, s.fields.Quote),
		Comment: s.text(r, s.fields.Comment),
		Preview: render.Preview(s.text(r, s.fields.Content), s.preview),
	}
}

// text returns the named field as markup-free display text.
func (s *Service) text(r Record, field string) string {
	v, ok := r.Fields[field]
	if !ok || v == nil {
		return ""
	}

	return render.PlainText(richtext.ToDisplayString(v))
}

func (s *Service) title(r Record) string {
	if title := s.text(r, s.fields.Title); title != "" {
		return title
	}

	slog.Warn("Record has no title", slog.String("record_id", r.ID))

	return untitled
}
