package web

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ksysoev/wikiview/pkg/core"
	"github.com/ksysoev/wikiview/pkg/web/middleware"
)

const (
	notFoundMessage = "The article does not exist."
	pageNotFound    = "The page does not exist."
	upstreamMessage = "Articles could not be loaded right now. Please try again later."
)

type indexPage struct {
	Articles []core.ArticleSummary
}

type errorPage struct {
	Message   string
	RequestID string
	Status    int
}

func (s *Service) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	articles, err := s.articles.ListArticles(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list articles", slog.Any("error", err))
		s.renderError(w, r, http.StatusInternalServerError, upstreamMessage)

		return
	}

	s.render(w, r, http.StatusOK, "index.html", indexPage{Articles: articles})
}

func (s *Service) handleArticle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "recordID")

	article, err := s.articles.GetArticle(ctx, id)

	switch {
	case errors.Is(err, core.ErrArticleNotFound):
		slog.InfoContext(ctx, "Article not found", slog.String("record_id", id))
		s.renderError(w, r, http.StatusNotFound, notFoundMessage)
	case err != nil:
		slog.ErrorContext(ctx, "Failed to get article", slog.String("record_id", id), slog.Any("error", err))
		s.renderError(w, r, http.StatusInternalServerError, upstreamMessage)
	default:
		s.render(w, r, http.StatusOK, "detail.html", article)
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Service) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusNotFound, pageNotFound)
}

func (s *Service) renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.render(w, r, status, "error.html", errorPage{
		Status:    status,
		Message:   msg,
		RequestID: middleware.RequestID(r.Context()),
	})
}

// render executes the named template into a buffer so that a failing template never produces a
// partially written page.
func (s *Service) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer

	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Failed to render template", slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if _, err := buf.WriteTo(w); err != nil {
		slog.DebugContext(r.Context(), "Failed to write response", slog.Any("error", err))
	}
}
