package core

import (
	"errors"
	"html/template"
)

// ErrArticleNotFound is returned when no record on the fetched page carries the requested id.
var ErrArticleNotFound = errors.New("article not found")

// Record is a single table row as returned by the records API. Field values keep their decoded
// JSON shape, numbers are json.Number.
type Record struct {
	Fields map[string]any
	ID     string
}

// ArticleSummary is the list-page view of a record.
type ArticleSummary struct {
	ID      string
	Title   string
	Quote   string
	Comment string
	Preview string
}

// Article is the detail-page view of a record.
type Article struct {
	ID            string
	Title         string
	Quote         string
	Comment       string
	Content       template.HTML
	ExternalURL   string
	ExternalError string
}
