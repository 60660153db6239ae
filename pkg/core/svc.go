package core

import (
	"context"
	"html/template"
)

const (
	defaultPreviewLength = 100
	untitled             = "Untitled"
)

type FieldsConfig struct {
	Title   string `mapstructure:"title"`
	Quote   string `mapstructure:"quote"`
	Comment string `mapstructure:"comment"`
	Content string `mapstructure:"content"`
	Link    string `mapstructure:"link"`
}

type Config struct {
	Fields        FieldsConfig `mapstructure:"fields"`
	PreviewLength int          `mapstructure:"preview_length"`
}

type RecordSource interface {
	ListRecords(ctx context.Context) ([]Record, error)
}

type PageImporter interface {
	Import(ctx context.Context, pageURL string) (template.HTML, error)
}

type Service struct {
	records  RecordSource
	importer PageImporter
	fields   FieldsConfig
	preview  int
}

// New creates a Service reading records from records and importing linked pages with importer.
func New(cfg Config, records RecordSource, importer PageImporter) *Service {
	fields := cfg.Fields
	setDefault(&fields.Title, "标题")
	setDefault(&fields.Quote, "金句输出")
	setDefault(&fields.Comment, "黄叔点评")
	setDefault(&fields.Content, "概要内容输出")
	setDefault(&fields.Link, "链接")

	preview := cfg.PreviewLength
	if preview <= 0 {
		preview = defaultPreviewLength
	}

	return &Service{
		records:  records,
		importer: importer,
		fields:   fields,
		preview:  preview,
	}
}

func setDefault(s *string, v string) {
	if *s == "" {
		*s = v
	}
}
