package core

import (
	"context"
	"html/template"

	"github.com/stretchr/testify/mock"
)

type MockRecordSource struct {
	mock.Mock
}

func NewMockRecordSource(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockRecordSource {
	m := &MockRecordSource{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockRecordSource) ListRecords(ctx context.Context) ([]Record, error) {
	args := m.Called(ctx)

	records, _ := args.Get(0).([]Record)

	return records, args.Error(1)
}

type MockPageImporter struct {
	mock.Mock
}

func NewMockPageImporter(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPageImporter {
	m := &MockPageImporter{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockPageImporter) Import(ctx context.Context, pageURL string) (template.HTML, error) {
	args := m.Called(ctx, pageURL)

	return args.Get(0).(template.HTML), args.Error(1)
}
