package web

import (
	"context"

	"github.com/ksysoev/wikiview/pkg/core"
	"github.com/stretchr/testify/mock"
)

type MockArticleService struct {
	mock.Mock
}

func NewMockArticleService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockArticleService {
	m := &MockArticleService{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockArticleService) ListArticles(ctx context.Context) ([]core.ArticleSummary, error) {
	args := m.Called(ctx)

	articles, _ := args.Get(0).([]core.ArticleSummary)

	return articles, args.Error(1)
}

func (m *MockArticleService) GetArticle(ctx context.Context, id string) (*core.Article, error) {
	args := m.Called(ctx, id)

	article, _ := args.Get(0).(*core.Article)

	return article, args.Error(1)
}
