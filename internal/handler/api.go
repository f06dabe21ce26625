package handler

import (
	"context"

	"github.com/beatstudio/internal/service"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

type draftRunner interface {
	Run(ctx context.Context, input service.DraftRunInput) (service.DraftRunResult, error)
}

type blogPostLister interface {
	List(filter service.BlogPostFilter) (*service.BlogPostListResult, error)
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db           *gorm.DB
	drafts       draftRunner
	posts        blogPostLister
	draftLimiter *rate.Limiter
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, drafts draftRunner) *API {
	return &API{
		db:           gdb,
		drafts:       drafts,
		posts:        service.NewBlogPostService(gdb),
		draftLimiter: newDraftLimiter(),
	}
}
