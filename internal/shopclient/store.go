package shopclient

import (
	"context"

	"github.com/spiffcs/storefront/internal/cache"
	"github.com/spiffcs/storefront/internal/catalog"
	"github.com/spiffcs/storefront/internal/log"
	"github.com/spiffcs/storefront/internal/model"
)

// PageFetcher fetches a catalog page from the network.
type PageFetcher interface {
	FetchPage(ctx context.Context, page int) (*model.Page, error)
	BaseURL() string
}

// PageStore provides cache-aware page fetching. It wraps a PageFetcher
// and an on-disk cache so recently fetched pages are served without a
// request, the way a browser query cache serves fresh data.
type PageStore struct {
	fetcher PageFetcher
	cache   cache.Cacher
}

var _ catalog.PageFetcher = (*PageStore)(nil)

// NewPageStore creates a PageStore. If c is nil, caching is disabled.
func NewPageStore(fetcher PageFetcher, c cache.Cacher) *PageStore {
	return &PageStore{fetcher: fetcher, cache: c}
}

// FetchPage returns the page from the cache when fresh, otherwise from the
// API, caching the result.
func (s *PageStore) FetchPage(ctx context.Context, page int) (*model.Page, error) {
	key := cache.Key{BaseURL: s.fetcher.BaseURL(), Page: page}

	if s.cache != nil {
		if p, ok := s.cache.Get(key); ok {
			log.Debug("page served from cache", "page", page)
			return p, nil
		}
	}

	p, err := s.fetcher.FetchPage(ctx, page)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(key, p); err != nil {
			log.Debug("failed to cache page", "page", page, "error", err)
		}
	}

	return p, nil
}
