package feed

import (
	"context"

	"atfinder/internal/models"
	"atfinder/internal/store"
)

// StoreSource 把查询层和固定作用域绑成信息流的数据来源
type StoreSource struct {
	store *store.Store
	scope models.Scope
}

func NewStoreSource(st *store.Store, scope models.Scope) *StoreSource {
	return &StoreSource{store: st, scope: scope}
}

func (s *StoreSource) ListRequests(ctx context.Context, sort store.SortMode, limit, offset int) ([]models.AttributionRequest, int64, *store.Error) {
	return s.store.ListRequests(ctx, s.scope, sort, limit, offset)
}

func (s *StoreSource) ListRequestsByStatus(ctx context.Context, status models.RequestStatus, sort store.SortMode, limit, offset int) ([]models.AttributionRequest, *store.Error) {
	return s.store.ListRequestsByStatus(ctx, s.scope, status, sort, limit, offset)
}
