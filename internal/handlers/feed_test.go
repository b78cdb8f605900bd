package handlers

import (
	"context"
	"testing"

	"atfinder/internal/feed"
	"atfinder/internal/models"
	"atfinder/internal/store"
)

// fakeFeedSource 信息流数据源替身
type fakeFeedSource struct {
	items    []models.AttributionRequest
	failWith *store.Error
}

func (f *fakeFeedSource) ListRequests(ctx context.Context, sort store.SortMode, limit, offset int) ([]models.AttributionRequest, int64, *store.Error) {
	if f.failWith != nil {
		return nil, 0, f.failWith
	}
	return f.items, int64(len(f.items)), nil
}

func (f *fakeFeedSource) ListRequestsByStatus(ctx context.Context, status models.RequestStatus, sort store.SortMode, limit, offset int) ([]models.AttributionRequest, *store.Error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.items, nil
}

// 首屏渲染不带数据：骨架先出，列表由跟进请求填充
func TestFeedSkeletonShownBeforeFirstLoad(t *testing.T) {
	src := &fakeFeedSource{items: []models.AttributionRequest{{Title: "who made this"}}}
	ctrl := feed.NewController(src, feed.NewMemoryPrefs())

	data := feedData(ctrl)
	if data["ShowSkeleton"] != true {
		t.Fatal("skeleton must show before the first load completes")
	}

	ctrl.Load(context.Background())
	data = feedData(ctrl)
	if data["ShowSkeleton"] != false {
		t.Fatal("skeleton must disappear after a successful load")
	}
	if len(data["Items"].([]models.AttributionRequest)) != 1 {
		t.Fatal("items missing after load")
	}
}

// 首次加载失败时骨架让位给离线横幅，不能无限转圈
func TestFeedSkeletonYieldsToOfflineBanner(t *testing.T) {
	src := &fakeFeedSource{failWith: &store.Error{Kind: store.KindNetwork, Op: "fake", Message: "connection refused"}}
	ctrl := feed.NewController(src, feed.NewMemoryPrefs())

	ctrl.Load(context.Background())
	data := feedData(ctrl)
	if data["ShowSkeleton"] != false {
		t.Fatal("skeleton must not show once the load has failed")
	}
	if data["BannerMessage"] != feed.BannerOfflineText {
		t.Fatalf("expected offline banner, got %v", data["BannerMessage"])
	}
}
