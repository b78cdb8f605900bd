package feed

import (
	"context"
	"sync"

	"atfinder/internal/models"
	"atfinder/internal/store"

	"github.com/rs/zerolog/log"
)

// DefaultPageSize 一页条数
const DefaultPageSize = 20

// StatusFilter 信息流状态筛选（closed 的帖子不单独提供入口）
type StatusFilter string

const (
	FilterAll    StatusFilter = "all"
	FilterOpen   StatusFilter = "open"
	FilterSolved StatusFilter = "solved"
)

func (f StatusFilter) Valid() bool {
	return f == FilterAll || f == FilterOpen || f == FilterSolved
}

// PlatformFilter "all" 或某个平台。注意这是纯客户端过滤，
// 不下推到查询层，拿到结果后在 Items() 里筛。
type PlatformFilter string

const PlatformAll PlatformFilter = "all"

func (f PlatformFilter) Valid() bool {
	return f == PlatformAll || models.Platform(f).Valid()
}

// Phase 加载阶段的三种展示形态
type Phase int

const (
	PhaseSkeleton   Phase = iota // 首次加载、无缓存：骨架屏
	PhaseRefreshing              // 手动/下拉刷新：转圈，旧内容保留可见
	PhaseSteady
)

// Banner 错误横幅
type Banner int

const (
	BannerNone    Banner = iota
	BannerCached         // 拉取失败但有缓存可展示
	BannerOffline        // 拉取失败且无缓存
)

// 横幅文案
const (
	BannerCachedText  = "Showing cached content"
	BannerOfflineText = "Connection issue. Check your network and retry."
)

// Message 横幅的用户可见文案
func (b Banner) Message() string {
	switch b {
	case BannerCached:
		return BannerCachedText
	case BannerOffline:
		return BannerOfflineText
	}
	return ""
}

// Source 信息流的数据来源，由绑定了作用域的查询层适配实现
type Source interface {
	ListRequests(ctx context.Context, sort store.SortMode, limit, offset int) ([]models.AttributionRequest, int64, *store.Error)
	ListRequestsByStatus(ctx context.Context, status models.RequestStatus, sort store.SortMode, limit, offset int) ([]models.AttributionRequest, *store.Error)
}

// Controller 信息流状态控制器：夹在查询层和展示层中间，
// 管加载/错误/缓存状态、筛选排序、手动和下拉刷新。
//
// 两套缓冲：items 是最近一次成功结果，cache 在刷新失败时兜底，
// 界面绝不因瞬时错误退回空列表。
//
// 并发规则：in-flight 期间普通刷新被压制；筛选变更强制发起新请求并
// 挤掉旧的——每次请求发序号，迟到的旧响应对不上号直接丢弃，
// 不会用陈旧数据盖掉新筛选的结果。
type Controller struct {
	mu     sync.Mutex
	source Source
	prefs  PrefStore

	sort     store.SortMode
	status   StatusFilter
	platform PlatformFilter

	items  []models.AttributionRequest
	cache  []models.AttributionRequest
	total  int64
	loaded bool // 是否有过至少一次成功加载

	inflight bool
	seq      uint64

	phase   Phase
	banner  Banner
	lastErr *store.Error

	pull PullTracker
}

// NewController 构造控制器并恢复上次会话持久化的筛选偏好。
// 不发起请求，首次拉取由 Load 显式触发。
func NewController(source Source, prefs PrefStore) *Controller {
	c := &Controller{
		source:   source,
		prefs:    prefs,
		sort:     store.SortRecent,
		status:   FilterAll,
		platform: PlatformAll,
		phase:    PhaseSkeleton,
	}
	if v := store.SortMode(prefs.Get(PrefSortKey)); v.Valid() {
		c.sort = v
	}
	if v := StatusFilter(prefs.Get(PrefStatusKey)); v.Valid() {
		c.status = v
	}
	if v := PlatformFilter(prefs.Get(PrefPlatformKey)); v.Valid() {
		c.platform = v
	}
	return c
}

// SetPrefStore 换绑偏好存储（会话实现每个请求是新对象）
func (c *Controller) SetPrefStore(prefs PrefStore) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prefs = prefs
}

// Load 首次加载。已加载或加载中则什么都不做
func (c *Controller) Load(ctx context.Context) {
	c.mu.Lock()
	if c.loaded || c.inflight {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.fetch(ctx, false)
}

// Refresh 手动刷新。in-flight 时被压制
func (c *Controller) Refresh(ctx context.Context) {
	c.fetch(ctx, false)
}

// Retry 错误横幅上的重试，语义同手动刷新
func (c *Controller) Retry(ctx context.Context) {
	c.fetch(ctx, false)
}

// SetSort 改排序。首次加载完成后的变更立即重拉
func (c *Controller) SetSort(ctx context.Context, sort store.SortMode) {
	if !sort.Valid() {
		return
	}
	c.mu.Lock()
	if sort == c.sort {
		c.mu.Unlock()
		return
	}
	c.sort = sort
	c.prefs.Set(PrefSortKey, string(sort))
	refetch := c.loaded
	c.mu.Unlock()
	if refetch {
		c.fetch(ctx, true)
	}
}

// SetStatus 改状态筛选
func (c *Controller) SetStatus(ctx context.Context, status StatusFilter) {
	if !status.Valid() {
		return
	}
	c.mu.Lock()
	if status == c.status {
		c.mu.Unlock()
		return
	}
	c.status = status
	c.prefs.Set(PrefStatusKey, string(status))
	refetch := c.loaded
	c.mu.Unlock()
	if refetch {
		c.fetch(ctx, true)
	}
}

// SetPlatform 改平台筛选。纯客户端过滤，不重拉
func (c *Controller) SetPlatform(platform PlatformFilter) {
	if !platform.Valid() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if platform == c.platform {
		return
	}
	c.platform = platform
	c.prefs.Set(PrefPlatformKey, string(platform))
}

// fetch 发起一次拉取。force 时（筛选变更）挤掉 in-flight 的旧请求，
// 旧响应凭序号作废。
func (c *Controller) fetch(ctx context.Context, force bool) {
	c.mu.Lock()
	if c.inflight && !force {
		c.mu.Unlock()
		return
	}
	c.seq++
	token := c.seq
	c.inflight = true
	if !c.loaded && len(c.cache) == 0 {
		c.phase = PhaseSkeleton
	} else {
		c.phase = PhaseRefreshing
	}
	sort, status := c.sort, c.status
	c.mu.Unlock()

	items, total, serr := c.query(ctx, sort, status)
	c.apply(token, items, total, serr)
}

func (c *Controller) query(ctx context.Context, sort store.SortMode, status StatusFilter) ([]models.AttributionRequest, int64, *store.Error) {
	if status == FilterAll {
		return c.source.ListRequests(ctx, sort, DefaultPageSize, 0)
	}
	items, serr := c.source.ListRequestsByStatus(ctx, models.RequestStatus(status), sort, DefaultPageSize, 0)
	return items, int64(len(items)), serr
}

// apply 响应落地。对不上最新序号的一律丢弃
func (c *Controller) apply(token uint64, items []models.AttributionRequest, total int64, serr *store.Error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if token != c.seq {
		// 迟到的陈旧响应
		return
	}
	c.inflight = false
	c.phase = PhaseSteady
	c.lastErr = serr

	if serr == nil {
		c.items = items
		c.cache = items
		c.total = total
		c.banner = BannerNone
		c.loaded = true
		return
	}

	log.Warn().Err(serr).Msg("feed fetch failed")
	if len(c.cache) > 0 {
		c.items = c.cache
		c.banner = BannerCached
	} else {
		c.items = nil
		c.banner = BannerOffline
	}
}

// Items 当前可展示的列表，平台筛选在这里套用
func (c *Controller) Items() []models.AttributionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.platform == PlatformAll {
		out := make([]models.AttributionRequest, len(c.items))
		copy(out, c.items)
		return out
	}
	var out []models.AttributionRequest
	for _, item := range c.items {
		if item.Platform == models.Platform(c.platform) {
			out = append(out, item)
		}
	}
	return out
}

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight {
		return c.phase
	}
	return PhaseSteady
}

// Loaded 是否有过至少一次成功加载
func (c *Controller) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Loading 是否有请求在途
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight
}

func (c *Controller) Banner() Banner {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.banner
}

func (c *Controller) LastError() *store.Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Controller) Total() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

func (c *Controller) Sort() store.SortMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sort
}

func (c *Controller) Status() StatusFilter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Controller) Platform() PlatformFilter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.platform
}

// PullStart 手势开始，只在列表顶部武装
func (c *Controller) PullStart(scrollTop float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pull.Start(scrollTop)
}

// PullMove 手势拖拽，返回阻尼后的视觉偏移
func (c *Controller) PullMove(dy float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pull.Move(dy)
}

// PullCancel 中途滚走，放弃本次手势
func (c *Controller) PullCancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pull.Cancel()
}

// PullRelease 松手。过线则触发恰好一次刷新并返回 true
func (c *Controller) PullRelease(ctx context.Context) bool {
	c.mu.Lock()
	triggered := c.pull.Release()
	c.mu.Unlock()
	if triggered {
		c.Refresh(ctx)
	}
	return triggered
}
