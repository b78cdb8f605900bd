package feed

// 下拉刷新手势参数：松手时拖拽距离过线才触发刷新，
// 视觉偏移做阻尼衰减
const (
	PullThreshold = 80.0 // px
	PullDamping   = 0.5
)

// PullTracker 下拉刷新手势状态机。只在列表滚到顶部时武装，
// 拖拽中途滚走即作废，松手过线才算一次刷新。
type PullTracker struct {
	active   bool
	distance float64
}

// Start 手指落下。只有容器在顶部（scrollTop == 0）才开始跟踪
func (t *PullTracker) Start(scrollTop float64) bool {
	t.active = scrollTop <= 0
	t.distance = 0
	return t.active
}

// Move 垂直拖拽增量，返回当前阻尼后的视觉偏移
func (t *PullTracker) Move(dy float64) float64 {
	if !t.active {
		return 0
	}
	t.distance += dy
	if t.distance < 0 {
		t.distance = 0
	}
	return t.Offset()
}

// Offset 阻尼后的视觉偏移
func (t *PullTracker) Offset() float64 {
	if !t.active {
		return 0
	}
	return t.distance * PullDamping
}

// Release 松手。拖拽距离达到阈值返回 true（触发一次刷新），状态复位
func (t *PullTracker) Release() bool {
	triggered := t.active && t.distance >= PullThreshold
	t.active = false
	t.distance = 0
	return triggered
}

// Cancel 中途滚走，手势作废
func (t *PullTracker) Cancel() {
	t.active = false
	t.distance = 0
}
