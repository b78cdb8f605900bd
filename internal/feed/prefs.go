package feed

import (
	"sync"

	"github.com/gin-contrib/sessions"
)

// 持久化的三个偏好键，与旧版客户端 localStorage 的键一致，无版本号
const (
	PrefSortKey     = "atfinder_sort"
	PrefStatusKey   = "atfinder_status"
	PrefPlatformKey = "atfinder_platform"
)

// PrefStore 筛选偏好的持久化存储，下个会话启动时据此恢复
type PrefStore interface {
	Get(key string) string
	Set(key, value string)
}

// MemoryPrefs 进程内实现，测试与无会话场景用
type MemoryPrefs struct {
	mu   sync.Mutex
	vals map[string]string
}

func NewMemoryPrefs() *MemoryPrefs {
	return &MemoryPrefs{vals: make(map[string]string)}
}

func (p *MemoryPrefs) Get(key string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.vals[key]
}

func (p *MemoryPrefs) Set(key, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.vals[key] = value
}

// SessionPrefs 基于 cookie 会话的实现，浏览器侧天然跨会话存活
type SessionPrefs struct {
	session sessions.Session
}

func NewSessionPrefs(session sessions.Session) *SessionPrefs {
	return &SessionPrefs{session: session}
}

func (p *SessionPrefs) Get(key string) string {
	if v := p.session.Get(key); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func (p *SessionPrefs) Set(key, value string) {
	p.session.Set(key, value)
	// cookie 写失败只能丢偏好，不影响本次请求
	_ = p.session.Save()
}
