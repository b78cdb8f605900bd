package feed

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
)

// Manager 按会话维护信息流控制器。LRU 限容，长期不活跃的会话
// 连同缓存一起被挤出。
type Manager struct {
	controllers *lru.Cache[string, *Controller]
}

func NewManager(size int) *Manager {
	cache, err := lru.New[string, *Controller](size)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create controller LRU cache")
	}
	return &Manager{controllers: cache}
}

// Get 取会话对应的控制器，没有则新建。每次都换绑当前请求的
// 偏好存储（cookie 会话对象每个请求都是新的）。
func (m *Manager) Get(sessionID string, source Source, prefs PrefStore) *Controller {
	if c, ok := m.controllers.Get(sessionID); ok {
		c.SetPrefStore(prefs)
		return c
	}
	c := NewController(source, prefs)
	m.controllers.Add(sessionID, c)
	return c
}

// Drop 显式移除会话的控制器（会话结束时）
func (m *Manager) Drop(sessionID string) {
	m.controllers.Remove(sessionID)
}
