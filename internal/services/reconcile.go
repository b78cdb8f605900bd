package services

import (
	"sync"
	"time"

	"atfinder/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// reconcileTarget 待校正计数器的父行
type reconcileTarget struct {
	Type models.TargetType
	ID   uuid.UUID
}

// Reconciler 异步校正冗余计数器的服务。写路径本身在事务内原子维护
// 计数，这里兜底：被调度的求证帖/回答按子表实际行数重算一遍
// upvotes / answer_count / comment_count，吸收任何漂移。
type Reconciler struct {
	db      *gorm.DB
	queue   chan reconcileTarget
	pending map[reconcileTarget]bool
	mu      sync.Mutex
	once    sync.Once
}

func NewReconciler(db *gorm.DB) *Reconciler {
	return &Reconciler{
		db:      db,
		queue:   make(chan reconcileTarget, 1000), // 缓冲队列，防止阻塞
		pending: make(map[reconcileTarget]bool),
	}
}

// Start 启动后台 worker（幂等）
func (s *Reconciler) Start() {
	s.once.Do(func() {
		go s.worker()
	})
}

// ScheduleRequest 将求证帖加入校正队列（异步）
func (s *Reconciler) ScheduleRequest(id uuid.UUID) {
	s.schedule(reconcileTarget{Type: models.TargetRequest, ID: id})
}

// ScheduleAnswer 将回答加入校正队列（异步）
func (s *Reconciler) ScheduleAnswer(id uuid.UUID) {
	s.schedule(reconcileTarget{Type: models.TargetAnswer, ID: id})
}

// schedule 去重入队，避免短时间内重复计算同一行
func (s *Reconciler) schedule(t reconcileTarget) {
	s.mu.Lock()
	if s.pending[t] {
		// 已在队列中，跳过
		s.mu.Unlock()
		return
	}
	s.pending[t] = true
	s.mu.Unlock()

	// 非阻塞发送到队列
	select {
	case s.queue <- t:
	default:
		// 队列满了，移除 pending 标记
		s.mu.Lock()
		delete(s.pending, t)
		s.mu.Unlock()
		log.Warn().Str("target", string(t.Type)).Str("id", t.ID.String()).
			Msg("reconcile queue full, target skipped")
	}
}

// worker 后台批量处理
func (s *Reconciler) worker() {
	batch := make([]reconcileTarget, 0, 50)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case t := <-s.queue:
			batch = append(batch, t)
			if len(batch) >= 50 {
				s.processBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.processBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *Reconciler) processBatch(targets []reconcileTarget) {
	for _, t := range targets {
		if t.Type == models.TargetRequest {
			s.reconcileRequest(t.ID)
		} else {
			s.reconcileAnswer(t.ID)
		}

		s.mu.Lock()
		delete(s.pending, t)
		s.mu.Unlock()
	}
}

// reconcileRequest 按子表行数重算求证帖的三个计数器
func (s *Reconciler) reconcileRequest(id uuid.UUID) {
	upvotes := s.voteSum(models.TargetRequest, id)

	var answers int64
	s.db.Model(&models.Answer{}).Where("request_id = ?", id).Count(&answers)

	var comments int64
	s.db.Model(&models.Comment{}).
		Where("target_type = ? AND target_id = ?", models.TargetRequest, id).
		Count(&comments)

	err := s.db.Model(&models.AttributionRequest{}).Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"upvotes":       upvotes,
			"answer_count":  answers,
			"comment_count": comments,
		}).Error
	if err != nil {
		log.Warn().Err(err).Str("id", id.String()).Msg("request counter reconcile failed")
	}
}

// reconcileAnswer 重算回答的计数器
func (s *Reconciler) reconcileAnswer(id uuid.UUID) {
	upvotes := s.voteSum(models.TargetAnswer, id)

	var comments int64
	s.db.Model(&models.Comment{}).
		Where("target_type = ? AND target_id = ?", models.TargetAnswer, id).
		Count(&comments)

	err := s.db.Model(&models.Answer{}).Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"upvotes":       upvotes,
			"comment_count": comments,
		}).Error
	if err != nil {
		log.Warn().Err(err).Str("id", id.String()).Msg("answer counter reconcile failed")
	}
}

// voteSum 投票值求和，计数器地板为零
func (s *Reconciler) voteSum(targetType models.TargetType, id uuid.UUID) int64 {
	var sum int64
	s.db.Model(&models.Vote{}).
		Where("target_type = ? AND target_id = ?", targetType, id).
		Select("COALESCE(SUM(value), 0)").
		Scan(&sum)
	if sum < 0 {
		sum = 0
	}
	return sum
}
