package store

import (
	"context"
	"errors"
	"time"

	"atfinder/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SortMode 列表排序方式
type SortMode string

const (
	SortRecent  SortMode = "recent"  // 创建时间倒序
	SortPopular SortMode = "popular" // 点赞数倒序
)

func (m SortMode) Valid() bool {
	return m == SortRecent || m == SortPopular
}

// Store 查询层。显式构造、显式注入，替代原实现里模块级的全局客户端。
// 每个操作都带租户/项目作用域，作用域外的行不可见。
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB 暴露底层连接给需要自定义查询的调用方（cmd/schema 等）
func (s *Store) DB() *gorm.DB {
	return s.db
}

func scopeWhere(tx *gorm.DB, scope models.Scope) *gorm.DB {
	return tx.Where("tenant_id = ? AND project_id = ?", scope.TenantID, scope.ProjectID)
}

func orderClause(sort SortMode) string {
	if sort == SortPopular {
		return "upvotes DESC, created_at DESC"
	}
	return "created_at DESC"
}

// ListRequests 按排序分页读取求证帖，额外返回总数
func (s *Store) ListRequests(ctx context.Context, scope models.Scope, sort SortMode, limit, offset int) ([]models.AttributionRequest, int64, *Error) {
	const op = "store.ListRequests"

	var total int64
	q := scopeWhere(s.db.WithContext(ctx).Model(&models.AttributionRequest{}), scope)
	if err := q.Count(&total).Error; err != nil {
		return []models.AttributionRequest{}, 0, wrap(op, err)
	}

	var items []models.AttributionRequest
	err := scopeWhere(s.db.WithContext(ctx), scope).
		Order(orderClause(sort)).
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []models.AttributionRequest{}, 0, wrap(op, err)
	}
	return items, total, nil
}

// ListRequestsByStatus 同 ListRequests，外加状态等值过滤
func (s *Store) ListRequestsByStatus(ctx context.Context, scope models.Scope, status models.RequestStatus, sort SortMode, limit, offset int) ([]models.AttributionRequest, *Error) {
	const op = "store.ListRequestsByStatus"

	if !status.Valid() {
		return []models.AttributionRequest{}, queryError(op, "invalid status: "+string(status), nil)
	}

	var items []models.AttributionRequest
	err := scopeWhere(s.db.WithContext(ctx), scope).
		Where("status = ?", status).
		Order(orderClause(sort)).
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []models.AttributionRequest{}, wrap(op, err)
	}
	return items, nil
}

func (s *Store) GetRequestByID(ctx context.Context, scope models.Scope, id uuid.UUID) (*models.AttributionRequest, *Error) {
	const op = "store.GetRequestByID"

	var item models.AttributionRequest
	err := scopeWhere(s.db.WithContext(ctx), scope).
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, wrap(op, err)
	}
	return &item, nil
}

func (s *Store) GetAnswerByID(ctx context.Context, scope models.Scope, id uuid.UUID) (*models.Answer, *Error) {
	const op = "store.GetAnswerByID"

	var item models.Answer
	err := scopeWhere(s.db.WithContext(ctx), scope).
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, wrap(op, err)
	}
	return &item, nil
}

// ListAnswers 回答按认证优先、点赞倒序排列
func (s *Store) ListAnswers(ctx context.Context, scope models.Scope, requestID uuid.UUID) ([]models.Answer, *Error) {
	const op = "store.ListAnswers"

	var items []models.Answer
	err := scopeWhere(s.db.WithContext(ctx), scope).
		Where("request_id = ?", requestID).
		Order("is_verified DESC, upvotes DESC").
		Find(&items).Error
	if err != nil {
		return []models.Answer{}, wrap(op, err)
	}
	return items, nil
}

// ListComments 评论按创建时间正序
func (s *Store) ListComments(ctx context.Context, scope models.Scope, targetType models.TargetType, targetID uuid.UUID) ([]models.Comment, *Error) {
	const op = "store.ListComments"

	if !targetType.Valid() {
		return []models.Comment{}, queryError(op, "invalid target type: "+string(targetType), nil)
	}

	var items []models.Comment
	err := scopeWhere(s.db.WithContext(ctx), scope).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return []models.Comment{}, wrap(op, err)
	}
	return items, nil
}

// RequestFields 创建求证帖时调用方可控的字段。
// 计数器和状态由服务端初始化，调用方给了也会被忽略。
type RequestFields struct {
	Title       string
	Description string
	MediaURL    string
	MediaType   models.MediaType
	RepostURL   string
	Platform    models.Platform
	SubmittedBy string
}

func (s *Store) CreateRequest(ctx context.Context, scope models.Scope, fields RequestFields) (*models.AttributionRequest, *Error) {
	const op = "store.CreateRequest"

	if fields.Title == "" {
		return nil, queryError(op, "title is required", nil)
	}
	if fields.MediaType != "" && !fields.MediaType.Valid() {
		return nil, queryError(op, "invalid media type: "+string(fields.MediaType), nil)
	}
	if fields.Platform != "" && !fields.Platform.Valid() {
		return nil, queryError(op, "invalid platform: "+string(fields.Platform), nil)
	}

	item := models.AttributionRequest{
		TenantID:     scope.TenantID,
		ProjectID:    scope.ProjectID,
		Title:        fields.Title,
		Description:  fields.Description,
		MediaURL:     fields.MediaURL,
		MediaType:    fields.MediaType,
		RepostURL:    fields.RepostURL,
		Platform:     fields.Platform,
		Status:       models.StatusOpen,
		Upvotes:      0,
		AnswerCount:  0,
		CommentCount: 0,
		SubmittedBy:  fields.SubmittedBy,
	}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, wrap(op, err)
	}
	return &item, nil
}

// AnswerFields 创建回答的字段
type AnswerFields struct {
	CreatorHandle   string
	CreatorPlatform models.Platform
	ProofURL        string
	Explanation     string
	SubmittedBy     string
}

// CreateAnswer 在同一事务里插入回答并原子递增父帖 answer_count，
// 计数器与子表行数始终一致。
func (s *Store) CreateAnswer(ctx context.Context, scope models.Scope, requestID uuid.UUID, fields AnswerFields) (*models.Answer, *Error) {
	const op = "store.CreateAnswer"

	if fields.CreatorHandle == "" {
		return nil, queryError(op, "creator handle is required", nil)
	}

	item := models.Answer{
		TenantID:        scope.TenantID,
		ProjectID:       scope.ProjectID,
		RequestID:       requestID,
		CreatorHandle:   fields.CreatorHandle,
		CreatorPlatform: fields.CreatorPlatform,
		ProofURL:        fields.ProofURL,
		Explanation:     fields.Explanation,
		SubmittedBy:     fields.SubmittedBy,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.AttributionRequest
		if err := scopeWhere(tx, scope).Where("id = ?", requestID).First(&req).Error; err != nil {
			return err
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		return tx.Model(&models.AttributionRequest{}).
			Where("id = ?", requestID).
			UpdateColumn("answer_count", gorm.Expr("answer_count + ?", 1)).Error
	})
	if err != nil {
		return nil, wrap(op, err)
	}
	return &item, nil
}

// CommentFields 创建评论的字段
type CommentFields struct {
	Content    string
	UserID     string
	UserHandle string
}

// CreateComment 插入评论并原子递增目标的 comment_count
func (s *Store) CreateComment(ctx context.Context, scope models.Scope, targetType models.TargetType, targetID uuid.UUID, fields CommentFields) (*models.Comment, *Error) {
	const op = "store.CreateComment"

	if !targetType.Valid() {
		return nil, queryError(op, "invalid target type: "+string(targetType), nil)
	}
	if fields.Content == "" {
		return nil, queryError(op, "content is required", nil)
	}
	if fields.UserID == "" {
		return nil, queryError(op, "user id is required", nil)
	}

	item := models.Comment{
		TenantID:   scope.TenantID,
		ProjectID:  scope.ProjectID,
		TargetType: targetType,
		TargetID:   targetID,
		Content:    fields.Content,
		UserID:     fields.UserID,
		UserHandle: fields.UserHandle,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := targetExists(tx, scope, targetType, targetID); err != nil {
			return err
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		return bumpCounter(tx, targetType, targetID, "comment_count", 1)
	})
	if err != nil {
		return nil, wrap(op, err)
	}
	return &item, nil
}

// CastVote 落一票。唯一性约束下的三种走向：
//   - 没投过: 插入，目标计数 += value
//   - 同值再投: 视为撤票，删除行，目标计数 -= value
//   - 反向改票: 更新行，目标计数 += 2*value
//
// 计数全部在事务内用 GREATEST(... , 0) 原子调整，地板为零，
// 不做客户端读改写。返回目标更新后的点赞数。
func (s *Store) CastVote(ctx context.Context, scope models.Scope, targetType models.TargetType, targetID uuid.UUID, userID string, value int) (int, *Error) {
	const op = "store.CastVote"

	if !targetType.Valid() {
		return 0, queryError(op, "invalid target type: "+string(targetType), nil)
	}
	if value != 1 && value != -1 {
		return 0, queryError(op, "vote value must be +1 or -1", nil)
	}
	if userID == "" {
		return 0, queryError(op, "user id is required", nil)
	}

	var upvotes int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := targetExists(tx, scope, targetType, targetID); err != nil {
			return err
		}

		var existing models.Vote
		err := scopeWhere(tx, scope).
			Where("target_type = ? AND target_id = ? AND user_id = ?", targetType, targetID, userID).
			First(&existing).Error

		switch {
		case err == nil && existing.Value == value:
			// 撤票
			if err := tx.Delete(&models.Vote{}, "id = ?", existing.ID).Error; err != nil {
				return err
			}
			if err := bumpUpvotes(tx, targetType, targetID, -value); err != nil {
				return err
			}
		case err == nil:
			// 改票
			if err := tx.Model(&models.Vote{}).Where("id = ?", existing.ID).
				UpdateColumn("value", value).Error; err != nil {
				return err
			}
			if err := bumpUpvotes(tx, targetType, targetID, 2*value); err != nil {
				return err
			}
		default:
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			vote := models.Vote{
				TenantID:   scope.TenantID,
				ProjectID:  scope.ProjectID,
				TargetType: targetType,
				TargetID:   targetID,
				Value:      value,
				UserID:     userID,
			}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
			if err := bumpUpvotes(tx, targetType, targetID, value); err != nil {
				return err
			}
		}

		return readUpvotes(tx, scope, targetType, targetID, &upvotes)
	})
	if err != nil {
		return 0, wrap(op, err)
	}
	return upvotes, nil
}

// AdjustCommentUpvote 评论只有计数器没有投票行，原子增减即可
func (s *Store) AdjustCommentUpvote(ctx context.Context, scope models.Scope, id uuid.UUID, delta int) (int, *Error) {
	const op = "store.AdjustCommentUpvote"

	result := scopeWhere(s.db.WithContext(ctx).Model(&models.Comment{}), scope).
		Where("id = ?", id).
		UpdateColumn("upvotes", gorm.Expr("GREATEST(upvotes + ?, 0)", delta))
	if result.Error != nil {
		return 0, wrap(op, result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, &Error{Kind: KindNotFound, Op: op, Message: "record not found", Err: gorm.ErrRecordNotFound}
	}

	var comment models.Comment
	if err := scopeWhere(s.db.WithContext(ctx), scope).Where("id = ?", id).First(&comment).Error; err != nil {
		return 0, wrap(op, err)
	}
	return comment.Upvotes, nil
}

// VerifyAnswer 认证回答，只能成功一次：
// 回答打上 is_verified/verified_by/verified_at，
// 父帖同事务内转 solved 并记录认证作者 handle。
func (s *Store) VerifyAnswer(ctx context.Context, scope models.Scope, answerID uuid.UUID, verifiedBy string) (*models.Answer, *Error) {
	const op = "store.VerifyAnswer"

	var item models.Answer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := scopeWhere(tx, scope).Where("id = ?", answerID).First(&item).Error; err != nil {
			return err
		}

		now := time.Now()
		// is_verified = false 作为守卫条件，保证恰好写一次
		result := tx.Model(&models.Answer{}).
			Where("id = ? AND is_verified = ?", answerID, false).
			Updates(map[string]interface{}{
				"is_verified": true,
				"verified_by": verifiedBy,
				"verified_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errAlreadyVerified
		}

		item.IsVerified = true
		item.VerifiedBy = verifiedBy
		item.VerifiedAt = &now

		return tx.Model(&models.AttributionRequest{}).
			Where("id = ?", item.RequestID).
			Updates(map[string]interface{}{
				"status":                  models.StatusSolved,
				"verified":                true,
				"verified_creator_handle": item.CreatorHandle,
			}).Error
	})
	if err != nil {
		if errors.Is(err, errAlreadyVerified) {
			return nil, queryError(op, "answer already verified", err)
		}
		return nil, wrap(op, err)
	}
	return &item, nil
}

// CloseRequest 关闭求证帖（closed 为终态）
func (s *Store) CloseRequest(ctx context.Context, scope models.Scope, id uuid.UUID) (*models.AttributionRequest, *Error) {
	const op = "store.CloseRequest"

	result := scopeWhere(s.db.WithContext(ctx).Model(&models.AttributionRequest{}), scope).
		Where("id = ? AND status <> ?", id, models.StatusClosed).
		Update("status", models.StatusClosed)
	if result.Error != nil {
		return nil, wrap(op, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, &Error{Kind: KindNotFound, Op: op, Message: "record not found or already closed", Err: gorm.ErrRecordNotFound}
	}
	return s.GetRequestByID(ctx, scope, id)
}

// DeleteRequest 级联删除：回答、两级目标上的投票和评论一并移除
func (s *Store) DeleteRequest(ctx context.Context, scope models.Scope, id uuid.UUID) *Error {
	const op = "store.DeleteRequest"

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.AttributionRequest
		if err := scopeWhere(tx, scope).Where("id = ?", id).First(&req).Error; err != nil {
			return err
		}

		var answerIDs []uuid.UUID
		if err := tx.Model(&models.Answer{}).
			Where("request_id = ?", id).
			Pluck("id", &answerIDs).Error; err != nil {
			return err
		}

		if len(answerIDs) > 0 {
			if err := tx.Where("target_type = ? AND target_id IN ?", models.TargetAnswer, answerIDs).
				Delete(&models.Vote{}).Error; err != nil {
				return err
			}
			if err := tx.Where("target_type = ? AND target_id IN ?", models.TargetAnswer, answerIDs).
				Delete(&models.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("request_id = ?", id).Delete(&models.Answer{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("target_type = ? AND target_id = ?", models.TargetRequest, id).
			Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("target_type = ? AND target_id = ?", models.TargetRequest, id).
			Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.AttributionRequest{}, "id = ?", id).Error
	})
	if err != nil {
		return wrap(op, err)
	}
	return nil
}

var errAlreadyVerified = errors.New("answer already verified")

// targetExists 校验多态目标在当前作用域内存在
func targetExists(tx *gorm.DB, scope models.Scope, targetType models.TargetType, targetID uuid.UUID) error {
	var count int64
	var err error
	if targetType == models.TargetRequest {
		err = scopeWhere(tx.Model(&models.AttributionRequest{}), scope).
			Where("id = ?", targetID).Count(&count).Error
	} else {
		err = scopeWhere(tx.Model(&models.Answer{}), scope).
			Where("id = ?", targetID).Count(&count).Error
	}
	if err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// bumpUpvotes 原子调整目标点赞数，地板为零
func bumpUpvotes(tx *gorm.DB, targetType models.TargetType, targetID uuid.UUID, delta int) error {
	return bumpCounterClamped(tx, targetType, targetID, "upvotes", delta)
}

func bumpCounter(tx *gorm.DB, targetType models.TargetType, targetID uuid.UUID, column string, delta int) error {
	model := targetModel(targetType)
	return tx.Model(model).Where("id = ?", targetID).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error
}

func bumpCounterClamped(tx *gorm.DB, targetType models.TargetType, targetID uuid.UUID, column string, delta int) error {
	model := targetModel(targetType)
	return tx.Model(model).Where("id = ?", targetID).
		UpdateColumn(column, gorm.Expr("GREATEST("+column+" + ?, 0)", delta)).Error
}

func readUpvotes(tx *gorm.DB, scope models.Scope, targetType models.TargetType, targetID uuid.UUID, out *int) error {
	if targetType == models.TargetRequest {
		var req models.AttributionRequest
		if err := scopeWhere(tx, scope).Where("id = ?", targetID).First(&req).Error; err != nil {
			return err
		}
		*out = req.Upvotes
		return nil
	}
	var ans models.Answer
	if err := scopeWhere(tx, scope).Where("id = ?", targetID).First(&ans).Error; err != nil {
		return err
	}
	*out = ans.Upvotes
	return nil
}

func targetModel(targetType models.TargetType) interface{} {
	if targetType == models.TargetRequest {
		return &models.AttributionRequest{}
	}
	return &models.Answer{}
}
