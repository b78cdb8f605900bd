package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vote 用户对求证帖或回答的一票，值固定为 +1 或 -1。
// 唯一索引保证同一作用域内每个用户对同一目标最多一行，
// 改票走更新/删除，绝不插入第二行。
type Vote struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID  string    `gorm:"not null;uniqueIndex:idx_votes_once" json:"tenant_id"`
	ProjectID string    `gorm:"not null;uniqueIndex:idx_votes_once" json:"project_id"`

	TargetType TargetType `gorm:"size:10;not null;uniqueIndex:idx_votes_once;index:idx_votes_target" json:"target_type"`
	TargetID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_votes_once;index:idx_votes_target" json:"target_id"`

	Value  int    `gorm:"not null" json:"value"` // 1 or -1
	UserID string `gorm:"not null;uniqueIndex:idx_votes_once;index" json:"user_id"`

	CreatedAt time.Time `json:"created_at"`
}

func (Vote) TableName() string {
	return "votes"
}

func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
