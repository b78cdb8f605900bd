package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AttributionRequest 求证帖：转载内容求原作者
type AttributionRequest struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID  string    `gorm:"not null;index:idx_requests_scope" json:"tenant_id"`
	ProjectID string    `gorm:"not null;index:idx_requests_scope" json:"project_id"`

	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	MediaURL    string    `json:"media_url"`
	MediaType   MediaType `gorm:"size:10" json:"media_type"` // image/video/gif，可为空
	RepostURL   string    `json:"repost_url"`                // 被质疑的转载链接
	Platform    Platform  `gorm:"size:20;index" json:"platform"`

	Status                RequestStatus `gorm:"size:10;default:'open';index" json:"status"`
	VerifiedCreatorHandle string        `json:"verified_creator_handle"`
	Verified              bool          `gorm:"default:false" json:"verified"`

	// 冗余计数器，必须与子表行数保持一致（写路径内原子维护）
	Upvotes      int `gorm:"default:0" json:"upvotes"`
	AnswerCount  int `gorm:"default:0" json:"answer_count"`
	CommentCount int `gorm:"default:0" json:"comment_count"`

	SubmittedBy string    `json:"submitted_by"` // 可匿名
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (AttributionRequest) TableName() string {
	return "attribution_requests"
}

func (r *AttributionRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
