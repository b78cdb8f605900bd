package models

// Scope 多租户隔离键，每一行数据都携带
type Scope struct {
	TenantID  string
	ProjectID string
}

// Platform 来源平台（封闭枚举，新增平台只需改这里的映射表）
type Platform string

const (
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
	PlatformTwitter   Platform = "twitter"
	PlatformYouTube   Platform = "youtube"
	PlatformOther     Platform = "other"
)

// Platforms 全部合法平台，按展示顺序排列
var Platforms = []Platform{
	PlatformTikTok,
	PlatformInstagram,
	PlatformTwitter,
	PlatformYouTube,
	PlatformOther,
}

// platformLabels 徽章文案
var platformLabels = map[Platform]string{
	PlatformTikTok:    "TikTok",
	PlatformInstagram: "IG",
	PlatformTwitter:   "X",
	PlatformYouTube:   "YT",
	PlatformOther:     "Other",
}

// platformColors 徽章样式类
var platformColors = map[Platform]string{
	PlatformTikTok:    "badge-tiktok",
	PlatformInstagram: "badge-instagram",
	PlatformTwitter:   "badge-twitter",
	PlatformYouTube:   "badge-youtube",
	PlatformOther:     "badge-other",
}

func (p Platform) Valid() bool {
	_, ok := platformLabels[p]
	return ok
}

// Label 返回徽章文案，未知平台按 Other 处理
func (p Platform) Label() string {
	if l, ok := platformLabels[p]; ok {
		return l
	}
	return platformLabels[PlatformOther]
}

func (p Platform) Color() string {
	if c, ok := platformColors[p]; ok {
		return c
	}
	return platformColors[PlatformOther]
}

// MediaType 媒体类型
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
	MediaGIF   MediaType = "gif"
)

// MediaTypes 全部合法媒体类型
var MediaTypes = []MediaType{MediaImage, MediaVideo, MediaGIF}

func (m MediaType) Valid() bool {
	switch m {
	case MediaImage, MediaVideo, MediaGIF:
		return true
	}
	return false
}

// RequestStatus 求证帖状态: open → solved → closed
type RequestStatus string

const (
	StatusOpen   RequestStatus = "open"
	StatusSolved RequestStatus = "solved"
	StatusClosed RequestStatus = "closed"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusSolved, StatusClosed:
		return true
	}
	return false
}

// TargetType 投票/评论的多态目标
type TargetType string

const (
	TargetRequest TargetType = "request"
	TargetAnswer  TargetType = "answer"
)

func (t TargetType) Valid() bool {
	return t == TargetRequest || t == TargetAnswer
}
