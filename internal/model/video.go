package model

// Video 视频，播放地址和封面都是外部存储返回的URL
type Video struct {
	BaseModel
	OwnerID      uint64  `gorm:"not null;index"` // 作者ID，用于关联用户
	Title        string  `gorm:"not null"`
	Description  string  `gorm:"type:text"`
	VideoURL     string  `gorm:"not null"`
	ThumbnailURL string  `gorm:"not null"`
	Duration     float64 // 秒
	Views        uint64  `gorm:"not null;default:0"`
	// 不能用default:true，否则gorm会把false当成零值忽略掉
	IsPublished bool `gorm:"not null"`

	// 冗余计数，只允许CounterMaintainer修改
	LikesCount    uint64 `gorm:"not null;default:0"`
	DislikesCount uint64 `gorm:"not null;default:0"`
	CommentsCount uint64 `gorm:"not null;default:0"`

	Owner User `gorm:"foreignKey:OwnerID;references:ID"`
}

func (v *Video) Ref() TargetRef {
	return TargetRef{Kind: KindVideo, ID: v.ID}
}
