package model

import "time"

// Subscription 订阅关系，(subscriber, channel)唯一
type Subscription struct {
	BaseModel
	SubscriberID uint64 `gorm:"not null;uniqueIndex:idx_subscriber_channel"`
	ChannelID    uint64 `gorm:"not null;uniqueIndex:idx_subscriber_channel;index"`

	Subscriber User `gorm:"foreignKey:SubscriberID;references:ID"`
	Channel    User `gorm:"foreignKey:ChannelID;references:ID"`
}

type Playlist struct {
	BaseModel
	OwnerID     uint64 `gorm:"not null;index"`
	Name        string `gorm:"size:128;not null"`
	Description string `gorm:"type:text"`

	Videos []Video `gorm:"many2many:playlist_videos"`
}

// History 观看历史，同一个视频只保留一条，重复观看只刷新LastViewedAt
type History struct {
	BaseModel
	OwnerID      uint64    `gorm:"not null;uniqueIndex:idx_history_owner_video"`
	VideoID      uint64    `gorm:"not null;uniqueIndex:idx_history_owner_video;index"`
	LastViewedAt time.Time `gorm:"not null;index"`

	Video Video `gorm:"foreignKey:VideoID;references:ID"`
}

func (History) TableName() string {
	return "histories"
}

type WatchLater struct {
	BaseModel
	UserID  uint64 `gorm:"not null;uniqueIndex:idx_watch_later_user_video"`
	VideoID uint64 `gorm:"not null;uniqueIndex:idx_watch_later_user_video;index"`

	Video Video `gorm:"foreignKey:VideoID;references:ID"`
}

func (WatchLater) TableName() string {
	return "watch_laters"
}
