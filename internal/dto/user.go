package dto

import (
	"time"

	"Tubely/internal/model"
)

// UserInfo 是在DTO中使用的、对外公开的用户信息，永远不包含密码等私有字段
type UserInfo struct {
	ID       uint64 `json:"id,string"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Avatar   string `json:"avatar"`
}

func ToUserInfo(u *model.User) UserInfo {
	return UserInfo{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Avatar:   u.Avatar,
	}
}

// ownerInfo preload失败时至少带上ID
func ownerInfo(u *model.User, ownerID uint64) UserInfo {
	if u.ID == 0 {
		return UserInfo{ID: ownerID}
	}
	return ToUserInfo(u)
}

type ProfileResponse struct {
	UserInfo
	CreatedAt time.Time `json:"created_at"`
}

type LoginResponse struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

// ChannelInfo 频道（用户）以及粉丝数
type ChannelInfo struct {
	UserInfo
	SubscribersCount uint64    `json:"subscribers_count"`
	SubscribedAt     time.Time `json:"subscribed_at"`
}

type SubscriptionStatus struct {
	Subscribed bool `json:"subscribed"`
}

type ChannelStats struct {
	ChannelID        uint64 `json:"channel_id,string"`
	TotalVideos      uint64 `json:"total_videos"`
	TotalViews       uint64 `json:"total_views"`
	TotalLikes       uint64 `json:"total_likes"`
	TotalSubscribers uint64 `json:"total_subscribers"`
}
