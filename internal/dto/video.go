package dto

import (
	"time"

	"Tubely/internal/model"
)

type VideoResponse struct {
	ID            uint64    `json:"id,string"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	VideoURL      string    `json:"video_url"`
	ThumbnailURL  string    `json:"thumbnail_url"`
	Duration      float64   `json:"duration"`
	Views         uint64    `json:"views"`
	IsPublished   bool      `json:"is_published"`
	LikesCount    uint64    `json:"likes_count"`
	DislikesCount uint64    `json:"dislikes_count"`
	CommentsCount uint64    `json:"comments_count"`
	Owner         UserInfo  `json:"owner"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	ViewerState
}

// ToVideoResponse 是一个转换函数，把DB模型转换为API响应模型，并且正确利用preload返回的数据
func ToVideoResponse(v *model.Video, state ViewerState) VideoResponse {
	return VideoResponse{
		ID:            v.ID,
		Title:         v.Title,
		Description:   v.Description,
		VideoURL:      v.VideoURL,
		ThumbnailURL:  v.ThumbnailURL,
		Duration:      v.Duration,
		Views:         v.Views,
		IsPublished:   v.IsPublished,
		LikesCount:    v.LikesCount,
		DislikesCount: v.DislikesCount,
		CommentsCount: v.CommentsCount,
		Owner:         ownerInfo(&v.Owner, v.OwnerID),
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
		ViewerState:   state,
	}
}
