package dto

import (
	"time"

	"Tubely/internal/model"
)

type PostResponse struct {
	ID            uint64         `json:"id,string"`
	Type          model.PostType `json:"type"`
	Content       string         `json:"content"`
	Images        []string       `json:"images"`
	VideoID       *uint64        `json:"video_id,string,omitempty"`
	Poll          *model.Poll    `json:"poll,omitempty"`
	LikesCount    uint64         `json:"likes_count"`
	DislikesCount uint64         `json:"dislikes_count"`
	CommentsCount uint64         `json:"comments_count"`
	Owner         UserInfo       `json:"owner"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	ViewerState
}

func ToPostResponse(p *model.Post, state ViewerState) PostResponse {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return PostResponse{
		ID:            p.ID,
		Type:          p.Type,
		Content:       p.Content,
		Images:        images,
		VideoID:       p.VideoID,
		Poll:          p.Poll,
		LikesCount:    p.LikesCount,
		DislikesCount: p.DislikesCount,
		CommentsCount: p.CommentsCount,
		Owner:         ownerInfo(&p.Owner, p.OwnerID),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		ViewerState:   state,
	}
}
