package dto

import (
	"time"

	"Tubely/internal/model"
)

// CommentResponse 一级评论和回复共用的响应结构
type CommentResponse struct {
	ID            uint64           `json:"id,string"`
	Content       string           `json:"content"`
	TargetKind    model.TargetKind `json:"target_kind"`
	TargetID      uint64           `json:"target_id,string"`
	ParentID      *uint64          `json:"parent_id,string,omitempty"`
	LikesCount    uint64           `json:"likes_count"`
	DislikesCount uint64           `json:"dislikes_count"`
	RepliesCount  uint64           `json:"replies_count"`
	Owner         UserInfo         `json:"owner"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	ViewerState
}

func ToCommentResponse(c *model.Comment, state ViewerState) CommentResponse {
	return CommentResponse{
		ID:            c.ID,
		Content:       c.Content,
		TargetKind:    c.TargetKind,
		TargetID:      c.TargetID,
		ParentID:      c.ParentID,
		LikesCount:    c.LikesCount,
		DislikesCount: c.DislikesCount,
		RepliesCount:  c.RepliesCount,
		Owner:         ownerInfo(&c.Owner, c.OwnerID),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
		ViewerState:   state,
	}
}
