package dto

import "Tubely/internal/model"

// ViewerState 当前调用者自己对某个目标的态度，匿名用户两个都是false
type ViewerState struct {
	IsLiked    bool `json:"is_liked"`
	IsDisliked bool `json:"is_disliked"`
}

func StateOf(p model.Polarity, ok bool) ViewerState {
	if !ok {
		return ViewerState{}
	}
	return ViewerState{
		IsLiked:    p == model.PolarityLike,
		IsDisliked: p == model.PolarityDislike,
	}
}

// ReactionResponse 点赞接口的返回，取消之后status为null
type ReactionResponse struct {
	Status     *model.Polarity  `json:"status"`
	TargetKind model.TargetKind `json:"target_kind"`
	TargetID   uint64           `json:"target_id,string"`
}
