package dto

import (
	"time"

	"Tubely/internal/model"
)

type PlaylistResponse struct {
	ID          uint64          `json:"id,string"`
	OwnerID     uint64          `json:"owner_id,string"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	VideosCount int             `json:"videos_count"`
	Videos      []VideoResponse `json:"videos"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func ToPlaylistResponse(p *model.Playlist) PlaylistResponse {
	videos := make([]VideoResponse, 0, len(p.Videos))
	for i := range p.Videos {
		videos = append(videos, ToVideoResponse(&p.Videos[i], ViewerState{}))
	}
	return PlaylistResponse{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Name:        p.Name,
		Description: p.Description,
		VideosCount: len(p.Videos),
		Videos:      videos,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// HistoryItem 观看历史/稍后再看的一项
type HistoryItem struct {
	Video        VideoResponse `json:"video"`
	LastViewedAt time.Time     `json:"last_viewed_at"`
}

func ToHistoryItem(h *model.History) HistoryItem {
	return HistoryItem{Video: ToVideoResponse(&h.Video, ViewerState{}), LastViewedAt: h.LastViewedAt}
}

type WatchLaterItem struct {
	Video   VideoResponse `json:"video"`
	AddedAt time.Time     `json:"added_at"`
}

func ToWatchLaterItem(w *model.WatchLater) WatchLaterItem {
	return WatchLaterItem{Video: ToVideoResponse(&w.Video, ViewerState{}), AddedAt: w.CreatedAt}
}

type WatchLaterStatus struct {
	Saved bool `json:"saved"`
}
