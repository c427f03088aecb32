package handler

import (
	"context"
	"net/http"

	"Tubely/internal/dto"
	"Tubely/internal/model"
	"Tubely/internal/service"

	"github.com/gin-gonic/gin"
)

// LibraryHandler 播放列表、观看历史、稍后再看
type LibraryHandler interface {
	CreatePlaylist(c *gin.Context)
	GetPlaylist(c *gin.Context)
	UserPlaylists(c *gin.Context)
	UpdatePlaylist(c *gin.Context)
	DeletePlaylist(c *gin.Context)
	AddToPlaylist(c *gin.Context)
	RemoveFromPlaylist(c *gin.Context)

	RecordView(c *gin.Context)
	History(c *gin.Context)
	RemoveHistory(c *gin.Context)

	ToggleWatchLater(c *gin.Context)
	WatchLater(c *gin.Context)
	RemoveWatchLater(c *gin.Context)
}

type libraryHandler struct {
	PlaylistService   service.PlaylistService
	HistoryService    service.HistoryService
	WatchLaterService service.WatchLaterService
}

func NewLibraryHandler(playlists service.PlaylistService, history service.HistoryService, watchLater service.WatchLaterService) LibraryHandler {
	return &libraryHandler{PlaylistService: playlists, HistoryService: history, WatchLaterService: watchLater}
}

type CreatePlaylistRequest struct {
	Name        string `json:"name" binding:"required,max=128"`
	Description string `json:"description" binding:"max=1000"`
}

type UpdatePlaylistRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=128"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
}

func (h *libraryHandler) CreatePlaylist(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req CreatePlaylistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数")
		return
	}
	playlist, err := h.PlaylistService.Create(c.Request.Context(), userID, req.Name, req.Description)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusCreated, "播放列表创建成功", dto.ToPlaylistResponse(playlist))
}

func (h *libraryHandler) GetPlaylist(c *gin.Context) {
	playlistID, ok := parseID(c, "playlist_id")
	if !ok {
		return
	}
	playlist, err := h.PlaylistService.Get(c.Request.Context(), playlistID)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, "成功获取播放列表", dto.ToPlaylistResponse(playlist))
}

func (h *libraryHandler) UserPlaylists(c *gin.Context) {
	ownerID, ok := parseID(c, "user_id")
	if !ok {
		return
	}
	page, ok := pageRequest(c)
	if !ok {
		return
	}
	result, err := h.PlaylistService.ListByOwner(c.Request.Context(), ownerID, page)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, "成功获取播放列表", result)
}

func (h *libraryHandler) UpdatePlaylist(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	playlistID, ok := parseID(c, "playlist_id")
	if !ok {
		return
	}
	var req UpdatePlaylistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数")
		return
	}
	playlist, err := h.PlaylistService.Update(c.Request.Context(), userID, playlistID, req.Name, req.Description)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, "播放列表已更新", dto.ToPlaylistResponse(playlist))
}

func (h *libraryHandler) DeletePlaylist(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	playlistID, ok := parseID(c, "playlist_id")
	if !ok {
		return
	}
	if err := h.PlaylistService.Delete(c.Request.Context(), userID, playlistID); err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, "播放列表已删除", nil)
}

func (h *libraryHandler) AddToPlaylist(c *gin.Context) {
	h.changePlaylist(c, h.PlaylistService.AddVideo, "视频已加入播放列表")
}

func (h *libraryHandler) RemoveFromPlaylist(c *gin.Context) {
	h.changePlaylist(c, h.PlaylistService.RemoveVideo, "视频已移出播放列表")
}

func (h *libraryHandler) changePlaylist(c *gin.Context, change func(ctx context.Context, requesterID, playlistID, videoID uint64) (*model.Playlist, error), message string) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	playlistID, ok := parseID(c, "playlist_id")
	if !ok {
		return
	}
	videoID, ok := parseID(c, "video_id")
	if !ok {
		return
	}
	playlist, err := change(c.Request.Context(), userID, playlistID, videoID)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, message, dto.ToPlaylistResponse(playlist))
}

// 观看一次：播放量+1并刷新历史
func (h *libraryHandler) RecordView(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	videoID, ok := parseID(c, "video_id")
	if !ok {
		return
	}
	if err := h.HistoryService.RecordView(c.Request.Context(), userID, videoID); err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, "已记录观看", nil)
}

func (h *libraryHandler) History(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	page, ok := pageRequest(c)
	if !ok {
		return
	}
	result, err := h.HistoryService.List(c.Request.Context(), userID, page)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, "成功获取观看历史", result)
}

func (h *libraryHandler) RemoveHistory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	videoID, ok := parseID(c, "video_id")
	if !ok {
		return
	}
	if err := h.HistoryService.Remove(c.Request.Context(), userID, videoID); err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, "已从观看历史中删除", nil)
}

func (h *libraryHandler) ToggleWatchLater(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	videoID, ok := parseID(c, "video_id")
	if !ok {
		return
	}
	added, err := h.WatchLaterService.Toggle(c.Request.Context(), userID, videoID)
	if err != nil {
		sendError(c, err)
		return
	}
	message := "已移出稍后再看"
	if added {
		message = "已加入稍后再看"
	}
	sendSuccess(c, http.StatusOK, message, dto.WatchLaterStatus{Saved: added})
}

func (h *libraryHandler) WatchLater(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	page, ok := pageRequest(c)
	if !ok {
		return
	}
	result, err := h.WatchLaterService.List(c.Request.Context(), userID, page)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, "成功获取稍后再看", result)
}

func (h *libraryHandler) RemoveWatchLater(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	videoID, ok := parseID(c, "video_id")
	if !ok {
		return
	}
	if err := h.WatchLaterService.Remove(c.Request.Context(), userID, videoID); err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, "已移出稍后再看", nil)
}
