package handler

import (
	"net/http"

	"Tubely/internal/middleware"
	"Tubely/internal/model"
	"Tubely/internal/repository"
	"Tubely/internal/service"

	"github.com/gin-gonic/gin"
)

type VideoHandler interface {
	ListVideos(c *gin.Context)
	ChannelVideos(c *gin.Context)
	GetVideoByID(c *gin.Context)

	CreateVideo(c *gin.Context)
	UpdateVideo(c *gin.Context)
	DeleteVideo(c *gin.Context)
	TogglePublish(c *gin.Context)
}

type videoHandler struct {
	VideoService   service.VideoService
	ViewAssembler  service.ViewAssembler
	CascadeService service.CascadeService
}

func NewVideoHandler(videoService service.VideoService, views service.ViewAssembler, cascade service.CascadeService) VideoHandler {
	return &videoHandler{VideoService: videoService, ViewAssembler: views, CascadeService: cascade}
}

// 媒体文件由前端直传对象存储，这里只接收URL
type CreateVideoRequest struct {
	Title        string  `json:"title" binding:"required,max=255"`
	Description  string  `json:"description"`
	VideoURL     string  `json:"video_url" binding:"required,url"`
	ThumbnailURL string  `json:"thumbnail_url" binding:"required,url"`
	Duration     float64 `json:"duration" binding:"gte=0"`
	IsPublished  *bool   `json:"is_published"`
}

type UpdateVideoRequest struct {
	Title        *string `json:"title" binding:"omitempty,max=255"`
	Description  *string `json:"description"`
	ThumbnailURL *string `json:"thumbnail_url" binding:"omitempty,url"`
}

type listVideosQuery struct {
	Query    string `form:"query"`
	SortBy   string `form:"sort_by" binding:"omitempty,oneof=created_at views likes_count duration"`
	SortType string `form:"sort_type" binding:"omitempty,oneof=asc desc"`
	UserID   uint64 `form:"user_id"`
}

// 视频列表：支持标题搜索、按作者过滤和白名单排序，别人的未发布视频不可见
func (h *videoHandler) ListVideos(c *gin.Context) {
	var q listVideosQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的查询参数")
		return
	}
	h.listVideos(c, repository.VideoFilter{
		Query:    q.Query,
		OwnerID:  q.UserID,
		SortBy:   q.SortBy,
		SortDesc: q.SortType != "asc",
	})
}

func (h *videoHandler) ChannelVideos(c *gin.Context) {
	ownerID, ok := parseID(c, "user_id")
	if !ok {
		return
	}
	h.listVideos(c, repository.VideoFilter{OwnerID: ownerID, SortDesc: true})
}

func (h *videoHandler) listVideos(c *gin.Context, filter repository.VideoFilter) {
	page, ok := pageRequest(c)
	if !ok {
		return
	}
	result, err := h.ViewAssembler.Videos(c.Request.Context(), viewerID(c), filter, page)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, "成功获取视频列表", result)
}

func (h *videoHandler) GetVideoByID(c *gin.Context) {
	videoID, ok := parseID(c, "video_id")
	if !ok {
		return
	}
	viewer := viewerID(c)
	video, err := h.VideoService.GetVideo(c.Request.Context(), viewer, videoID)
	if err != nil {
		sendError(c, err)
		return
	}
	response, err := h.ViewAssembler.Video(c.Request.Context(), viewer, video)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, "成功获取视频", response)
}

// 创建视频：1、提取Body和context中的userID 2、service层发布视频 3、将返回的视频结构通过dto传回
func (h *videoHandler) CreateVideo(c *gin.Context) {
	authorID, ok := currentUser(c)
	if !ok {
		return
	}
	var req CreateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Log(c).WithError(err).Warn("发布视频参数解析失败")
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数")
		return
	}
	// 蛇形命名法（日志聚合平台ELK、前端JavaScript）
	logCtx := middleware.Log(c).WithField("author_id", authorID)
	logCtx.Info("开始处理发布视频请求")

	video, err := h.VideoService.CreateVideo(c.Request.Context(), authorID, service.VideoInput{
		Title:        req.Title,
		Description:  req.Description,
		VideoURL:     req.VideoURL,
		ThumbnailURL: req.ThumbnailURL,
		Duration:     req.Duration,
		IsPublished:  req.IsPublished,
	})
	if err != nil {
		sendError(c, err)
		return
	}
	// 没有赋值，临时追加上下文，避免污染后续其他日志
	logCtx.WithField("video_id", video.ID).Info("视频发布成功")

	response, err := h.ViewAssembler.Video(c.Request.Context(), authorID, video)
	if err != nil {
		sendError(c, err)
		return
	}
	// 使用201 Created状态码，更符合RESTful规范
	sendSuccess(c, http.StatusCreated, "视频发布成功", response)
}

func (h *videoHandler) UpdateVideo(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	videoID, ok := parseID(c, "video_id")
	if !ok {
		return
	}
	var req UpdateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数")
		return
	}
	video, err := h.VideoService.UpdateVideo(c.Request.Context(), userID, videoID, service.VideoPatch{
		Title:        req.Title,
		Description:  req.Description,
		ThumbnailURL: req.ThumbnailURL,
	})
	if err != nil {
		sendError(c, err)
		return
	}
	response, err := h.ViewAssembler.Video(c.Request.Context(), userID, video)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, "视频已更新", response)
}

// 删除视频：评论、点赞、历史、稍后再看、播放列表里的引用一并清理
func (h *videoHandler) DeleteVideo(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	videoID, ok := parseID(c, "video_id")
	if !ok {
		return
	}
	if err := h.CascadeService.DeleteTarget(c.Request.Context(), userID, model.TargetRef{Kind: model.KindVideo, ID: videoID}); err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, "视频已删除", nil)
}

func (h *videoHandler) TogglePublish(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	videoID, ok := parseID(c, "video_id")
	if !ok {
		return
	}
	published, err := h.VideoService.TogglePublish(c.Request.Context(), userID, videoID)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, "发布状态已切换", gin.H{"is_published": published})
}
