package handler

import (
	"net/http"
	"time"

	"Tubely/internal/model"
	"Tubely/internal/service"

	"github.com/gin-gonic/gin"
)

type PostHandler interface {
	ChannelPosts(c *gin.Context)
	GetPost(c *gin.Context)

	CreatePost(c *gin.Context)
	UpdatePost(c *gin.Context)
	DeletePost(c *gin.Context)
}

type postHandler struct {
	PostService    service.PostService
	ViewAssembler  service.ViewAssembler
	CascadeService service.CascadeService
}

func NewPostHandler(postService service.PostService, views service.ViewAssembler, cascade service.CascadeService) PostHandler {
	return &postHandler{PostService: postService, ViewAssembler: views, CascadeService: cascade}
}

type PollRequest struct {
	Question  string     `json:"question" binding:"required"`
	Options   []string   `json:"options" binding:"required,min=2,max=10,dive,max=100"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type CreatePostRequest struct {
	Type    model.PostType `json:"type" binding:"required,oneof=text image video poll"`
	Content string         `json:"content" binding:"max=5000"`
	Images  []string       `json:"images" binding:"max=10,dive,url"`
	VideoID *uint64        `json:"video_id,string"`
	Poll    *PollRequest   `json:"poll"`
}

type UpdatePostRequest struct {
	Content       *string    `json:"content" binding:"omitempty,max=5000"`
	PollQuestion  *string    `json:"poll_question"`
	PollExpiresAt *time.Time `json:"poll_expires_at"`
}

func (h *postHandler) ChannelPosts(c *gin.Context) {
	ownerID, ok := parseID(c, "user_id")
	if !ok {
		return
	}
	page, ok := pageRequest(c)
	if !ok {
		return
	}
	result, err := h.ViewAssembler.ChannelPosts(c.Request.Context(), viewerID(c), ownerID, page)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, "成功获取动态", result)
}

func (h *postHandler) GetPost(c *gin.Context) {
	postID, ok := parseID(c, "post_id")
	if !ok {
		return
	}
	h.respondPost(c, http.StatusOK, "成功获取动态", viewerID(c), postID)
}

func (h *postHandler) respondPost(c *gin.Context, code int, message string, viewer, postID uint64) {
	post, err := h.PostService.GetPost(c.Request.Context(), postID)
	if err != nil {
		sendError(c, err)
		return
	}
	response, err := h.ViewAssembler.Post(c.Request.Context(), viewer, post)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, code, message, response)
}

func (h *postHandler) CreatePost(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数")
		return
	}
	in := service.PostInput{Type: req.Type, Content: req.Content, Images: req.Images, VideoID: req.VideoID}
	if req.Poll != nil {
		in.Poll = &service.PollInput{Question: req.Poll.Question, Options: req.Poll.Options, ExpiresAt: req.Poll.ExpiresAt}
	}
	post, err := h.PostService.CreatePost(c.Request.Context(), userID, in)
	if err != nil {
		sendError(c, err)
		return
	}
	h.respondPost(c, http.StatusCreated, "动态发布成功", userID, post.ID)
}

func (h *postHandler) UpdatePost(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	postID, ok := parseID(c, "post_id")
	if !ok {
		return
	}
	var req UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数")
		return
	}
	_, err := h.PostService.UpdatePost(c.Request.Context(), userID, postID, service.PostPatch{
		Content:       req.Content,
		PollQuestion:  req.PollQuestion,
		PollExpiresAt: req.PollExpiresAt,
	})
	if err != nil {
		sendError(c, err)
		return
	}
	h.respondPost(c, http.StatusOK, "动态已更新", userID, postID)
}

func (h *postHandler) DeletePost(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	postID, ok := parseID(c, "post_id")
	if !ok {
		return
	}
	if err := h.CascadeService.DeleteTarget(c.Request.Context(), userID, model.TargetRef{Kind: model.KindPost, ID: postID}); err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, "动态已删除", nil)
}
