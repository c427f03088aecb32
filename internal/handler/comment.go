package handler

import (
	"net/http"

	"Tubely/internal/middleware"
	"Tubely/internal/model"
	"Tubely/internal/service"

	"github.com/gin-gonic/gin"
)

type CommentHandler interface {
	ListComments(c *gin.Context)
	ListReplies(c *gin.Context)

	CreateComment(c *gin.Context)
	UpdateComment(c *gin.Context)
	DeleteComment(c *gin.Context)
	DeleteTarget(c *gin.Context)
}

type commentHandler struct {
	CommentService service.CommentService
	CascadeService service.CascadeService
	ViewAssembler  service.ViewAssembler
}

func NewCommentHandler(commentService service.CommentService, cascade service.CascadeService, views service.ViewAssembler) CommentHandler {
	return &commentHandler{
		CommentService: commentService,
		CascadeService: cascade,
		ViewAssembler:  views,
	}
}

// parent_comment_id不为空就是回复
type CreateCommentRequest struct {
	Content         string  `json:"content" binding:"required,max=2000"`
	ParentCommentID *uint64 `json:"parent_comment_id,string"`
}

type UpdateCommentRequest struct {
	Content string `json:"content" binding:"required,max=2000"`
}

// targetRef 解析 /targets/:kind/:target_id
func targetRef(c *gin.Context) (model.TargetRef, bool) {
	kind, err := model.ParseTargetKind(c.Param("kind"))
	if err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "不支持的目标类型")
		return model.TargetRef{}, false
	}
	id, ok := parseID(c, "target_id")
	if !ok {
		return model.TargetRef{}, false
	}
	return model.TargetRef{Kind: kind, ID: id}, true
}

// 一级评论列表：分页、最新的在前，带作者信息和调用者自己的点赞状态
func (h *commentHandler) ListComments(c *gin.Context) {
	ref, ok := targetRef(c)
	if !ok {
		return
	}
	page, ok := pageRequest(c)
	if !ok {
		return
	}
	result, err := h.ViewAssembler.ListComments(c.Request.Context(), viewerID(c), ref, page)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, "成功获取评论", result)
}

func (h *commentHandler) ListReplies(c *gin.Context) {
	commentID, ok := parseID(c, "comment_id")
	if !ok {
		return
	}
	page, ok := pageRequest(c)
	if !ok {
		return
	}
	result, err := h.ViewAssembler.ListReplies(c.Request.Context(), viewerID(c), commentID, page)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, "成功获取回复", result)
}

// 评论：1、解析目标 2、解析Body 3、service层在一个事务里创建评论并更新计数 4、返回带作者信息的评论
func (h *commentHandler) CreateComment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ref, ok := targetRef(c)
	if !ok {
		return
	}
	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Log(c).WithError(err).Warn("评论参数解析失败")
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数")
		return
	}

	// 正式进入业务前，将logger格式整理好
	logCtx := middleware.Log(c).WithField("user_id", userID).WithField("target", ref.String())
	logCtx.Info("开始创建评论")
	comment, err := h.CommentService.AddComment(c.Request.Context(), userID, ref, req.Content, req.ParentCommentID)
	if err != nil {
		sendError(c, err)
		return
	}
	// 业务成功，打上返回的comment的ID
	logCtx.WithField("comment_id", comment.ID).Info("评论创建成功")

	response, err := h.ViewAssembler.Comment(c.Request.Context(), userID, comment)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusCreated, "评论成功", response)
}

func (h *commentHandler) UpdateComment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	commentID, ok := parseID(c, "comment_id")
	if !ok {
		return
	}
	var req UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数")
		return
	}
	comment, err := h.CommentService.UpdateComment(c.Request.Context(), userID, commentID, req.Content)
	if err != nil {
		sendError(c, err)
		return
	}
	response, err := h.ViewAssembler.Comment(c.Request.Context(), userID, comment)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, "评论已更新", response)
}

// 删除评论：一级评论连同回复一起删掉
func (h *commentHandler) DeleteComment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	commentID, ok := parseID(c, "comment_id")
	if !ok {
		return
	}
	if err := h.CommentService.DeleteComment(c.Request.Context(), userID, commentID); err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, "评论已删除", nil)
}

// 删除任意目标，挂在它身上的评论和点赞一起删掉
func (h *commentHandler) DeleteTarget(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ref, ok := targetRef(c)
	if !ok {
		return
	}
	if err := h.CascadeService.DeleteTarget(c.Request.Context(), userID, ref); err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, "已删除", nil)
}
