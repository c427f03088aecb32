package handler

import (
	"net/http"

	"Tubely/internal/dto"
	"Tubely/internal/service"

	"github.com/gin-gonic/gin"
)

type ReactionHandler interface {
	ToggleReaction(c *gin.Context)
	LikedVideos(c *gin.Context)
}

type reactionHandler struct {
	ReactionService service.ReactionService
	ViewAssembler   service.ViewAssembler
}

func NewReactionHandler(reactionService service.ReactionService, views service.ViewAssembler) ReactionHandler {
	return &reactionHandler{ReactionService: reactionService, ViewAssembler: views}
}

// kind可以不传，不传时按ID探测目标类型
type ReactionQuery struct {
	Type string `form:"type" binding:"required,polarity"`
	Kind string `form:"kind" binding:"target_kind"`
}

// 点赞/点踩：1、解析目标ID和type 2、service层按已有状态新增、取消或切换 3、返回操作后的状态，取消后为null
func (h *reactionHandler) ToggleReaction(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	targetID, ok := parseID(c, "target_id")
	if !ok {
		return
	}
	var q ReactionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "type必须是like或dislike")
		return
	}

	result, err := h.ReactionService.ApplyReaction(c.Request.Context(), userID, targetID, q.Kind, q.Type)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, "操作成功", dto.ReactionResponse{
		Status:     result.Status(),
		TargetKind: result.Target.Kind,
		TargetID:   result.Target.ID,
	})
}

func (h *reactionHandler) LikedVideos(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	page, ok := pageRequest(c)
	if !ok {
		return
	}
	result, err := h.ViewAssembler.LikedVideos(c.Request.Context(), userID, page)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, "成功获取点赞过的视频", result)
}
