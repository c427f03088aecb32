package handler

import (
	"net/http"

	"Tubely/internal/dto"
	"Tubely/internal/service"

	"github.com/gin-gonic/gin"
)

type ChannelHandler interface {
	Subscribers(c *gin.Context)
	Subscriptions(c *gin.Context)
	Stats(c *gin.Context)

	ToggleSubscription(c *gin.Context)
	Feed(c *gin.Context)
}

type channelHandler struct {
	SubscriptionService service.SubscriptionService
	DashboardService    service.DashboardService
	ViewAssembler       service.ViewAssembler
}

func NewChannelHandler(subs service.SubscriptionService, dashboard service.DashboardService, views service.ViewAssembler) ChannelHandler {
	return &channelHandler{SubscriptionService: subs, DashboardService: dashboard, ViewAssembler: views}
}

func (h *channelHandler) Subscribers(c *gin.Context) {
	channelID, ok := parseID(c, "user_id")
	if !ok {
		return
	}
	page, ok := pageRequest(c)
	if !ok {
		return
	}
	result, err := h.SubscriptionService.Subscribers(c.Request.Context(), channelID, page)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, "成功获取粉丝列表", result)
}

// 某个用户订阅的频道，每个频道带上粉丝数
func (h *channelHandler) Subscriptions(c *gin.Context) {
	userID, ok := parseID(c, "user_id")
	if !ok {
		return
	}
	page, ok := pageRequest(c)
	if !ok {
		return
	}
	result, err := h.SubscriptionService.Channels(c.Request.Context(), userID, page)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, "成功获取订阅列表", result)
}

func (h *channelHandler) Stats(c *gin.Context) {
	channelID, ok := parseID(c, "user_id")
	if !ok {
		return
	}
	stats, err := h.DashboardService.ChannelStats(c.Request.Context(), channelID)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, "成功获取频道数据", stats)
}

func (h *channelHandler) ToggleSubscription(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	channelID, ok := parseID(c, "channel_id")
	if !ok {
		return
	}
	subscribed, err := h.SubscriptionService.Toggle(c.Request.Context(), userID, channelID)
	if err != nil {
		sendError(c, err)
		return
	}
	message := "已取消订阅"
	if subscribed {
		message = "订阅成功"
	}
	sendSuccess(c, http.StatusOK, message, dto.SubscriptionStatus{Subscribed: subscribed})
}

// 订阅频道发布的视频，最新的在前
func (h *channelHandler) Feed(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	page, ok := pageRequest(c)
	if !ok {
		return
	}
	result, err := h.ViewAssembler.SubscriptionFeed(c.Request.Context(), userID, page)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, "成功获取订阅视频", result)
}
