package handler

import (
	"net/http"
	"strconv"

	"Tubely/internal/apperr"
	"Tubely/internal/dto"
	"Tubely/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Response 所有接口统一的响应结构，成功和失败都是这一个形状
type Response struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
}

func sendSuccess(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Response{StatusCode: code, Data: data, Message: message, Success: code < http.StatusBadRequest})
}

// sendErrorResponse 是一个辅助函数，用于发送标准格式的错误响应
func sendErrorResponse(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, Response{StatusCode: code, Message: message, Success: false})
}

// sendError service层的错误按分类映射状态码；500只对外说服务器错误，细节进日志
func sendError(c *gin.Context, err error) {
	appErr := apperr.From(err)
	logCtx := middleware.Log(c).WithError(err).WithField("code", appErr.Code)
	if appErr.Code == apperr.CodeInternal {
		logCtx.Error("请求处理失败")
		sendErrorResponse(c, http.StatusInternalServerError, "服务器内部错误")
		return
	}
	logCtx.Warn("请求被拒绝")
	sendErrorResponse(c, appErr.Status(), appErr.Message)
}

// parseID 解析路径里的ID参数，失败时已经写好400
func parseID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		sendErrorResponse(c, http.StatusBadRequest, "无效的ID: "+name)
		return 0, false
	}
	return id, true
}

// viewerID 可选认证的接口里取调用者，匿名为0
func viewerID(c *gin.Context) uint64 {
	id, _ := middleware.UserID(c)
	return id
}

// currentUser 需要认证的接口里取调用者，失败时已经写好401
func currentUser(c *gin.Context) (uint64, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		sendErrorResponse(c, http.StatusUnauthorized, "用户未认证")
		return 0, false
	}
	return id, true
}

type pageQuery struct {
	Page  *int `form:"page"`
	Limit *int `form:"limit"`
}

// pageRequest 没传就用默认值，传了必须是正整数
func pageRequest(c *gin.Context) (dto.PageRequest, bool) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "page和limit必须是正整数")
		return dto.PageRequest{}, false
	}
	page, limit := dto.DefaultPage, dto.DefaultLimit
	if q.Page != nil {
		page = *q.Page
	}
	if q.Limit != nil {
		limit = *q.Limit
	}
	req, err := dto.NewPageRequest(page, limit)
	if err != nil {
		sendError(c, err)
		return dto.PageRequest{}, false
	}
	return req, true
}
