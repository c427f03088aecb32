package handler

import (
	"net/http"

	"Tubely/internal/dto"
	"Tubely/internal/middleware"
	"Tubely/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler interface {
	Register(c *gin.Context)
	Login(c *gin.Context)
	GetProfile(c *gin.Context)
}

// 对Service进行封装
type userHandler struct {
	UserService service.UserService
}

// 封装函数
func NewUserHandler(userService service.UserService) UserHandler {
	return &userHandler{UserService: userService}
}

// 用处：接收http发来的全部注册信息
type RegisterRequest struct {
	Username string `json:"username" binding:"required,max=64"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name" binding:"max=128"`
	Avatar   string `json:"avatar" binding:"omitempty,url"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// 注册：1、Body解析为注册请求结构体 2、service层注册 3、返回注册成功后的公开用户信息
func (h *userHandler) Register(c *gin.Context) {
	var req RegisterRequest
	// c.ShouldBindJSON，绑定和校验，如果context中不包含req的“required”字段，则会返回错误
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Log(c).WithError(err).Warn("注册参数解析失败")
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数")
		return
	}

	logCtx := middleware.Log(c).WithField("username", req.Username)
	logCtx.Info("开始处理用户注册请求")

	user, err := h.UserService.Register(c.Request.Context(), req.Username, req.Password, req.FullName, req.Avatar)
	if err != nil {
		sendError(c, err)
		return
	}

	logCtx.WithField("user_id", user.ID).Info("用户注册成功")
	sendSuccess(c, http.StatusCreated, "注册成功", dto.ToUserInfo(user))
}

// 登录：1、Body解析为登录结构体 2、service层校验密码并签发token 3、返回token和用户信息
func (h *userHandler) Login(c *gin.Context) {
	var login LoginRequest
	if err := c.ShouldBindJSON(&login); err != nil {
		middleware.Log(c).WithError(err).Warn("登录参数解析失败")
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数")
		return
	}

	logCtx := middleware.Log(c).WithField("username", login.Username)
	token, user, err := h.UserService.Login(c.Request.Context(), login.Username, login.Password)
	if err != nil {
		sendError(c, err)
		return
	}

	logCtx.WithField("user_id", user.ID).Info("用户登录成功")
	sendSuccess(c, http.StatusOK, "登录成功", dto.LoginResponse{Token: token, User: dto.ToUserInfo(user)})
}

// 获取用户个人信息：从认证后的Context中取userID，再查库拿最新的资料
func (h *userHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	user, err := h.UserService.Profile(c.Request.Context(), userID)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, "成功获取用户信息", dto.ProfileResponse{UserInfo: dto.ToUserInfo(user), CreatedAt: user.CreatedAt})
}
