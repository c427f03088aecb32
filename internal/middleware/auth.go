package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// ContextUserID context里存的是已经解析好的uint64
	ContextUserID   = "userID"
	ContextUsername = "username"
)

var errNoToken = errors.New("请求未包含授权令牌")

// 中间件工厂，改成AuthMiddleware(role string)，就能创建一个只允许特定角色的用户通过的中间件
// 流程：1、从http请求中取出"Authorization"字段 2、验证"Bearer [token]" 3、通过secret验证token有效性 4、若成功，从token中取出后续用到的用户信息，放入context
func AuthMiddleware(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		userID, username, err := parseBearer(c.GetHeader("Authorization"), key)
		if err != nil {
			// 立刻调用c.Abort()，阻止后续的任何处理器（包括其他中间件和最终的handler）被执行
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"statusCode": http.StatusUnauthorized,
				"data":       nil,
				"message":    err.Error(),
				"success":    false,
			})
			return
		}
		c.Set(ContextUserID, userID)
		c.Set(ContextUsername, username)
		// 放行，继续处理请求
		c.Next()
	}
}

// OptionalAuth 公开接口用：带了合法token就识别出调用者（用来标记点赞状态），没带或无效都按匿名处理
func OptionalAuth(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		if userID, username, err := parseBearer(c.GetHeader("Authorization"), key); err == nil {
			c.Set(ContextUserID, userID)
			c.Set(ContextUsername, username)
		}
		c.Next()
	}
}

// UserID 取出认证后的用户ID，匿名返回0和false
func UserID(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok && id != 0
}

func parseBearer(header string, key []byte) (uint64, string, error) {
	if header == "" {
		return 0, "", errNoToken
	}
	// 通常Token的格式是 "Bearer [token]"
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0, "", errors.New("授权令牌格式不正确")
	}

	// 解析Token，返回加密前的token（Header.Payload.Signature），还附带valid判断是否有效
	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		// 确保签名方法是对称加密族
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("非预期的签名方法")
		}
		return key, nil
	})
	if err != nil || !token.Valid {
		return 0, "", errors.New("无效的授权令牌")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", errors.New("无效的授权令牌")
	}
	// user_id签发时存的是字符串，雪花ID放进float64会丢精度
	raw, _ := claims["user_id"].(string)
	userID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || userID == 0 {
		return 0, "", errors.New("无效的授权令牌")
	}
	username, _ := claims["username"].(string)
	return userID, username, nil
}
