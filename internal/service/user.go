package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"Tubely/internal/apperr"
	"Tubely/internal/data"
	"Tubely/internal/model"
	"Tubely/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// 用户服务接口：1、注册 2、登录 3、查询个人信息
type UserService interface {
	Register(ctx context.Context, username, password, fullName, avatar string) (*model.User, error)
	Login(ctx context.Context, username, password string) (string, *model.User, error)
	Profile(ctx context.Context, userID uint64) (*model.User, error)
}

// 用户服务包装
type userService struct {
	userRepo repository.UserRepository
	secret   []byte
	ttl      time.Duration
}

// 包装函数
func NewUserService(userRepo repository.UserRepository, secret string, ttl time.Duration) UserService {
	return &userService{userRepo: userRepo, secret: []byte(secret), ttl: ttl}
}

// 注册逻辑：1、检查是否重名 2、密码加密存储 3、创建用户表项 4、插入数据库
func (s *userService) Register(ctx context.Context, username, password, fullName, avatar string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperr.InvalidArgument("用户名和密码不能为空")
	}
	_, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil {
		return nil, apperr.Conflict("用户名已存在")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Internal("查询用户失败", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal("密码加密失败", err)
	}

	newUser := &model.User{
		Username: username,
		Password: string(hashedPassword),
		FullName: strings.TrimSpace(fullName),
		Avatar:   avatar,
	}
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		// 并发注册同名用户，唯一索引兜底
		if data.IsDuplicateKey(err) {
			return nil, apperr.Conflict("用户名已存在")
		}
		return nil, apperr.Internal("创建用户失败", err)
	}
	return newUser, nil
}

// 登录逻辑：1、检查库中是否有该用户名 2、加密后密码和输入密码比对 3、生成jwt签名
func (s *userService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 模糊的错误提示，更安全
			return "", nil, apperr.Unauthenticated("用户名或密码错误")
		}
		return "", nil, apperr.Internal("查询用户失败", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, apperr.Unauthenticated("用户名或密码错误")
	}
	// token对象的Payload，不能将密码放在其中，Payload不加密
	// user_id超过2^53，放进JSON数字会丢精度，所以存成字符串
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":  strconv.FormatUint(user.ID, 10),
		"username": user.Username,
		"exp":      now.Add(s.ttl).Unix(), // 过期时间
		"iat":      now.Unix(),            // 签发时间
	}
	// token加上Header，算法信息HS256，对称加密
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	// 对token对象中的Header和Payload进行签名，用于防伪（Header.Payload.Signature）
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, apperr.Internal("生成token失败", err)
	}
	return tokenString, user, nil
}

func (s *userService) Profile(ctx context.Context, userID uint64) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, apperr.From(err)
	}
	return user, nil
}
