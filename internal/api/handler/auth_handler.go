package handler

import (
	"context"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"golang.org/x/crypto/bcrypt"

	"resume-agent-go/internal/api/middleware"
	"resume-agent-go/internal/config"
	"resume-agent-go/internal/logger"
	"resume-agent-go/internal/storage/models"
)

// UserStore 认证流程需要的用户持久化操作
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

// AuthHandler 用户注册/登录/会话
type AuthHandler struct {
	cfg   *config.Config
	users UserStore
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(cfg *config.Config, users UserStore) *AuthHandler {
	return &AuthHandler{cfg: cfg, users: users}
}

// RegisterRequest 注册请求体
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// LoginRequest 登录请求体
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserInfo 对外暴露的用户信息，不含密码散列
type UserInfo struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResponse 注册/登录成功响应
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserInfo  `json:"user"`
}

// Register 注册新用户并直接签发token
func (h *AuthHandler) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, BadRequest("邮箱格式无效")
	}
	if len(req.Password) < 8 {
		return nil, BadRequest("密码长度至少8位")
	}

	existing, err := h.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, Internal("查询用户失败", err)
	}
	if existing != nil {
		return nil, Conflict("该邮箱已注册")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, Internal("密码散列失败", err)
	}

	userUUID, err := uuid.NewV7()
	if err != nil {
		return nil, Internal("生成用户ID失败", err)
	}

	user := &models.User{
		UserID:       userUUID.String(),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
	}
	if err := h.users.CreateUser(ctx, user); err != nil {
		return nil, Internal("创建用户失败", err)
	}

	logger.Ctx(ctx).Info().Str("user_id", user.UserID).Msg("新用户注册")
	return h.authResponse(user)
}

// Login 邮箱密码登录
func (h *AuthHandler) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		return nil, BadRequest("邮箱和密码不能为空")
	}

	user, err := h.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, Internal("查询用户失败", err)
	}
	// 用户不存在与密码错误返回同一提示，避免泄露注册状态
	if user == nil {
		return nil, Unauthorized("邮箱或密码错误")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, Unauthorized("邮箱或密码错误")
	}

	return h.authResponse(user)
}

// Me 返回当前登录用户信息
func (h *AuthHandler) Me(ctx context.Context, userID string) (*UserInfo, error) {
	user, err := h.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, Internal("查询用户失败", err)
	}
	if user == nil {
		return nil, NotFound("用户不存在")
	}
	info := toUserInfo(user)
	return &info, nil
}

func (h *AuthHandler) authResponse(user *models.User) (*AuthResponse, error) {
	token, expiresAt, err := middleware.IssueToken(h.cfg.JWT, user.UserID)
	if err != nil {
		return nil, Internal("签发token失败", err)
	}
	return &AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      toUserInfo(user),
	}, nil
}

func toUserInfo(user *models.User) UserInfo {
	return UserInfo{
		UserID:    user.UserID,
		Email:     user.Email,
		FullName:  user.FullName,
		CreatedAt: user.CreatedAt,
	}
}
