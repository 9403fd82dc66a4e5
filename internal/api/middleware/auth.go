package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/golang-jwt/jwt/v5"
	"github.com/hertz-contrib/keyauth"

	"resume-agent-go/internal/config"
	"resume-agent-go/internal/logger"
)

// userIDKey 认证通过后写入请求上下文的用户标识键
const userIDKey = "user_id"

// IssueToken 为用户签发HS256 JWT，返回token和过期时间
func IssueToken(cfg config.JWTConfig, userID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(time.Duration(cfg.ExpireHours) * time.Hour)

	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("签发JWT失败: %w", err)
	}
	return token, expiresAt, nil
}

// ParseToken 校验HS256 JWT并返回其中的用户ID
func ParseToken(cfg config.JWTConfig, token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) {
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("JWT校验失败: %w", err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("JWT缺少subject")
	}
	return claims.Subject, nil
}

// JWTAuth 保护路由的认证中间件
// 从Authorization: Bearer <token>提取并校验JWT，通过后把user_id放入请求上下文
func JWTAuth(cfg config.JWTConfig) app.HandlerFunc {
	return keyauth.New(
		keyauth.WithKeyLookUp("header:Authorization", "Bearer"),
		keyauth.WithValidator(func(c context.Context, ctx *app.RequestContext, token string) (bool, error) {
			userID, err := ParseToken(cfg, token)
			if err != nil {
				return false, err
			}
			ctx.Set(userIDKey, userID)
			return true, nil
		}),
		keyauth.WithErrorHandler(func(c context.Context, ctx *app.RequestContext, err error) {
			logger.Ctx(c).Debug().Err(err).Msg("请求认证失败")
			ctx.AbortWithStatusJSON(consts.StatusUnauthorized, utils.H{
				"success":    false,
				"message":    "未认证或凭证已过期",
				"request_id": GetRequestID(ctx),
			})
		}),
	)
}

// GetUserID 读取认证中间件写入的用户ID，未认证时返回空串
func GetUserID(ctx *app.RequestContext) string {
	return ctx.GetString(userIDKey)
}
