// Package identity 封装外部身份提供方：校验会话令牌、按 ID 拉取用户资料。
// 业务层只依赖 Provider 接口，不感知具体供应商的客户端形态。
package identity

import (
	"context"
	"errors"
)

var (
	ErrInvalidToken    = errors.New("identity: invalid session token")
	ErrProfileNotFound = errors.New("identity: profile not found")
)

// Provider 身份提供方能力
type Provider interface {
	// VerifyToken 校验会话令牌并返回外部身份 ID
	VerifyToken(ctx context.Context, token string) (string, error)
	// FetchProfile 按外部身份 ID 拉取资料
	FetchProfile(ctx context.Context, externalID string) (*Profile, error)
}

// Profile 身份提供方持有的用户资料
type Profile struct {
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
	Username   string
	ImageURL   string
}

// AuthState 身份校验中间件写入请求上下文的结果
type AuthState struct {
	externalID string
}

func NewAuthState(externalID string) AuthState {
	return AuthState{externalID: externalID}
}

func (a AuthState) IsAuthenticated() bool {
	return a.externalID != ""
}

func (a AuthState) CurrentExternalID() string {
	return a.externalID
}
