package identity

import (
	"Hearth/internal/api/config"
	"context"
	"crypto/rsa"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const clockSkew = 5 * time.Second

// HTTPProvider 通过 JWT 校验会话，通过 REST API 拉取用户资料
type HTTPProvider struct {
	client    *resty.Client
	publicKey *rsa.PublicKey
	secret    []byte
	issuer    string
}

func NewHTTPProvider(cfg config.IdentityConfig) (*HTTPProvider, error) {
	p := &HTTPProvider{
		issuer: cfg.Issuer,
		client: resty.New().
			SetBaseURL(cfg.APIURL).
			SetTimeout(cfg.Timeout).
			SetAuthToken(cfg.SecretKey).
			SetHeader("Accept", "application/json").
			SetJSONUnmarshaler(json.Unmarshal),
	}

	switch {
	case cfg.JWTPublicKey != "":
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.JWTPublicKey))
		if err != nil {
			return nil, errors.Wrap(err, "identity: parse jwt public key")
		}
		p.publicKey = key
	case cfg.JWTSecret != "":
		p.secret = []byte(cfg.JWTSecret)
	default:
		return nil, errors.New("identity: no jwt verification key configured")
	}
	return p, nil
}

// VerifyToken 校验签名、过期时间与签发方，返回 sub
func (p *HTTPProvider) VerifyToken(_ context.Context, token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithLeeway(clockSkew),
		jwt.WithExpirationRequired(),
	}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}
	if p.publicKey != nil {
		opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	} else {
		opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, p.keyFunc, opts...)
	if err != nil {
		return "", errors.WithMessage(ErrInvalidToken, err.Error())
	}
	if claims.Subject == "" {
		return "", errors.WithMessage(ErrInvalidToken, "missing subject")
	}
	return claims.Subject, nil
}

func (p *HTTPProvider) keyFunc(*jwt.Token) (interface{}, error) {
	if p.publicKey != nil {
		return p.publicKey, nil
	}
	return p.secret, nil
}

type emailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

type providerUser struct {
	ID                    string         `json:"id"`
	Username              *string        `json:"username"`
	FirstName             *string        `json:"first_name"`
	LastName              *string        `json:"last_name"`
	ImageURL              string         `json:"image_url"`
	PrimaryEmailAddressID string         `json:"primary_email_address_id"`
	EmailAddresses        []emailAddress `json:"email_addresses"`
}

// FetchProfile GET /users/{id}
func (p *HTTPProvider) FetchProfile(ctx context.Context, externalID string) (*Profile, error) {
	var u providerUser
	resp, err := p.client.R().
		SetContext(ctx).
		SetPathParam("id", externalID).
		SetResult(&u).
		Get("/users/{id}")
	if err != nil {
		return nil, errors.Wrap(err, "identity: fetch profile")
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, ErrProfileNotFound
	}
	if resp.IsError() {
		return nil, errors.Errorf("identity: fetch profile: unexpected status %d", resp.StatusCode())
	}

	profile := &Profile{
		ExternalID: externalID,
		Username:   deref(u.Username),
		FirstName:  deref(u.FirstName),
		LastName:   deref(u.LastName),
		ImageURL:   u.ImageURL,
		Email:      primaryEmail(u),
	}
	return profile, nil
}

func primaryEmail(u providerUser) string {
	for _, e := range u.EmailAddresses {
		if e.ID == u.PrimaryEmailAddressID {
			return e.EmailAddress
		}
	}
	if len(u.EmailAddresses) > 0 {
		return u.EmailAddresses[0].EmailAddress
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
