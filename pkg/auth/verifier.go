package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier はトークンの署名とクレームを検証する。
type Verifier struct {
	// keys は署名検証用の公開鍵を解決する。
	keys KeySource
	// parser は署名アルゴリズム、audience、issuer、有効期限の検証を行うパーサー。
	parser *jwt.Parser
}

// NewVerifier は新しいVerifierを生成する。
// cfgは Config.Validate で検証済みであることを前提とする。
func NewVerifier(cfg Config, keys KeySource) *Verifier {
	return newVerifier(cfg, keys, time.Now)
}

// newVerifier は現在時刻の取得方法を指定してVerifierを生成する。
func newVerifier(cfg Config, keys KeySource, now func() time.Time) *Verifier {
	return &Verifier{
		keys: keys,
		parser: jwt.NewParser(
			jwt.WithValidMethods(cfg.algorithms()),
			jwt.WithAudience(cfg.Audience),
			jwt.WithIssuer(cfg.IssuerURL()),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(cfg.Leeway),
			jwt.WithTimeFunc(now),
		),
	}
}

// Verify はトークンを検証し、クレームを返す。
// 返されるClaimsは呼び出しごとに新しく生成され、入力のトークンは変更しない。
func (v *Verifier) Verify(ctx context.Context, token string) (*Claims, error) {
	kid, err := v.keyID(token)
	if err != nil {
		return nil, err
	}

	key, err := v.keys.Key(ctx, kid)
	if err != nil {
		var authErr *Error
		if errors.As(err, &authErr) {
			return nil, err
		}
		return nil, ErrUnverifiableToken.withCause(err)
	}

	claims := &Claims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return key, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if !parsed.Valid {
		return nil, ErrUnverifiableToken
	}
	return claims, nil
}

// keyID は署名を検証せずにトークンのヘッダーを読み、kidを返す。
func (v *Verifier) keyID(token string) (string, error) {
	unverified, _, err := v.parser.ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return "", ErrInvalidHeader.withCause(err)
	}
	kid, ok := unverified.Header["kid"].(string)
	if !ok || kid == "" {
		return "", ErrInvalidHeader
	}
	return kid, nil
}

// classify はjwtライブラリのエラーを認可エラーに変換する。
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired.withCause(err)
	case errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued),
		errors.Is(err, jwt.ErrTokenInvalidClaims):
		return ErrClaimsMismatch.withCause(err)
	default:
		return ErrUnverifiableToken.withCause(err)
	}
}
