package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/nao1215/casting/pkg/httpclient"
)

// TokenVerifier はトークンを検証してクレームを返す。
type TokenVerifier interface {
	// Verify はトークンを検証し、検証済みのクレームを返す。
	Verify(ctx context.Context, token string) (*Claims, error)
}

// Gate は保護された操作の前段で、トークンの取り出し、検証、権限確認を行う。
// 失敗はすべてそのリクエストで確定し、内部で再試行はしない。
type Gate struct {
	// verifier はトークン検証器。
	verifier TokenVerifier
}

// NewGate は新しいGateを生成する。
func NewGate(verifier TokenVerifier) *Gate {
	return &Gate{verifier: verifier}
}

// New は設定から認可ゲートを組み立てる。
// 鍵セットキャッシュを生成してVerifierに渡し、両方を返す。
// 鍵セットの取得は最初のリクエスト時に行われる。
func New(cfg Config, opts ...KeySetOption) (*Gate, *KeySetCache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("認可設定が不正: %w", err)
	}
	cacheOpts := append([]KeySetOption{WithCacheTTL(cfg.CacheTTL)}, opts...)
	cache := NewKeySetCache(httpclient.New(cfg.KeySetBaseURL()), cacheOpts...)
	return NewGate(NewVerifier(cfg, cache)), cache, nil
}

// Authenticate はヘッダーからトークンを取り出して検証する。権限の確認は行わない。
func (g *Gate) Authenticate(ctx context.Context, h http.Header) (*Claims, error) {
	token, err := ExtractBearerToken(h)
	if err != nil {
		return nil, err
	}
	return g.verifier.Verify(ctx, token)
}

// Authorize はトークンの取り出し、検証、権限確認を順に行う。
// いずれかの段階で失敗した場合はその時点で *Error を返す。
func (g *Gate) Authorize(ctx context.Context, h http.Header, required string) (*Claims, error) {
	claims, err := g.Authenticate(ctx, h)
	if err != nil {
		return nil, err
	}
	if err := CheckPermission(claims, required); err != nil {
		return nil, err
	}
	return claims, nil
}

// Wrap はnet/httpのハンドラを権限確認で包む。
// 認可に成功した場合のみnextを呼び出し、検証済みクレームはリクエストのコンテキストから
// ClaimsFromContext で取得できる。
func (g *Gate) Wrap(required string, next http.Handler) http.Handler {
	MustPermission(required)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := g.Authorize(r.Context(), r.Header, required)
		if err != nil {
			LogRejection(r, err)
			WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// MustPermission は権限文字列が空でないことを確認する。
// 空の場合はルート登録時の設定ミスとしてpanicする。
func MustPermission(required string) {
	if required == "" {
		panic("auth: 権限文字列が空のルートは登録できません")
	}
}

// WriteError は認可エラーをJSONレスポンスとして書き込む。
func WriteError(w http.ResponseWriter, err error) {
	status, body := Response(err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// LogRejection は認可の拒否をログに記録する。トークンの内容は記録しない。
func LogRejection(r *http.Request, err error) {
	var authErr *Error
	if !errors.As(err, &authErr) {
		log.Printf("[Auth] 認可エラー: %s %s: %v", r.Method, r.URL.Path, err)
		return
	}
	if authErr.cause != nil {
		log.Printf("[Auth] 認可を拒否しました: %s %s: %s (%v)", r.Method, r.URL.Path, authErr.Code, authErr.cause)
		return
	}
	log.Printf("[Auth] 認可を拒否しました: %s %s: %s", r.Method, r.URL.Path, authErr.Code)
}

// claimsContextKey はコンテキストにクレームを格納するためのキー。
type claimsContextKey struct{}

// WithClaims はコンテキストに検証済みクレームを設定する。
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext はコンテキストから検証済みクレームを取得する。
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*Claims)
	return claims, ok && claims != nil
}
