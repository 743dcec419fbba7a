// Package authtest は認可ゲートのテスト用にトークン発行者を提供する。
//
// RSA鍵を生成し、JWKSを公開するhttptestサーバーを起動する。
// 発行したトークンは Issuer.Config の設定で構築した認可ゲートで検証できる。
package authtest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/nao1215/casting/pkg/auth"
)

// Issuer はテスト用のトークン発行者。
type Issuer struct {
	// audience は発行するトークンのaudクレーム。
	audience string
	// server はJWKSを公開するテストサーバー。
	server *httptest.Server
	// requests はJWKSエンドポイントへのリクエスト回数。
	requests atomic.Int32

	// mu は署名鍵の入れ替えを保護する。
	mu sync.RWMutex
	// kid は現在の署名鍵の識別子。
	kid string
	// key は現在の署名鍵。
	key *rsa.PrivateKey
}

// NewIssuer はテスト用のトークン発行者を生成し、JWKSサーバーを起動する。
// サーバーはテスト終了時に停止する。
func NewIssuer(tb testing.TB, audience string) *Issuer {
	tb.Helper()

	i := &Issuer{audience: audience}
	i.kid, i.key = newKey(tb)

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+auth.JWKSPath, func(w http.ResponseWriter, _ *http.Request) {
		i.requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(i.JWKS())
	})
	i.server = httptest.NewServer(mux)
	tb.Cleanup(i.server.Close)

	return i
}

// newKey は新しいRSA鍵とkidを生成する。
func newKey(tb testing.TB) (string, *rsa.PrivateKey) {
	tb.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		tb.Fatalf("RSA鍵の生成に失敗: %v", err)
	}
	return uuid.NewString(), key
}

// URL はJWKSサーバーのベースURLを返す。
func (i *Issuer) URL() string {
	return i.server.URL
}

// IssuerURL は発行するトークンのissクレームを返す。
func (i *Issuer) IssuerURL() string {
	return i.server.URL + "/"
}

// KeyID は現在の署名鍵のkidを返す。
func (i *Issuer) KeyID() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.kid
}

// Requests はJWKSエンドポイントへのリクエスト回数を返す。
func (i *Issuer) Requests() int {
	return int(i.requests.Load())
}

// Config はこの発行者のトークンを検証する認可ゲートの設定を返す。
func (i *Issuer) Config() auth.Config {
	u, _ := url.Parse(i.server.URL)
	return auth.Config{
		Domain:      u.Host,
		Audience:    i.audience,
		Algorithms:  []string{jwt.SigningMethodRS256.Alg()},
		Issuer:      i.IssuerURL(),
		JWKSBaseURL: i.server.URL,
	}
}

// Gate はこの発行者のトークンを検証する認可ゲートを返す。
func (i *Issuer) Gate(tb testing.TB) *auth.Gate {
	tb.Helper()
	gate, _, err := auth.New(i.Config())
	if err != nil {
		tb.Fatalf("認可ゲートの生成に失敗: %v", err)
	}
	return gate
}

// JWKS は現在の署名鍵を含むJWKSドキュメントを返す。
func (i *Issuer) JWKS() auth.JWKS {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return auth.JWKS{Keys: []auth.JWK{PublicJWK(i.kid, &i.key.PublicKey)}}
}

// Rotate は署名鍵を新しい鍵に入れ替える。以後のJWKSには新しい鍵だけが含まれる。
func (i *Issuer) Rotate(tb testing.TB) {
	tb.Helper()
	kid, key := newKey(tb)
	i.mu.Lock()
	defer i.mu.Unlock()
	i.kid, i.key = kid, key
}

// Claims は有効期限1時間の標準的なクレームを返す。
// permissionsがnilの場合はpermissionsクレームを含めない。
func (i *Issuer) Claims(subject string, permissions []string) jwt.MapClaims {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": i.IssuerURL(),
		"aud": i.audience,
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
	if permissions != nil {
		claims["permissions"] = permissions
	}
	return claims
}

// Token は指定の権限を持つトークンを発行する。
func (i *Issuer) Token(tb testing.TB, subject string, permissions ...string) string {
	tb.Helper()
	if permissions == nil {
		permissions = []string{}
	}
	return i.Sign(tb, i.Claims(subject, permissions))
}

// Sign は任意のクレームを現在の署名鍵で署名する。
func (i *Issuer) Sign(tb testing.TB, claims jwt.MapClaims) string {
	tb.Helper()
	i.mu.RLock()
	kid, key := i.kid, i.key
	i.mu.RUnlock()
	return SignRS256(tb, kid, key, claims)
}

// SignRS256 はクレームをRS256で署名し、ヘッダーにkidを設定する。kidが空の場合は設定しない。
func SignRS256(tb testing.TB, kid string, key *rsa.PrivateKey, claims jwt.Claims) string {
	tb.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if kid != "" {
		token.Header["kid"] = kid
	}
	signed, err := token.SignedString(key)
	if err != nil {
		tb.Fatalf("トークンの署名に失敗: %v", err)
	}
	return signed
}

// PublicJWK はRSA公開鍵をJWKに変換する。
func PublicJWK(kid string, pub *rsa.PublicKey) auth.JWK {
	return auth.JWK{
		Kid: kid,
		Kty: "RSA",
		Use: "sig",
		Alg: jwt.SigningMethodRS256.Alg(),
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}
