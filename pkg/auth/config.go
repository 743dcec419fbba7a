package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config は認可ゲートの設定。
type Config struct {
	// Domain は信頼ドメイン（例: "example.us.auth0.com"）。
	Domain string
	// Audience はトークンのaudクレームに期待する値。
	Audience string
	// Algorithms は受け入れる署名アルゴリズム。
	Algorithms []string
	// Issuer はトークンのissクレームに期待する値。空の場合は "https://<Domain>/"。
	Issuer string
	// JWKSBaseURL はJWKS取得先のベースURL。空の場合は "https://<Domain>"。
	JWKSBaseURL string
	// CacheTTL は鍵セットキャッシュの有効期間。0の場合は期限切れにならない。
	CacheTTL time.Duration
	// Leeway は有効期限の判定で許容する時刻のずれ。
	Leeway time.Duration
	// RedisAddr は鍵セットを共有するRedisのアドレス。空の場合は共有しない。
	RedisAddr string
}

// ConfigFromEnv は環境変数から設定を読み込む。
//
//	AUTH0_DOMAIN    信頼ドメイン（必須）
//	API_AUDIENCE    期待するaudience（必須）
//	ALGORITHMS      カンマ区切りの署名アルゴリズム（デフォルト: RS256）
//	AUTH_ISSUER     期待するissuer
//	JWKS_BASE_URL   JWKS取得先のベースURL
//	JWKS_CACHE_TTL  鍵セットキャッシュの有効期間（例: 10m）
//	REDIS_ADDR      鍵セットを共有するRedisのアドレス
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		Domain:      os.Getenv("AUTH0_DOMAIN"),
		Audience:    os.Getenv("API_AUDIENCE"),
		Algorithms:  splitList(os.Getenv("ALGORITHMS")),
		Issuer:      os.Getenv("AUTH_ISSUER"),
		JWKSBaseURL: os.Getenv("JWKS_BASE_URL"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
	}
	if v := os.Getenv("JWKS_CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("JWKS_CACHE_TTLの解析に失敗: %w", err)
		}
		cfg.CacheTTL = ttl
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate は設定値を検証する。
func (c Config) Validate() error {
	if c.Domain == "" && (c.Issuer == "" || c.JWKSBaseURL == "") {
		return errors.New("信頼ドメインが設定されていない")
	}
	if c.Audience == "" {
		return errors.New("audienceが設定されていない")
	}
	if c.CacheTTL < 0 {
		return errors.New("鍵セットキャッシュの有効期間が負の値")
	}
	for _, alg := range c.algorithms() {
		method := jwt.GetSigningMethod(alg)
		if method == nil {
			return fmt.Errorf("未対応の署名アルゴリズム: %q", alg)
		}
		// JWKSは公開鍵を配布するため共通鍵方式と none は受け入れない
		if _, ok := method.(*jwt.SigningMethodHMAC); ok || alg == "none" {
			return fmt.Errorf("公開鍵で検証できない署名アルゴリズム: %q", alg)
		}
	}
	return nil
}

// IssuerURL は期待するissuerを返す。
func (c Config) IssuerURL() string {
	if c.Issuer != "" {
		return c.Issuer
	}
	return "https://" + c.Domain + "/"
}

// KeySetBaseURL はJWKS取得先のベースURLを返す。
func (c Config) KeySetBaseURL() string {
	if c.JWKSBaseURL != "" {
		return strings.TrimSuffix(c.JWKSBaseURL, "/")
	}
	return "https://" + c.Domain
}

// algorithms は受け入れる署名アルゴリズムを返す。未設定の場合はRS256のみ。
func (c Config) algorithms() []string {
	if len(c.Algorithms) == 0 {
		return []string{jwt.SigningMethodRS256.Alg()}
	}
	return c.Algorithms
}

// splitList はカンマ区切りの文字列を分割し、空要素を除いて返す。
func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
