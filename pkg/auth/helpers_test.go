package auth

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// testDomain はテスト用の信頼ドメイン。
	testDomain = "tenant.example.com"
	// testAudience はテスト用のaudience。
	testAudience = "casting"
	// testKid はテスト用の鍵識別子。
	testKid = "kid-1"
)

var (
	keyOnce    sync.Once
	sharedKey  *rsa.PrivateKey
	otherOnce  sync.Once
	anotherKey *rsa.PrivateKey
)

// testKey はテスト全体で共有するRSA鍵を返す。鍵生成のコストを抑えるため一度だけ生成する。
func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	keyOnce.Do(func() {
		k, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		sharedKey = k
	})
	return sharedKey
}

// otherKey はtestKeyとは別のRSA鍵を返す。
func otherKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	otherOnce.Do(func() {
		k, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		anotherKey = k
	})
	return anotherKey
}

// testConfig はテスト用の認可設定を返す。
func testConfig() Config {
	return Config{Domain: testDomain, Audience: testAudience, Algorithms: []string{"RS256"}}
}

// validClaims は有効なクレームを返す。
func validClaims(now time.Time, permissions ...string) jwt.MapClaims {
	return jwt.MapClaims{
		"iss":         "https://" + testDomain + "/",
		"aud":         testAudience,
		"sub":         "auth0|user-1",
		"iat":         now.Unix(),
		"exp":         now.Add(time.Hour).Unix(),
		"permissions": permissions,
	}
}

// signToken はクレームをRS256で署名する。kidが空の場合はヘッダーに設定しない。
func signToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if kid != "" {
		token.Header["kid"] = kid
	}
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("トークンの署名に失敗: %v", err)
	}
	return signed
}

// rsaJWK はRSA公開鍵をJWKに変換する。
func rsaJWK(kid string, pub *rsa.PublicKey) JWK {
	return JWK{
		Kid: kid,
		Kty: "RSA",
		Use: "sig",
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}

// buildJWKS は指定のkidで公開鍵を並べたJWKSのJSONを返す。
func buildJWKS(t *testing.T, pub *rsa.PublicKey, kids ...string) string {
	t.Helper()
	doc := JWKS{}
	for _, kid := range kids {
		doc.Keys = append(doc.Keys, rsaJWK(kid, pub))
	}
	b, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("JWKSのシリアライズに失敗: %v", err)
	}
	return string(b)
}

// roundTripperFunc は関数をhttp.RoundTripperとして扱うためのアダプタ。
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// jsonResponse はテスト用のJSONレスポンスを生成する。
func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}
