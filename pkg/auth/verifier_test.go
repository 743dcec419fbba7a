package auth

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// failingKeySource は常にエラーを返すKeySource。
type failingKeySource struct{ err error }

func (f failingKeySource) Key(context.Context, string) (crypto.PublicKey, error) { return nil, f.err }

// TestVerifier_Verify はVerifyメソッドを検証する。
func TestVerifier_Verify(t *testing.T) {
	t.Parallel()

	key := testKey(t)
	now := time.Now()
	keys := StaticKeySet{testKid: &key.PublicKey}
	verifier := newVerifier(testConfig(), keys, func() time.Time { return now })

	t.Run("有効なトークンのクレームを返すこと", func(t *testing.T) {
		t.Parallel()

		token := signToken(t, key, testKid, validClaims(now, "get:actors", "post:actors"))
		claims, err := verifier.Verify(context.Background(), token)
		if err != nil {
			t.Fatalf("Verify()でエラーが発生: %v", err)
		}
		if claims.Subject != "auth0|user-1" {
			t.Errorf("Subject = %q, want %q", claims.Subject, "auth0|user-1")
		}
		if claims.Issuer != "https://"+testDomain+"/" {
			t.Errorf("Issuer = %q", claims.Issuer)
		}
		if !reflect.DeepEqual(claims.Permissions, []string{"get:actors", "post:actors"}) {
			t.Errorf("Permissions = %v", claims.Permissions)
		}
		if claims.ExpiresAt == nil || claims.ExpiresAt.Unix() != now.Add(time.Hour).Unix() {
			t.Errorf("ExpiresAt = %v", claims.ExpiresAt)
		}
	})

	t.Run("同じトークンを2回検証しても同一のクレームが得られること", func(t *testing.T) {
		t.Parallel()

		token := signToken(t, key, testKid, validClaims(now, "get:movies"))
		first, err := verifier.Verify(context.Background(), token)
		if err != nil {
			t.Fatalf("1回目のVerify()でエラーが発生: %v", err)
		}
		first.Permissions = append(first.Permissions, "delete:movies")

		second, err := verifier.Verify(context.Background(), token)
		if err != nil {
			t.Fatalf("2回目のVerify()でエラーが発生: %v", err)
		}
		if first == second {
			t.Fatal("呼び出しごとに新しいクレームが返されるべき")
		}
		if !reflect.DeepEqual(second.Permissions, []string{"get:movies"}) {
			t.Errorf("Permissions = %v, 1回目の変更が影響してはならない", second.Permissions)
		}
	})

	t.Run("permissionsクレームがない場合も検証は成功すること", func(t *testing.T) {
		t.Parallel()

		claims := validClaims(now)
		delete(claims, "permissions")
		got, err := verifier.Verify(context.Background(), signToken(t, key, testKid, claims))
		if err != nil {
			t.Fatalf("Verify()でエラーが発生: %v", err)
		}
		if got.Permissions != nil {
			t.Errorf("Permissions = %v, want nil", got.Permissions)
		}
	})

	errorCases := []struct {
		name    string
		token   func(t *testing.T) string
		wantErr error
	}{
		{
			name:    "JWTでない文字列はInvalidHeader",
			token:   func(*testing.T) string { return "not-a-jwt" },
			wantErr: ErrInvalidHeader,
		},
		{
			name:    "kidがない場合はInvalidHeader",
			token:   func(t *testing.T) string { return signToken(t, key, "", validClaims(now, "get:actors")) },
			wantErr: ErrInvalidHeader,
		},
		{
			name:    "鍵セットにないkidはUnknownKey",
			token:   func(t *testing.T) string { return signToken(t, key, "kid-unknown", validClaims(now, "get:actors")) },
			wantErr: ErrUnknownKey,
		},
		{
			name: "有効期限切れはTokenExpired",
			token: func(t *testing.T) string {
				claims := validClaims(now, "get:actors")
				claims["exp"] = now.Add(-time.Minute).Unix()
				return signToken(t, key, testKid, claims)
			},
			wantErr: ErrTokenExpired,
		},
		{
			name: "audienceが異なる場合はClaimsMismatch",
			token: func(t *testing.T) string {
				claims := validClaims(now, "get:actors")
				claims["aud"] = "another-api"
				return signToken(t, key, testKid, claims)
			},
			wantErr: ErrClaimsMismatch,
		},
		{
			name: "issuerが異なる場合はClaimsMismatch",
			token: func(t *testing.T) string {
				claims := validClaims(now, "get:actors")
				claims["iss"] = "https://evil.example.com/"
				return signToken(t, key, testKid, claims)
			},
			wantErr: ErrClaimsMismatch,
		},
		{
			name: "expがない場合はClaimsMismatch",
			token: func(t *testing.T) string {
				claims := validClaims(now, "get:actors")
				delete(claims, "exp")
				return signToken(t, key, testKid, claims)
			},
			wantErr: ErrClaimsMismatch,
		},
		{
			name: "nbfが未来の場合はClaimsMismatch",
			token: func(t *testing.T) string {
				claims := validClaims(now, "get:actors")
				claims["nbf"] = now.Add(time.Hour).Unix()
				return signToken(t, key, testKid, claims)
			},
			wantErr: ErrClaimsMismatch,
		},
		{
			name: "別の鍵で署名されたトークンはUnverifiableToken",
			token: func(t *testing.T) string {
				return signToken(t, otherKey(t), testKid, validClaims(now, "get:actors"))
			},
			wantErr: ErrUnverifiableToken,
		},
		{
			name: "署名が不正で期限切れの場合は署名エラーが優先されること",
			token: func(t *testing.T) string {
				claims := validClaims(now, "get:actors")
				claims["exp"] = now.Add(-time.Minute).Unix()
				return signToken(t, otherKey(t), testKid, claims)
			},
			wantErr: ErrUnverifiableToken,
		},
		{
			name: "許可されていないアルゴリズムはUnverifiableToken",
			token: func(t *testing.T) string {
				token := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims(now, "get:actors"))
				token.Header["kid"] = testKid
				signed, err := token.SignedString([]byte("shared-secret"))
				if err != nil {
					t.Fatalf("トークンの署名に失敗: %v", err)
				}
				return signed
			},
			wantErr: ErrUnverifiableToken,
		},
	}

	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			claims, err := verifier.Verify(context.Background(), tt.token(t))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if claims != nil {
				t.Errorf("エラー時にクレームが返された: %+v", claims)
			}
		})
	}
}

// TestVerifier_Leeway は有効期限の許容誤差を検証する。
func TestVerifier_Leeway(t *testing.T) {
	t.Parallel()

	key := testKey(t)
	now := time.Now()
	cfg := testConfig()
	cfg.Leeway = time.Minute
	verifier := newVerifier(cfg, StaticKeySet{testKid: &key.PublicKey}, func() time.Time { return now })

	claims := validClaims(now, "get:actors")
	claims["exp"] = now.Add(-30 * time.Second).Unix()
	if _, err := verifier.Verify(context.Background(), signToken(t, key, testKid, claims)); err != nil {
		t.Fatalf("許容誤差内のトークンは受け入れられるべき: %v", err)
	}

	claims["exp"] = now.Add(-2 * time.Minute).Unix()
	if _, err := verifier.Verify(context.Background(), signToken(t, key, testKid, claims)); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want %v", err, ErrTokenExpired)
	}
}

// TestVerifier_KeySourceError は鍵の解決に失敗した場合のエラーを検証する。
func TestVerifier_KeySourceError(t *testing.T) {
	t.Parallel()

	key := testKey(t)
	now := time.Now()
	token := signToken(t, key, testKid, validClaims(now, "get:actors"))

	t.Run("認可エラー以外はUnverifiableTokenに変換されること", func(t *testing.T) {
		t.Parallel()

		verifier := NewVerifier(testConfig(), failingKeySource{err: errors.New("dial tcp: timeout")})
		if _, err := verifier.Verify(context.Background(), token); !errors.Is(err, ErrUnverifiableToken) {
			t.Fatalf("err = %v, want %v", err, ErrUnverifiableToken)
		}
	})

	t.Run("認可エラーはそのまま返されること", func(t *testing.T) {
		t.Parallel()

		verifier := NewVerifier(testConfig(), failingKeySource{err: ErrUnknownKey})
		if _, err := verifier.Verify(context.Background(), token); !errors.Is(err, ErrUnknownKey) {
			t.Fatalf("err = %v, want %v", err, ErrUnknownKey)
		}
	})
}

// TestVerifier_ES256 はEC鍵による署名を検証できることを確認する。
func TestVerifier_ES256(t *testing.T) {
	t.Parallel()

	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("EC鍵の生成に失敗: %v", err)
	}
	now := time.Now()
	cfg := testConfig()
	cfg.Algorithms = []string{"ES256"}
	verifier := newVerifier(cfg, StaticKeySet{"ec-1": &ecKey.PublicKey}, func() time.Time { return now })

	token := jwt.NewWithClaims(jwt.SigningMethodES256, validClaims(now, "get:movies"))
	token.Header["kid"] = "ec-1"
	signed, err := token.SignedString(ecKey)
	if err != nil {
		t.Fatalf("トークンの署名に失敗: %v", err)
	}

	if _, err := verifier.Verify(context.Background(), signed); err != nil {
		t.Fatalf("Verify()でエラーが発生: %v", err)
	}

	// RS256のみ許可した検証器ではES256のトークンを受け入れない
	rsOnly := newVerifier(testConfig(), StaticKeySet{"ec-1": &ecKey.PublicKey}, func() time.Time { return now })
	if _, err := rsOnly.Verify(context.Background(), signed); !errors.Is(err, ErrUnverifiableToken) {
		t.Fatalf("err = %v, want %v", err, ErrUnverifiableToken)
	}
}
