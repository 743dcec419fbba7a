package auth

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
)

// JWKS は信頼ドメインが公開するJSON Web Key Setドキュメント。
type JWKS struct {
	// Keys は公開鍵の一覧。
	Keys []JWK `json:"keys"`
}

// JWK はJWKSに含まれる1つの公開鍵。
type JWK struct {
	// Kid は鍵の識別子。
	Kid string `json:"kid"`
	// Kty は鍵の種類（"RSA" または "EC"）。
	Kty string `json:"kty"`
	// Use は鍵の用途（通常 "sig"）。
	Use string `json:"use,omitempty"`
	// Alg は鍵に紐づく署名アルゴリズム。
	Alg string `json:"alg,omitempty"`
	// N はRSA公開鍵のモジュラス（base64url）。
	N string `json:"n,omitempty"`
	// E はRSA公開鍵の指数（base64url）。
	E string `json:"e,omitempty"`
	// Crv はEC公開鍵の曲線名。
	Crv string `json:"crv,omitempty"`
	// X はEC公開鍵のX座標（base64url）。
	X string `json:"x,omitempty"`
	// Y はEC公開鍵のY座標（base64url）。
	Y string `json:"y,omitempty"`
}

// PublicKey はJWKを検証用の公開鍵に変換する。
func (k JWK) PublicKey() (crypto.PublicKey, error) {
	switch strings.ToUpper(k.Kty) {
	case "RSA":
		n, err := b64uToBigInt(k.N)
		if err != nil {
			return nil, fmt.Errorf("RSAモジュラスの復号に失敗: %w", err)
		}
		e, err := b64uToBigInt(k.E)
		if err != nil {
			return nil, fmt.Errorf("RSA指数の復号に失敗: %w", err)
		}
		if !e.IsInt64() || e.Int64() <= 0 || e.Int64() > int64(^uint32(0)>>1) {
			return nil, errors.New("RSA指数が範囲外")
		}
		return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil

	case "EC":
		var curve elliptic.Curve
		switch k.Crv {
		case "P-256":
			curve = elliptic.P256()
		case "P-384":
			curve = elliptic.P384()
		case "P-521":
			curve = elliptic.P521()
		default:
			return nil, fmt.Errorf("未対応のEC曲線: %q", k.Crv)
		}
		x, err := b64uToBigInt(k.X)
		if err != nil {
			return nil, fmt.Errorf("EC X座標の復号に失敗: %w", err)
		}
		y, err := b64uToBigInt(k.Y)
		if err != nil {
			return nil, fmt.Errorf("EC Y座標の復号に失敗: %w", err)
		}
		return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil

	default:
		return nil, fmt.Errorf("未対応の鍵種別: %q", k.Kty)
	}
}

// b64uToBigInt はパディングなしbase64url文字列を整数に変換する。
func b64uToBigInt(s string) (*big.Int, error) {
	if s == "" {
		return nil, errors.New("値が空")
	}
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}

// keyMap はJWKSをkidをキーとする公開鍵のマップに変換する。
// kidがない鍵、署名用途でない鍵、変換できない鍵は読み飛ばす。
func (doc *JWKS) keyMap() (map[string]crypto.PublicKey, error) {
	keys := make(map[string]crypto.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kid == "" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		pub, err := k.PublicKey()
		if err != nil {
			log.Printf("[Auth] JWKSの鍵 %s を読み飛ばしました: %v", k.Kid, err)
			continue
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return nil, errors.New("JWKSに使用可能な鍵がない")
	}
	return keys, nil
}
