package auth

import (
	"net/http"
	"strings"
)

// headerAuthorization はBearerトークンを運ぶHTTPヘッダー名。
const headerAuthorization = "Authorization"

// ExtractBearerToken はリクエストヘッダーからBearerトークンを取り出す。
// ヘッダー値は半角スペースで区切られた "Bearer <token>" の2要素でなければならない。
// スキームの比較は大文字小文字を区別しない。トークン部分は加工せずに返す。
func ExtractBearerToken(h http.Header) (string, error) {
	value := h.Get(headerAuthorization)
	if value == "" {
		return "", ErrMissingHeader
	}

	parts := strings.Split(value, " ")
	if len(parts) != 2 || parts[1] == "" {
		return "", ErrMalformedHeader
	}
	if !strings.EqualFold(parts[0], "bearer") {
		return "", ErrUnsupportedScheme
	}
	return parts[1], nil
}
