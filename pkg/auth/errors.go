package auth

import (
	"errors"
	"net/http"
)

// Kind は認可エラーの種別。
type Kind int

const (
	// KindMissingHeader はAuthorizationヘッダーが存在しないことを表す。
	KindMissingHeader Kind = iota + 1
	// KindMalformedHeader はヘッダーが "<scheme> <token>" の2要素でないことを表す。
	KindMalformedHeader
	// KindUnsupportedScheme はスキームがBearerでないことを表す。
	KindUnsupportedScheme
	// KindInvalidHeader はトークンのヘッダー部が解析できない、またはkidがないことを表す。
	KindInvalidHeader
	// KindUnknownKey はkidに一致する公開鍵が鍵セットに存在しないことを表す。
	KindUnknownKey
	// KindTokenExpired はトークンの有効期限切れを表す。
	KindTokenExpired
	// KindClaimsMismatch はaudience/issuer等のクレームが一致しないことを表す。
	KindClaimsMismatch
	// KindUnverifiableToken は署名検証など上記以外の理由で検証できないことを表す。
	KindUnverifiableToken
	// KindPermissionsClaimMissing はpermissionsクレームが存在しないことを表す。
	KindPermissionsClaimMissing
	// KindPermissionDenied は必要な権限を持たないことを表す。
	KindPermissionDenied
)

// Error は認可ゲートが返すエラー。
// Code と Message は呼び出し元へのレスポンスにそのまま使用される固定値であり、
// 内部の詳細は含まない。
type Error struct {
	// Kind はエラー種別。
	Kind Kind
	// Code はレスポンスに含める安定したエラーコード。
	Code string
	// Message はレスポンスに含める説明文。
	Message string
	// Status はHTTPステータスコード。
	Status int
	// cause はログ出力用の内部原因。レスポンスには含めない。
	cause error
}

// Error はエラーメッセージを返す。
func (e *Error) Error() string {
	if e.cause != nil {
		return e.Code + ": " + e.Message + ": " + e.cause.Error()
	}
	return e.Code + ": " + e.Message
}

// Unwrap は内部原因を返す。
func (e *Error) Unwrap() error {
	return e.cause
}

// Is は同じ種別のエラーであればtrueを返す。
// errors.Is(err, auth.ErrTokenExpired) の形で種別を比較できる。
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// withCause は原因を付与したコピーを返す。
func (e *Error) withCause(cause error) *Error {
	cp := *e
	cp.cause = cause
	return &cp
}

var (
	// ErrMissingHeader はAuthorizationヘッダーがない場合のエラー。
	ErrMissingHeader = &Error{Kind: KindMissingHeader, Code: "authorization_header_missing", Message: "Authorization header expected", Status: http.StatusUnauthorized}
	// ErrMalformedHeader はヘッダーの要素数が2でない場合のエラー。
	ErrMalformedHeader = &Error{Kind: KindMalformedHeader, Code: "invalid_header", Message: "Authorization header must be of the form 'Bearer <token>'", Status: http.StatusUnauthorized}
	// ErrUnsupportedScheme はスキームがBearerでない場合のエラー。
	ErrUnsupportedScheme = &Error{Kind: KindUnsupportedScheme, Code: "invalid_header", Message: "Authorization of type Bearer expected", Status: http.StatusUnauthorized}
	// ErrInvalidHeader はトークンヘッダーが不正な場合のエラー。
	ErrInvalidHeader = &Error{Kind: KindInvalidHeader, Code: "invalid_header", Message: "Authorization malformed.", Status: http.StatusUnauthorized}
	// ErrUnknownKey はkidに一致する鍵がない場合のエラー。
	ErrUnknownKey = &Error{Kind: KindUnknownKey, Code: "invalid_header", Message: "Unable to find the appropriate key.", Status: http.StatusUnauthorized}
	// ErrTokenExpired はトークンの有効期限切れのエラー。
	ErrTokenExpired = &Error{Kind: KindTokenExpired, Code: "token_expired", Message: "Token expired.", Status: http.StatusUnauthorized}
	// ErrClaimsMismatch はクレーム不一致のエラー。
	ErrClaimsMismatch = &Error{Kind: KindClaimsMismatch, Code: "invalid_claims", Message: "Incorrect claims. Please, check the audience and issuer.", Status: http.StatusUnauthorized}
	// ErrUnverifiableToken はトークンを検証できない場合のエラー。
	ErrUnverifiableToken = &Error{Kind: KindUnverifiableToken, Code: "invalid_header", Message: "Unable to parse authentication token.", Status: http.StatusUnauthorized}
	// ErrPermissionsClaimMissing はpermissionsクレームがない場合のエラー。
	ErrPermissionsClaimMissing = &Error{Kind: KindPermissionsClaimMissing, Code: "permissions_missing", Message: "Permissions expected in payload", Status: http.StatusForbidden}
	// ErrPermissionDenied は権限不足のエラー。
	ErrPermissionDenied = &Error{Kind: KindPermissionDenied, Code: "action_not_allowed", Message: "Permission missing for action", Status: http.StatusForbidden}
)

// ErrorResponse は認可失敗時のJSONレスポンス構造。
type ErrorResponse struct {
	// Success は常にfalse。
	Success bool `json:"success"`
	// Error はエラーコード。
	Error string `json:"error"`
	// Message はエラーの説明。
	Message string `json:"message"`
}

// Response はエラーをHTTPステータスとレスポンスボディに変換する。
// *Error 以外のエラーはトークン検証不能として扱う。
func Response(err error) (int, ErrorResponse) {
	var authErr *Error
	if !errors.As(err, &authErr) {
		authErr = ErrUnverifiableToken
	}
	return authErr.Status, ErrorResponse{
		Success: false,
		Error:   authErr.Code,
		Message: authErr.Message,
	}
}
