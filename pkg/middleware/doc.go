// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// 認可ゲートによるトークン検証と権限確認、リクエストID付与、
// パニックリカバリを含む。
package middleware
