// Package auth はBearerトークンによる認可ゲートを提供する。
//
// リクエストのAuthorizationヘッダーからトークンを取り出し（ExtractBearerToken）、
// 信頼ドメインが公開するJWKSで署名とクレームを検証し（Verifier）、
// トークンのpermissionsクレームに必要な権限が含まれるかを確認する（CheckPermission）。
// Gateはこの3段階を合成し、失敗時は401/403のJSONエラーに変換する。
//
// 公開鍵セットはKeySetCacheがプロセス内に保持する。KeySetCacheは起動時に一度だけ
// 生成し、Verifierに渡して使用する。
package auth
