// Package httpclient は外部エンドポイントからJSONを取得するHTTPクライアントを提供する。
//
// 認可ゲートが信頼ドメインの公開鍵セット（JWKS）を取得する際に使用する。
// タイムアウト、レスポンスサイズの上限、ステータスコードの検査を一箇所にまとめる。
package httpclient
