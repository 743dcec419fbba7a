// Package casting はキャスティング事務所の俳優と映画を管理するHTTP APIを提供する。
//
// すべての業務APIは認可ゲートで保護され、操作ごとに
// "get:actors" や "delete:movies" のような権限を要求する。
// 一覧APIは ?page= によるページングに対応し、映画一覧は ?search= でタイトル検索できる。
package casting
