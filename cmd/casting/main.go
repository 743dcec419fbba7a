// キャスティングサービスのエントリポイント。
// 俳優と映画を管理するAPIを、JWTの権限に基づく認可ゲートで保護して公開する。
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/nao1215/casting/internal/casting"
	"github.com/nao1215/casting/pkg/auth"
	"github.com/redis/go-redis/v9"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "/data/casting.db"
	}

	cfg, err := auth.ConfigFromEnv()
	if err != nil {
		log.Fatalf("認可設定の読み込みに失敗: %v", err)
	}

	var opts []auth.KeySetOption
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		opts = append(opts, auth.WithKeySetStore(auth.NewRedisKeySetStore(rdb, "")))
		log.Printf("鍵セットをRedisで共有します: %s", cfg.RedisAddr)
	}

	gate, keys, err := auth.New(cfg, opts...)
	if err != nil {
		log.Fatalf("認可ゲートの初期化に失敗: %v", err)
	}

	// 起動時に鍵セットを取得しておく。失敗しても最初のリクエストで再取得する
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := keys.Warm(ctx); err != nil {
		log.Printf("鍵セットの事前取得に失敗: %v", err)
	}
	cancel()

	server, err := casting.NewServer(port, dbPath, gate)
	if err != nil {
		log.Fatalf("キャスティングサーバーの初期化に失敗: %v", err)
	}
	defer server.Close()

	log.Printf("キャスティングサービスを起動します: :%s (issuer=%s)", port, cfg.IssuerURL())
	if err := server.Run(); err != nil {
		log.Fatalf("キャスティングサービスの起動に失敗: %v", err)
	}
}
