package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// defaultRedisKey はJWKSドキュメントを保存するRedisキーのデフォルト値。
const defaultRedisKey = "auth:jwks"

// RedisKeySetStore はRedisにJWKSドキュメントを保存するKeySetStore。
// 複数のAPIプロセスで取得結果を共有し、信頼ドメインへのリクエストを減らす。
type RedisKeySetStore struct {
	// client はRedisクライアント。
	client redis.UniversalClient
	// key は保存先のキー。
	key string
}

var _ KeySetStore = (*RedisKeySetStore)(nil)

// NewRedisKeySetStore は新しいRedisKeySetStoreを生成する。
// keyが空の場合は "auth:jwks" を使用する。
func NewRedisKeySetStore(client redis.UniversalClient, key string) *RedisKeySetStore {
	if key == "" {
		key = defaultRedisKey
	}
	return &RedisKeySetStore{client: client, key: key}
}

// Load は保存済みのJWKSドキュメントを返す。キーが存在しない場合は nil, nil を返す。
func (s *RedisKeySetStore) Load(ctx context.Context) (*JWKS, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("RedisからのJWKS取得に失敗: %w", err)
	}

	var doc JWKS
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("保存済みJWKSのデシリアライズに失敗: %w", err)
	}
	return &doc, nil
}

// Save はJWKSドキュメントを有効期間付きで保存する。
func (s *RedisKeySetStore) Save(ctx context.Context, doc *JWKS, ttl time.Duration) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("JWKSのシリアライズに失敗: %w", err)
	}
	if err := s.client.Set(ctx, s.key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("RedisへのJWKS保存に失敗: %w", err)
	}
	return nil
}
