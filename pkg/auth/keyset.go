package auth

import (
	"context"
	"crypto"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/nao1215/casting/pkg/httpclient"
	"golang.org/x/sync/singleflight"
)

const (
	// JWKSPath は信頼ドメインが公開鍵セットを公開するパス。
	JWKSPath = "/.well-known/jwks.json"
	// defaultMinRefreshInterval は未知のkidによる再取得の最小間隔。
	defaultMinRefreshInterval = 30 * time.Second
	// defaultStoreTTL はTTL未指定時に共有ストアへ保存する際の有効期間。
	defaultStoreTTL = 10 * time.Minute
	// fetchTimeout は1回の鍵セット取得に許す時間。
	fetchTimeout = 10 * time.Second
)

// KeySource はkidから署名検証用の公開鍵を解決する。
type KeySource interface {
	// Key はkidに対応する公開鍵を返す。見つからない場合は ErrUnknownKey を返す。
	Key(ctx context.Context, kid string) (crypto.PublicKey, error)
}

// StaticKeySet は固定の公開鍵セット。ネットワーク取得を行わない。
type StaticKeySet map[string]crypto.PublicKey

// Key はkidに対応する公開鍵を返す。
func (s StaticKeySet) Key(_ context.Context, kid string) (crypto.PublicKey, error) {
	key, ok := s[kid]
	if !ok {
		return nil, ErrUnknownKey
	}
	return key, nil
}

// KeySetStore は複数プロセス間でJWKSドキュメントを共有する保存先。
type KeySetStore interface {
	// Load は保存済みのドキュメントを返す。保存されていない場合は nil, nil を返す。
	Load(ctx context.Context) (*JWKS, error)
	// Save はドキュメントを有効期間付きで保存する。
	Save(ctx context.Context, doc *JWKS, ttl time.Duration) error
}

// keySnapshot はある時点の鍵セット。生成後に変更しない。
type keySnapshot struct {
	// keys はkidをキーとする公開鍵。
	keys map[string]crypto.PublicKey
	// loadedAt は読み込んだ時刻。
	loadedAt time.Time
	// fromStore は共有ストアから読み込んだ場合にtrue。
	fromStore bool
}

// KeySetCache は信頼ドメインのJWKSをプロセス内にキャッシュするKeySource。
// 鍵セットはスナップショット単位で丸ごと置き換えるため、読み取り側はロックを取らない。
// 同時に発生した取得は1回のHTTPリクエストにまとめられる。
type KeySetCache struct {
	// client はJWKS取得に使用するHTTPクライアント。ベースURLは信頼ドメイン。
	client *httpclient.Client
	// store は共有ストア。nilの場合は使用しない。
	store KeySetStore
	// ttl はキャッシュの有効期間。0以下の場合は期限切れにならない。
	ttl time.Duration
	// minRefresh は未知のkidによる再取得の最小間隔。
	minRefresh time.Duration
	// now は現在時刻を返す。テストで差し替える。
	now func() time.Time

	// current は現在の鍵セット。
	current atomic.Pointer[keySnapshot]
	// lastOriginFetch は最後に信頼ドメインへ取得を試みた時刻（UnixNano）。
	lastOriginFetch atomic.Int64
	// group は同時取得をまとめる。
	group singleflight.Group
}

var _ KeySource = (*KeySetCache)(nil)

// KeySetOption はKeySetCacheの生成時オプション。
type KeySetOption func(*KeySetCache)

// WithKeySetStore は共有ストアを設定する。
func WithKeySetStore(store KeySetStore) KeySetOption {
	return func(c *KeySetCache) {
		c.store = store
	}
}

// WithCacheTTL はキャッシュの有効期間を設定する。
func WithCacheTTL(ttl time.Duration) KeySetOption {
	return func(c *KeySetCache) {
		c.ttl = ttl
	}
}

// WithMinRefreshInterval は未知のkidによる再取得の最小間隔を設定する。
func WithMinRefreshInterval(d time.Duration) KeySetOption {
	return func(c *KeySetCache) {
		c.minRefresh = d
	}
}

// NewKeySetCache は新しいKeySetCacheを生成する。
// clientのベースURLに JWKSPath を付けたURLから鍵セットを取得する。
// 取得は最初に鍵が必要になった時点で行われる。
func NewKeySetCache(client *httpclient.Client, opts ...KeySetOption) *KeySetCache {
	c := &KeySetCache{
		client:     client,
		minRefresh: defaultMinRefreshInterval,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Warm は鍵セットを先行して取得する。起動時の呼び出しを想定している。
func (c *KeySetCache) Warm(ctx context.Context) error {
	_, err := c.refresh(ctx, true)
	return err
}

// Invalidate はキャッシュ済みの鍵セットを破棄する。次回の Key 呼び出しで再取得される。
func (c *KeySetCache) Invalidate() {
	c.current.Store(nil)
}

// Key はkidに対応する公開鍵を返す。
// キャッシュが空または期限切れの場合は取得してから探す。
// キャッシュにないkidは、最小間隔を空けた上で信頼ドメインから再取得して探す。
func (c *KeySetCache) Key(ctx context.Context, kid string) (crypto.PublicKey, error) {
	snap := c.current.Load()
	if snap != nil && c.fresh(snap) {
		if key, ok := snap.keys[kid]; ok {
			return key, nil
		}
		if !c.canRefetch() {
			return nil, ErrUnknownKey
		}
		refreshed, err := c.refresh(ctx, false)
		if err != nil {
			log.Printf("[Auth] 未知のkid %s によるJWKSの再取得に失敗: %v", kid, err)
			return lookup(snap, kid)
		}
		return lookup(refreshed, kid)
	}

	refreshed, err := c.refresh(ctx, true)
	if err != nil {
		if snap == nil {
			return nil, err
		}
		// 期限切れの鍵セットが残っていればそれで検証を続ける
		log.Printf("[Auth] JWKSの再取得に失敗したため期限切れの鍵セットを使用します: %v", err)
		return lookup(snap, kid)
	}
	if _, ok := refreshed.keys[kid]; !ok && refreshed.fromStore && c.canRefetch() {
		// 共有ストアの内容が古い可能性があるため信頼ドメインから取得し直す
		if refreshed, err = c.refresh(ctx, false); err != nil {
			return nil, err
		}
	}
	return lookup(refreshed, kid)
}

// lookup はスナップショットからkidの鍵を探す。
func lookup(snap *keySnapshot, kid string) (crypto.PublicKey, error) {
	key, ok := snap.keys[kid]
	if !ok {
		return nil, ErrUnknownKey
	}
	return key, nil
}

// fresh はスナップショットが有効期間内かを返す。
func (c *KeySetCache) fresh(snap *keySnapshot) bool {
	if c.ttl <= 0 {
		return true
	}
	return c.now().Before(snap.loadedAt.Add(c.ttl))
}

// canRefetch は信頼ドメインへの再取得が許可されるかを返す。
func (c *KeySetCache) canRefetch() bool {
	last := c.lastOriginFetch.Load()
	if last == 0 {
		return true
	}
	return c.now().Sub(time.Unix(0, last)) >= c.minRefresh
}

// refresh は鍵セットを読み込み、現在のスナップショットを置き換える。
// useStoreがtrueで共有ストアに保存済みのドキュメントがあれば、それを使用する。
// 取得は呼び出し元のキャンセルから切り離して実行するため、同じ取得を待つ他の
// 呼び出し元には影響しない。呼び出し元は自身のctxが終了した時点で待機をやめる。
func (c *KeySetCache) refresh(ctx context.Context, useStore bool) (*keySnapshot, error) {
	flightKey := "origin"
	if useStore && c.store != nil {
		flightKey = "store"
	}

	ch := c.group.DoChan(flightKey, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		if flightKey == "store" {
			snap, err := c.loadFromStore(fctx)
			if err != nil {
				log.Printf("[Auth] 共有ストアからのJWKS読み込みに失敗: %v", err)
			}
			if snap != nil {
				c.current.Store(snap)
				return snap, nil
			}
		}

		snap, err := c.fetchFromOrigin(fctx)
		if err != nil {
			return nil, ErrUnverifiableToken.withCause(err)
		}
		c.current.Store(snap)
		return snap, nil
	})

	select {
	case <-ctx.Done():
		return nil, ErrUnverifiableToken.withCause(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*keySnapshot), nil
	}
}

// loadFromStore は共有ストアから鍵セットを読み込む。保存されていない場合は nil を返す。
func (c *KeySetCache) loadFromStore(ctx context.Context) (*keySnapshot, error) {
	doc, err := c.store.Load(ctx)
	if err != nil || doc == nil {
		return nil, err
	}
	keys, err := doc.keyMap()
	if err != nil {
		return nil, err
	}
	return &keySnapshot{keys: keys, loadedAt: c.now(), fromStore: true}, nil
}

// fetchFromOrigin は信頼ドメインから鍵セットを取得する。
// 共有ストアが設定されていれば取得したドキュメントを保存する。
func (c *KeySetCache) fetchFromOrigin(ctx context.Context) (*keySnapshot, error) {
	c.lastOriginFetch.Store(c.now().UnixNano())

	var doc JWKS
	if err := c.client.GetJSON(ctx, JWKSPath, &doc); err != nil {
		return nil, fmt.Errorf("JWKSの取得に失敗: %w", err)
	}
	keys, err := doc.keyMap()
	if err != nil {
		return nil, err
	}

	if c.store != nil {
		ttl := c.ttl
		if ttl <= 0 {
			ttl = defaultStoreTTL
		}
		if err := c.store.Save(ctx, &doc, ttl); err != nil {
			log.Printf("[Auth] 共有ストアへのJWKS保存に失敗: %v", err)
		}
	}

	log.Printf("[Auth] JWKSを取得しました: %s (%d鍵)", c.client.BaseURL()+JWKSPath, len(keys))
	return &keySnapshot{keys: keys, loadedAt: c.now()}, nil
}
