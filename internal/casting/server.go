package casting

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	castingdb "github.com/nao1215/casting/internal/casting/db"
	"github.com/nao1215/casting/pkg/auth"
	"github.com/nao1215/casting/pkg/middleware"
	_ "modernc.org/sqlite"
)

// perPage は一覧APIの1ページあたりの件数。
const perPage = 10

// Server はキャスティングサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// queries はクエリ実行オブジェクト。
	queries *castingdb.Queries
	// db はSQLiteデータベース接続。
	db *sql.DB
	// gate は業務APIを保護する認可ゲート。
	gate *auth.Gate
}

// NewServer は新しいキャスティングサーバーを生成する。
// SQLiteデータベースの初期化とスキーマ作成を行う。
func NewServer(port, dbPath string, gate *auth.Gate) (*Server, error) {
	sqlDB, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	if err := initSchema(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	return newServer(port, sqlDB, gate), nil
}

// newServer は初期化済みのデータベース接続からサーバーを組み立てる。
func newServer(port string, sqlDB *sql.DB, gate *auth.Gate) *Server {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())

	s := &Server{
		router:  router,
		port:    port,
		queries: castingdb.New(sqlDB),
		db:      sqlDB,
		gate:    gate,
	}
	s.setupRoutes()
	return s
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// Close はデータベース接続を閉じる。
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes はAPIルーティングを設定する。
// 業務APIはすべて操作ごとの権限で保護する。
func (s *Server) setupRoutes() {
	actors := s.router.Group("/actors")
	{
		// 俳優一覧取得
		actors.GET("", middleware.RequirePermission(s.gate, "get:actors"), s.handleListActors())
		// 俳優詳細取得
		actors.GET("/:id", middleware.RequirePermission(s.gate, "get:actors"), s.handleGetActor())
		// 俳優登録
		actors.POST("", middleware.RequirePermission(s.gate, "post:actors"), s.handleCreateActor())
		// 俳優更新
		actors.PATCH("/:id", middleware.RequirePermission(s.gate, "patch:actors"), s.handleUpdateActor())
		// 俳優削除
		actors.DELETE("/:id", middleware.RequirePermission(s.gate, "delete:actors"), s.handleDeleteActor())
	}

	movies := s.router.Group("/movies")
	{
		// 映画一覧取得（?search= でタイトル検索）
		movies.GET("", middleware.RequirePermission(s.gate, "get:movies"), s.handleListMovies())
		// 映画詳細取得
		movies.GET("/:id", middleware.RequirePermission(s.gate, "get:movies"), s.handleGetMovie())
		// 映画登録
		movies.POST("", middleware.RequirePermission(s.gate, "post:movies"), s.handleCreateMovie())
		// 映画更新
		movies.PATCH("/:id", middleware.RequirePermission(s.gate, "patch:movies"), s.handleUpdateMovie())
		// 映画削除
		movies.DELETE("/:id", middleware.RequirePermission(s.gate, "delete:movies"), s.handleDeleteMovie())
	}

	// 呼び出し元の情報（権限は不要、有効なトークンのみ必要）
	s.router.GET("/me", middleware.Authenticated(s.gate), s.handleMe())

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "casting"})
	})

	s.router.NoRoute(func(c *gin.Context) {
		abortWithError(c, http.StatusNotFound)
	})
	s.router.NoMethod(func(c *gin.Context) {
		abortWithError(c, http.StatusMethodNotAllowed)
	})
}

// meResponse は呼び出し元情報のJSONレスポンス構造。
type meResponse struct {
	// Success は常にtrue。
	Success bool `json:"success"`
	// Subject はトークンのsubクレーム。
	Subject string `json:"subject"`
	// Permissions はトークンが持つ権限。
	Permissions []string `json:"permissions"`
}

// handleMe は呼び出し元のsubjectと権限を返すハンドラを返す。
func (s *Server) handleMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := middleware.GetClaims(c)
		if !ok {
			abortWithError(c, http.StatusInternalServerError)
			return
		}
		permissions := claims.Permissions
		if permissions == nil {
			permissions = []string{}
		}
		c.JSON(http.StatusOK, meResponse{Success: true, Subject: claims.Subject, Permissions: permissions})
	}
}

// parseID はパスパラメータのIDを解析する。正の整数でない場合はfalseを返す。
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
