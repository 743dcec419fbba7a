package casting

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	castingdb "github.com/nao1215/casting/internal/casting/db"
	"github.com/nao1215/casting/pkg/paging"
)

// createMovieRequest は映画登録リクエストのJSON構造。
type createMovieRequest struct {
	// Title はタイトル。
	Title string `json:"title" binding:"required"`
	// ReleaseDate は公開日（YYYY-MM-DD）。
	ReleaseDate string `json:"release_date" binding:"required,datetime=2006-01-02"`
}

// updateMovieRequest は映画更新リクエストのJSON構造。指定された項目のみ更新する。
type updateMovieRequest struct {
	Title       *string `json:"title" binding:"omitnil,min=1"`
	ReleaseDate *string `json:"release_date" binding:"omitnil,datetime=2006-01-02"`
}

// movieResponse は映画のJSONレスポンス構造。
type movieResponse struct {
	// ID は映画の一意識別子。
	ID int64 `json:"id"`
	// Title はタイトル。
	Title string `json:"title"`
	// ReleaseDate は公開日。
	ReleaseDate string `json:"release_date"`
}

// toMovieResponse はDB行をJSONレスポンスに変換する。
func toMovieResponse(m castingdb.Movie) movieResponse {
	return movieResponse{ID: m.ID, Title: m.Title, ReleaseDate: m.ReleaseDate}
}

// likeEscaper はLIKE句のワイルドカードをエスケープする。
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// handleListMovies は映画一覧取得を処理するハンドラを返す。
// ?search= が指定された場合はタイトルの部分一致（大文字小文字を区別しない）で絞り込む。
func (s *Server) handleListMovies() gin.HandlerFunc {
	return func(c *gin.Context) {
		page := paging.FromQuery(c.Query("page"), perPage)
		search := likeEscaper.Replace(strings.TrimSpace(c.Query("search")))

		total, err := s.queries.CountMovies(c.Request.Context(), search)
		if err != nil {
			log.Printf("映画数取得エラー: %v", err)
			abortWithError(c, http.StatusInternalServerError)
			return
		}
		movies, err := s.queries.ListMovies(c.Request.Context(), castingdb.ListMoviesParams{
			Search: search,
			Limit:  int64(page.Limit()),
			Offset: int64(page.Offset()),
		})
		if err != nil {
			log.Printf("映画一覧取得エラー: %v", err)
			abortWithError(c, http.StatusInternalServerError)
			return
		}
		if len(movies) == 0 {
			abortWithError(c, http.StatusNotFound)
			return
		}

		responses := make([]movieResponse, 0, len(movies))
		for _, m := range movies {
			responses = append(responses, toMovieResponse(m))
		}
		c.JSON(http.StatusOK, gin.H{
			"success":      true,
			"movies":       responses,
			"num_movies":   len(responses),
			"total_movies": total,
			"page":         page.Number,
		})
	}
}

// handleGetMovie は映画詳細取得を処理するハンドラを返す。
func (s *Server) handleGetMovie() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			abortWithError(c, http.StatusNotFound)
			return
		}

		m, err := s.queries.GetMovie(c.Request.Context(), id)
		if errors.Is(err, sql.ErrNoRows) {
			abortWithError(c, http.StatusNotFound)
			return
		}
		if err != nil {
			log.Printf("映画取得エラー: %v", err)
			abortWithError(c, http.StatusInternalServerError)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "movie": toMovieResponse(m)})
	}
}

// handleCreateMovie は映画登録を処理するハンドラを返す。
func (s *Server) handleCreateMovie() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createMovieRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest)
			return
		}

		created, err := s.queries.CreateMovie(c.Request.Context(), castingdb.CreateMovieParams{
			Title:       req.Title,
			ReleaseDate: req.ReleaseDate,
		})
		if err != nil {
			log.Printf("映画登録エラー: %v", err)
			abortWithError(c, http.StatusUnprocessableEntity)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"success": true, "movie": toMovieResponse(created)})
	}
}

// handleUpdateMovie は映画更新を処理するハンドラを返す。
func (s *Server) handleUpdateMovie() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			abortWithError(c, http.StatusNotFound)
			return
		}

		current, err := s.queries.GetMovie(c.Request.Context(), id)
		if errors.Is(err, sql.ErrNoRows) {
			abortWithError(c, http.StatusNotFound)
			return
		}
		if err != nil {
			log.Printf("映画取得エラー: %v", err)
			abortWithError(c, http.StatusInternalServerError)
			return
		}

		var req updateMovieRequest
		if err := c.ShouldBindJSON(&req); err != nil || (req.Title == nil && req.ReleaseDate == nil) {
			abortWithError(c, http.StatusBadRequest)
			return
		}

		params := castingdb.UpdateMovieParams{
			Title:       current.Title,
			ReleaseDate: current.ReleaseDate,
			ID:          id,
		}
		if req.Title != nil {
			params.Title = *req.Title
		}
		if req.ReleaseDate != nil {
			params.ReleaseDate = *req.ReleaseDate
		}

		updated, err := s.queries.UpdateMovie(c.Request.Context(), params)
		if err != nil {
			log.Printf("映画更新エラー: %v", err)
			abortWithError(c, http.StatusUnprocessableEntity)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "movie": toMovieResponse(updated)})
	}
}

// handleDeleteMovie は映画削除を処理するハンドラを返す。
// 存在しない映画の削除は422を返す。
func (s *Server) handleDeleteMovie() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			abortWithError(c, http.StatusUnprocessableEntity)
			return
		}

		deleted, err := s.queries.DeleteMovie(c.Request.Context(), id)
		if err != nil {
			log.Printf("映画削除エラー: %v", err)
			abortWithError(c, http.StatusUnprocessableEntity)
			return
		}
		if deleted == 0 {
			abortWithError(c, http.StatusUnprocessableEntity)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "deleted": id})
	}
}
