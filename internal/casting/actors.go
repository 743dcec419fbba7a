package casting

import (
	"database/sql"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	castingdb "github.com/nao1215/casting/internal/casting/db"
	"github.com/nao1215/casting/pkg/paging"
)

// createActorRequest は俳優登録リクエストのJSON構造。
type createActorRequest struct {
	// Name は氏名。
	Name string `json:"name" binding:"required"`
	// Age は年齢。
	Age *int64 `json:"age" binding:"required,gte=0,lte=150"`
	// Gender は性別。
	Gender string `json:"gender" binding:"required"`
}

// updateActorRequest は俳優更新リクエストのJSON構造。指定された項目のみ更新する。
type updateActorRequest struct {
	Name   *string `json:"name" binding:"omitnil,min=1"`
	Age    *int64  `json:"age" binding:"omitnil,gte=0,lte=150"`
	Gender *string `json:"gender" binding:"omitnil,min=1"`
}

// empty は更新する項目が1つもない場合にtrueを返す。
func (r updateActorRequest) empty() bool {
	return r.Name == nil && r.Age == nil && r.Gender == nil
}

// actorResponse は俳優のJSONレスポンス構造。
type actorResponse struct {
	// ID は俳優の一意識別子。
	ID int64 `json:"id"`
	// Name は氏名。
	Name string `json:"name"`
	// Age は年齢。
	Age int64 `json:"age"`
	// Gender は性別。
	Gender string `json:"gender"`
}

// toActorResponse はDB行をJSONレスポンスに変換する。
func toActorResponse(a castingdb.Actor) actorResponse {
	return actorResponse{ID: a.ID, Name: a.Name, Age: a.Age, Gender: a.Gender}
}

// handleListActors は俳優一覧取得を処理するハンドラを返す。
// 該当ページに俳優がいない場合は404を返す。
func (s *Server) handleListActors() gin.HandlerFunc {
	return func(c *gin.Context) {
		page := paging.FromQuery(c.Query("page"), perPage)

		total, err := s.queries.CountActors(c.Request.Context())
		if err != nil {
			log.Printf("俳優数取得エラー: %v", err)
			abortWithError(c, http.StatusInternalServerError)
			return
		}
		actors, err := s.queries.ListActors(c.Request.Context(), castingdb.ListActorsParams{
			Limit:  int64(page.Limit()),
			Offset: int64(page.Offset()),
		})
		if err != nil {
			log.Printf("俳優一覧取得エラー: %v", err)
			abortWithError(c, http.StatusInternalServerError)
			return
		}
		if len(actors) == 0 {
			abortWithError(c, http.StatusNotFound)
			return
		}

		responses := make([]actorResponse, 0, len(actors))
		for _, a := range actors {
			responses = append(responses, toActorResponse(a))
		}
		c.JSON(http.StatusOK, gin.H{
			"success":      true,
			"actors":       responses,
			"num_actors":   len(responses),
			"total_actors": total,
			"page":         page.Number,
		})
	}
}

// handleGetActor は俳優詳細取得を処理するハンドラを返す。
func (s *Server) handleGetActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			abortWithError(c, http.StatusNotFound)
			return
		}

		a, err := s.queries.GetActor(c.Request.Context(), id)
		if errors.Is(err, sql.ErrNoRows) {
			abortWithError(c, http.StatusNotFound)
			return
		}
		if err != nil {
			log.Printf("俳優取得エラー: %v", err)
			abortWithError(c, http.StatusInternalServerError)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "actor": toActorResponse(a)})
	}
}

// handleCreateActor は俳優登録を処理するハンドラを返す。
// 氏名、年齢、性別のいずれかが欠けている場合は400を返す。
func (s *Server) handleCreateActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createActorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest)
			return
		}

		created, err := s.queries.CreateActor(c.Request.Context(), castingdb.CreateActorParams{
			Name:   req.Name,
			Age:    *req.Age,
			Gender: req.Gender,
		})
		if err != nil {
			log.Printf("俳優登録エラー: %v", err)
			abortWithError(c, http.StatusUnprocessableEntity)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"success": true, "actor": toActorResponse(created)})
	}
}

// handleUpdateActor は俳優更新を処理するハンドラを返す。
// リクエストに含まれる項目のみを更新する。
func (s *Server) handleUpdateActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			abortWithError(c, http.StatusNotFound)
			return
		}

		current, err := s.queries.GetActor(c.Request.Context(), id)
		if errors.Is(err, sql.ErrNoRows) {
			abortWithError(c, http.StatusNotFound)
			return
		}
		if err != nil {
			log.Printf("俳優取得エラー: %v", err)
			abortWithError(c, http.StatusInternalServerError)
			return
		}

		var req updateActorRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.empty() {
			abortWithError(c, http.StatusBadRequest)
			return
		}

		params := castingdb.UpdateActorParams{
			Name:   current.Name,
			Age:    current.Age,
			Gender: current.Gender,
			ID:     id,
		}
		if req.Name != nil {
			params.Name = *req.Name
		}
		if req.Age != nil {
			params.Age = *req.Age
		}
		if req.Gender != nil {
			params.Gender = *req.Gender
		}

		updated, err := s.queries.UpdateActor(c.Request.Context(), params)
		if err != nil {
			log.Printf("俳優更新エラー: %v", err)
			abortWithError(c, http.StatusUnprocessableEntity)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "actor": toActorResponse(updated)})
	}
}

// handleDeleteActor は俳優削除を処理するハンドラを返す。
// 存在しない俳優の削除は処理できないリクエストとして422を返す。
func (s *Server) handleDeleteActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			abortWithError(c, http.StatusUnprocessableEntity)
			return
		}

		deleted, err := s.queries.DeleteActor(c.Request.Context(), id)
		if err != nil {
			log.Printf("俳優削除エラー: %v", err)
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
