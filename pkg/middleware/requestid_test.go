package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TestRequestID はRequestIDミドルウェアを検証する。
func TestRequestID(t *testing.T) {
	t.Parallel()

	newRouter := func() *gin.Engine {
		router := gin.New()
		router.Use(RequestID())
		router.GET("/id", func(c *gin.Context) {
			c.String(http.StatusOK, GetRequestID(c))
		})
		return router
	}

	t.Run("ヘッダーがない場合はUUIDを生成すること", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		newRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/id", nil))

		id := w.Header().Get(HeaderKeyRequestID)
		if _, err := uuid.Parse(id); err != nil {
			t.Fatalf("%s = %q はUUIDではない: %v", HeaderKeyRequestID, id, err)
		}
		if w.Body.String() != id {
			t.Errorf("GetRequestID() = %q, want %q", w.Body.String(), id)
		}
	})

	t.Run("クライアントのIDを引き継ぐこと", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/id", nil)
		req.Header.Set(HeaderKeyRequestID, "req-123")
		w := httptest.NewRecorder()
		newRouter().ServeHTTP(w, req)

		if got := w.Header().Get(HeaderKeyRequestID); got != "req-123" {
			t.Errorf("%s = %q, want %q", HeaderKeyRequestID, got, "req-123")
		}
	})

	t.Run("長すぎるIDは置き換えること", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/id", nil)
		req.Header.Set(HeaderKeyRequestID, strings.Repeat("a", maxRequestIDLength+1))
		w := httptest.NewRecorder()
		newRouter().ServeHTTP(w, req)

		if _, err := uuid.Parse(w.Header().Get(HeaderKeyRequestID)); err != nil {
			t.Errorf("新しいUUIDが割り当てられるべき: %v", err)
		}
	})
}
