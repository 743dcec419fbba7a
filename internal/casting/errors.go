package casting

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// errorMessages はステータスコードごとのエラーメッセージ。
var errorMessages = map[int]string{
	http.StatusBadRequest:          "bad request",
	http.StatusNotFound:            "resource not found",
	http.StatusMethodNotAllowed:    "method not allowed",
	http.StatusUnprocessableEntity: "cannot process",
	http.StatusInternalServerError: "internal server error",
}

// errorResponse は業務APIのエラーレスポンス構造。
type errorResponse struct {
	// Success は常にfalse。
	Success bool `json:"success"`
	// Error はHTTPステータスコード。
	Error int `json:"error"`
	// Message はエラーの説明。
	Message string `json:"message"`
}

// abortWithError はステータスコードに対応するエラーレスポンスを返して処理を中断する。
func abortWithError(c *gin.Context, status int) {
	message, ok := errorMessages[status]
	if !ok {
		message = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, errorResponse{Success: false, Error: status, Message: message})
}
