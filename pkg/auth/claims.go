package auth

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// Claims は検証済みトークンのペイロード。
// Verifier.Verify が署名とクレームの検証に成功した場合のみ生成される。
type Claims struct {
	jwt.RegisteredClaims
	// Permissions はトークンに付与された権限文字列の一覧（例: "delete:actors"）。
	Permissions []string `json:"permissions"`
}

// HasPermission は指定の権限を持つかを返す。
func (c *Claims) HasPermission(permission string) bool {
	if c == nil {
		return false
	}
	return slices.Contains(c.Permissions, permission)
}

// CheckPermission はクレームが必要な権限を満たすかを確認する。
// permissionsクレームが存在しない、または空の場合は ErrPermissionsClaimMissing、
// 必要な権限が含まれない場合は ErrPermissionDenied を返す。
func CheckPermission(claims *Claims, required string) error {
	if claims == nil || len(claims.Permissions) == 0 {
		return ErrPermissionsClaimMissing
	}
	if !claims.HasPermission(required) {
		return ErrPermissionDenied
	}
	return nil
}
