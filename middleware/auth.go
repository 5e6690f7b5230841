package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/e-thesis-backend/services"
)

// extractToken lấy bearer token từ Authorization header,
// hoặc X-Auth-Token (header cũ của client iOS, giữ để tương thích)
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		authHeader = c.GetHeader("X-Auth-Token")
	}
	if authHeader == "" {
		return ""
	}

	// Chấp nhận cả "Bearer <token>" lẫn token trần (header cũ)
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return ""
}

// AuthMiddleware xác thực token qua chuỗi verifier (JWT nội bộ trước, Google sau).
// Thành công thì lưu user_id + role vào context cho controller dùng.
func AuthMiddleware(verifiers services.VerifierChain) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Thiếu Authorization header"})
			c.Abort()
			return
		}

		principal, err := verifiers.Verify(c.Request.Context(), tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token không hợp lệ hoặc hết hạn"})
			c.Abort()
			return
		}

		c.Set("user_id", principal.UserID)
		c.Set("role", principal.Role)
		c.Next()
	}
}

// OptionalAuthMiddleware: có token hợp lệ thì set danh tính, không thì cho qua (anonymous)
func OptionalAuthMiddleware(verifiers services.VerifierChain) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.Next()
			return
		}

		principal, err := verifiers.Verify(c.Request.Context(), tokenString)
		if err != nil {
			// Token sai / hết hạn -> coi như anonymous
			c.Next()
			return
		}

		c.Set("user_id", principal.UserID)
		c.Set("role", principal.Role)
		c.Next()
	}
}
