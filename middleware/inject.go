package middleware

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/e-thesis-backend/queue"
)

// DBMiddleware inject *gorm.DB vào context (controller lấy qua c.MustGet("db"))
func DBMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("db", db)
		c.Next()
	}
}

// QueueMiddleware inject hàng đợi phân tích AI
func QueueMiddleware(q queue.Queue) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("analysis_queue", q)
		c.Next()
	}
}
