package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/e-thesis-backend/controllers"
	"github.com/vnkhanh/e-thesis-backend/middleware"
	"github.com/vnkhanh/e-thesis-backend/models"
	"github.com/vnkhanh/e-thesis-backend/queue"
	"github.com/vnkhanh/e-thesis-backend/services"
	"github.com/vnkhanh/e-thesis-backend/ws"
)

func SetupRouter(r *gin.Engine, db *gorm.DB, q queue.Queue) *gin.Engine {
	verifiers := services.DefaultVerifiers(db)
	requireAuth := middleware.AuthMiddleware(verifiers)
	optionalAuth := middleware.OptionalAuthMiddleware(verifiers)
	requireReviewer := middleware.RequireRoles(
		string(models.RoleAdmin), string(models.RoleSupervisor))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/health", middleware.DBMiddleware(db), controllers.HealthCheck)

	api := r.Group("/api")
	api.Use(middleware.DBMiddleware(db), middleware.QueueMiddleware(q))

	auth := api.Group("/auth")
	{
		auth.POST("", controllers.Login)
		auth.POST("/google", controllers.GoogleLogin)
		auth.GET("", requireAuth, controllers.GetCurrentUser)
	}

	users := api.Group("/users")
	{
		users.POST("", controllers.Register)
		users.GET("", requireAuth, middleware.RequireRoles(string(models.RoleAdmin)), controllers.GetUsers)
		users.GET("/profile", requireAuth, controllers.GetProfile)
		users.PUT("/profile", requireAuth, controllers.UpdateProfile)
		users.GET("/supervisors", requireAuth, controllers.GetSupervisors)
	}

	theses := api.Group("/theses")
	{
		// Công khai (anonymous chỉ thấy luận văn approved + public)
		theses.GET("", optionalAuth, controllers.ListTheses)
		theses.GET("/search", optionalAuth, controllers.SearchTheses)
		theses.GET("/departments", controllers.GetDepartments)
		theses.GET("/supervisors", controllers.GetThesisSupervisors)
		theses.GET("/analytics/by-department", controllers.AnalyticsByDepartment)
		theses.GET("/analytics/by-status", controllers.AnalyticsByStatus)
		theses.GET("/:id", optionalAuth, controllers.GetThesisDetail)

		// Cần đăng nhập
		theses.POST("", requireAuth, controllers.SubmitThesis)
		theses.GET("/my-theses", requireAuth, controllers.GetMyTheses)
		theses.PUT("/:id", requireAuth, controllers.UpdateThesis)
		theses.DELETE("/:id", requireAuth, controllers.DeleteThesis)
		theses.POST("/check-grammar", requireAuth, controllers.CheckGrammar)
		theses.POST("/check-plagiarism", requireAuth, controllers.CheckPlagiarism)

		// Duyệt: admin & supervisor
		theses.GET("/pending", requireAuth, requireReviewer, controllers.GetPendingTheses)
		theses.PUT("/approve/:id", requireAuth, requireReviewer, controllers.ApproveThesis)
		theses.PUT("/reject/:id", requireAuth, requireReviewer, controllers.RejectThesis)
	}

	r.GET("/ws/thesis/:id", ws.HandleThesisWebSocket)
	r.GET("/ws/status", ws.HandleGlobalWebSocket)

	return r
}
