package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/vnkhanh/e-thesis-backend/config"
	"github.com/vnkhanh/e-thesis-backend/queue"
	"github.com/vnkhanh/e-thesis-backend/routes"
	"github.com/vnkhanh/e-thesis-backend/services"
	"github.com/vnkhanh/e-thesis-backend/utils"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("Không tìm thấy file .env")
	}

	db := config.InitDB()

	// Hàng đợi phân tích AI: dùng Redis nếu có cấu hình, không thì in-process
	var q queue.Queue
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rq, err := queue.NewRedisQueue(addr, os.Getenv("REDIS_PASSWORD"))
		if err != nil {
			log.Fatal("Không kết nối được Redis:", err)
		}
		q = rq
		log.Println("Hàng đợi phân tích: Redis", addr)
	} else {
		q = queue.NewMemoryQueue(256)
		log.Println("Hàng đợi phân tích: in-memory (chưa cấu hình REDIS_ADDR)")
	}

	// Worker phân tích AI chạy nền
	ctx := context.Background()
	enricher := services.NewEnricher(db, services.NewAnalyzer())
	q.Start(ctx, enricher.Process, enricher.MarkFailed)

	// Dọn file mồ côi định kỳ
	utils.StartCleanupJob(db, config.UploadDir())

	r := gin.Default()

	//Bật CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Auth-Token"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// Gọi SetupRouter để đăng ký route
	r = routes.SetupRouter(r, db, q)

	// File luận văn phục vụ trực tiếp từ thư mục uploads
	r.Static("/uploads", config.UploadDir())

	// Route test server
	r.GET("/", func(c *gin.Context) {
		c.String(200, "Thesis server is running")
	})

	// Lấy PORT từ env
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080" // mặc định nếu không có PORT
	}

	log.Println("Server running at Port:" + port)
	r.Run(":" + port)
}
