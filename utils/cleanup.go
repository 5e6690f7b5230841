package utils

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"gorm.io/gorm"

	"github.com/vnkhanh/e-thesis-backend/models"
)

// CleanupOrphanFiles xóa các file trong thư mục uploads không còn thesis nào tham chiếu
// (ví dụ: record bị xóa khi worker phân tích đang chạy dở)
func CleanupOrphanFiles(db *gorm.DB, uploadDir string) {
	entries, err := os.ReadDir(uploadDir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Lỗi đọc thư mục upload: %v", err)
		}
		return
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(uploadDir, entry.Name())

		// Bỏ qua file vừa ghi (có thể record chưa kịp tạo xong)
		if info, err := entry.Info(); err == nil && time.Since(info.ModTime()) < time.Hour {
			continue
		}

		var count int64
		if err := db.Model(&models.Thesis{}).Where("file_path = ?", path).Count(&count).Error; err != nil {
			log.Printf("Lỗi kiểm tra file %s: %v", path, err)
			continue
		}
		if count == 0 {
			if err := os.Remove(path); err != nil {
				log.Printf("Không xóa được file mồ côi %s: %v", path, err)
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		log.Printf("Đã xóa %d file mồ côi trong %s", removed, uploadDir)
	}
}

// StartCleanupJob chạy cleanup job định kỳ
func StartCleanupJob(db *gorm.DB, uploadDir string) {
	// Chạy cleanup ngay lần đầu khi khởi động
	log.Println("Đang chạy cleanup lần đầu...")
	CleanupOrphanFiles(db, uploadDir)

	// Thiết lập ticker để chạy mỗi 6 giờ
	ticker := time.NewTicker(6 * time.Hour)

	go func() {
		defer ticker.Stop()
		for range ticker.C {
			log.Println("Cleanup job được kích hoạt...")
			CleanupOrphanFiles(db, uploadDir)
		}
	}()

	log.Println("Cleanup job đã được khởi động (chạy mỗi 6 giờ)")
}
