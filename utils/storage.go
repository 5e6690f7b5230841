package utils

import (
	"fmt"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
)

// SaveThesisFile lưu file upload vào thư mục uploads.
// Tên file: <unix-timestamp>-<tên gốc đã slug>.pdf, trả về đường dẫn tương đối.
func SaveThesisFile(c *gin.Context, file *multipart.FileHeader, uploadDir string) (string, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("không tạo được thư mục upload: %w", err)
	}

	ext := filepath.Ext(file.Filename)
	base := strings.TrimSuffix(file.Filename, ext)
	name := fmt.Sprintf("%d-%s%s", time.Now().Unix(), slug.Make(base), strings.ToLower(ext))

	dst := filepath.Join(uploadDir, name)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		return "", fmt.Errorf("không lưu được file: %w", err)
	}
	return dst, nil
}

// RemoveThesisFile xóa file đã lưu, best-effort: lỗi chỉ log, không chặn luồng xóa record
func RemoveThesisFile(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("Không xóa được file %s: %v", path, err)
	}
}
