package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/vnkhanh/e-thesis-backend/models"
	"github.com/vnkhanh/e-thesis-backend/queue"
	"github.com/vnkhanh/e-thesis-backend/ws"
)

// Enricher là worker phân tích AI: nhận job từ hàng đợi, trích xuất văn bản,
// gọi AI service rồi ghi kết quả ngược vào record. Lỗi ở đây không bao giờ
// trả về cho người nộp; client chỉ thấy qua analysis_status.
type Enricher struct {
	DB       *gorm.DB
	Analyzer *Analyzer
}

func NewEnricher(db *gorm.DB, analyzer *Analyzer) *Enricher {
	return &Enricher{DB: db, Analyzer: analyzer}
}

// Process xử lý 1 job; trả lỗi để queue retry
func (e *Enricher) Process(ctx context.Context, job queue.Job) error {
	var thesis models.Thesis
	if err := e.DB.First(&thesis, "id = ?", job.ThesisID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Thesis đã bị xóa khi job còn trong hàng đợi -> bỏ qua, không retry
			log.Printf("Bỏ qua job phân tích: thesis %s không còn tồn tại", job.ThesisID)
			return nil
		}
		return err
	}

	text, err := ExtractTextFromFile(thesis.FilePath)
	if err != nil {
		return fmt.Errorf("trích xuất %s: %w", thesis.FilePath, err)
	}

	result, err := e.Analyzer.Analyze(ctx, text)
	if err != nil {
		return fmt.Errorf("gọi AI service: %w", err)
	}

	if err := e.DB.Model(&thesis).Updates(map[string]interface{}{
		"ai_summary":      result.Summary,
		"ai_keywords":     datatypes.NewJSONSlice(result.Keywords),
		"ai_sentiment":    result.Sentiment,
		"analysis_status": models.AnalysisComplete,
	}).Error; err != nil {
		return err
	}

	ws.SendAnalysisUpdate(thesis.ID.String(), string(models.AnalysisComplete))
	log.Printf("Phân tích AI hoàn thành cho thesis %s", thesis.ID)
	return nil
}

// MarkFailed được gọi khi job fail hết số lần thử
func (e *Enricher) MarkFailed(_ context.Context, job queue.Job) {
	if err := e.DB.Model(&models.Thesis{}).
		Where("id = ?", job.ThesisID).
		Update("analysis_status", models.AnalysisFailed).Error; err != nil {
		log.Printf("Không đánh dấu được analysis_status=failed cho thesis %s: %v", job.ThesisID, err)
		return
	}
	ws.SendAnalysisUpdate(job.ThesisID, string(models.AnalysisFailed))
}
