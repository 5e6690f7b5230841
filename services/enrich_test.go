package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vnkhanh/e-thesis-backend/models"
	"github.com/vnkhanh/e-thesis-backend/queue"
)

func writeTempText(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "thesis.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("ghi file tạm: %v", err)
	}
	return path
}

func TestEnricherProcessCompletesAnalysis(t *testing.T) {
	db := newTestDB(t)
	srv := newStubAIService(t)

	thesis := models.Thesis{
		UserID:         uuid.New(),
		Title:          "Ứng dụng NLP trong phân loại văn bản",
		Abstract:       "Tóm tắt",
		FilePath:       writeTempText(t, "Nội dung đầy đủ của luận văn."),
		FileName:       "thesis.pdf",
		AuthorName:     "Nguyễn Văn A",
		Department:     "CNTT",
		Supervisor:     "TS. B",
		SubmissionYear: 2025,
		Status:         models.ThesisPending,
		AnalysisStatus: models.AnalysisPending,
	}
	if err := db.Create(&thesis).Error; err != nil {
		t.Fatalf("tạo thesis: %v", err)
	}

	e := NewEnricher(db, testAnalyzer(srv))
	if err := e.Process(context.Background(), queue.Job{ThesisID: thesis.ID.String(), Attempt: 1}); err != nil {
		t.Fatalf("process: %v", err)
	}

	var got models.Thesis
	if err := db.First(&got, "id = ?", thesis.ID).Error; err != nil {
		t.Fatalf("đọc lại thesis: %v", err)
	}
	if got.AnalysisStatus != models.AnalysisComplete {
		t.Fatalf("analysis_status phải là complete, got %q", got.AnalysisStatus)
	}
	if got.AISummary == "" {
		t.Fatalf("ai_summary không được rỗng")
	}
	if len(got.AIKeywords) == 0 {
		t.Fatalf("ai_keywords không được rỗng")
	}
	if got.AISentiment != "neutral" {
		t.Fatalf("ai_sentiment sai: %q", got.AISentiment)
	}
	// Các field người nộp nhập không bị động tới
	if got.Title != thesis.Title || got.Status != models.ThesisPending {
		t.Fatalf("enrichment không được sửa nội dung gốc: %+v", got)
	}
}

func TestEnricherProcessSkipsDeletedThesis(t *testing.T) {
	db := newTestDB(t)
	srv := newStubAIService(t)

	e := NewEnricher(db, testAnalyzer(srv))
	// Thesis đã bị xóa khi job còn trong hàng đợi: không lỗi, không retry
	if err := e.Process(context.Background(), queue.Job{ThesisID: uuid.NewString(), Attempt: 1}); err != nil {
		t.Fatalf("job cho thesis đã xóa phải trả nil, got %v", err)
	}
}

func TestEnricherProcessFailsOnUnreadableFile(t *testing.T) {
	db := newTestDB(t)
	srv := newStubAIService(t)

	thesis := models.Thesis{
		UserID:         uuid.New(),
		Title:          "File hỏng",
		Abstract:       "x",
		FilePath:       filepath.Join(t.TempDir(), "khong-ton-tai.txt"),
		FileName:       "khong-ton-tai.pdf",
		AuthorName:     "A",
		Department:     "CNTT",
		SubmissionYear: 2025,
		Status:         models.ThesisPending,
		AnalysisStatus: models.AnalysisPending,
	}
	if err := db.Create(&thesis).Error; err != nil {
		t.Fatalf("tạo thesis: %v", err)
	}

	e := NewEnricher(db, testAnalyzer(srv))
	if err := e.Process(context.Background(), queue.Job{ThesisID: thesis.ID.String(), Attempt: 1}); err == nil {
		t.Fatalf("file không đọc được thì Process phải lỗi để queue retry")
	}

	// Chưa exhausted thì trạng thái vẫn pending
	var got models.Thesis
	db.First(&got, "id = ?", thesis.ID)
	if got.AnalysisStatus != models.AnalysisPending {
		t.Fatalf("chưa hết lượt thử thì phải còn pending, got %q", got.AnalysisStatus)
	}
}

func TestEnricherMarkFailed(t *testing.T) {
	db := newTestDB(t)
	srv := newStubAIService(t)

	thesis := models.Thesis{
		UserID:         uuid.New(),
		Title:          "Fail hết lượt",
		Abstract:       "x",
		FilePath:       "x.txt",
		FileName:       "x.pdf",
		AuthorName:     "A",
		Department:     "CNTT",
		SubmissionYear: 2025,
		Status:         models.ThesisPending,
		AnalysisStatus: models.AnalysisPending,
	}
	if err := db.Create(&thesis).Error; err != nil {
		t.Fatalf("tạo thesis: %v", err)
	}

	e := NewEnricher(db, testAnalyzer(srv))
	e.MarkFailed(context.Background(), queue.Job{ThesisID: thesis.ID.String(), Attempt: 3})

	var got models.Thesis
	db.First(&got, "id = ?", thesis.ID)
	if got.AnalysisStatus != models.AnalysisFailed {
		t.Fatalf("analysis_status phải là failed, got %q", got.AnalysisStatus)
	}
}

// Full round-trip qua hàng đợi: submit -> worker consume -> complete
func TestEnrichmentThroughQueue(t *testing.T) {
	db := newTestDB(t)
	srv := newStubAIService(t)

	thesis := models.Thesis{
		UserID:         uuid.New(),
		Title:          "Round trip",
		Abstract:       "x",
		FilePath:       writeTempText(t, "Nội dung luận văn cho worker."),
		FileName:       "thesis.pdf",
		AuthorName:     "A",
		Department:     "CNTT",
		SubmissionYear: 2025,
		Status:         models.ThesisPending,
		AnalysisStatus: models.AnalysisPending,
	}
	if err := db.Create(&thesis).Error; err != nil {
		t.Fatalf("tạo thesis: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e := NewEnricher(db, testAnalyzer(srv))
	q := queue.NewMemoryQueue(4)
	q.Start(ctx, e.Process, e.MarkFailed)

	if err := q.Enqueue(ctx, thesis.ID.String()); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var got models.Thesis
		db.First(&got, "id = ?", thesis.ID)
		if got.AnalysisStatus == models.AnalysisComplete {
			if got.AISummary == "" {
				t.Fatalf("complete nhưng ai_summary rỗng")
			}
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("worker không hoàn thành phân tích sau 5s")
}
