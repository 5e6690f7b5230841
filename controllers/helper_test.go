package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vnkhanh/e-thesis-backend/models"
	"github.com/vnkhanh/e-thesis-backend/queue"
	"github.com/vnkhanh/e-thesis-backend/routes"
	"github.com/vnkhanh/e-thesis-backend/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testEnv gom router + DB cho 1 test HTTP end-to-end
type testEnv struct {
	Router *gin.Engine
	DB     *gorm.DB
	Queue  *queue.MemoryQueue
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("UPLOAD_DIR", t.TempDir())
	t.Setenv("GOOGLE_CLIENT_ID", "")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("mở sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Thesis{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	q := queue.NewMemoryQueue(16)
	r := gin.New()
	routes.SetupRouter(r, db, q)

	return &testEnv{Router: r, DB: db, Queue: q}
}

// createUser tạo user trực tiếp trong DB và trả về user + JWT của họ
func (env *testEnv) createUser(t *testing.T, email string, role models.UserRole) (models.User, string) {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash mật khẩu: %v", err)
	}
	user := models.User{
		Username: email,
		Email:    email,
		Password: string(hashed),
		Role:     role,
	}
	if err := env.DB.Create(&user).Error; err != nil {
		t.Fatalf("tạo user: %v", err)
	}

	token, err := utils.GenerateToken(user.ID.String(), string(user.Role))
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return user, token
}

// createThesis ghi 1 thesis trực tiếp vào DB (bỏ qua upload) cho test query/duyệt
func (env *testEnv) createThesis(t *testing.T, owner models.User, mutate func(*models.Thesis)) models.Thesis {
	t.Helper()

	thesis := models.Thesis{
		UserID:         owner.ID,
		Title:          "Luận văn mẫu",
		Abstract:       "Tóm tắt mẫu",
		FilePath:       "uploads/mau.pdf",
		FileName:       "mau.pdf",
		AuthorName:     owner.Username,
		Department:     "CNTT",
		Supervisor:     "TS. Hướng Dẫn",
		SubmissionYear: 2025,
		Status:         models.ThesisPending,
		IsPublic:       true,
		AnalysisStatus: models.AnalysisPending,
	}
	if mutate != nil {
		mutate(&thesis)
	}
	if err := env.DB.Create(&thesis).Error; err != nil {
		t.Fatalf("tạo thesis: %v", err)
	}
	return thesis
}

// doJSON gửi request JSON (token rỗng = anonymous)
func (env *testEnv) doJSON(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	return w
}

// submitForm nộp luận văn qua multipart; fileName rỗng = không đính file
func (env *testEnv) submitForm(t *testing.T, token string, fields map[string]string, fileName string, fileContent []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("ghi field %s: %v", k, err)
		}
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("thesisFile", fileName)
		if err != nil {
			t.Fatalf("tạo form file: %v", err)
		}
		if _, err := fw.Write(fileContent); err != nil {
			t.Fatalf("ghi file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("đóng multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/theses", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	return w
}

func validSubmitFields() map[string]string {
	return map[string]string{
		"title":          "Hệ thống gợi ý học phần",
		"abstract":       "Xây dựng hệ thống gợi ý dựa trên collaborative filtering",
		"authorName":     "Trần Thị B",
		"department":     "Công nghệ thông tin",
		"supervisor":     "TS. Nguyễn Văn C",
		"submissionYear": "2025",
		"keywords":       "recommender, collaborative filtering",
	}
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("parse response (%d): %v\n%s", w.Code, err, w.Body.String())
	}
}
