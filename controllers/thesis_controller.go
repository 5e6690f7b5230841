package controllers

import (
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/vnkhanh/e-thesis-backend/config"
	"github.com/vnkhanh/e-thesis-backend/models"
	"github.com/vnkhanh/e-thesis-backend/queue"
	"github.com/vnkhanh/e-thesis-backend/utils"
	"github.com/vnkhanh/e-thesis-backend/ws"
)

const maxThesisFileSize = 10 * 1024 * 1024 // 10MB, theo giới hạn upload cũ

// applyVisibility giới hạn query theo quyền của caller:
// - admin/supervisor: thấy tất cả
// - user thường: luận văn approved công khai + luận văn của chính mình
// - anonymous: chỉ approved công khai
func applyVisibility(query *gorm.DB, c *gin.Context) *gorm.DB {
	role := c.GetString("role")
	if role == string(models.RoleAdmin) || role == string(models.RoleSupervisor) {
		return query
	}
	if userID := c.GetString("user_id"); userID != "" {
		return query.Where("(status = ? AND is_public = ?) OR user_id = ?",
			models.ThesisApproved, true, userID)
	}
	return query.Where("status = ? AND is_public = ?", models.ThesisApproved, true)
}

// applySort xếp theo ngày nộp hoặc tiêu đề
func applySort(query *gorm.DB, sort string) *gorm.DB {
	switch sort {
	case "date_asc":
		return query.Order("submission_date ASC")
	case "title_asc":
		return query.Order("title ASC")
	case "title_desc":
		return query.Order("title DESC")
	default: // date_desc
		return query.Order("submission_date DESC")
	}
}

// paginate đọc page/limit từ query string
func paginate(c *gin.Context) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	return page, limit, (page - 1) * limit
}

// SubmitThesis: POST /api/theses (multipart, field "thesisFile")
func SubmitThesis(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	q := c.MustGet("analysis_queue").(queue.Queue)
	userIDStr := c.GetString("user_id")

	uid, err := uuid.Parse(userIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id không hợp lệ"})
		return
	}

	file, err := c.FormFile("thesisFile")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Không có file đính kèm"})
		return
	}
	if file.Size > maxThesisFileSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File vượt quá 10MB"})
		return
	}
	if strings.ToLower(filepath.Ext(file.Filename)) != ".pdf" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Chỉ chấp nhận file PDF"})
		return
	}

	title := c.PostForm("title")
	abstract := c.PostForm("abstract")
	authorName := c.PostForm("authorName")
	department := c.PostForm("department")
	supervisor := c.PostForm("supervisor")
	if title == "" || abstract == "" || authorName == "" || department == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Thiếu thông tin bắt buộc (title, abstract, authorName, department)"})
		return
	}

	year, err := strconv.Atoi(c.PostForm("submissionYear"))
	if err != nil || year <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "submissionYear không hợp lệ"})
		return
	}

	// keywords: chuỗi phân tách bởi dấu phẩy
	var keywords []string
	for _, kw := range strings.Split(c.PostForm("keywords"), ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}

	isPublic := true
	if v := c.PostForm("isPublic"); v != "" {
		isPublic = v == "true" || v == "1"
	}

	path, err := utils.SaveThesisFile(c, file, config.UploadDir())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không lưu được file", "details": err.Error()})
		return
	}

	thesis := models.Thesis{
		ID:             uuid.New(),
		UserID:         uid,
		Title:          title,
		Abstract:       abstract,
		Keywords:       datatypes.NewJSONSlice(keywords),
		FilePath:       path,
		FileName:       file.Filename,
		AuthorName:     authorName,
		Department:     department,
		Supervisor:     supervisor,
		SubmissionYear: year,
		Status:         models.ThesisPending,
		IsPublic:       isPublic,
		AnalysisStatus: models.AnalysisPending,
	}
	if err := db.Create(&thesis).Error; err != nil {
		utils.RemoveThesisFile(path)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không lưu được luận văn"})
		return
	}

	// Enqueue phân tích AI; lỗi hàng đợi không chặn response của người nộp
	if err := q.Enqueue(c.Request.Context(), thesis.ID.String()); err != nil {
		log.Printf("Không enqueue được job phân tích cho thesis %s: %v", thesis.ID, err)
		db.Model(&thesis).Update("analysis_status", models.AnalysisFailed)
	}

	ws.BroadcastThesisListChanged()
	c.JSON(http.StatusCreated, thesis)
}

// ListTheses: GET /api/theses — lọc theo department/supervisor/year (+status cho reviewer)
func ListTheses(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	query := applyVisibility(db.Model(&models.Thesis{}), c)

	if department := c.Query("department"); department != "" {
		query = query.Where("department = ?", department)
	}
	if supervisor := c.Query("supervisor"); supervisor != "" {
		query = query.Where("supervisor = ?", supervisor)
	}
	if yearStr := c.Query("year"); yearStr != "" {
		if year, err := strconv.Atoi(yearStr); err == nil {
			query = query.Where("submission_year = ?", year)
		}
	}
	// Chỉ reviewer được lọc theo trạng thái
	role := c.GetString("role")
	if status := c.Query("status"); status != "" &&
		(role == string(models.RoleAdmin) || role == string(models.RoleSupervisor)) {
		switch models.ThesisStatus(status) {
		case models.ThesisPending, models.ThesisApproved, models.ThesisRejected:
			query = query.Where("status = ?", status)
		}
	}

	page, limit, offset := paginate(c)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể đếm tổng số luận văn"})
		return
	}

	var theses []models.Thesis
	query = applySort(query, c.Query("sort"))
	if err := query.Limit(limit).Offset(offset).Find(&theses).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể lấy danh sách luận văn"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  theses,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// SearchTheses: GET /api/theses/search?q= — tìm không phân biệt hoa thường
// trên title / author_name / abstract
func SearchTheses(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Thiếu từ khóa tìm kiếm"})
		return
	}

	pattern := "%" + strings.ToLower(q) + "%"
	query := applyVisibility(db.Model(&models.Thesis{}), c).
		Where("LOWER(title) LIKE ? OR LOWER(author_name) LIKE ? OR LOWER(abstract) LIKE ?",
			pattern, pattern, pattern)

	page, limit, offset := paginate(c)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể đếm kết quả tìm kiếm"})
		return
	}

	var theses []models.Thesis
	query = applySort(query, c.Query("sort"))
	if err := query.Limit(limit).Offset(offset).Find(&theses).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tìm kiếm luận văn"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  theses,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// GetDepartments: GET /api/theses/departments — các khoa có luận văn công khai
func GetDepartments(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	var departments []string
	if err := db.Model(&models.Thesis{}).
		Where("status = ? AND is_public = ?", models.ThesisApproved, true).
		Distinct("department").
		Order("department ASC").
		Pluck("department", &departments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể lấy danh sách khoa"})
		return
	}

	c.JSON(http.StatusOK, departments)
}

// GetThesisSupervisors: GET /api/theses/supervisors
func GetThesisSupervisors(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	var supervisors []string
	if err := db.Model(&models.Thesis{}).
		Where("status = ? AND is_public = ? AND supervisor <> ''", models.ThesisApproved, true).
		Distinct("supervisor").
		Order("supervisor ASC").
		Pluck("supervisor", &supervisors).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể lấy danh sách giảng viên hướng dẫn"})
		return
	}

	c.JSON(http.StatusOK, supervisors)
}

type departmentCount struct {
	Department string `json:"department"`
	Count      int64  `json:"count"`
}

type statusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// AnalyticsByDepartment: GET /api/theses/analytics/by-department
// Đếm luận văn công khai theo khoa (cho dashboard)
func AnalyticsByDepartment(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	var res []departmentCount
	if err := db.Model(&models.Thesis{}).
		Select("department, COUNT(*) AS count").
		Where("status = ? AND is_public = ?", models.ThesisApproved, true).
		Group("department").
		Order("count DESC").
		Scan(&res).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể thống kê theo khoa"})
		return
	}

	c.JSON(http.StatusOK, res)
}

// AnalyticsByStatus: GET /api/theses/analytics/by-status
// Đếm theo trạng thái duyệt; chỉ là số lượng, không lộ nội dung
func AnalyticsByStatus(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	var res []statusCount
	if err := db.Model(&models.Thesis{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&res).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể thống kê theo trạng thái"})
		return
	}

	c.JSON(http.StatusOK, res)
}

// GetPendingTheses: GET /api/theses/pending — dashboard duyệt (admin & supervisor)
func GetPendingTheses(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	var theses []models.Thesis
	if err := db.Preload("User").
		Where("status = ?", models.ThesisPending).
		Order("submission_date ASC").
		Find(&theses).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể lấy danh sách chờ duyệt"})
		return
	}

	c.JSON(http.StatusOK, theses)
}

// GetMyTheses: GET /api/theses/my-theses
func GetMyTheses(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userID := c.GetString("user_id")

	var theses []models.Thesis
	if err := db.Where("user_id = ?", userID).
		Order("submission_date DESC").
		Find(&theses).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể lấy danh sách luận văn của bạn"})
		return
	}

	c.JSON(http.StatusOK, theses)
}

// GetThesisDetail: GET /api/theses/:id
// Được xem khi: (approved && is_public) || chủ sở hữu || admin/supervisor
func GetThesisDetail(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	// ID sai định dạng trả 404 như không tồn tại, không lộ chi tiết
	thesisID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy luận văn"})
		return
	}

	var thesis models.Thesis
	if err := db.Preload("User").First(&thesis, "id = ?", thesisID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy luận văn"})
		return
	}

	role := c.GetString("role")
	userID := c.GetString("user_id")

	isPublic := thesis.Status == models.ThesisApproved && thesis.IsPublic
	isOwner := userID != "" && userID == thesis.UserID.String()
	isReviewer := role == string(models.RoleAdmin) || role == string(models.RoleSupervisor)

	if !isPublic && !isOwner && !isReviewer {
		c.JSON(http.StatusForbidden, gin.H{"error": "Bạn không có quyền xem luận văn này"})
		return
	}

	c.JSON(http.StatusOK, thesis)
}

type UpdateThesisInput struct {
	Title          string   `json:"title"`
	Abstract       string   `json:"abstract"`
	Keywords       []string `json:"keywords"`
	AuthorName     string   `json:"authorName"`
	Department     string   `json:"department"`
	Supervisor     string   `json:"supervisor"`
	SubmissionYear int      `json:"submissionYear"`
	IsPublic       *bool    `json:"isPublic"`
}

// UpdateThesis: PUT /api/theses/:id
// Chỉ chủ sở hữu sửa được, và chỉ khi còn pending
func UpdateThesis(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userID := c.GetString("user_id")

	thesisID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy luận văn"})
		return
	}

	var thesis models.Thesis
	if err := db.First(&thesis, "id = ?", thesisID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy luận văn"})
		return
	}

	if thesis.UserID.String() != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Chỉ chủ sở hữu được sửa luận văn"})
		return
	}
	if thesis.Status != models.ThesisPending {
		c.JSON(http.StatusForbidden, gin.H{"error": "Luận văn đã được duyệt, không thể sửa"})
		return
	}

	var input UpdateThesisInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Title != "" {
		thesis.Title = input.Title
	}
	if input.Abstract != "" {
		thesis.Abstract = input.Abstract
	}
	if input.Keywords != nil {
		thesis.Keywords = datatypes.NewJSONSlice(input.Keywords)
	}
	if input.AuthorName != "" {
		thesis.AuthorName = input.AuthorName
	}
	if input.Department != "" {
		thesis.Department = input.Department
	}
	if input.Supervisor != "" {
		thesis.Supervisor = input.Supervisor
	}
	if input.SubmissionYear > 0 {
		thesis.SubmissionYear = input.SubmissionYear
	}
	if input.IsPublic != nil {
		thesis.IsPublic = *input.IsPublic
	}

	if err := db.Save(&thesis).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi cập nhật luận văn"})
		return
	}

	ws.BroadcastThesisListChanged()
	c.JSON(http.StatusOK, thesis)
}

// DeleteThesis: DELETE /api/theses/:id
// Chủ sở hữu hoặc admin, bất kể trạng thái; xóa luôn file (best-effort)
func DeleteThesis(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userID := c.GetString("user_id")
	role := c.GetString("role")

	thesisID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy luận văn"})
		return
	}

	var thesis models.Thesis
	if err := db.First(&thesis, "id = ?", thesisID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy luận văn"})
		return
	}

	if thesis.UserID.String() != userID && role != string(models.RoleAdmin) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Bạn không có quyền xóa luận văn này"})
		return
	}

	if err := db.Delete(&thesis).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể xóa luận văn"})
		return
	}

	utils.RemoveThesisFile(thesis.FilePath)
	ws.BroadcastThesisListChanged()
	c.JSON(http.StatusOK, gin.H{"message": "Xóa thành công"})
}

// ApproveThesis: PUT /api/theses/approve/:id (admin & supervisor)
func ApproveThesis(c *gin.Context) {
	reviewThesis(c, models.ThesisApproved, "Duyệt luận văn thành công")
}

// RejectThesis: PUT /api/theses/reject/:id (admin & supervisor)
func RejectThesis(c *gin.Context) {
	reviewThesis(c, models.ThesisRejected, "Từ chối luận văn thành công")
}

// reviewThesis chuyển trạng thái duyệt. Không khóa optimistic: 2 reviewer
// cùng bấm thì lần ghi sau thắng (last-write-wins, chấp nhận được với domain này).
// Email thông báo chỉ gửi khi trạng thái thực sự đổi, nên bấm duyệt lặp lại
// không sinh thông báo trùng.
func reviewThesis(c *gin.Context, newStatus models.ThesisStatus, message string) {
	db := c.MustGet("db").(*gorm.DB)

	thesisID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy luận văn"})
		return
	}

	var thesis models.Thesis
	if err := db.First(&thesis, "id = ?", thesisID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy luận văn"})
		return
	}

	prevStatus := thesis.Status
	thesis.Status = newStatus
	if err := db.Model(&thesis).Update("status", newStatus).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể cập nhật trạng thái"})
		return
	}

	if prevStatus != newStatus {
		ws.SendReviewUpdate(thesis.ID.String(), string(newStatus))
		go notifyStatusChange(db, thesis)
	}

	c.JSON(http.StatusOK, gin.H{"message": message, "thesis": thesis})
}

// notifyStatusChange gửi email cho chủ sở hữu khi luận văn được duyệt/từ chối
func notifyStatusChange(db *gorm.DB, thesis models.Thesis) {
	var owner models.User
	if err := db.First(&owner, "id = ?", thesis.UserID).Error; err != nil {
		log.Printf("Không tìm thấy chủ sở hữu thesis %s để gửi mail: %v", thesis.ID, err)
		return
	}

	statusLabel := "đã được duyệt"
	if thesis.Status == models.ThesisRejected {
		statusLabel = "đã bị từ chối"
	}

	subject := fmt.Sprintf("Luận văn \"%s\" %s", thesis.Title, statusLabel)
	body := `
	<h3>Xin chào ` + owner.Username + `,</h3>
	<p>Luận văn <b>` + thesis.Title + `</b> của bạn ` + statusLabel + `.</p>
	<p>Đăng nhập hệ thống để xem chi tiết.</p>
	<hr>
	<p><i>Đây là email tự động, vui lòng không trả lời.</i></p>
	`
	if err := utils.SendEmail(owner.Email, subject, body); err != nil {
		// In log lỗi, không ảnh hưởng đến API chính
		log.Println("Lỗi gửi email:", err.Error())
	}
}
