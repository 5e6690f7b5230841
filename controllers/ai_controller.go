package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/e-thesis-backend/services"
)

type CheckTextInput struct {
	Text string `json:"text" binding:"required"`
}

// CheckGrammar: POST /api/theses/check-grammar — proxy sang AI service
func CheckGrammar(c *gin.Context) {
	var input CheckTextInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Thiếu văn bản cần kiểm tra"})
		return
	}

	result, err := services.NewAnalyzer().CheckGrammar(c.Request.Context(), input.Text)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể kiểm tra ngữ pháp"})
		return
	}

	c.Data(http.StatusOK, "application/json", result)
}

// CheckPlagiarism: POST /api/theses/check-plagiarism
func CheckPlagiarism(c *gin.Context) {
	var input CheckTextInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Thiếu văn bản cần kiểm tra"})
		return
	}

	result, err := services.NewAnalyzer().CheckPlagiarism(c.Request.Context(), input.Text)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể quét đạo văn"})
		return
	}

	c.Data(http.StatusOK, "application/json", result)
}
