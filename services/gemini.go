package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiGenerateText: hàm gọn để xử lý prompt và trả kết quả từ Gemini
func GeminiGenerateText(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(os.Getenv("GEMINI_API_KEY")))
	if err != nil {
		return "", fmt.Errorf("không thể tạo Gemini client: %v", err)
	}
	defer client.Close()

	model := client.GenerativeModel("gemini-2.0-flash")
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("lỗi Gemini xử lý: %v", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini không trả kết quả hợp lệ")
	}
	return fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]), nil
}

// GeminiAnalyze dùng Gemini thay cho AI service khi AI_SERVICE_URL không được set
func GeminiAnalyze(ctx context.Context, text string) (*AnalysisResult, error) {
	// Giới hạn đầu vào cho an toàn với context window
	if len(text) > 30000 {
		text = text[:30000]
	}

	prompt := "Phân tích văn bản luận văn sau. Trả về DUY NHẤT một JSON object dạng " +
		`{"summary": "...", "keywords": ["..."], "sentiment": "Positive|Neutral|Negative"} ` +
		"không kèm markdown.\n\n" + text

	out, err := GeminiGenerateText(ctx, prompt)
	if err != nil {
		return nil, err
	}

	// Gemini đôi khi bọc JSON trong ```json ... ```
	out = strings.TrimSpace(out)
	out = strings.TrimPrefix(out, "```json")
	out = strings.TrimPrefix(out, "```")
	out = strings.TrimSuffix(out, "```")

	var result AnalysisResult
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &result); err != nil {
		return nil, fmt.Errorf("không parse được kết quả Gemini: %v", err)
	}
	return &result, nil
}
