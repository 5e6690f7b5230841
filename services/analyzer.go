package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// AnalysisResult là kết quả từ endpoint /analyze của AI service
type AnalysisResult struct {
	Summary   string   `json:"summary"`
	Keywords  []string `json:"keywords"`
	Sentiment string   `json:"sentiment"`
}

// Analyzer gọi AI service bên ngoài qua HTTP.
// Nếu không cấu hình AI_SERVICE_URL thì fallback sang Gemini.
type Analyzer struct {
	BaseURL string
	Client  *http.Client
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{
		BaseURL: os.Getenv("AI_SERVICE_URL"),
		Client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Analyze gửi văn bản cho AI service, trả về summary/keywords/sentiment
func (a *Analyzer) Analyze(ctx context.Context, text string) (*AnalysisResult, error) {
	if a.BaseURL == "" {
		return GeminiAnalyze(ctx, text)
	}

	body, err := a.postJSON(ctx, "/analyze", map[string]string{"text": text})
	if err != nil {
		return nil, err
	}

	var result AnalysisResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("không parse được kết quả phân tích: %v", err)
	}
	return &result, nil
}

// CheckGrammar proxy sang endpoint /check-grammar, trả nguyên JSON của AI service
func (a *Analyzer) CheckGrammar(ctx context.Context, text string) (json.RawMessage, error) {
	return a.postJSON(ctx, "/check-grammar", map[string]string{"text": text})
}

// CheckPlagiarism proxy sang endpoint /check-plagiarism
func (a *Analyzer) CheckPlagiarism(ctx context.Context, text string) (json.RawMessage, error) {
	return a.postJSON(ctx, "/check-plagiarism", map[string]string{"text": text})
}

func (a *Analyzer) postJSON(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	if a.BaseURL == "" {
		return nil, fmt.Errorf("AI_SERVICE_URL is not set")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("AI service trả lỗi (%d): %s", resp.StatusCode, string(respData))
	}

	return respData, nil
}
