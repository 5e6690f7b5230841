// Package queue cung cấp hàng đợi job phân tích luận văn.
// Submission chỉ enqueue id; worker riêng consume, trích xuất + gọi AI rồi ghi kết quả.
package queue

import "context"

// Job là 1 lần thử phân tích cho 1 thesis
type Job struct {
	ThesisID string `json:"thesis_id"`
	Attempt  int    `json:"attempt"`
}

// Handler xử lý 1 job; trả lỗi thì job được requeue (tới MaxAttempts lần)
type Handler func(ctx context.Context, job Job) error

// ExhaustedFunc được gọi khi job fail hết số lần thử
type ExhaustedFunc func(ctx context.Context, job Job)

type Queue interface {
	// Enqueue đẩy 1 thesis id vào hàng đợi, không chặn request
	Enqueue(ctx context.Context, thesisID string) error
	// Start chạy worker consume cho tới khi ctx bị hủy
	Start(ctx context.Context, handler Handler, exhausted ExhaustedFunc)
}

const DefaultMaxAttempts = 3
