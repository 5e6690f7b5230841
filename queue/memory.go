package queue

import (
	"context"
	"errors"
	"log"
)

// MemoryQueue là hàng đợi in-process dùng channel.
// Dùng khi không cấu hình REDIS_ADDR (chạy đơn giản 1 process) và trong test.
type MemoryQueue struct {
	jobs        chan Job
	MaxAttempts int
}

func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 256
	}
	return &MemoryQueue{
		jobs:        make(chan Job, size),
		MaxAttempts: DefaultMaxAttempts,
	}
}

func (q *MemoryQueue) Enqueue(_ context.Context, thesisID string) error {
	select {
	case q.jobs <- Job{ThesisID: thesisID, Attempt: 1}:
		return nil
	default:
		return errors.New("hàng đợi phân tích đã đầy")
	}
}

func (q *MemoryQueue) Start(ctx context.Context, handler Handler, exhausted ExhaustedFunc) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case job := <-q.jobs:
				if err := handler(ctx, job); err != nil {
					log.Printf("Job phân tích thesis %s thất bại (lần %d): %v", job.ThesisID, job.Attempt, err)
					if job.Attempt < q.MaxAttempts {
						job.Attempt++
						// requeue; nếu đầy thì coi như hết lượt
						select {
						case q.jobs <- job:
							continue
						default:
						}
					}
					if exhausted != nil {
						exhausted(ctx, job)
					}
				}
			}
		}
	}()
}
