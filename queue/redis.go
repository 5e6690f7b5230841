package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisQueueKey = "thesis:analysis:queue"

// RedisQueue là hàng đợi dựa trên Redis list (LPUSH/BRPOP).
// Job sống sót qua restart process, nhiều worker có thể cùng consume.
type RedisQueue struct {
	client      *redis.Client
	key         string
	MaxAttempts int
}

func NewRedisQueue(addr, password string) (*RedisQueue, error) {
	if addr == "" {
		return nil, errors.New("redis addr required")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisQueue{
		client:      client,
		key:         redisQueueKey,
		MaxAttempts: DefaultMaxAttempts,
	}, nil
}

func (q *RedisQueue) Enqueue(ctx context.Context, thesisID string) error {
	return q.push(ctx, Job{ThesisID: thesisID, Attempt: 1})
}

func (q *RedisQueue) push(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, data).Err()
}

func (q *RedisQueue) Start(ctx context.Context, handler Handler, exhausted ExhaustedFunc) {
	go func() {
		for {
			if ctx.Err() != nil {
				return
			}

			// BRPOP với timeout ngắn để còn kiểm tra ctx
			res, err := q.client.BRPop(ctx, 2*time.Second, q.key).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) || ctx.Err() != nil {
					continue
				}
				log.Printf("Lỗi đọc hàng đợi redis: %v", err)
				time.Sleep(time.Second)
				continue
			}
			if len(res) < 2 {
				continue
			}

			var job Job
			if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
				log.Printf("Job không hợp lệ trong hàng đợi: %v", err)
				continue
			}

			if err := handler(ctx, job); err != nil {
				log.Printf("Job phân tích thesis %s thất bại (lần %d): %v", job.ThesisID, job.Attempt, err)
				if job.Attempt < q.MaxAttempts {
					job.Attempt++
					if pushErr := q.push(ctx, job); pushErr == nil {
						continue
					}
				}
				if exhausted != nil {
					exhausted(ctx, job)
				}
			}
		}
	}()
}
