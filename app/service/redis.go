package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/encoding/json"
	"marcel.works/pointing/app/model"
)

const historyKeyPrefix = "pointing:history:"

type RedisService struct {
	Client *redis.Client
	TTL    time.Duration
}

func (s *RedisService) Connect(ctx context.Context, host, auth string) error {
	s.Client = redis.NewClient(&redis.Options{
		Addr:     host,
		Password: auth,
		DB:       0,
	})
	return s.Client.Ping(ctx).Err()
}

func (s *RedisService) Close() error {
	return s.Client.Close()
}

// AppendVotedTask pushes task onto the session's history list and refreshes
// the list's expiry.
func (s *RedisService) AppendVotedTask(ctx context.Context, code string, task model.VotedTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode voted task: %w", err)
	}
	key := historyKey(code)
	_, err = s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, payload)
		if s.TTL > 0 {
			pipe.Expire(ctx, key, s.TTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append history %s: %w", code, err)
	}
	return nil
}

func (s *RedisService) VotedTasks(ctx context.Context, code string) ([]model.VotedTask, error) {
	payloads, err := s.Client.LRange(ctx, historyKey(code), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read history %s: %w", code, err)
	}
	tasks := make([]model.VotedTask, 0, len(payloads))
	for _, payload := range payloads {
		var task model.VotedTask
		if err := json.Unmarshal([]byte(payload), &task); err != nil {
			return nil, fmt.Errorf("decode voted task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func historyKey(code string) string {
	return historyKeyPrefix + code
}
