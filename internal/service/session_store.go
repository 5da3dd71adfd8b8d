package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// SessionStore 保存每次答题会话的倒计时展示值。
// 仅用于前端倒计时的显示连续性；超时判定一律以 Result.StartedAt
// 服务端重算，这里的值不作依据。
type SessionStore interface {
	SetClockBegin(ctx context.Context, userID, testID uint, begin time.Time) error
	ClockBegin(ctx context.Context, userID, testID uint) (time.Time, error)
	SetTimeLeft(ctx context.Context, userID, testID uint, display string) error
	TimeLeft(ctx context.Context, userID, testID uint) (string, error)
	Clear(ctx context.Context, userID, testID uint) error
}

const sessionTTL = 24 * time.Hour

type RedisSessionStore struct {
	Client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{Client: client}
}

func beginKey(userID, testID uint) string {
	return fmt.Sprintf("easytest:session:%d:%d:test_time_begin", userID, testID)
}

func leftKey(userID, testID uint) string {
	return fmt.Sprintf("easytest:session:%d:%d:test_time", userID, testID)
}

func (s *RedisSessionStore) SetClockBegin(ctx context.Context, userID, testID uint, begin time.Time) error {
	return s.Client.Set(ctx, beginKey(userID, testID), begin.Unix(), sessionTTL).Err()
}

func (s *RedisSessionStore) ClockBegin(ctx context.Context, userID, testID uint) (time.Time, error) {
	val, err := s.Client.Get(ctx, beginKey(userID, testID)).Result()
	if err != nil {
		return time.Time{}, err
	}
	sec, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, 0), nil
}

func (s *RedisSessionStore) SetTimeLeft(ctx context.Context, userID, testID uint, display string) error {
	return s.Client.Set(ctx, leftKey(userID, testID), display, sessionTTL).Err()
}

func (s *RedisSessionStore) TimeLeft(ctx context.Context, userID, testID uint) (string, error) {
	return s.Client.Get(ctx, leftKey(userID, testID)).Result()
}

func (s *RedisSessionStore) Clear(ctx context.Context, userID, testID uint) error {
	return s.Client.Del(ctx, beginKey(userID, testID), leftKey(userID, testID)).Err()
}

// MemorySessionStore 进程内实现，开发与测试用
type MemorySessionStore struct {
	mu     sync.RWMutex
	begins map[string]time.Time
	lefts  map[string]string
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		begins: make(map[string]time.Time),
		lefts:  make(map[string]string),
	}
}

func (s *MemorySessionStore) SetClockBegin(ctx context.Context, userID, testID uint, begin time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.begins[beginKey(userID, testID)] = begin
	return nil
}

func (s *MemorySessionStore) ClockBegin(ctx context.Context, userID, testID uint) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	begin, ok := s.begins[beginKey(userID, testID)]
	if !ok {
		return time.Time{}, redis.Nil
	}
	return begin, nil
}

func (s *MemorySessionStore) SetTimeLeft(ctx context.Context, userID, testID uint, display string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lefts[leftKey(userID, testID)] = display
	return nil
}

func (s *MemorySessionStore) TimeLeft(ctx context.Context, userID, testID uint) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	left, ok := s.lefts[leftKey(userID, testID)]
	if !ok {
		return "", redis.Nil
	}
	return left, nil
}

func (s *MemorySessionStore) Clear(ctx context.Context, userID, testID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.begins, beginKey(userID, testID))
	delete(s.lefts, leftKey(userID, testID))
	return nil
}
