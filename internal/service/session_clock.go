package service

import (
	"fmt"
	"time"
)

// SessionClock 计算一次答题的已用时并判定超时。
// 无状态：起算点持久化在 Result.StartedAt，每次提交都从它重算，
// 客户端回显的剩余时间从不参与判定。
type SessionClock struct {
	Now func() time.Time
}

func NewSessionClock() SessionClock {
	return SessionClock{Now: time.Now}
}

func (c SessionClock) Elapsed(startedAt time.Time) time.Duration {
	return c.Now().Sub(startedAt)
}

// Expired 严格大于：elapsed == limit 尚未超时。limit<=0 表示不限时。
func (c SessionClock) Expired(elapsed time.Duration, limit time.Duration) bool {
	if limit <= 0 {
		return false
	}
	return elapsed > limit
}

// FormatClock MM:SS 展示格式
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
