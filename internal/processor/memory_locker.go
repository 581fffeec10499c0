package processor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLocker 进程内单飞锁，未配置 Redis 时使用
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]memoryLock
	clock func() time.Time
}

type memoryLock struct {
	token   string
	expires time.Time
}

var _ Locker = (*MemoryLocker)(nil)

// NewMemoryLocker 创建进程内锁
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]memoryLock), clock: time.Now}
}

// AcquireLock 与 Redis SET NX 语义一致，过期的锁可以被重新获取
func (m *MemoryLocker) AcquireLock(_ context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()
	if l, ok := m.held[key]; ok && now.Before(l.expires) {
		return "", nil
	}
	token := uuid.NewString()
	m.held[key] = memoryLock{token: token, expires: now.Add(ttl)}
	return token, nil
}

// ReleaseLock 只有持有者可以释放
func (m *MemoryLocker) ReleaseLock(_ context.Context, key string, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.held[key]
	if !ok || l.token != token {
		return false, nil
	}
	delete(m.held, key)
	return true, nil
}
