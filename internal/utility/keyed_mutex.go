package utility

import "sync"

// KeyedMutex cung cấp mutex theo key, dùng để tuần tự hóa các thao tác
// trên cùng một tài nguyên (ví dụ: cùng một hồ sơ) mà không khóa toàn cục.
//
// Thread-safety: Safe for concurrent use
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex tạo một KeyedMutex mới
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		locks: make(map[string]*keyedLock),
	}
}

// Lock khóa mutex cho key. Các goroutine khác gọi Lock với cùng key
// sẽ chờ đến khi Unlock được gọi.
func (km *KeyedMutex) Lock(key string) {
	km.mu.Lock()
	l, ok := km.locks[key]
	if !ok {
		l = &keyedLock{}
		km.locks[key] = l
	}
	l.refs++
	km.mu.Unlock()

	l.mu.Lock()
}

// Unlock mở khóa mutex cho key.
// Lock entry được giải phóng khi không còn goroutine nào chờ.
func (km *KeyedMutex) Unlock(key string) {
	km.mu.Lock()
	l, ok := km.locks[key]
	if ok {
		l.refs--
		if l.refs <= 0 {
			delete(km.locks, key)
		}
	}
	km.mu.Unlock()

	if ok {
		l.mu.Unlock()
	}
}
