package taskstore

import "sync"

// Notice is the last user-facing message a store produced.
type Notice struct {
	Message string `json:"message"`
	Error   bool   `json:"error"`
}

// NoticeBoard holds a Notice for concurrent readers.
type NoticeBoard struct {
	mu     sync.RWMutex
	notice Notice
}

func (b *NoticeBoard) Set(message string, isError bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.notice = Notice{Message: message, Error: isError}
}

func (b *NoticeBoard) Get() Notice {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.notice
}
