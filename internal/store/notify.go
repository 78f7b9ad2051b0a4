package store

import "sync"

const (
	LevelInfo  = "info"
	LevelError = "error"
)

// Notification is a transient, user-visible message. Remote failures are
// described in general terms here; raw transport errors stay in the logs.
type Notification struct {
	Level   string `json:"level"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Notifier interface {
	Notify(n Notification)
}

// Buffer collects notifications per gateway session; the HTTP layer drains it
// into each response as flash messages.
type Buffer struct {
	mu      sync.Mutex
	pending []Notification
}

func (b *Buffer) Notify(n Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, n)
}

func (b *Buffer) Drain() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.pending
	b.pending = nil
	return out
}

func info(code, message string) Notification {
	return Notification{Level: LevelInfo, Code: code, Message: message}
}

func failure(code, message string) Notification {
	return Notification{Level: LevelError, Code: code, Message: message}
}
