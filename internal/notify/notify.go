// Package notify delivers desktop notifications.
package notify

import (
	"fmt"
	"sync"

	"github.com/gen2brain/beeep"
)

type Notifier interface {
	Notify(title, message string) error
}

// Desktop sends notifications through the OS notification service.
type Desktop struct{}

func (Desktop) Notify(title, message string) error {
	beeep.AppName = "punchr"
	if err := beeep.Notify(title, message, ""); err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	return nil
}

// Nop discards notifications.
type Nop struct{}

func (Nop) Notify(string, string) error { return nil }

// Recorder keeps every notification in memory.
type Recorder struct {
	mu   sync.Mutex
	sent []Message
}

type Message struct {
	Title   string
	Message string
}

func (r *Recorder) Notify(title, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Message{Title: title, Message: message})
	return nil
}

func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.sent))
	copy(out, r.sent)
	return out
}
