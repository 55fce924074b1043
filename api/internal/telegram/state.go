package telegram

import "sync"

// busyChats lets one document per chat run at a time.
type busyChats struct{ m sync.Map }

func (b *busyChats) acquire(chatID int64) bool {
	_, loaded := b.m.LoadOrStore(chatID, struct{}{})
	return !loaded
}

func (b *busyChats) release(chatID int64) { b.m.Delete(chatID) }
