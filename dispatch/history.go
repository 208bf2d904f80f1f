package dispatch

import "sync"

// History is the append-only conversation, written by the loop only
type History struct {
	lock     sync.RWMutex
	messages []Message
}

// Messages returns a copy of the history
func (h *History) Messages() []Message {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return append([]Message(nil), h.messages...)
}

// Len returns the number of messages
func (h *History) Len() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.messages)
}

func (h *History) append(msgs ...Message) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.messages = append(h.messages, msgs...)
}

// truncate drops messages after n, restoring the state of an earlier Len
func (h *History) truncate(n int) {
	h.lock.Lock()
	defer h.lock.Unlock()
	if n < len(h.messages) {
		clear(h.messages[n:])
		h.messages = h.messages[:n]
	}
}

func (h *History) reset() {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.messages = nil
}
