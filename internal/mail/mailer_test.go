package mail

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []string
}

func (s *recordingSender) Send(to, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to)
	return nil
}

func TestDispatcherDeliversEnqueuedMail(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	zap.ReplaceGlobals(logger)

	sender := &recordingSender{}
	d := NewDispatcher(sender, 2, 8)

	d.Enqueue("a@example.com", "subject", "body")
	d.Enqueue("b@example.com", "subject", "body")
	d.Close()

	assert.ElementsMatch(t, []string{"a@example.com", "b@example.com"}, sender.sent)
}

func TestDispatcherDropsWhenQueueFull(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	zap.ReplaceGlobals(logger)

	// No workers: nothing drains the queue, so only queueSize messages fit.
	sender := &recordingSender{}
	d := &Dispatcher{
		sender: sender,
		queue:  make(chan message, 1),
		logger: zap.L(),
	}

	d.Enqueue("a@example.com", "s", "b")
	d.Enqueue("b@example.com", "s", "b") // dropped, must not block

	assert.Len(t, d.queue, 1)
}
