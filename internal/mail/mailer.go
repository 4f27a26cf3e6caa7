package mail

import (
	"sync"

	config "github.com/scissor-io/scissor/config"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Sender delivers a single message. Delivery is best-effort: the service
// never blocks a request on transport latency or retries a failed send.
type Sender interface {
	Send(to, subject, body string) error
}

// SMTPSender sends mail over SMTP using gomail.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(cfg *config.Config) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:   cfg.SMTPFrom,
	}
}

func (s *SMTPSender) Send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	return s.dialer.DialAndSend(m)
}

type message struct {
	to      string
	subject string
	body    string
}

// Dispatcher hands messages to a pool of worker goroutines so HTTP requests
// return as soon as a send is enqueued, not once delivery completes.
type Dispatcher struct {
	sender  Sender
	queue   chan message
	wg      sync.WaitGroup
	closing sync.Once
	logger  *zap.Logger
}

func NewDispatcher(sender Sender, workers, queueSize int) *Dispatcher {
	d := &Dispatcher{
		sender: sender,
		queue:  make(chan message, queueSize),
		logger: zap.L().With(zap.String("component", "MailDispatcher")),
	}

	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Enqueue never blocks: when the queue is full the message is dropped with a
// logged warning. Delivery is fire-and-forget.
func (d *Dispatcher) Enqueue(to, subject, body string) {
	select {
	case d.queue <- message{to: to, subject: subject, body: body}:
	default:
		d.logger.Warn("mail queue full, dropping message", zap.String("to", to))
	}
}

// Close stops accepting messages and waits for in-flight sends to finish.
func (d *Dispatcher) Close() {
	d.closing.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for msg := range d.queue {
		if err := d.sender.Send(msg.to, msg.subject, msg.body); err != nil {
			d.logger.Warn("mail delivery failed",
				zap.String("to", msg.to),
				zap.Error(err),
			)
		}
	}
}
