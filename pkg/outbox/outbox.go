package outbox

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Abraxas-365/mandrillx/pkg/errx"
	"github.com/Abraxas-365/mandrillx/pkg/logx"
	"github.com/Abraxas-365/mandrillx/pkg/mandrillx"
	"github.com/google/uuid"
)

// Queue is the storage backend of the outbox.
type Queue interface {
	Enqueue(ctx context.Context, entry *Entry) error
	EnqueueDelayed(ctx context.Context, entry *Entry, delay time.Duration) error
	Get(ctx context.Context, id string) (*Entry, error)
	// Dequeue blocks up to timeout and returns nil when nothing is ready.
	Dequeue(ctx context.Context, queue string, timeout time.Duration) (*Entry, error)
	// Save persists the entry's state.
	Save(ctx context.Context, entry *Entry) error
	Retry(ctx context.Context, entry *Entry, delay time.Duration) error
	PromoteScheduled(ctx context.Context, queue string) error
}

// Sender is the part of mandrillx.Client the worker drives.
type Sender interface {
	Open() bool
	Close()
	Send(ctx context.Context, msg *mandrillx.Message) (bool, error)
}

// Outbox queues messages and delivers them from a single worker that keeps
// one Mandrill session open for its whole run.
type Outbox struct {
	queue   Queue
	sender  Sender
	opts    Options
	newID   func() string
	now     func() time.Time
	mu      sync.Mutex
	running bool
}

// New creates an outbox.
func New(queue Queue, sender Sender, options ...Option) *Outbox {
	opts := defaultOptions()
	for _, o := range options {
		o(&opts)
	}
	return &Outbox{
		queue:  queue,
		sender: sender,
		opts:   opts,
		newID:  uuid.NewString,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Enqueue stores msg for delivery and returns the entry ID.
func (o *Outbox) Enqueue(ctx context.Context, msg *mandrillx.Message) (string, error) {
	entry, err := o.newEntry(msg)
	if err != nil {
		return "", err
	}
	if err := o.queue.Enqueue(ctx, entry); err != nil {
		return "", err
	}
	return entry.ID, nil
}

// EnqueueDelayed stores msg for delivery after delay.
func (o *Outbox) EnqueueDelayed(ctx context.Context, msg *mandrillx.Message, delay time.Duration) (string, error) {
	entry, err := o.newEntry(msg)
	if err != nil {
		return "", err
	}
	if err := o.queue.EnqueueDelayed(ctx, entry, delay); err != nil {
		return "", err
	}
	return entry.ID, nil
}

func (o *Outbox) newEntry(msg *mandrillx.Message) (*Entry, error) {
	if len(msg.Recipients()) == 0 {
		return nil, outboxErrors.NewWithMessage(ErrInvalidMessage, "Message has no recipients")
	}

	queued := *msg
	queued.Response = nil
	data, err := json.Marshal(&queued)
	if err != nil {
		return nil, outboxErrors.NewWithCause(ErrInvalidMessage, err)
	}
	return NewEntry(o.newID(), o.opts.Queue, data, o.opts.MaxAttempts, o.now()), nil
}

// Get returns an entry by ID.
func (o *Outbox) Get(ctx context.Context, id string) (*Entry, error) {
	return o.queue.Get(ctx, id)
}

// Run delivers queued messages until ctx is cancelled.
func (o *Outbox) Run(ctx context.Context) error {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return outboxErrors.New(ErrAlreadyRunning)
	}
	o.running = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()

	if o.sender.Open() {
		defer o.sender.Close()
	}

	logx.Infof("outbox: delivering from queue %q", o.opts.Queue)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		o.schedulerLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		o.workerLoop(ctx)
	}()

	<-ctx.Done()
	logx.Info("outbox: shutting down...")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logx.Info("outbox: worker stopped")
	case <-time.After(o.opts.ShutdownTimeout):
		logx.Warn("outbox: shutdown timed out, a send may not have completed")
	}

	return nil
}

func (o *Outbox) schedulerLoop(ctx context.Context) {
	ticker := time.NewTicker(o.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := o.queue.PromoteScheduled(ctx, o.opts.Queue); err != nil {
				if ctx.Err() != nil {
					return
				}
				logx.WithError(err).Warn("outbox: failed to promote scheduled messages")
			}
		}
	}
}

func (o *Outbox) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		entry, err := o.queue.Dequeue(ctx, o.opts.Queue, o.opts.DequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logx.WithError(err).Warn("outbox: dequeue error")
			time.Sleep(o.opts.PollInterval)
			continue
		}
		if entry == nil {
			continue
		}

		o.process(ctx, entry)
	}
}

// process sends one dequeued entry and records the outcome. Only transport
// errors are retried.
func (o *Outbox) process(ctx context.Context, entry *Entry) {
	log := logx.WithFields(logx.Fields{"entry_id": entry.ID, "attempt": entry.Attempts})

	msg, err := entry.DecodeMessage()
	if err != nil {
		entry.Failed(err.Error(), nil, false, o.now())
		o.save(ctx, entry)
		log.WithError(err).Error("outbox: dropping undecodable message")
		return
	}

	ok, err := o.sender.Send(ctx, msg)
	switch {
	case err == nil && ok:
		entry.Sent(msg.Response, o.now())
		o.save(ctx, entry)
		log.Info("outbox: message sent")

	case err == nil:
		entry.Failed(outboxErrors.New(ErrNotSent).Error(), msg.Response, false, o.now())
		o.save(ctx, entry)
		log.Warn("outbox: message was not sent")

	default:
		retryable := errx.TypeOf(err) == errx.TypeExternal
		retry := entry.Failed(err.Error(), msg.Response, retryable, o.now())
		o.save(ctx, entry)
		if !retry {
			log.WithError(err).Error("outbox: message failed permanently")
			return
		}
		log.WithError(err).Warnf("outbox: retrying in %s", o.opts.RetryDelay)
		if rErr := o.queue.Retry(ctx, entry, o.opts.RetryDelay); rErr != nil {
			log.WithError(rErr).Error("outbox: failed to schedule retry")
		}
	}
}

func (o *Outbox) save(ctx context.Context, entry *Entry) {
	if err := o.queue.Save(ctx, entry); err != nil {
		logx.WithError(err).Errorf("outbox: failed to save entry %s", entry.ID)
	}
}
