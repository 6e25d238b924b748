package notify

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	apperrors "form-intake/pkg/errors"
	"form-intake/pkg/models"
)

const sendTimeout = 15 * time.Second

var notifications = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "formintake_notifications_total",
		Help: "Administrator notifications by outcome",
	},
	[]string{"channel", "result"},
)

// Dispatcher hands notifications to a single background worker so the
// submitting request never waits on the notifier. The queue is bounded; when
// it is full the notification is dropped and logged. Failed sends are logged
// and never retried.
type Dispatcher struct {
	notifier Notifier
	queue    chan models.UserRecord
	done     chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher starts the worker. size is the queue capacity.
func NewDispatcher(n Notifier, size int) *Dispatcher {
	if size < 1 {
		size = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		notifier: n,
		queue:    make(chan models.UserRecord, size),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}

	go d.run()
	return d
}

// Enqueue schedules a notification for rec and reports whether it was
// accepted. It never blocks.
func (d *Dispatcher) Enqueue(rec models.UserRecord) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(rec, "dispatcher closed")
		return false
	}

	select {
	case d.queue <- rec:
		return true
	default:
		d.drop(rec, "queue full")
		return false
	}
}

// Close stops accepting work and waits for queued notifications to be sent.
// If ctx ends first, the in-flight send is canceled, the rest of the queue is
// dropped and ctx.Err() is returned without waiting for the worker.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)

	for rec := range d.queue {
		if d.ctx.Err() != nil {
			d.drop(rec, "shutdown deadline reached")
			continue
		}
		d.send(rec)
	}
}

func (d *Dispatcher) send(rec models.UserRecord) {
	ctx, cancel := context.WithTimeout(d.ctx, sendTimeout)
	defer cancel()

	channel := d.notifier.Channel()
	if err := d.notifier.Notify(ctx, rec); err != nil {
		notifications.WithLabelValues(channel, "failed").Inc()
		log.WithField("prefix", "notify").
			WithField("channel", channel).
			WithField("code", apperrors.CodeOf(err)).
			WithField("id", rec.ID).
			WithError(err).
			Error("admin notification failed")
		return
	}

	notifications.WithLabelValues(channel, "sent").Inc()
	log.WithField("prefix", "notify").WithField("channel", channel).WithField("id", rec.ID).Debug("admin notified")
}

func (d *Dispatcher) drop(rec models.UserRecord, reason string) {
	notifications.WithLabelValues(d.notifier.Channel(), "dropped").Inc()
	log.WithField("prefix", "notify").
		WithField("id", rec.ID).
		WithField("reason", reason).
		Warn("admin notification dropped")
}
