package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "form-intake/pkg/errors"
	"form-intake/pkg/models"
)

var ann = models.UserRecord{
	ID:        "u1",
	Name:      "Ann",
	Email:     "ann@example.com",
	Mobile:    "+15551234567",
	Checkbox1: true,
}

type recordingNotifier struct {
	mu      sync.Mutex
	got     []models.UserRecord
	err     error
	release chan struct{}
}

func (r *recordingNotifier) Notify(ctx context.Context, rec models.UserRecord) error {
	if r.release != nil {
		select {
		case <-r.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, rec)
	return r.err
}

func (r *recordingNotifier) Channel() string { return "test" }

func (r *recordingNotifier) received() []models.UserRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.UserRecord(nil), r.got...)
}

func TestFormatMessage_IncludesEveryField(t *testing.T) {
	msg := FormatMessage(ann)

	assert.Equal(t, "New user registered\nID: u1\nName: Ann\nEmail: ann@example.com\nMobile: +15551234567\nConsent: yes", msg)

	rec := ann
	rec.Checkbox1 = false
	assert.Contains(t, FormatMessage(rec), "Consent: no")
}

type fakeChat struct {
	chat, text string
	err        error
}

func (f *fakeChat) Send(_ context.Context, chat, text string) error {
	f.chat, f.text = chat, text
	return f.err
}

type fakeSMS struct {
	to, body string
	err      error
}

func (f *fakeSMS) SendSMS(_ context.Context, to, body string) error {
	f.to, f.body = to, body
	return f.err
}

type fakePhone struct {
	phone, message string
	err            error
}

func (f *fakePhone) SendMessage(_ context.Context, phone, message string) error {
	f.phone, f.message = phone, message
	return f.err
}

// stalledTransport blocks every send until release is closed, whatever ctx says.
type stalledTransport struct {
	release chan struct{}
}

func (s *stalledTransport) Send(context.Context, string, string) error {
	<-s.release
	return nil
}

func (s *stalledTransport) SendSMS(context.Context, string, string) error {
	<-s.release
	return nil
}

func TestChannelNotifiers(t *testing.T) {
	ctx := context.Background()

	chat := &fakeChat{}
	require.NoError(t, NewChatNotifier(chat, "42").Notify(ctx, ann))
	assert.Equal(t, "42", chat.chat)
	assert.Equal(t, FormatMessage(ann), chat.text)

	sms := &fakeSMS{}
	require.NoError(t, NewSMSNotifier(sms, "+15550000000").Notify(ctx, ann))
	assert.Equal(t, "+15550000000", sms.to)
	assert.Equal(t, FormatMessage(ann), sms.body)

	phone := &fakePhone{}
	require.NoError(t, NewPhoneNotifier(phone, "+15550000000").Notify(ctx, ann))
	assert.Equal(t, "+15550000000", phone.phone)
	assert.Equal(t, FormatMessage(ann), phone.message)

	require.NoError(t, Discard().Notify(ctx, ann))
}

func TestChannelNotifiers_WrapFailures(t *testing.T) {
	cause := errors.New("network unreachable")
	ctx := context.Background()

	for _, n := range []Notifier{
		NewChatNotifier(&fakeChat{err: cause}, "42"),
		NewSMSNotifier(&fakeSMS{err: cause}, "+15550000000"),
		NewPhoneNotifier(&fakePhone{err: cause}, "+15550000000"),
	} {
		err := n.Notify(ctx, ann)
		require.Error(t, err, n.Channel())
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotify), n.Channel())
		assert.ErrorIs(t, err, cause)
	}
}

func TestDispatcher_DeliversAndDrainsOnClose(t *testing.T) {
	n := &recordingNotifier{}
	d := NewDispatcher(n, 8)

	for i := 0; i < 5; i++ {
		require.True(t, d.Enqueue(ann))
	}

	require.NoError(t, d.Close(context.Background()))
	assert.Len(t, n.received(), 5)
}

func TestDispatcher_FailuresAreSwallowed(t *testing.T) {
	n := &recordingNotifier{err: errors.New("boom")}
	d := NewDispatcher(n, 1)

	require.True(t, d.Enqueue(ann))
	require.NoError(t, d.Close(context.Background()))
	assert.Len(t, n.received(), 1)
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	n := &recordingNotifier{release: make(chan struct{})}
	d := NewDispatcher(n, 1)

	// The worker takes the first record and blocks; the second fills the queue.
	require.True(t, d.Enqueue(ann))
	require.Eventually(t, func() bool { return len(d.queue) == 0 }, time.Second, 5*time.Millisecond)
	require.True(t, d.Enqueue(ann))

	assert.False(t, d.Enqueue(ann))

	close(n.release)
	require.NoError(t, d.Close(context.Background()))
	assert.Len(t, n.received(), 2)
}

func TestDispatcher_RejectsAfterClose(t *testing.T) {
	d := NewDispatcher(&recordingNotifier{}, 4)
	require.NoError(t, d.Close(context.Background()))
	require.NoError(t, d.Close(context.Background()))

	assert.False(t, d.Enqueue(ann))
}

func TestDispatcher_CloseDeadline(t *testing.T) {
	n := &recordingNotifier{release: make(chan struct{})}
	d := NewDispatcher(n, 4)
	require.True(t, d.Enqueue(ann))
	require.True(t, d.Enqueue(ann))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := d.Close(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, n.received())
}

func TestDispatcher_CloseDeadlineWithStalledTransport(t *testing.T) {
	transport := &stalledTransport{release: make(chan struct{})}
	t.Cleanup(func() { close(transport.release) })

	for _, n := range []Notifier{
		NewChatNotifier(transport, "42"),
		NewSMSNotifier(transport, "+15550000000"),
	} {
		t.Run(n.Channel(), func(t *testing.T) {
			d := NewDispatcher(n, 4)
			require.True(t, d.Enqueue(ann))
			require.True(t, d.Enqueue(ann))

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			start := time.Now()
			err := d.Close(ctx)
			assert.ErrorIs(t, err, context.DeadlineExceeded)
			assert.Less(t, time.Since(start), time.Second)
		})
	}
}
