package twilio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeMessageAPI struct {
	params []*openapi.CreateMessageParams
	err    error
}

func (f *fakeMessageAPI) CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
	f.params = append(f.params, params)
	if f.err != nil {
		return nil, f.err
	}
	sid := "SM123"
	return &openapi.ApiV2010Message{Sid: &sid}, nil
}

// stalledMessageAPI never answers until release is closed.
type stalledMessageAPI struct {
	release chan struct{}
}

func (s *stalledMessageAPI) CreateMessage(*openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
	<-s.release
	return nil, errors.New("connection reset")
}

func TestSendSMS(t *testing.T) {
	api := &fakeMessageAPI{}
	c := &clientImpl{api: api, from: "+15550000000"}

	require.NoError(t, c.SendSMS(context.Background(), "+15551234567", "New user registered"))

	require.Len(t, api.params, 1)
	p := api.params[0]
	assert.Equal(t, "+15551234567", *p.To)
	assert.Equal(t, "+15550000000", *p.From)
	assert.Equal(t, "New user registered", *p.Body)
}

func TestSendSMS_Error(t *testing.T) {
	api := &fakeMessageAPI{err: errors.New("status: 401")}
	c := &clientImpl{api: api, from: "+15550000000"}

	err := c.SendSMS(context.Background(), "+15551234567", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error sending sms")
}

func TestSendSMS_ReturnsWhenContextEnds(t *testing.T) {
	api := &stalledMessageAPI{release: make(chan struct{})}
	t.Cleanup(func() { close(api.release) })
	c := &clientImpl{api: api, from: "+15550000000"}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := c.SendSMS(ctx, "+15551234567", "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
