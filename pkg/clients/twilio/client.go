package twilio

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

const requestTimeout = 30 * time.Second

// Client defines the interface for sending SMS through the Twilio Messaging API
type Client interface {
	// SendSMS returns ctx.Err() as soon as ctx ends, even if the request is
	// still in flight.
	SendSMS(ctx context.Context, to, body string) error
}

// messageAPI is the slice of the Twilio REST client this package uses.
type messageAPI interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

type clientImpl struct {
	api  messageAPI
	from string
}

// NewClient creates a new Twilio client sending from the given number
func NewClient(accountSid, authToken, from string) Client {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})
	client.SetTimeout(requestTimeout)

	return &clientImpl{
		api:  client.Api,
		from: from,
	}
}

func (c *clientImpl) SendSMS(ctx context.Context, to, body string) error {
	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(c.from)
	params.SetBody(body)

	type result struct {
		msg *openapi.ApiV2010Message
		err error
	}

	// The SDK call takes no context; the client timeout ends an abandoned call.
	done := make(chan result, 1)
	go func() {
		msg, err := c.api.CreateMessage(params)
		done <- result{msg, err}
	}()

	var resp *openapi.ApiV2010Message
	select {
	case r := <-done:
		if r.err != nil {
			return fmt.Errorf("error sending sms: %w", r.err)
		}
		resp = r.msg
	case <-ctx.Done():
		return fmt.Errorf("error sending sms: %w", ctx.Err())
	}

	entry := log.WithField("prefix", "twilio")
	if resp != nil && resp.Sid != nil {
		entry = entry.WithField("sid", *resp.Sid)
	}
	entry.Debug("sms accepted")
	return nil
}
