package textmagic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/messages", r.URL.Path)

		user, key, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "secret", key)

		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":99,"sessionId":5,"href":"/api/v2/sessions/5","type":"session"}`))
	}))
	defer server.Close()

	c := NewClientWithBaseURL("admin", "secret", server.URL)
	require.NoError(t, c.SendMessage(context.Background(), "+15551234567", "New user registered"))

	assert.Equal(t, "15551234567", got["phones"])
	assert.Equal(t, "New user registered", got["text"])
}

func TestSendMessage_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":401,"message":"Unauthorized"}`))
	}))
	defer server.Close()

	c := NewClientWithBaseURL("admin", "wrong", server.URL)
	err := c.SendMessage(context.Background(), "+15551234567", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestSendMessage_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClientWithBaseURL("admin", "secret", server.URL)
	require.Error(t, c.SendMessage(ctx, "+15551234567", "hi"))
}
