package email

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendDeliversPayload(t *testing.T) {
	var gotAuth string
	var gotBody sendRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &gotBody))

		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClient("test-key", "billing@example.com")
	c.baseURL = srv.URL

	err := c.Send(context.Background(), "owner@example.com", "세금 납부 알림", "<p>hello</p>", "hello")
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	require.Len(t, gotBody.Personalizations, 1)
	assert.Equal(t, "owner@example.com", gotBody.Personalizations[0].To[0].Email)
	assert.Equal(t, "세금 납부 알림", gotBody.Personalizations[0].Subject)
	assert.Equal(t, "billing@example.com", gotBody.From.Email)
	require.Len(t, gotBody.Content, 2)
	// text/plain must come before text/html
	assert.Equal(t, "text/plain", gotBody.Content[0].Type)
	assert.Equal(t, "text/html", gotBody.Content[1].Type)
}

func TestSendOmitsEmptyText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req sendRequest
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &req))
		require.Len(t, req.Content, 1)
		assert.Equal(t, "text/html", req.Content[0].Type)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClient("test-key", "")
	c.baseURL = srv.URL

	require.NoError(t, c.Send(context.Background(), "owner@example.com", "subject", "<p>x</p>", ""))
}

func TestSendReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient("bad-key", "")
	c.baseURL = srv.URL

	err := c.Send(context.Background(), "owner@example.com", "subject", "<p>x</p>", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSendWithoutAPIKey(t *testing.T) {
	c := NewClient("", "")
	assert.False(t, c.Configured())

	err := c.Send(context.Background(), "owner@example.com", "subject", "<p>x</p>", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
