package sendgrid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guan-wang/guans-lala-land/internal/platform/logger"
)

func TestSendBuildsMailRequest(t *testing.T) {
	var wire mailSendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer SG.test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&wire))
		w.Header().Set("X-Message-Id", "msg-1")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c, err := New(logger.Nop(), Config{APIKey: "SG.test", BaseURL: srv.URL, DefaultFromEmail: "tutor@example.com"})
	require.NoError(t, err)

	res, err := c.Send(context.Background(), SendEmailRequest{
		To:      []EmailAddress{{Email: "learner@example.com"}},
		Subject: " 오늘의 한국어 ",
		HTML:    "<p>hi</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, res.StatusCode)
	assert.Equal(t, "msg-1", res.MessageID)

	assert.Equal(t, "tutor@example.com", wire.From.Email)
	assert.Equal(t, "오늘의 한국어", wire.Subject)
	require.Len(t, wire.Content, 1)
	assert.Equal(t, "text/html", wire.Content[0].Type)
	require.Len(t, wire.Personalizations, 1)
	assert.Equal(t, "learner@example.com", wire.Personalizations[0].To[0].Email)
}

func TestZeroRetriesSendsOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"errors":[{"message":"rate limited"}]}`))
	}))
	defer srv.Close()

	c, err := New(logger.Nop(), Config{APIKey: "k", BaseURL: srv.URL, DefaultFromEmail: "a@b.c"})
	require.NoError(t, err)

	_, err = c.Send(context.Background(), SendEmailRequest{
		To: []EmailAddress{{Email: "x@y.z"}}, Subject: "s", HTML: "<p/>",
	})
	var he *HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "sendgrid http 429: rate limited", he.Error())
	assert.Equal(t, int32(1), calls.Load())
}

func TestSendValidates(t *testing.T) {
	c, err := New(logger.Nop(), Config{APIKey: "k"})
	require.NoError(t, err)
	_, err = c.Send(context.Background(), SendEmailRequest{To: []EmailAddress{{Email: "x@y.z"}}, Subject: "s", HTML: "h"})
	require.ErrorContains(t, err, "From.Email")
	_, err = c.Send(context.Background(), SendEmailRequest{From: EmailAddress{Email: "a@b.c"}, Subject: "s", HTML: "h"})
	require.ErrorContains(t, err, "To required")
}
