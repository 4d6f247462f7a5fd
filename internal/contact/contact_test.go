package contact

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/balliq/balliq-web/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendPostsForm(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		got = r.PostForm
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	relay := NewRelay(srv.URL, testutil.NewTestLogger())
	err := relay.Send(context.Background(), Message{Name: " Ana ", Email: "ana@example.com", Message: "Love it"})

	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Get("name"))
	assert.Equal(t, "ana@example.com", got.Get("email"))
	assert.Equal(t, "Love it", got.Get("message"))
	assert.Equal(t, "false", got.Get("_captcha"))
}

func TestSendRejectsIncomplete(t *testing.T) {
	relay := NewRelay("http://127.0.0.1:0", testutil.NewTestLogger())

	err := relay.Send(context.Background(), Message{Name: "Ana", Email: "  ", Message: "hi"})

	assert.ErrorIs(t, err, ErrIncomplete)
}

func TestSendReportsRelayStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewRelay(srv.URL, testutil.NewTestLogger()).
		Send(context.Background(), Message{Name: "Ana", Email: "ana@example.com", Message: "hi"})

	assert.ErrorContains(t, err, "status 502")
}

func TestSendAsyncOutlivesCaller(t *testing.T) {
	received := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		received <- r.PostForm.Get("message")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	NewRelay(srv.URL, testutil.NewTestLogger()).
		SendAsync(ctx, Message{Name: "Ana", Email: "ana@example.com", Message: "async"})
	cancel()

	select {
	case msg := <-received:
		assert.Equal(t, "async", msg)
	case <-time.After(2 * time.Second):
		t.Fatal("relay never received the message")
	}
}
