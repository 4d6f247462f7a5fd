package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/balliq/balliq-web/internal/domain"
	"github.com/balliq/balliq-web/internal/engine"
	"github.com/balliq/balliq-web/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestOrchestrator(eng engine.Engine) *Orchestrator {
	return NewOrchestrator(eng, Config{ContextVersion: 1}, nil, testutil.NewTestLogger())
}

func collect(chunks *[]string) Emit {
	return func(chunk string) error {
		*chunks = append(*chunks, chunk)
		return nil
	}
}

func TestEnterGreetsReturningUserOnce(t *testing.T) {
	eng := new(testutil.MockEngine)
	eng.On("Login", mock.Anything, "u-1", 1).Return(nil).Twice()
	o := newTestOrchestrator(eng)
	s := testutil.NewLoggedInSession("s-1", "u-1", "Ana")

	require.NoError(t, o.Enter(context.Background(), s))
	require.NoError(t, o.Enter(context.Background(), s))

	require.Len(t, s.Transcript, 1)
	assert.Equal(t, domain.Message{Role: domain.RoleAssistant, Content: "Hello Ana, I'm glad you're back!"}, s.Transcript[0])
	eng.AssertExpectations(t)
}

func TestEnterGreetsNewUserAndClearsFlag(t *testing.T) {
	eng := new(testutil.MockEngine)
	eng.On("Login", mock.Anything, "u-1", 1).Return(nil)
	o := newTestOrchestrator(eng)
	s := testutil.NewLoggedInSession("s-1", "u-1", "Ana")
	s.JustRegistered = true

	require.NoError(t, o.Enter(context.Background(), s))

	require.Len(t, s.Transcript, 1)
	assert.Equal(t, "Welcome Ana, ask me anything you want!", s.Transcript[0].Content)
	assert.False(t, s.JustRegistered)
}

func TestEnterKeepsExistingTranscript(t *testing.T) {
	eng := new(testutil.MockEngine)
	eng.On("Login", mock.Anything, "u-1", 1).Return(nil)
	o := newTestOrchestrator(eng)
	s := testutil.NewLoggedInSession("s-1", "u-1", "Ana")
	s.JustRegistered = true
	s.AddMessage(domain.RoleAssistant, "earlier")

	require.NoError(t, o.Enter(context.Background(), s))

	require.Len(t, s.Transcript, 1)
	assert.Equal(t, "earlier", s.Transcript[0].Content)
	assert.False(t, s.JustRegistered)
}

func TestEnterToleratesEngineLoginFailure(t *testing.T) {
	eng := new(testutil.MockEngine)
	eng.On("Login", mock.Anything, "u-1", 1).Return(engine.ErrUnavailable)
	o := newTestOrchestrator(eng)
	s := testutil.NewLoggedInSession("s-1", "u-1", "Ana")

	require.NoError(t, o.Enter(context.Background(), s))
	assert.Len(t, s.Transcript, 1)
}

func TestEnterRequiresLogin(t *testing.T) {
	eng := new(testutil.MockEngine)
	o := newTestOrchestrator(eng)
	s := domain.NewSessionState("s-1")

	err := o.Enter(context.Background(), s)

	assert.ErrorIs(t, err, ErrNotLoggedIn)
	assert.Empty(t, s.Transcript)
	eng.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendStreamsAndStoresReply(t *testing.T) {
	eng := new(testutil.MockEngine)
	eng.On("Respond", mock.Anything, engine.Request{CustomerInput: "hi", UserID: "u-1"}).
		Return("Hello world\nBye", nil)
	o := newTestOrchestrator(eng)
	s := testutil.NewLoggedInSession("s-1", "u-1", "Ana")

	var chunks []string
	require.NoError(t, o.Send(context.Background(), s, "hi", ChannelHTTP, collect(&chunks)))

	assert.Equal(t, []string{"Hello ", "world\n", "Bye"}, chunks)
	assert.Equal(t, []domain.Message{
		{Role: domain.RoleAssistant, Content: "Hello Ana, I'm glad you're back!"},
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "Hello world\nBye"},
	}, s.Transcript)
}

func TestSendKeepsStrictInterleaving(t *testing.T) {
	eng := new(testutil.MockEngine)
	eng.On("Login", mock.Anything, "u-1", 1).Return(nil)
	eng.On("Respond", mock.Anything, mock.Anything).Return("ok", nil)
	o := newTestOrchestrator(eng)
	s := testutil.NewLoggedInSession("s-1", "u-1", "Ana")

	require.NoError(t, o.Enter(context.Background(), s))
	for _, input := range []string{"one", "two", "three"} {
		require.NoError(t, o.Send(context.Background(), s, input, ChannelHTTP, nil))
	}

	require.Len(t, s.Transcript, 7)
	assert.Equal(t, domain.RoleAssistant, s.Transcript[0].Role)
	for i := 1; i < len(s.Transcript); i += 2 {
		assert.Equal(t, domain.RoleUser, s.Transcript[i].Role)
		assert.Equal(t, domain.RoleAssistant, s.Transcript[i+1].Role)
	}
}

func TestSendFallsBackWhenEngineFails(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
	}{
		{name: "engine error", err: errors.New("rpc error: code = Unavailable")},
		{name: "empty reply", reply: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := new(testutil.MockEngine)
			eng.On("Respond", mock.Anything, mock.Anything).Return(tt.reply, tt.err)
			o := newTestOrchestrator(eng)
			s := testutil.NewLoggedInSession("s-1", "u-1", "Ana")

			var chunks []string
			require.NoError(t, o.Send(context.Background(), s, "hi", ChannelHTTP, collect(&chunks)))

			assert.Equal(t, FallbackReply, strings.Join(chunks, ""))
			require.Len(t, s.Transcript, 3)
			assert.Equal(t, FallbackReply, s.Transcript[2].Content)
		})
	}
}

func TestSendIgnoresBlankInput(t *testing.T) {
	eng := new(testutil.MockEngine)
	o := newTestOrchestrator(eng)
	s := testutil.NewLoggedInSession("s-1", "u-1", "Ana")

	err := o.Send(context.Background(), s, "  \n ", ChannelHTTP, nil)

	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, s.Transcript)
	eng.AssertNotCalled(t, "Respond", mock.Anything, mock.Anything)
}

func TestSendRequiresLogin(t *testing.T) {
	o := newTestOrchestrator(new(testutil.MockEngine))
	s := domain.NewSessionState("s-1")

	assert.ErrorIs(t, o.Send(context.Background(), s, "hi", ChannelHTTP, nil), ErrNotLoggedIn)
	assert.Empty(t, s.Transcript)
}

func TestSendRejectedOutsideChatPage(t *testing.T) {
	eng := new(testutil.MockEngine)
	o := newTestOrchestrator(eng)
	s := testutil.NewLoggedInSession("s-1", "u-1", "Ana")
	s.NavigateTo = domain.PageHome

	err := o.Send(context.Background(), s, "from home", ChannelHTTP, nil)

	assert.ErrorIs(t, err, ErrNotOnChatPage)
	assert.Empty(t, s.Transcript)
	eng.AssertNotCalled(t, "Respond", mock.Anything, mock.Anything)
}

func TestSendGreetsBeforeFirstTurn(t *testing.T) {
	eng := new(testutil.MockEngine)
	eng.On("Respond", mock.Anything, mock.Anything).Return("ok", nil)
	o := newTestOrchestrator(eng)
	s := testutil.NewLoggedInSession("s-1", "u-1", "Ana")
	s.JustRegistered = true

	require.NoError(t, o.Send(context.Background(), s, "hi", ChannelWebSocket, nil))

	assert.Equal(t, []domain.Message{
		{Role: domain.RoleAssistant, Content: "Welcome Ana, ask me anything you want!"},
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "ok"},
	}, s.Transcript)
	assert.False(t, s.JustRegistered)
}

func TestSendStoresFullReplyWhenEmitFails(t *testing.T) {
	eng := new(testutil.MockEngine)
	eng.On("Respond", mock.Anything, mock.Anything).Return("one two three", nil)
	o := newTestOrchestrator(eng)
	s := testutil.NewLoggedInSession("s-1", "u-1", "Ana")
	gone := errors.New("client went away")

	var chunks []string
	err := o.Send(context.Background(), s, "hi", ChannelWebSocket, func(chunk string) error {
		chunks = append(chunks, chunk)
		return gone
	})

	assert.ErrorIs(t, err, gone)
	assert.Equal(t, []string{"one "}, chunks)
	require.Len(t, s.Transcript, 3)
	assert.Equal(t, "one two three", s.Transcript[2].Content)
}

func TestSendStoresFullReplyWhenCancelled(t *testing.T) {
	eng := new(testutil.MockEngine)
	eng.On("Respond", mock.Anything, mock.Anything).Return("one two three", nil)
	o := NewOrchestrator(eng, Config{Pacing: Pacing{SpaceDelay: time.Hour}}, nil, testutil.NewTestLogger())
	s := testutil.NewLoggedInSession("s-1", "u-1", "Ana")
	ctx, cancel := context.WithCancel(context.Background())

	err := o.Send(ctx, s, "hi", ChannelHTTP, func(string) error {
		cancel()
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, s.Transcript, 3)
	assert.Equal(t, "one two three", s.Transcript[2].Content)
}
