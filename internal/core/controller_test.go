package core

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"triage-chatbot/pkg"
)

// fakeGateway is a controllable triage backend. With block set, Send parks
// until the channel is closed, letting tests observe the typing state.
type fakeGateway struct {
	mu         sync.Mutex
	sends      []pkg.ChatRequest
	resets     []string
	respond    func(pkg.ChatRequest) (*pkg.ChatResponse, error)
	block      chan struct{}
	resetErr   error
	sessionSeq int
}

func (g *fakeGateway) Send(ctx context.Context, req pkg.ChatRequest) (*pkg.ChatResponse, error) {
	g.mu.Lock()
	g.sends = append(g.sends, req)
	respond := g.respond
	block := g.block
	g.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if respond != nil {
		return respond(req)
	}
	return &pkg.ChatResponse{Response: "Bạn nói rõ hơn được không?", SessionID: req.SessionID}, nil
}

func (g *fakeGateway) Reset(_ context.Context, sessionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resets = append(g.resets, sessionID)
	return g.resetErr
}

func (g *fakeGateway) NewSessionID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessionSeq++
	return fmt.Sprintf("session-%d", g.sessionSeq)
}

func (g *fakeGateway) sendCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sends)
}

func (g *fakeGateway) resetCalls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.resets))
	copy(out, g.resets)
	return out
}

// recordingListener counts focus requests and remembers snapshots.
type recordingListener struct {
	mu     sync.Mutex
	states []pkg.ConversationState
	focus  int
}

func (l *recordingListener) OnStateChanged(s pkg.ConversationState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states = append(l.states, s)
}

func (l *recordingListener) OnFocusInput() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.focus++
}

func (l *recordingListener) focusCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.focus
}

func newTestController(gw Gateway, listener Listener) *Controller {
	return NewController(gw, listener, nil, WithStartOverDelay(0), WithSendTimeout(time.Second))
}

func waitIdle(t *testing.T, c *Controller) {
	t.Helper()
	require.Eventually(t, func() bool { return !c.State().IsTyping },
		time.Second, 2*time.Millisecond, "typing indicator never cleared")
}

func trace(state pkg.ConversationState) []string {
	var out []string
	for _, m := range state.Messages {
		out = append(out, string(m.Type)+": "+m.Text)
	}
	return out
}

func TestController_StartAppendsGreeting(t *testing.T) {
	gw := &fakeGateway{}
	listener := &recordingListener{}
	c := newTestController(gw, listener)

	assert.True(t, c.ShowWelcome())
	c.Start()

	assert.False(t, c.ShowWelcome())
	state := c.State()
	require.Len(t, state.Messages, 1)
	greeting := state.Messages[0]
	assert.Equal(t, pkg.TypeBot, greeting.Type)
	assert.Equal(t, TextsFor(LangVI).Welcome, greeting.Text)
	assert.Len(t, greeting.QuickReplies, 4)
	assert.Equal(t, 1, listener.focusCount())

	// Start outside the welcome state is a no-op
	c.Start()
	assert.Len(t, c.State().Messages, 1)
}

func TestController_SubmitAppendsUserBeforeBot(t *testing.T) {
	gw := &fakeGateway{block: make(chan struct{})}
	c := newTestController(gw, nil)
	c.Start()

	require.NoError(t, c.Submit("Tôi bị sốt"))

	state := c.State()
	require.Len(t, state.Messages, 2, "exactly one user message before any bot reply")
	assert.Equal(t, pkg.TypeUser, state.Messages[1].Type)
	assert.Equal(t, "Tôi bị sốt", state.Messages[1].Text)
	assert.True(t, state.IsTyping)
	assert.True(t, c.InputDisabled())

	close(gw.block)
	waitIdle(t, c)

	state = c.State()
	require.Len(t, state.Messages, 3)
	assert.Equal(t, pkg.TypeBot, state.Messages[2].Type)
	assert.False(t, c.InputDisabled())
}

func TestController_SubmitSendsSessionAndHistory(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(gw, nil)
	c.Start()

	require.NoError(t, c.Submit("Tôi bị ho"))
	waitIdle(t, c)

	gw.mu.Lock()
	defer gw.mu.Unlock()
	require.Len(t, gw.sends, 1)
	req := gw.sends[0]
	assert.Equal(t, "session-1", req.SessionID)
	assert.Equal(t, "Tôi bị ho", req.Message)
	// history includes greeting and the just-appended user turn
	require.Len(t, req.ConversationHistory, 2)
	assert.Equal(t, pkg.TypeUser, req.ConversationHistory[1].Type)
}

func TestController_EmptyInputIgnored(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(gw, nil)
	c.Start()

	assert.ErrorIs(t, c.Submit("   "), ErrEmptyMessage)
	assert.ErrorIs(t, c.Submit(""), ErrEmptyMessage)

	assert.Len(t, c.State().Messages, 1, "no message appended")
	assert.Equal(t, 0, gw.sendCount(), "no gateway call")
	assert.False(t, c.State().IsTyping)
}

func TestController_SubmitWhileTypingRejected(t *testing.T) {
	gw := &fakeGateway{block: make(chan struct{})}
	c := newTestController(gw, nil)
	c.Start()

	require.NoError(t, c.Submit("Tôi bị sốt"))
	assert.ErrorIs(t, c.Submit("và ho nữa"), ErrBusy)

	require.Eventually(t, func() bool { return gw.sendCount() == 1 },
		time.Second, 2*time.Millisecond, "rejected submit never reaches the gateway")
	assert.Len(t, c.State().Messages, 2, "rejected submit appends nothing")

	close(gw.block)
	waitIdle(t, c)
}

func TestController_GatewayFailureAppendsApology(t *testing.T) {
	gw := &fakeGateway{respond: func(pkg.ChatRequest) (*pkg.ChatResponse, error) {
		return nil, fmt.Errorf("connection refused")
	}}
	c := newTestController(gw, nil)
	c.Start()

	require.NoError(t, c.Submit("Tôi bị đau đầu"))
	waitIdle(t, c)

	state := c.State()
	require.Len(t, state.Messages, 3)
	apology := state.Messages[2]
	assert.Equal(t, pkg.TypeSystem, apology.Type)
	assert.Equal(t, TextsFor(LangVI).GatewayApology, apology.Text)
	assert.False(t, state.IsTyping, "typing must never stay on after a failure")
	assert.False(t, c.InputDisabled(), "the widget returns to an interactive state")
}

func TestController_QuickReplyEqualsTypedText(t *testing.T) {
	respond := func(req pkg.ChatRequest) (*pkg.ChatResponse, error) {
		return &pkg.ChatResponse{Response: "echo: " + req.Message, SessionID: req.SessionID}, nil
	}

	typed := newTestController(&fakeGateway{respond: respond}, nil)
	typed.Start()
	require.NoError(t, typed.Submit("Tôi bị đau đầu"))
	waitIdle(t, typed)

	tapped := newTestController(&fakeGateway{respond: respond}, nil)
	tapped.Start()
	require.NoError(t, tapped.SelectQuickReply(pkg.QuickReply{ID: "1", Label: "Đau đầu", Value: "Tôi bị đau đầu"}))
	waitIdle(t, tapped)

	assert.Equal(t, trace(typed.State()), trace(tapped.State()),
		"a quick reply is a pure shortcut for typed text")
}

func TestController_ResetReplacesSession(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(gw, nil)
	c.Start()
	require.NoError(t, c.Submit("Tôi bị sốt"))
	waitIdle(t, c)

	before := c.State().SessionID
	c.Reset()

	state := c.State()
	assert.NotEqual(t, before, state.SessionID)
	assert.Empty(t, state.Messages)
	assert.False(t, state.IsTyping)
	assert.True(t, c.ShowWelcome())

	require.Eventually(t, func() bool {
		calls := gw.resetCalls()
		return len(calls) == 1 && calls[0] == before
	}, time.Second, 2*time.Millisecond, "gateway reset notified with the old session id")
}

func TestController_ResetFailureNeverBlocksLocalReset(t *testing.T) {
	gw := &fakeGateway{resetErr: fmt.Errorf("server down")}
	c := newTestController(gw, nil)
	c.Start()

	before := c.State().SessionID
	c.Reset()

	assert.NotEqual(t, before, c.State().SessionID)
	assert.Empty(t, c.State().Messages)
}

func TestController_LateReplyAfterResetDiscarded(t *testing.T) {
	gw := &fakeGateway{block: make(chan struct{})}
	c := newTestController(gw, nil)
	c.Start()

	require.NoError(t, c.Submit("Tôi bị sốt"))
	assert.True(t, c.State().IsTyping)

	c.Reset()
	close(gw.block) // the in-flight reply now resolves for a dead session

	time.Sleep(50 * time.Millisecond)
	state := c.State()
	assert.Empty(t, state.Messages, "stale reply must not leak into the new conversation")
	assert.False(t, state.IsTyping)
}

func TestController_DepartmentCardRoutesConversation(t *testing.T) {
	gw := &fakeGateway{respond: func(req pkg.ChatRequest) (*pkg.ChatResponse, error) {
		return &pkg.ChatResponse{
			Response:  "Đề xuất Khoa Thần Kinh.",
			SessionID: req.SessionID,
			DepartmentRecommendation: &pkg.DepartmentRecommendation{
				DepartmentID:   7,
				DepartmentName: "Khoa Thần Kinh",
			},
		}, nil
	}}
	c := newTestController(gw, nil)
	c.Start()

	require.NoError(t, c.Submit("Tôi bị đau đầu"))
	waitIdle(t, c)

	assert.True(t, c.InputDisabled(), "routed conversation disables free-text input")
	assert.ErrorIs(t, c.Submit("còn gì nữa không?"), ErrConversationRouted)
	assert.Equal(t, 1, gw.sendCount())

	// reset re-enables input
	c.Reset()
	assert.False(t, c.InputDisabled())
}

func TestController_StartOver(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(gw, nil)
	c.Start()
	require.NoError(t, c.Submit("Tôi bị sốt"))
	waitIdle(t, c)

	before := c.State().SessionID
	c.StartOver()

	state := c.State()
	assert.NotEqual(t, before, state.SessionID)
	require.Len(t, state.Messages, 1, "fresh conversation starts with the greeting only")
	assert.Equal(t, pkg.TypeBot, state.Messages[0].Type)
	assert.False(t, c.ShowWelcome())
}

func TestController_BookAppointment(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(gw, nil)
	c.Start()

	c.BookAppointment(pkg.DepartmentRecommendation{DepartmentID: 7, DepartmentName: "Khoa Thần Kinh"})

	state := c.State()
	last := state.Messages[len(state.Messages)-1]
	assert.Equal(t, pkg.TypeSystem, last.Type)
	assert.Equal(t, TextsFor(LangVI).BookingRedirect, last.Text)
}

func TestController_ToggleLanguage(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(gw, nil)

	assert.Equal(t, LangVI, c.Language())
	assert.Equal(t, LangEN, c.ToggleLanguage())
	assert.Equal(t, LangVI, c.ToggleLanguage())

	c.ToggleLanguage()
	c.Start()
	assert.Equal(t, TextsFor(LangEN).Welcome, c.State().Messages[0].Text)
}
