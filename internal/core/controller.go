package core

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"triage-chatbot/pkg"
)

// Rejected transitions. All are returned before any state is touched, so a
// failed Submit never leaves a partial turn behind.
var (
	// ErrEmptyMessage rejects input that is empty after trimming.
	ErrEmptyMessage = errors.New("core: empty message")
	// ErrBusy rejects a submit while a triage reply is still pending.
	ErrBusy = errors.New("core: reply pending, input disabled")
	// ErrConversationRouted rejects a submit after the conversation has been
	// routed to a department and free-text input is closed.
	ErrConversationRouted = errors.New("core: conversation already routed")
)

// Gateway is the triage service boundary as seen by the controller. Every
// call can fail or time out; the controller treats failures as recoverable
// and never lets them corrupt conversation state.
type Gateway interface {
	// Send forwards one patient turn and returns the structured reply.
	Send(ctx context.Context, req pkg.ChatRequest) (*pkg.ChatResponse, error)
	// Reset tells the service to drop server-side context for the session.
	// Best effort, failures are tolerated.
	Reset(ctx context.Context, sessionID string) error
	// NewSessionID mints a fresh client-side session identifier.
	NewSessionID() string
}

// Listener receives UI-facing notifications. The presentation layer renders
// from the snapshots it is handed; it never reaches into the controller's
// internals. Callbacks are invoked outside the controller lock, so listeners
// may call back into the controller.
type Listener interface {
	// OnStateChanged fires after every mutation with a full snapshot.
	OnStateChanged(state pkg.ConversationState)
	// OnFocusInput asks the input control to take focus.
	OnFocusInput()
}

const (
	defaultSendTimeout    = 15 * time.Second
	defaultStartOverDelay = 100 * time.Millisecond
)

// Controller drives the turn-taking cycle of one chat widget: it accepts
// patient input, invokes the triage gateway, and appends the resulting
// bot, alert or system messages. All mutations are serialized internally;
// the gateway call is the only suspension point and runs on its own
// goroutine.
type Controller struct {
	mu       sync.Mutex
	gw       Gateway
	composer *Composer
	store    *Store
	listener Listener
	logger   *slog.Logger

	lang        Lang
	showWelcome bool

	sendTimeout    time.Duration
	startOverDelay time.Duration
}

// Option tweaks controller defaults.
type Option func(*Controller)

// WithSendTimeout bounds each triage call. Expiry surfaces through the same
// path as any other gateway failure.
func WithSendTimeout(d time.Duration) Option {
	return func(c *Controller) { c.sendTimeout = d }
}

// WithStartOverDelay sets the pause between reset and restart in StartOver.
// Purely an animation concern; tests set it to zero.
func WithStartOverDelay(d time.Duration) Option {
	return func(c *Controller) { c.startOverDelay = d }
}

// WithLanguage sets the initial UI language tag.
func WithLanguage(lang Lang) Option {
	return func(c *Controller) { c.lang = lang }
}

// NewController builds a controller over the given gateway. The listener may
// be nil when no presentation layer is attached (tests drive the controller
// directly). A nil logger falls back to slog.Default.
func NewController(gw Gateway, listener Listener, logger *slog.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		gw:             gw,
		composer:       NewComposer(),
		store:          NewStore(gw.NewSessionID()),
		listener:       listener,
		logger:         logger.With("component", "conversation"),
		lang:           LangVI,
		showWelcome:    true,
		sendTimeout:    defaultSendTimeout,
		startOverDelay: defaultStartOverDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start leaves the welcome screen and opens the conversation with the fixed
// greeting and its symptom shortcuts, then asks for input focus. Calling
// Start outside the welcome state is a no-op.
func (c *Controller) Start() {
	c.mu.Lock()
	if !c.showWelcome {
		c.mu.Unlock()
		return
	}
	c.showWelcome = false
	greeting := c.composer.Greeting(TextsFor(c.lang).Welcome, WelcomeQuickReplies(c.lang))
	c.store.Append(greeting)
	snap := c.store.Snapshot()
	c.mu.Unlock()

	c.logger.Info("conversation started", "session_id", snap.SessionID)
	c.emit(snap)
	if c.listener != nil {
		c.listener.OnFocusInput()
	}
}

// Submit accepts one patient turn. It appends the user message, raises the
// typing indicator and dispatches the triage call asynchronously. Empty
// input, a pending reply, and a routed conversation are rejected up front
// with no side effects.
func (c *Controller) Submit(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	if c.store.IsTyping() {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.routedLocked() {
		c.mu.Unlock()
		return ErrConversationRouted
	}
	c.store.Append(c.composer.FromUserText(trimmed))
	c.store.SetTyping(true)
	sessionID := c.store.SessionID()
	history := c.store.Messages()
	snap := c.store.Snapshot()
	c.mu.Unlock()

	c.emit(snap)
	go c.dispatch(sessionID, trimmed, history)
	return nil
}

// SelectQuickReply treats a tapped shortcut exactly like typed text.
func (c *Controller) SelectQuickReply(reply pkg.QuickReply) error {
	return c.Submit(reply.Value)
}

// dispatch performs the gateway round trip for one turn and applies the
// outcome. A reply arriving after the conversation was reset is discarded:
// its session id no longer matches the live store.
func (c *Controller) dispatch(sessionID, text string, history []pkg.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), c.sendTimeout)
	defer cancel()

	resp, err := c.gw.Send(ctx, pkg.ChatRequest{
		Message:             text,
		SessionID:           sessionID,
		ConversationHistory: history,
	})

	c.mu.Lock()
	if c.store.SessionID() != sessionID {
		c.mu.Unlock()
		c.logger.Debug("discarding reply for replaced session", "session_id", sessionID)
		return
	}
	c.store.SetTyping(false)
	if err != nil {
		c.logger.Error("triage send failed", "error", err, "session_id", sessionID)
		c.store.Append(c.composer.SystemText(TextsFor(c.lang).GatewayApology))
	} else {
		c.store.Append(c.composer.FromResponse(resp))
	}
	snap := c.store.Snapshot()
	c.mu.Unlock()

	c.emit(snap)
}

// Reset replaces the conversation with a fresh session and returns to the
// welcome state. The service is notified best effort; a failure there is
// logged and never blocks the local reset.
func (c *Controller) Reset() {
	c.mu.Lock()
	oldSessionID := c.store.SessionID()
	c.store = NewStore(c.gw.NewSessionID())
	c.showWelcome = true
	snap := c.store.Snapshot()
	c.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.sendTimeout)
		defer cancel()
		if err := c.gw.Reset(ctx, oldSessionID); err != nil {
			c.logger.Warn("triage reset failed", "error", err, "session_id", oldSessionID)
		}
	}()

	c.logger.Info("conversation reset", "old_session_id", oldSessionID, "session_id", snap.SessionID)
	c.emit(snap)
}

// StartOver resets and immediately begins a new conversation. The short
// pause in between lets the UI settle between the two transitions.
func (c *Controller) StartOver() {
	c.Reset()
	if c.startOverDelay > 0 {
		time.Sleep(c.startOverDelay)
	}
	c.Start()
}

// BookAppointment acknowledges a department card by appending the booking
// hand-off notice. The actual booking flow lives outside this widget.
func (c *Controller) BookAppointment(card pkg.DepartmentRecommendation) {
	c.mu.Lock()
	c.store.Append(c.composer.SystemText(TextsFor(c.lang).BookingRedirect))
	snap := c.store.Snapshot()
	c.mu.Unlock()

	c.logger.Info("booking hand-off", "department", card.DepartmentName, "department_id", card.DepartmentID)
	c.emit(snap)
}

// ToggleLanguage flips between Vietnamese and English and returns the new
// tag. Only fixed texts appended after the toggle are affected; the log is
// immutable.
func (c *Controller) ToggleLanguage() Lang {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lang == LangVI {
		c.lang = LangEN
	} else {
		c.lang = LangVI
	}
	return c.lang
}

// Language returns the current UI language tag.
func (c *Controller) Language() Lang {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lang
}

// ShowWelcome reports whether the widget is on the welcome screen.
func (c *Controller) ShowWelcome() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.showWelcome
}

// InputDisabled reports whether the input control should be disabled: a
// reply is pending, or the last bot message carries a department card and
// the conversation is considered routed. Derived on every call, not stored.
func (c *Controller) InputDisabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.IsTyping() || c.routedLocked()
}

// State returns a snapshot of the conversation for rendering.
func (c *Controller) State() pkg.ConversationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Snapshot()
}

func (c *Controller) routedLocked() bool {
	last, ok := c.store.LastBotMessage()
	return ok && last.DepartmentCard != nil
}

func (c *Controller) emit(snap pkg.ConversationState) {
	if c.listener != nil {
		c.listener.OnStateChanged(snap)
	}
}
