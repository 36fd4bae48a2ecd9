package core

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"triage-chatbot/pkg"
)

// Composer translates raw patient input and triage responses into
// well-formed messages. It owns id and timestamp generation so the
// controller never touches clocks directly, which keeps tests deterministic.
type Composer struct {
	now func() time.Time
}

// NewComposer returns a composer using the wall clock.
func NewComposer() *Composer {
	return &Composer{now: time.Now}
}

// FromUserText builds a user message from raw input. The text is trimmed;
// validation of emptiness is the controller's job.
func (c *Composer) FromUserText(text string) pkg.Message {
	return pkg.Message{
		ID:        NewMessageID(),
		Text:      strings.TrimSpace(text),
		Type:      pkg.TypeUser,
		Timestamp: c.now(),
	}
}

// FromResponse builds the bot-side message for a triage reply. A non-empty
// alert level makes it an alert message; optional attachments are copied
// only when the service supplied them, so absent fields stay unset.
func (c *Composer) FromResponse(resp *pkg.ChatResponse) pkg.Message {
	msg := pkg.Message{
		ID:        NewMessageID(),
		Text:      resp.Response,
		Type:      pkg.TypeBot,
		Timestamp: c.now(),
	}
	if resp.AlertLevel != "" {
		msg.Type = pkg.TypeAlert
		msg.AlertLevel = resp.AlertLevel
	}
	if len(resp.QuickReplies) > 0 {
		msg.QuickReplies = resp.QuickReplies
	}
	if resp.DepartmentRecommendation != nil {
		card := *resp.DepartmentRecommendation
		msg.DepartmentCard = &card
	}
	if resp.SuggestedDepartment != "" {
		msg.SuggestedDepartment = resp.SuggestedDepartment
	}
	return msg
}

// SystemText builds a system message with the given fixed text. Used for the
// gateway apology and the booking hand-off notice.
func (c *Composer) SystemText(text string) pkg.Message {
	return pkg.Message{
		ID:        NewMessageID(),
		Text:      text,
		Type:      pkg.TypeSystem,
		Timestamp: c.now(),
	}
}

// Greeting builds the opening bot message with the symptom shortcut buttons.
func (c *Composer) Greeting(text string, replies []pkg.QuickReply) pkg.Message {
	return pkg.Message{
		ID:           NewMessageID(),
		Text:         text,
		Type:         pkg.TypeBot,
		Timestamp:    c.now(),
		QuickReplies: replies,
	}
}

// NewMessageID generates a client-side message id from the current time and
// a random suffix. Collisions within one session are what matters here, not
// global uniqueness, so no cryptographic source is needed.
func NewMessageID() string {
	suffix := strconv.FormatUint(rand.Uint64(), 36)
	if len(suffix) > 9 {
		suffix = suffix[:9]
	}
	return fmt.Sprintf("msg-%d-%s", time.Now().UnixMilli(), suffix)
}
