package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/fatih/color"

	"triage-chatbot/pkg"
)

var (
	userLabel   = color.New(color.FgCyan, color.Bold)
	botLabel    = color.New(color.FgGreen, color.Bold)
	alertText   = color.New(color.FgRed, color.Bold)
	systemText  = color.New(color.FgHiBlack)
	cardBorder  = color.New(color.FgMagenta)
	typingStyle = color.New(color.FgHiBlack, color.Italic)
)

// renderer prints the conversation to the terminal. It implements the
// controller's Listener: every state change hands it a full snapshot and it
// prints whatever was appended since the last one.
type renderer struct {
	mu       sync.Mutex
	rendered int
	typing   bool
	idleCh   chan struct{}
}

func newRenderer() *renderer {
	return &renderer{idleCh: make(chan struct{})}
}

// OnStateChanged renders newly appended messages and tracks the typing
// indicator. Called from both the input loop and the gateway goroutine.
func (r *renderer) OnStateChanged(state pkg.ConversationState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// A shorter log means the conversation was reset.
	if len(state.Messages) < r.rendered {
		r.rendered = 0
		fmt.Println(systemText.Sprint("--- phiên mới ---"))
	}

	for _, msg := range state.Messages[r.rendered:] {
		printMessage(msg)
	}
	r.rendered = len(state.Messages)

	if state.IsTyping && !r.typing {
		typingStyle.Println("trợ lý đang nhập...")
	}
	if !state.IsTyping && r.typing {
		close(r.idleCh)
		r.idleCh = make(chan struct{})
	}
	r.typing = state.IsTyping
}

// OnFocusInput is a no-op in the terminal, the prompt already has focus.
func (r *renderer) OnFocusInput() {}

// waitIdle blocks until the pending triage reply has been rendered.
func (r *renderer) waitIdle(ctx context.Context) {
	for {
		r.mu.Lock()
		if !r.typing {
			r.mu.Unlock()
			return
		}
		ch := r.idleCh
		r.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return
		}
	}
}

func printMessage(msg pkg.Message) {
	switch msg.Type {
	case pkg.TypeUser:
		fmt.Printf("%s %s\n", userLabel.Sprint("Bạn:"), msg.Text)
	case pkg.TypeAlert:
		fmt.Printf("%s %s\n", alertText.Sprint("!!"), alertText.Sprint(msg.Text))
	case pkg.TypeSystem:
		systemText.Println(msg.Text)
	default:
		fmt.Printf("%s %s\n", botLabel.Sprint("Trợ lý:"), msg.Text)
	}

	for i, qr := range msg.QuickReplies {
		fmt.Printf("   %s %s\n", color.YellowString("%d.", i+1), qr.Label)
	}

	if card := msg.DepartmentCard; card != nil {
		printDepartmentCard(card)
	}
}

func printDepartmentCard(card *pkg.DepartmentRecommendation) {
	cardBorder.Println("  ┌──────────────────────────────")
	fmt.Printf("  %s %s\n", cardBorder.Sprint("│"), color.New(color.Bold).Sprint(card.DepartmentName))
	if card.Description != "" {
		fmt.Printf("  %s %s\n", cardBorder.Sprint("│"), card.Description)
	}
	if card.DoctorName != "" {
		fmt.Printf("  %s Bác sĩ: %s\n", cardBorder.Sprint("│"), card.DoctorName)
	}
	if card.RoomNumber != "" {
		fmt.Printf("  %s Phòng %s, tầng %s\n", cardBorder.Sprint("│"), card.RoomNumber, card.Floor)
	}
	if card.WaitTime != "" {
		fmt.Printf("  %s Thời gian chờ: %s\n", cardBorder.Sprint("│"), card.WaitTime)
	}
	cardBorder.Println("  └──────────────────────────────")
	systemText.Println("  (/book để đặt lịch, /restart để bắt đầu lại)")
}
