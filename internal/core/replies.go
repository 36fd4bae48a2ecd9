package core

import "triage-chatbot/pkg"

// replies.go defines the fixed texts spoken by the widget itself: the
// greeting, the apology shown when the triage service is unreachable, and
// the booking hand-off notice. Keeping them in one file makes them easy to
// tweak without touching the controller.

// Lang is the UI language tag. Only the toggle between Vietnamese and
// English is supported; anything unknown falls back to Vietnamese.
type Lang string

const (
	LangVI Lang = "VI"
	LangEN Lang = "EN"
)

// Texts bundles every fixed string the controller appends on its own,
// resolved for one language.
type Texts struct {
	// Welcome greets the patient and asks for the chief complaint. It is
	// appended as the first bot message together with the symptom shortcuts.
	Welcome string

	// GatewayApology is the system message shown when a triage call fails.
	// The exact wording is asserted by tests; change with care.
	GatewayApology string

	// BookingRedirect is appended when the patient accepts a department
	// recommendation and is handed off to the booking page.
	BookingRedirect string
}

var textsByLang = map[Lang]Texts{
	LangVI: {
		Welcome:         "Xin chào! Tôi là trợ lý sàng lọc bệnh nhân. Tôi sẽ giúp bạn tìm đúng chuyên khoa. Bạn đang gặp vấn đề gì?",
		GatewayApology:  "Xin lỗi, hệ thống đang gặp sự cố. Vui lòng thử lại sau ít phút.",
		BookingRedirect: "Đang chuyển đến trang đặt lịch hẹn...",
	},
	LangEN: {
		Welcome:         "Hello! I am the patient triage assistant. I will help you find the right department. What seems to be the problem?",
		GatewayApology:  "Sorry, the service is temporarily unavailable. Please try again in a few minutes.",
		BookingRedirect: "Redirecting to the appointment booking page...",
	},
}

// TextsFor returns the fixed texts for the given language, defaulting to
// Vietnamese for unknown tags.
func TextsFor(lang Lang) Texts {
	if t, ok := textsByLang[lang]; ok {
		return t
	}
	return textsByLang[LangVI]
}

// WelcomeQuickReplies returns the symptom shortcuts attached to the
// greeting. A fresh slice is built on every call so callers cannot mutate
// the canned set.
func WelcomeQuickReplies(lang Lang) []pkg.QuickReply {
	if lang == LangEN {
		return []pkg.QuickReply{
			{ID: "1", Label: "Headache", Value: "I have a headache"},
			{ID: "2", Label: "Stomach ache", Value: "I have a stomach ache"},
			{ID: "3", Label: "Fever", Value: "I have a fever"},
			{ID: "4", Label: "Cough", Value: "I have a cough"},
		}
	}
	return []pkg.QuickReply{
		{ID: "1", Label: "Đau đầu", Value: "Tôi bị đau đầu"},
		{ID: "2", Label: "Đau bụng", Value: "Tôi bị đau bụng"},
		{ID: "3", Label: "Sốt", Value: "Tôi bị sốt"},
		{ID: "4", Label: "Ho", Value: "Tôi bị ho"},
	}
}
