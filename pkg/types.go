package pkg

import "time"

// MessageType describes who authored a message and how it should be
// rendered. Alert messages are bot replies that carry an urgency level.
type MessageType string

const (
	TypeBot    MessageType = "bot"
	TypeUser   MessageType = "user"
	TypeSystem MessageType = "system"
	TypeAlert  MessageType = "alert"
)

// AlertLevel grades the urgency of an alert message.
type AlertLevel string

const (
	AlertInfo    AlertLevel = "info"
	AlertWarning AlertLevel = "warning"
	AlertDanger  AlertLevel = "danger"
	AlertSuccess AlertLevel = "success"
)

// Message represents a single entry in the conversation log. Messages are
// immutable once appended. Optional attachments stay unset when the triage
// service did not supply them; zero values are never filled in.
type Message struct {
	ID                  string                    `json:"id"`
	Text                string                    `json:"text"`
	Type                MessageType               `json:"type"`
	Timestamp           time.Time                 `json:"timestamp"`
	SuggestedDepartment string                    `json:"suggestedDepartment,omitempty"`
	AlertLevel          AlertLevel                `json:"alertLevel,omitempty"`
	QuickReplies        []QuickReply              `json:"quickReplies,omitempty"`
	DepartmentCard      *DepartmentRecommendation `json:"departmentCard,omitempty"`
}

// QuickReply is a canned answer presented as a button. Value is the literal
// text resent as if the patient had typed it.
type QuickReply struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// DepartmentRecommendation is the advisory payload attached to a bot message
// when the triage service has routed the patient to a department. Its
// presence on the last bot message marks the conversation as routed.
type DepartmentRecommendation struct {
	DepartmentID   int    `json:"departmentId"`
	DepartmentName string `json:"departmentName"`
	DoctorName     string `json:"doctorName,omitempty"`
	RoomNumber     string `json:"roomNumber,omitempty"`
	Floor          string `json:"floor,omitempty"`
	WaitTime       string `json:"waitTime,omitempty"`
	Description    string `json:"description,omitempty"`
}

// ConversationState is the full client-side state of one conversation. It is
// replaced wholesale on reset, never patched.
type ConversationState struct {
	SessionID string    `json:"sessionId"`
	Messages  []Message `json:"messages"`
	IsTyping  bool      `json:"isTyping"`
}

// ChatRequest is the body sent to POST {base}/chat/chat.
type ChatRequest struct {
	Message             string    `json:"message"`
	SessionID           string    `json:"sessionId"`
	ConversationHistory []Message `json:"conversationHistory,omitempty"`
}

// ChatResponse is the reply from the triage service for one patient turn.
// A non-empty AlertLevel turns the composed message into an alert.
type ChatResponse struct {
	Response                 string                    `json:"response"`
	SessionID                string                    `json:"sessionId"`
	SuggestedDepartment      string                    `json:"suggestedDepartment,omitempty"`
	Confidence               *float64                  `json:"confidence,omitempty"`
	QuickReplies             []QuickReply              `json:"quickReplies,omitempty"`
	DepartmentRecommendation *DepartmentRecommendation `json:"departmentRecommendation,omitempty"`
	AlertLevel               AlertLevel                `json:"alertLevel,omitempty"`
}

// ResetRequest is the body sent to POST {base}/chat/reset.
type ResetRequest struct {
	SessionID string `json:"sessionId"`
}

// HistoryResponse is the payload from GET {base}/chat/history/{sessionId}.
type HistoryResponse struct {
	SessionID string    `json:"sessionId"`
	History   []Message `json:"history"`
}

// Department describes one entry of the hospital department catalog.
type Department struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	CommonSymptoms []string `json:"commonSymptoms,omitempty"`
	Location       string   `json:"location,omitempty"`
	WorkingHours   string   `json:"workingHours,omitempty"`
}

// DepartmentResponse wraps the department catalog listing.
type DepartmentResponse struct {
	Departments []Department `json:"departments"`
}
