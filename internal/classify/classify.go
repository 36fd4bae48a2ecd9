package classify

import (
	"context"
	"strings"

	"triage-chatbot/pkg"
)

// Classifier turns raw patient text into a structured triage reply. It is
// the strategy behind the offline demo gateway and can be swapped for an
// LLM-backed implementation without touching the controller.
type Classifier interface {
	Classify(ctx context.Context, text string) (*pkg.ChatResponse, error)
}

// rule is one first-match-wins keyword rule. Rules are evaluated in slice
// order, so red-flag symptoms are always checked before department routing
// and never fall through to a weaker category.
type rule struct {
	markers []string
	respond func() *pkg.ChatResponse
}

// KeywordClassifier scans lowercased input for marker substrings and maps
// the first hit to a canned triage reply. It is a demo stand-in for the real
// triage service, not medical logic.
type KeywordClassifier struct {
	rules    []rule
	fallback func() *pkg.ChatResponse
}

// NewKeywordClassifier builds the classifier with the default Vietnamese
// rule set: emergency red flags, neurology, gastroenterology, clarifying
// quick replies, then a generic follow-up.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		rules: []rule{
			{
				// Red-flag symptoms go straight to an emergency alert.
				markers: []string{"kho tho", "khó thở", "dau nguc", "đau ngực", "bat tinh", "bất tỉnh"},
				respond: emergencyAlert,
			},
			{
				markers: []string{"dau dau", "đau đầu", "chong mat", "chóng mặt"},
				respond: neurologyRecommendation,
			},
			{
				markers: []string{"dau bung", "đau bụng", "buon non", "buồn nôn"},
				respond: gastroRecommendation,
			},
			{
				markers: []string{"sot", "sốt", "ho", "cam", "cảm"},
				respond: feverFollowUp,
			},
		},
		fallback: genericFollowUp,
	}
}

// Classify matches the input against the rules in priority order. It never
// fails; the generic follow-up covers everything unmatched.
func (k *KeywordClassifier) Classify(_ context.Context, text string) (*pkg.ChatResponse, error) {
	lower := strings.ToLower(text)
	for _, r := range k.rules {
		for _, marker := range r.markers {
			if strings.Contains(lower, marker) {
				return r.respond(), nil
			}
		}
	}
	return k.fallback(), nil
}

func emergencyAlert() *pkg.ChatResponse {
	return &pkg.ChatResponse{
		Response:   "CẢNH BÁO: Các triệu chứng bạn mô tả có thể cần cấp cứu ngay lập tức. Vui lòng đến phòng Cấp Cứu hoặc gọi 115 ngay!",
		AlertLevel: pkg.AlertDanger,
	}
}

func neurologyRecommendation() *pkg.ChatResponse {
	return &pkg.ChatResponse{
		Response:            "Dựa trên các triệu chứng của bạn, tôi đề xuất bạn đến Khoa Thần Kinh.",
		SuggestedDepartment: "Khoa Thần Kinh",
		DepartmentRecommendation: &pkg.DepartmentRecommendation{
			DepartmentID:   7,
			DepartmentName: "Khoa Thần Kinh",
			Description:    "Chuyên khám và điều trị các bệnh liên quan đến hệ thần kinh",
			RoomNumber:     "401",
			Floor:          "4",
			WaitTime:       "Khoảng 15 phút",
		},
	}
}

func gastroRecommendation() *pkg.ChatResponse {
	return &pkg.ChatResponse{
		Response:            "Dựa trên các triệu chứng của bạn, tôi đề xuất bạn đến Khoa Nội Tiêu Hóa.",
		SuggestedDepartment: "Khoa Nội Tiêu Hóa",
		DepartmentRecommendation: &pkg.DepartmentRecommendation{
			DepartmentID:   2,
			DepartmentName: "Khoa Nội Tiêu Hóa",
			Description:    "Chuyên khám và điều trị các bệnh về đường tiêu hóa",
			RoomNumber:     "205",
			Floor:          "2",
			WaitTime:       "Khoảng 20 phút",
		},
	}
}

func feverFollowUp() *pkg.ChatResponse {
	return &pkg.ChatResponse{
		Response: "Cảm ơn bạn đã chia sẻ. Để giúp bạn tốt hơn, bạn có thể cho tôi biết thêm:",
		QuickReplies: []pkg.QuickReply{
			{ID: "1", Label: "Sốt cao trên 39 độ", Value: "Tôi bị sốt cao trên 39 độ"},
			{ID: "2", Label: "Sốt nhẹ và ho", Value: "Tôi bị sốt nhẹ và ho"},
			{ID: "3", Label: "Ho có đờm", Value: "Tôi bị ho có đờm"},
		},
	}
}

func genericFollowUp() *pkg.ChatResponse {
	return &pkg.ChatResponse{
		Response: "Cảm ơn bạn đã chia sẻ. Bạn có thể mô tả thêm về triệu chứng của mình được không? Ví dụ: triệu chứng bắt đầu từ khi nào, mức độ đau như thế nào?",
	}
}
