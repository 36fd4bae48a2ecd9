package classify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"triage-chatbot/pkg"
)

// SystemPrompt instructs the model to act as a triage assistant: Vietnamese
// only, one short question at a time, no diagnosis, and a JSON reply shaped
// like the triage wire format so the widget can render cards and alerts.
const SystemPrompt = "Bạn là trợ lý sàng lọc bệnh nhân của một bệnh viện đa khoa. Chỉ trả lời bằng tiếng Việt. " +
	"Nhiệm vụ của bạn là hỏi về triệu chứng và gợi ý chuyên khoa phù hợp, không chẩn đoán, không kê đơn. " +
	"Mỗi lượt chỉ hỏi một câu ngắn. Nếu có dấu hiệu nguy hiểm (khó thở, đau ngực, bất tỉnh) hãy cảnh báo cấp cứu ngay. " +
	`Trả lời bằng JSON theo dạng: {"response": "...", "suggestedDepartment": "...", "alertLevel": "", "quickReplies": [], "departmentRecommendation": null}. ` +
	"Chỉ điền alertLevel là danger khi thật sự khẩn cấp, còn lại để trống."

const defaultModel = "gpt-4o-mini"

// OpenAIClassifier asks an OpenAI chat model to triage the patient text. The
// model is prompted to answer in the widget's wire format; replies that are
// not valid JSON are used verbatim as plain bot text.
type OpenAIClassifier struct {
	client *openai.Client
	model  string
}

// NewOpenAIClassifier constructs the classifier. An empty model selects a
// small default.
func NewOpenAIClassifier(apiKey, model string) *OpenAIClassifier {
	if model == "" {
		model = defaultModel
	}
	return &OpenAIClassifier{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Classify sends the patient text to the chat completion API and decodes the
// structured reply.
func (c *OpenAIClassifier) Classify(ctx context.Context, text string) (*pkg.ChatResponse, error) {
	if c.client == nil {
		return nil, errors.New("openai client not initialized")
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai returned no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	return decodeReply(content), nil
}

// decodeReply parses the model output. Valid JSON in the wire shape is used
// as-is; anything else becomes a plain-text bot reply.
func decodeReply(content string) *pkg.ChatResponse {
	trimmed := strings.TrimPrefix(content, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var out pkg.ChatResponse
	if err := json.Unmarshal([]byte(trimmed), &out); err == nil && out.Response != "" {
		return &out
	}
	return &pkg.ChatResponse{Response: content}
}
