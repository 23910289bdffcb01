package provider

import (
	"encoding/json"
	"net/http"

	"github.com/multichat/multichat-go/internal/transcript"
)

const (
	FamilyChatCompletions          = "chat-completions-v1"
	DefaultChatCompletionsEndpoint = "https://api.groq.com/openai/v1/chat/completions"
	chatTemperature                = 0.7
)

// ChatCompletions is the OpenAI-style chat completions wire shape.
type ChatCompletions struct {
	Endpoint string
}

var _ Family = ChatCompletions{}

func (ChatCompletions) Name() string { return FamilyChatCompletions }

func (f ChatCompletions) endpoint() string { return f.Endpoint }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func (f ChatCompletions) build(model string, msgs []transcript.Message, creds Credentials) (*RequestPlan, error) {
	if creds.ChatCompletions == "" {
		return nil, &MissingCredentialError{Family: FamilyChatCompletions}
	}
	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    wireMessages(msgs),
		Temperature: chatTemperature,
	})
	if err != nil {
		return nil, err
	}
	return &RequestPlan{
		Method: http.MethodPost,
		URL:    f.Endpoint,
		Headers: map[string]string{
			"Authorization": "Bearer " + creds.ChatCompletions,
			"Content-Type":  "application/json",
		},
		Body: body,
	}, nil
}

func (f ChatCompletions) extract(raw []byte) ReplyResult {
	const path = "choices[0].message.content"
	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return replyError(&MalformedReplyError{Family: FamilyChatCompletions, Path: path, Cause: err})
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil || resp.Choices[0].Message.Content == nil {
		return replyError(&MalformedReplyError{Family: FamilyChatCompletions, Path: path})
	}
	var usage Usage
	if resp.Usage != nil {
		usage = Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return replyText(*resp.Choices[0].Message.Content, usage)
}
