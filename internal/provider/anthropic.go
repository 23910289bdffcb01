package provider

import (
	"encoding/json"
	"net/http"

	"github.com/multichat/multichat-go/internal/transcript"
)

const (
	FamilyAnthropicMessages  = "anthropic-messages-v1"
	DefaultAnthropicEndpoint = "https://api.anthropic.com/v1/messages"
	DefaultAnthropicVersion  = "2023-06-01"
	anthropicMaxTokens       = 1000
)

// AnthropicMessages is the Anthropic messages wire shape. Auth goes in
// x-api-key rather than a bearer token.
type AnthropicMessages struct {
	Endpoint string
	Version  string
}

var _ Family = AnthropicMessages{}

func (AnthropicMessages) Name() string { return FamilyAnthropicMessages }

func (f AnthropicMessages) endpoint() string { return f.Endpoint }

type anthropicRequest struct {
	Model     string        `json:"model"`
	Messages  []wireMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type anthropicResponse struct {
	Content []struct {
		Text *string `json:"text"`
	} `json:"content"`
	Usage *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (f AnthropicMessages) build(model string, msgs []transcript.Message, creds Credentials) (*RequestPlan, error) {
	if creds.AnthropicMessages == "" {
		return nil, &MissingCredentialError{Family: FamilyAnthropicMessages}
	}
	body, err := json.Marshal(anthropicRequest{
		Model:     model,
		Messages:  wireMessages(msgs),
		MaxTokens: anthropicMaxTokens,
	})
	if err != nil {
		return nil, err
	}
	version := f.Version
	if version == "" {
		version = DefaultAnthropicVersion
	}
	return &RequestPlan{
		Method: http.MethodPost,
		URL:    f.Endpoint,
		Headers: map[string]string{
			"x-api-key":         creds.AnthropicMessages,
			"anthropic-version": version,
			"Content-Type":      "application/json",
		},
		Body: body,
	}, nil
}

func (f AnthropicMessages) extract(raw []byte) ReplyResult {
	const path = "content[0].text"
	var resp anthropicResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return replyError(&MalformedReplyError{Family: FamilyAnthropicMessages, Path: path, Cause: err})
	}
	if len(resp.Content) == 0 || resp.Content[0].Text == nil {
		return replyError(&MalformedReplyError{Family: FamilyAnthropicMessages, Path: path})
	}
	var usage Usage
	if resp.Usage != nil {
		usage = Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		}
	}
	return replyText(*resp.Content[0].Text, usage)
}
