package provider

import (
	"net/url"

	"github.com/multichat/multichat-go/internal/transcript"
)

// Family is the wire shape a provider speaks: URL, headers, body schema
// and response schema. The set is closed; every family must know how to
// build a request and how to extract a reply.
type Family interface {
	Name() string
	endpoint() string
	build(model string, msgs []transcript.Message, creds Credentials) (*RequestPlan, error)
	extract(raw []byte) ReplyResult
}

// Spec describes one selectable provider.
type Spec struct {
	Label  string
	Family Family
	Models []string
}

// Supports reports whether model is accepted by the provider.
func (s Spec) Supports(model string) bool {
	for _, m := range s.Models {
		if m == model {
			return true
		}
	}
	return false
}

// Credentials holds one secret per family.
type Credentials struct {
	ChatCompletions   string
	AnthropicMessages string
}

// RequestPlan is a fully built outbound call that has not been sent yet.
type RequestPlan struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Usage is the token accounting reported by the upstream, when present.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ReplyResult carries either the assistant text or the reason there is none.
type ReplyResult struct {
	Text  string
	Usage Usage
	Err   error
}

func (r ReplyResult) OK() bool { return r.Err == nil }

func replyText(text string, usage Usage) ReplyResult {
	return ReplyResult{Text: text, Usage: usage}
}

func replyError(err error) ReplyResult {
	return ReplyResult{Err: err}
}

// Build constructs the outbound request for family. It performs no I/O.
func Build(family Family, model string, msgs []transcript.Message, creds Credentials) (*RequestPlan, error) {
	if family == nil {
		return nil, &UnimplementedFamilyError{}
	}
	return family.build(model, msgs, creds)
}

// Plan validates model against spec and builds the request.
func Plan(spec Spec, model string, msgs []transcript.Message, creds Credentials) (*RequestPlan, error) {
	if spec.Family == nil {
		return nil, &UnimplementedFamilyError{Label: spec.Label}
	}
	if !spec.Supports(model) {
		return nil, &UnsupportedModelError{Label: spec.Label, Model: model}
	}
	return Build(spec.Family, model, msgs, creds)
}

// Extract reads the assistant text out of a raw upstream response.
func Extract(family Family, raw []byte) ReplyResult {
	if family == nil {
		return replyError(&UnimplementedFamilyError{})
	}
	return family.extract(raw)
}

// Validate reports whether family can be sent anywhere: it must carry an
// absolute http or https endpoint.
func Validate(family Family) error {
	if family == nil {
		return &UnimplementedFamilyError{}
	}
	ep := family.endpoint()
	u, err := url.Parse(ep)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &InvalidEndpointError{Family: family.Name(), Endpoint: ep}
	}
	return nil
}

// NewFamily resolves a family by wire name. An empty endpoint selects the
// family's default endpoint.
func NewFamily(name, endpoint string) (Family, error) {
	switch name {
	case FamilyChatCompletions:
		f := ChatCompletions{Endpoint: endpoint}
		if f.Endpoint == "" {
			f.Endpoint = DefaultChatCompletionsEndpoint
		}
		return f, nil
	case FamilyAnthropicMessages:
		f := AnthropicMessages{Endpoint: endpoint, Version: DefaultAnthropicVersion}
		if f.Endpoint == "" {
			f.Endpoint = DefaultAnthropicEndpoint
		}
		return f, nil
	}
	return nil, &UnsupportedFamilyError{Name: name}
}

func wireMessages(msgs []transcript.Message) []wireMessage {
	out := make([]wireMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, wireMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
