package provider

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/multichat/multichat-go/internal/transcript"
)

var testCreds = Credentials{ChatCompletions: "gsk-test", AnthropicMessages: "sk-ant-test"}

func families() []Family {
	return []Family{
		ChatCompletions{Endpoint: DefaultChatCompletionsEndpoint},
		AnthropicMessages{Endpoint: DefaultAnthropicEndpoint, Version: DefaultAnthropicVersion},
	}
}

func TestBuildChatCompletionsBody(t *testing.T) {
	msgs := []transcript.Message{{Role: transcript.RoleUser, Content: "hi"}}
	plan, err := Build(ChatCompletions{Endpoint: DefaultChatCompletionsEndpoint}, "llama3-8b-8192", msgs, testCreds)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	want := `{"model":"llama3-8b-8192","messages":[{"role":"user","content":"hi"}],"temperature":0.7}`
	if string(plan.Body) != want {
		t.Fatalf("expected body %s got %s", want, plan.Body)
	}
	if plan.URL != DefaultChatCompletionsEndpoint {
		t.Fatalf("unexpected url %s", plan.URL)
	}
	if plan.Method != "POST" {
		t.Fatalf("unexpected method %s", plan.Method)
	}
	if plan.Headers["Authorization"] != "Bearer gsk-test" {
		t.Fatalf("unexpected auth header %q", plan.Headers["Authorization"])
	}
	if plan.Headers["Content-Type"] != "application/json" {
		t.Fatalf("unexpected content type %q", plan.Headers["Content-Type"])
	}
}

func TestBuildAnthropicMessagesBody(t *testing.T) {
	msgs := []transcript.Message{{Role: transcript.RoleUser, Content: "hi"}}
	plan, err := Build(AnthropicMessages{Endpoint: DefaultAnthropicEndpoint}, "claude-3-haiku-20240307", msgs, testCreds)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	want := `{"model":"claude-3-haiku-20240307","messages":[{"role":"user","content":"hi"}],"max_tokens":1000}`
	if string(plan.Body) != want {
		t.Fatalf("expected body %s got %s", want, plan.Body)
	}
	if plan.Headers["x-api-key"] != "sk-ant-test" {
		t.Fatalf("unexpected api key header %q", plan.Headers["x-api-key"])
	}
	if plan.Headers["anthropic-version"] != DefaultAnthropicVersion {
		t.Fatalf("unexpected version header %q", plan.Headers["anthropic-version"])
	}
	if _, ok := plan.Headers["Authorization"]; ok {
		t.Fatalf("anthropic plan must not carry a bearer token")
	}
}

func TestBuildPreservesOrder(t *testing.T) {
	msgs := []transcript.Message{
		{Role: transcript.RoleUser, Content: "first"},
		{Role: transcript.RoleAssistant, Content: "second"},
		{Role: transcript.RoleUser, Content: "third"},
	}
	for _, f := range families() {
		plan, err := Build(f, "m", msgs, testCreds)
		if err != nil {
			t.Fatalf("%s: build failed: %v", f.Name(), err)
		}
		var body struct {
			Messages []wireMessage `json:"messages"`
		}
		if err := json.Unmarshal(plan.Body, &body); err != nil {
			t.Fatalf("%s: decode body: %v", f.Name(), err)
		}
		if len(body.Messages) != len(msgs) {
			t.Fatalf("%s: expected %d messages got %d", f.Name(), len(msgs), len(body.Messages))
		}
		for i, m := range msgs {
			if body.Messages[i].Role != string(m.Role) || body.Messages[i].Content != m.Content {
				t.Fatalf("%s: message %d mismatch: %+v", f.Name(), i, body.Messages[i])
			}
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	msgs := []transcript.Message{
		{Role: transcript.RoleUser, Content: "a"},
		{Role: transcript.RoleAssistant, Content: "b"},
	}
	for _, f := range families() {
		a, err := Build(f, "m", msgs, testCreds)
		if err != nil {
			t.Fatalf("build failed: %v", err)
		}
		b, err := Build(f, "m", msgs, testCreds)
		if err != nil {
			t.Fatalf("build failed: %v", err)
		}
		if !bytes.Equal(a.Body, b.Body) || a.URL != b.URL || !reflect.DeepEqual(a.Headers, b.Headers) {
			t.Fatalf("%s: plans differ", f.Name())
		}
	}
}

func TestBuildMissingCredential(t *testing.T) {
	msgs := []transcript.Message{{Role: transcript.RoleUser, Content: "hi"}}
	for _, f := range families() {
		_, err := Build(f, "m", msgs, Credentials{})
		var missing *MissingCredentialError
		if !errors.As(err, &missing) {
			t.Fatalf("%s: expected missing credential error got %v", f.Name(), err)
		}
		if missing.Family != f.Name() {
			t.Fatalf("expected family %s got %s", f.Name(), missing.Family)
		}
	}
}

func TestBuildNilFamily(t *testing.T) {
	_, err := Build(nil, "m", nil, testCreds)
	var unimpl *UnimplementedFamilyError
	if !errors.As(err, &unimpl) {
		t.Fatalf("expected unimplemented family error got %v", err)
	}
}

func TestPlanRejectsUnknownModel(t *testing.T) {
	spec := Spec{Label: "Groq (LLaMA3)", Family: ChatCompletions{}, Models: []string{"llama3-8b-8192"}}
	_, err := Plan(spec, "gpt-4", nil, testCreds)
	var unsupported *UnsupportedModelError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected unsupported model error got %v", err)
	}
}

func TestExtractGolden(t *testing.T) {
	cases := []struct {
		family Family
		raw    string
		want   string
	}{
		{ChatCompletions{}, `{"choices":[{"message":{"content":"hello"}}]}`, "hello"},
		{AnthropicMessages{}, `{"content":[{"text":"hi there"}]}`, "hi there"},
	}
	for _, c := range cases {
		res := Extract(c.family, []byte(c.raw))
		if !res.OK() {
			t.Fatalf("%s: unexpected error %v", c.family.Name(), res.Err)
		}
		if res.Text != c.want {
			t.Fatalf("%s: expected %q got %q", c.family.Name(), c.want, res.Text)
		}
	}
}

func TestExtractUsage(t *testing.T) {
	res := Extract(AnthropicMessages{}, []byte(`{"content":[{"type":"text","text":"ok"}],"usage":{"input_tokens":3,"output_tokens":4}}`))
	if res.Usage.TotalTokens != 7 {
		t.Fatalf("expected 7 tokens got %d", res.Usage.TotalTokens)
	}
	res = Extract(ChatCompletions{}, []byte(`{"choices":[{"message":{"content":"ok"}}],"usage":{"prompt_tokens":1,"completion_tokens":2,"total_tokens":3}}`))
	if res.Usage.TotalTokens != 3 {
		t.Fatalf("expected 3 tokens got %d", res.Usage.TotalTokens)
	}
}

func TestExtractMalformed(t *testing.T) {
	raws := []string{
		``,
		`not json`,
		`{}`,
		`{"choices":[]}`,
		`{"choices":[{}]}`,
		`{"choices":[{"message":{"content":42}}]}`,
		`{"content":[]}`,
		`{"content":"flat"}`,
		`[1,2,3]`,
	}
	for _, f := range families() {
		for _, raw := range raws {
			res := Extract(f, []byte(raw))
			if res.OK() {
				t.Fatalf("%s: expected error for %q", f.Name(), raw)
			}
			var malformed *MalformedReplyError
			if !errors.As(res.Err, &malformed) {
				t.Fatalf("%s: expected malformed reply error for %q got %v", f.Name(), raw, res.Err)
			}
			if res.Text != "" {
				t.Fatalf("%s: error result must not carry text", f.Name())
			}
		}
	}
}

func TestNewFamily(t *testing.T) {
	f, err := NewFamily(FamilyChatCompletions, "")
	if err != nil {
		t.Fatalf("new family failed: %v", err)
	}
	if f.(ChatCompletions).Endpoint != DefaultChatCompletionsEndpoint {
		t.Fatalf("expected default endpoint")
	}
	f, err = NewFamily(FamilyAnthropicMessages, "http://localhost/v1/messages")
	if err != nil {
		t.Fatalf("new family failed: %v", err)
	}
	if f.(AnthropicMessages).Endpoint != "http://localhost/v1/messages" {
		t.Fatalf("expected custom endpoint")
	}
	_, err = NewFamily("gemini-v1", "")
	var unsupported *UnsupportedFamilyError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected unsupported family error got %v", err)
	}
}

func TestValidate(t *testing.T) {
	for _, f := range families() {
		if err := Validate(f); err != nil {
			t.Fatalf("%s: unexpected error %v", f.Name(), err)
		}
	}
	var invalid *InvalidEndpointError
	if err := Validate(ChatCompletions{}); !errors.As(err, &invalid) {
		t.Fatalf("expected invalid endpoint error got %v", err)
	}
	var unimpl *UnimplementedFamilyError
	if err := Validate(nil); !errors.As(err, &unimpl) {
		t.Fatalf("expected unimplemented family error got %v", err)
	}
}
