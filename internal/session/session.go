package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/multichat/multichat-go/internal/guardrails"
	"github.com/multichat/multichat-go/internal/metrics"
	"github.com/multichat/multichat-go/internal/provider"
	"github.com/multichat/multichat-go/internal/routing"
	"github.com/multichat/multichat-go/internal/transcript"
)

// ErrorPrefix marks assistant messages that report a failed turn.
const ErrorPrefix = "Error: "

// State is the session's position in its turn cycle.
type State int

const (
	Idle State = iota
	AwaitingReply
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingReply:
		return "awaiting_reply"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ErrBusy matches a TransitionError raised while a reply is outstanding.
var ErrBusy = errors.New("session is awaiting a reply")

// TransitionError is returned for a state change the session does not allow.
type TransitionError struct {
	Current State
	Want    State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move session to %s while %s", e.Want, e.Current)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrBusy && e.Current == AwaitingReply
}

// Sender performs a built request and returns the raw response body.
type Sender interface {
	Send(ctx context.Context, plan *provider.RequestPlan) ([]byte, error)
}

// Turn is the outcome of one submission. Err holds the cause when the
// assistant message is an error report.
type Turn struct {
	User      transcript.Message `json:"user"`
	Assistant transcript.Message `json:"assistant"`
	Err       error              `json:"-"`
}

// Session owns one transcript and processes turns strictly one at a time.
type Session struct {
	mu    sync.Mutex
	state State

	transcript *transcript.Transcript
	registry   *routing.Registry
	sender     Sender
	creds      provider.Credentials
	guards     *guardrails.Guardrails
	usage      *metrics.Usage
	log        *zap.Logger
}

type Option func(*Session)

func WithGuardrails(g *guardrails.Guardrails) Option {
	return func(s *Session) { s.guards = g }
}

func WithUsage(u *metrics.Usage) Option {
	return func(s *Session) { s.usage = u }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.log = l }
}

func New(reg *routing.Registry, sender Sender, creds provider.Credentials, opts ...Option) *Session {
	s := &Session{
		transcript: transcript.New(),
		registry:   reg,
		sender:     sender,
		creds:      creds,
		guards:     guardrails.New(),
		usage:      metrics.New(),
		log:        zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Submit runs one turn: it records text as a user message, calls the
// provider registered under label and records the reply. An empty model
// selects the provider's first model.
//
// A returned error means the submission was rejected and the transcript is
// unchanged. Failures after that point become an assistant error message.
func (s *Session) Submit(ctx context.Context, label, model, text string) (Turn, error) {
	if err := s.guards.CheckInput(text); err != nil {
		return Turn{}, err
	}
	if err := s.transition(Idle, AwaitingReply); err != nil {
		return Turn{}, err
	}
	defer func() { _ = s.transition(AwaitingReply, Idle) }()

	user := transcript.Message{Role: transcript.RoleUser, Content: text}
	s.transcript.Append(user)

	res, known := s.reply(ctx, label, model)
	assistant := transcript.Message{Role: transcript.RoleAssistant, Content: res.Text}
	if !res.OK() {
		assistant.Content = ErrorPrefix + res.Err.Error()
		s.log.Warn("turn failed", zap.String("provider", label), zap.String("model", model), zap.Error(res.Err))
	} else {
		s.log.Info("turn completed", zap.String("provider", label), zap.String("model", model), zap.Int("tokens", res.Usage.TotalTokens))
	}
	s.transcript.Append(assistant)
	if known {
		s.usage.Record(label, res.Usage.TotalTokens, !res.OK())
	}

	return Turn{User: user, Assistant: assistant, Err: res.Err}, nil
}

// reply runs lookup, plan, send and extract. known is false when label is
// not registered.
func (s *Session) reply(ctx context.Context, label, model string) (res provider.ReplyResult, known bool) {
	spec, err := s.registry.Lookup(label)
	if err != nil {
		return provider.ReplyResult{Err: err}, false
	}
	if model == "" {
		model = spec.Models[0]
	}
	plan, err := provider.Plan(spec, model, s.transcript.Messages(), s.creds)
	if err != nil {
		return provider.ReplyResult{Err: err}, true
	}
	raw, err := s.sender.Send(ctx, plan)
	if err != nil {
		return provider.ReplyResult{Err: err}, true
	}
	return provider.Extract(spec.Family, raw), true
}

// Reset clears the transcript. It is refused while a reply is outstanding.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Idle {
		return &TransitionError{Current: s.state, Want: Idle}
	}
	s.transcript.Reset()
	return nil
}

func (s *Session) Messages() []transcript.Message {
	return s.transcript.Messages()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Registry() *routing.Registry { return s.registry }

func (s *Session) Usage() *metrics.Usage { return s.usage }

func (s *Session) transition(from, to State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != from {
		return &TransitionError{Current: s.state, Want: to}
	}
	s.state = to
	return nil
}
