package guardrails

import (
	"errors"
	"strings"
)

var (
	ErrEmptyInput = errors.New("input is empty")
	ErrBanned     = errors.New("input violates guardrails")
)

// Guardrails performs simple input validation before a turn starts.
type Guardrails struct {
	banned []string
}

func New(banned ...string) *Guardrails {
	g := &Guardrails{}
	for _, w := range banned {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			g.banned = append(g.banned, w)
		}
	}
	return g
}

// CheckInput returns an error if input is blank or contains banned words.
func (g *Guardrails) CheckInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return ErrEmptyInput
	}
	lower := strings.ToLower(input)
	for _, w := range g.banned {
		if strings.Contains(lower, w) {
			return ErrBanned
		}
	}
	return nil
}
