// Package interview coordinates the mock-interview session lifecycle, turn
// progression, and collaborator side effects.
package interview

import (
	"errors"
	"fmt"
	"strings"

	"github.com/greenroom-dev/greenroom/internal/fsm"
)

var (
	// ErrRoleRequired indicates Begin was called without a target role.
	ErrRoleRequired = errors.New("target role is required to start an interview")
	// ErrNotActive indicates a turn operation outside an active session.
	ErrNotActive = errors.New("no active interview session")
	// ErrEmptyAnswer indicates Submit was called with an empty answer buffer.
	ErrEmptyAnswer = errors.New("answer is empty; record or type something first")
	// ErrSubmissionPending indicates a scoring call is already in flight.
	ErrSubmissionPending = errors.New("previous submission still pending")
	// ErrNoQuestions indicates neither the service nor the built-in
	// fallback produced any question. The session returns to setup.
	ErrNoQuestions = errors.New("no interview questions available")
)

// Mode selects the interview style.
type Mode string

const (
	ModeTechnical  Mode = "technical"
	ModeBehavioral Mode = "behavioral"
)

// ParseMode normalizes user input to a wire-level mode value.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(ModeTechnical):
		return ModeTechnical, nil
	case string(ModeBehavioral):
		return ModeBehavioral, nil
	default:
		return "", fmt.Errorf("unknown interview mode %q (want technical or behavioral)", raw)
	}
}

// Turn is one question/answer/feedback exchange. Prompt is immutable after
// generation; Answer and Feedback freeze together once scoring succeeds.
type Turn struct {
	Prompt   string
	Answer   string
	Feedback string
	Score    float64
	Scored   bool
}

// Session is the aggregate for one interview attempt. Mutated only by the
// Controller under its lock.
type Session struct {
	Mode    Mode
	Role    string
	Status  fsm.State
	Turns   []Turn
	Index   int
	Pending bool

	awarded  bool
	fallback bool
}

func newSession() *Session {
	return &Session{Status: fsm.StateSetup}
}

// CurrentTurn returns the turn under answer, or nil outside Active.
func (s *Session) CurrentTurn() *Turn {
	if s.Status != fsm.StateActive || s.Index < 0 || s.Index >= len(s.Turns) {
		return nil
	}
	return &s.Turns[s.Index]
}

// UsedFallback reports whether question generation fell back to the
// built-in prompt.
func (s *Session) UsedFallback() bool {
	return s.fallback
}
