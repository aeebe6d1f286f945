package interview

import (
	"context"

	"github.com/greenroom-dev/greenroom/internal/brain"
)

// Capture is the session-facing subset of media acquisition behavior.
type Capture interface {
	Start(context.Context) error
	Stop()
}

// noopCapture preserves session flow when no media stack is wired.
type noopCapture struct{}

func (noopCapture) Start(context.Context) error { return nil }
func (noopCapture) Stop()                       {}

// Transcriber is the session-facing subset of the transcription controller.
type Transcriber interface {
	Start(context.Context) error
	Stop(context.Context) error
	IsActive() bool
	Append(string)
	Clear()
	Text() string
	Interim() string
}

// noopTranscriber degrades to manual typing with an in-memory buffer.
type noopTranscriber struct {
	buffer string
}

func (t *noopTranscriber) Start(context.Context) error { return nil }
func (t *noopTranscriber) Stop(context.Context) error  { return nil }
func (t *noopTranscriber) IsActive() bool              { return false }
func (t *noopTranscriber) Clear()                      { t.buffer = "" }
func (t *noopTranscriber) Text() string                { return t.buffer }
func (t *noopTranscriber) Interim() string             { return "" }

func (t *noopTranscriber) Append(text string) {
	if t.buffer == "" {
		t.buffer = text
		return
	}
	t.buffer += " " + text
}

// Speaker plays interviewer questions aloud, last-question-wins.
type Speaker interface {
	Speak(string)
	Stop()
}

type noopSpeaker struct{}

func (noopSpeaker) Speak(string) {}
func (noopSpeaker) Stop()        {}

// Oracle generates the question set and scores answers.
type Oracle interface {
	GenerateQuestions(ctx context.Context, role, mode string) ([]string, error)
	ScoreAnswer(ctx context.Context, question, answer string) (brain.Evaluation, error)
}

// AwardPoints credits the external gamification collaborator. Called exactly
// once per completed session.
type AwardPoints func(points int)
