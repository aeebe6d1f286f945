package interview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/greenroom-dev/greenroom/internal/config"
	"github.com/greenroom-dev/greenroom/internal/fsm"
	"github.com/greenroom-dev/greenroom/internal/transcribe"
)

// Controller owns the Session aggregate and orchestrates collaborator side
// effects around state transitions. All session mutation happens under its
// lock; network calls run unlocked with a generation guard so a stale
// response never mutates a session the candidate has already left.
type Controller struct {
	logger      *slog.Logger
	capture     Capture
	transcriber Transcriber
	speaker     Speaker
	oracle      Oracle
	award       AwardPoints

	fallbackPrompt string
	pointsAward    int

	mu         sync.Mutex
	session    *Session
	generation uint64
}

// NewController constructs a session controller with safe default fallbacks.
func NewController(
	logger *slog.Logger,
	cfg config.InterviewConfig,
	capture Capture,
	transcriber Transcriber,
	speaker Speaker,
	oracle Oracle,
	award AwardPoints,
) *Controller {
	if capture == nil {
		capture = noopCapture{}
	}
	if transcriber == nil {
		transcriber = &noopTranscriber{}
	}
	if speaker == nil {
		speaker = noopSpeaker{}
	}
	if award == nil {
		award = func(int) {}
	}

	fallback := strings.TrimSpace(cfg.FallbackPrompt)
	if fallback == "" {
		fallback = config.FallbackPrompt
	}
	points := cfg.PointsAward
	if points <= 0 {
		points = 250
	}

	return &Controller{
		logger:         logger,
		capture:        capture,
		transcriber:    transcriber,
		speaker:        speaker,
		oracle:         oracle,
		award:          award,
		fallbackPrompt: fallback,
		pointsAward:    points,
		session:        newSession(),
	}
}

// State returns the current session status.
func (c *Controller) State() fsm.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Status
}

// transition applies one event to the session status. Caller holds c.mu.
func (c *Controller) transition(event fsm.Event) error {
	next, err := fsm.Transition(c.session.Status, event)
	if err != nil {
		return err
	}
	c.session.Status = next
	return nil
}

// Begin starts a new interview: generates the question set, enters Active,
// acquires media, and speaks the first question. A generation failure
// substitutes the built-in fallback prompt so the session always has at
// least one turn.
func (c *Controller) Begin(ctx context.Context, role string, modeRaw string) error {
	mode, err := ParseMode(modeRaw)
	if err != nil {
		return err
	}
	role = strings.TrimSpace(role)
	if role == "" {
		return ErrRoleRequired
	}

	c.mu.Lock()
	if c.session.Status != fsm.StateSetup {
		status := c.session.Status
		c.mu.Unlock()
		return fmt.Errorf("cannot start interview from state %s", status)
	}
	if c.session.Pending {
		c.mu.Unlock()
		return ErrSubmissionPending
	}
	c.session.Pending = true
	generation := c.generation
	c.mu.Unlock()

	questions, usedFallback := c.generateQuestions(ctx, role, mode)

	c.mu.Lock()
	if c.generation != generation || c.session.Status != fsm.StateSetup {
		c.mu.Unlock()
		c.logInfo("discarding stale question set")
		return nil
	}
	c.session.Pending = false

	if len(questions) == 0 {
		c.mu.Unlock()
		return ErrNoQuestions
	}

	if err := c.transition(fsm.EventBegin); err != nil {
		c.mu.Unlock()
		return err
	}

	c.session.Mode = mode
	c.session.Role = role
	c.session.Index = 0
	c.session.fallback = usedFallback
	c.session.Turns = make([]Turn, len(questions))
	for i, question := range questions {
		c.session.Turns[i].Prompt = question
	}
	first := questions[0]
	c.mu.Unlock()

	// Media failure is non-fatal: the interview proceeds without preview.
	startCtx := context.WithoutCancel(ctx)
	if err := c.capture.Start(startCtx); err != nil {
		c.logWarn("media acquisition failed, continuing without preview", err)
	}
	c.transcriber.Clear()
	c.speaker.Speak(first)

	// A reset can land while collaborators are starting. Re-validate so a
	// session back in setup never keeps media or the engine live.
	if c.sessionMoved(generation) {
		c.teardown(startCtx)
		c.logInfo("session reset during startup, collaborators released")
		return nil
	}

	c.logInfo("interview started", "role", role, "mode", string(mode), "questions", len(questions))
	return nil
}

// sessionMoved reports whether the session was reset or left Active since
// the generation snapshot was taken.
func (c *Controller) sessionMoved(generation uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation != generation || c.session.Status != fsm.StateActive
}

// generateQuestions asks the oracle, masking failure with the fallback prompt.
func (c *Controller) generateQuestions(ctx context.Context, role string, mode Mode) ([]string, bool) {
	if c.oracle == nil {
		return c.fallbackQuestions(), true
	}

	questions, err := c.oracle.GenerateQuestions(ctx, role, string(mode))
	if err != nil {
		c.logWarn("question generation failed, using fallback prompt", err)
		return c.fallbackQuestions(), true
	}
	if len(questions) == 0 {
		c.logWarn("question generation returned nothing, using fallback prompt", nil)
		return c.fallbackQuestions(), true
	}
	return questions, false
}

func (c *Controller) fallbackQuestions() []string {
	if c.fallbackPrompt == "" {
		return nil
	}
	return []string{c.fallbackPrompt}
}

// ToggleRecording starts or stops speech capture for the current turn and
// reports the resulting recording state. Rejected while a submission is in
// flight, otherwise a restart here would record into a turn that is already
// being scored.
func (c *Controller) ToggleRecording(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if c.session.Status != fsm.StateActive {
		c.mu.Unlock()
		return false, ErrNotActive
	}
	if c.session.Pending {
		c.mu.Unlock()
		return false, ErrSubmissionPending
	}
	generation := c.generation
	c.mu.Unlock()

	if c.transcriber.IsActive() {
		if err := c.transcriber.Stop(ctx); err != nil {
			return false, fmt.Errorf("stop recording: %w", err)
		}
		return false, nil
	}

	if err := c.transcriber.Start(ctx); err != nil {
		if errors.Is(err, transcribe.ErrEngineUnavailable) {
			return false, err
		}
		return false, fmt.Errorf("start recording: %w", err)
	}

	// Same startup race as Begin: a reset landing while the engine was
	// dialing must not leave it recording into a fresh session.
	if c.sessionMoved(generation) {
		if err := c.transcriber.Stop(context.WithoutCancel(ctx)); err != nil {
			c.logWarn("stop recording after session reset", err)
		}
		return false, ErrNotActive
	}
	return true, nil
}

// AppendAnswer adds typed text to the current answer.
func (c *Controller) AppendAnswer(text string) error {
	c.mu.Lock()
	if c.session.Status != fsm.StateActive {
		c.mu.Unlock()
		return ErrNotActive
	}
	if c.session.Pending {
		c.mu.Unlock()
		return ErrSubmissionPending
	}
	c.mu.Unlock()

	c.transcriber.Append(text)
	return nil
}

// ClearAnswer discards the current answer buffer.
func (c *Controller) ClearAnswer() error {
	c.mu.Lock()
	if c.session.Status != fsm.StateActive {
		c.mu.Unlock()
		return ErrNotActive
	}
	if c.session.Pending {
		c.mu.Unlock()
		return ErrSubmissionPending
	}
	c.mu.Unlock()

	c.transcriber.Clear()
	return nil
}

// Submit scores the current answer. Recording is stopped before the buffer
// is read so no segment lands concurrently with the read. On success the
// turn freezes and the session advances; on failure the turn stays open for
// editing and resubmission.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.session.Status != fsm.StateActive {
		c.mu.Unlock()
		return ErrNotActive
	}
	if c.session.Pending {
		c.mu.Unlock()
		return ErrSubmissionPending
	}
	turn := c.session.CurrentTurn()
	if turn == nil {
		c.mu.Unlock()
		return ErrNotActive
	}
	question := turn.Prompt
	index := c.session.Index
	generation := c.generation
	c.session.Pending = true
	c.mu.Unlock()

	// Quiesce the buffer before reading it.
	if c.transcriber.IsActive() {
		if err := c.transcriber.Stop(ctx); err != nil {
			c.clearPending(generation)
			return fmt.Errorf("stop recording before submit: %w", err)
		}
	}

	answer := strings.TrimSpace(c.transcriber.Text())
	if answer == "" {
		c.clearPending(generation)
		return ErrEmptyAnswer
	}

	if c.oracle == nil {
		c.clearPending(generation)
		return errors.New("interview service not configured")
	}

	evaluation, err := c.oracle.ScoreAnswer(ctx, question, answer)

	c.mu.Lock()
	if c.generation != generation || c.session.Status != fsm.StateActive || c.session.Index != index {
		c.mu.Unlock()
		c.logInfo("discarding stale scoring response", "turn", index)
		return nil
	}
	c.session.Pending = false

	if err != nil {
		c.mu.Unlock()
		c.logWarn("answer scoring failed, turn stays open", err)
		return fmt.Errorf("score answer: %w", err)
	}

	frozen := &c.session.Turns[index]
	frozen.Answer = answer
	frozen.Feedback = evaluation.Feedback
	frozen.Score = evaluation.Score
	frozen.Scored = true

	lastTurn := index == len(c.session.Turns)-1
	var nextQuestion string
	if !lastTurn {
		c.session.Index++
		nextQuestion = c.session.Turns[c.session.Index].Prompt
	} else if terr := c.transition(fsm.EventComplete); terr != nil {
		c.mu.Unlock()
		return terr
	}
	awardNow := lastTurn && !c.session.awarded
	if awardNow {
		c.session.awarded = true
	}
	c.mu.Unlock()

	c.transcriber.Clear()

	if lastTurn {
		c.teardown(ctx)
		if awardNow {
			c.award(c.pointsAward)
		}
		c.logInfo("interview complete", "turns", index+1)
		return nil
	}

	c.speaker.Speak(nextQuestion)
	c.logInfo("turn scored", "turn", index, "score", evaluation.Score)
	return nil
}

// Reset discards the session and returns to setup. From Active this is an
// abort and releases media; from Debrief it is the begin-new-session path.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	status := c.session.Status
	if event, ok := resetEvent(status); ok {
		if err := c.transition(event); err != nil {
			c.mu.Unlock()
			return err
		}
	}
	next := c.session.Status
	c.generation++
	c.session = newSession()
	c.session.Status = next
	c.mu.Unlock()

	if status == fsm.StateActive {
		c.teardown(ctx)
	}
	c.transcriber.Clear()

	if status != fsm.StateSetup {
		c.logInfo("session reset", "from", string(status))
	}
	return nil
}

// resetEvent maps a session status to the event that returns it to setup.
// Setup itself has no such event; a reset there just refreshes the session.
func resetEvent(status fsm.State) (fsm.Event, bool) {
	switch status {
	case fsm.StateActive:
		return fsm.EventAbort, true
	case fsm.StateDebrief:
		return fsm.EventReset, true
	default:
		return "", false
	}
}

// teardown releases every Active-scoped resource. Runs on each exit from
// Active, including the abort path.
func (c *Controller) teardown(ctx context.Context) {
	c.speaker.Stop()
	if c.transcriber.IsActive() {
		if err := c.transcriber.Stop(context.WithoutCancel(ctx)); err != nil {
			c.logWarn("stop transcription during teardown", err)
		}
	}
	c.capture.Stop()
}

// clearPending drops the in-flight flag unless the session was replaced.
func (c *Controller) clearPending(generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation == generation {
		c.session.Pending = false
	}
}

// Turns returns a copy of the session's turns for rendering.
func (c *Controller) Turns() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	turns := make([]Turn, len(c.session.Turns))
	copy(turns, c.session.Turns)
	return turns
}

// Role and Mode report setup inputs for the debrief header.
func (c *Controller) Role() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Role
}

func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Mode
}

func (c *Controller) logInfo(message string, args ...any) {
	if c.logger != nil {
		c.logger.Info(message, args...)
	}
}

func (c *Controller) logWarn(message string, err error, args ...any) {
	if c.logger != nil {
		if err != nil {
			args = append(args, "error", err.Error())
		}
		c.logger.Warn(message, args...)
	}
}
