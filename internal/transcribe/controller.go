// Package transcribe owns the answer buffer and the speech-recognition
// engine lifecycle for one interview session.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/greenroom-dev/greenroom/internal/deepgram"
	"github.com/greenroom-dev/greenroom/internal/transcript"
)

var (
	// ErrEngineUnavailable indicates speech recognition cannot run on this
	// host (missing credential or no usable microphone). Manual typing
	// remains available.
	ErrEngineUnavailable = errors.New("speech recognition engine unavailable; type your answer instead")
	// ErrAlreadyRecording indicates Start was called while recording.
	ErrAlreadyRecording = errors.New("transcription already recording")
)

// Engine is one live recognition stream. Satisfied by *deepgram.Stream.
type Engine interface {
	SendAudio(chunk []byte) error
	Events() <-chan deepgram.Result
	CloseSend() error
	Close() error
	Wait() error
}

// AudioSource is a running microphone capture feeding the engine.
type AudioSource interface {
	Chunks() <-chan []byte
	Stop() error
}

// EngineDialer opens a recognition stream; SourceStarter opens a capture.
type (
	EngineDialer  func(ctx context.Context) (Engine, error)
	SourceStarter func(ctx context.Context) (AudioSource, error)
)

// Update is one buffer-state notification pushed to subscribers. Err carries
// a non-fatal engine fault; the session continues with manual input.
type Update struct {
	Text      string
	Interim   string
	Recording bool
	Err       error
}

// Controller accumulates finalized utterances into an editable answer buffer.
// Interim hypotheses are display-only and never persisted.
type Controller struct {
	logger      *slog.Logger
	dialEngine  EngineDialer
	startSource SourceStarter

	mu        sync.Mutex
	buffer    string
	interim   string
	recording bool
	lastErr   error

	engine   Engine
	source   AudioSource
	pumpDone chan struct{}

	updates chan Update
}

// NewController wires a controller from engine/source factories. A nil
// dialer marks the engine unavailable on this host.
func NewController(logger *slog.Logger, dialEngine EngineDialer, startSource SourceStarter) *Controller {
	return &Controller{
		logger:      logger,
		dialEngine:  dialEngine,
		startSource: startSource,
		updates:     make(chan Update, 16),
	}
}

// Updates returns the buffer-update subscription. Slow consumers lose
// intermediate snapshots, never buffer content.
func (c *Controller) Updates() <-chan Update {
	return c.updates
}

// IsActive reports whether the engine is currently recording.
func (c *Controller) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recording
}

// Text returns the committed answer buffer.
func (c *Controller) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffer
}

// Interim returns the transient hypothesis for display.
func (c *Controller) Interim() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interim
}

// LastError returns the most recent engine fault, if any.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Append adds manually typed text to the answer buffer.
func (c *Controller) Append(text string) {
	text = transcript.Clean(text)
	if text == "" {
		return
	}
	c.mu.Lock()
	c.buffer = transcript.Append(c.buffer, text)
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snapshot)
}

// Clear resets the buffer and interim text for a new question turn.
func (c *Controller) Clear() {
	c.mu.Lock()
	c.buffer = ""
	c.interim = ""
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snapshot)
}

// Start dials the engine and begins pumping microphone audio into it.
func (c *Controller) Start(ctx context.Context) error {
	if c.dialEngine == nil || c.startSource == nil {
		return ErrEngineUnavailable
	}

	c.mu.Lock()
	if c.recording {
		c.mu.Unlock()
		return ErrAlreadyRecording
	}
	c.mu.Unlock()

	engine, err := c.dialEngine(ctx)
	if err != nil {
		if errors.Is(err, ErrEngineUnavailable) {
			return err
		}
		return fmt.Errorf("dial recognition engine: %w", err)
	}

	source, err := c.startSource(ctx)
	if err != nil {
		_ = engine.Close()
		return fmt.Errorf("start microphone capture: %w", err)
	}

	c.mu.Lock()
	c.engine = engine
	c.source = source
	c.recording = true
	c.interim = ""
	c.lastErr = nil
	c.pumpDone = make(chan struct{})
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	go c.sendLoop(engine, source)
	go c.recvLoop(engine)

	c.emit(snapshot)
	return nil
}

// Stop halts capture, waits for the engine to flush finalized segments, and
// returns only once the buffer can no longer change. Callers may read the
// buffer immediately afterwards without racing the engine.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	engine := c.engine
	source := c.source
	pumpDone := c.pumpDone
	recording := c.recording
	c.mu.Unlock()

	if !recording {
		return nil
	}

	if source != nil {
		_ = source.Stop()
	}
	if engine != nil {
		_ = engine.CloseSend()
	}

	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var waitErr error
	if pumpDone != nil {
		select {
		case <-pumpDone:
		case <-waitCtx.Done():
			waitErr = waitCtx.Err()
		}
	}

	if engine != nil {
		_ = engine.Close()
	}

	c.mu.Lock()
	c.recording = false
	c.engine = nil
	c.source = nil
	c.pumpDone = nil
	c.interim = ""
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.emit(snapshot)
	return waitErr
}

// sendLoop forwards capture chunks until the source stops.
func (c *Controller) sendLoop(engine Engine, source AudioSource) {
	for chunk := range source.Chunks() {
		if len(chunk) == 0 {
			continue
		}
		if err := engine.SendAudio(chunk); err != nil {
			_ = source.Stop()
			return
		}
	}
	_ = engine.CloseSend()
}

// recvLoop commits finalized segments and tracks interim hypotheses until
// the engine stream ends.
func (c *Controller) recvLoop(engine Engine) {
	c.mu.Lock()
	done := c.pumpDone
	c.mu.Unlock()
	defer close(done)

	for result := range engine.Events() {
		c.mu.Lock()
		if result.IsFinal {
			c.buffer = transcript.Append(c.buffer, result.Text)
			c.interim = ""
		} else {
			c.interim = transcript.Clean(result.Text)
		}
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		c.emit(snapshot)
	}

	if err := engine.Wait(); err != nil {
		c.mu.Lock()
		c.recording = false
		c.interim = ""
		c.lastErr = err
		snapshot := c.snapshotLocked()
		snapshot.Err = err
		c.mu.Unlock()

		if c.logger != nil {
			c.logger.Warn("recognition engine fault", "error", err.Error())
		}
		c.emit(snapshot)
	}
}

func (c *Controller) snapshotLocked() Update {
	return Update{Text: c.buffer, Interim: c.interim, Recording: c.recording}
}

// emit pushes a snapshot without ever blocking the pump.
func (c *Controller) emit(update Update) {
	select {
	case c.updates <- update:
	default:
	}
}
