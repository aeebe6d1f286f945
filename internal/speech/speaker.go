// Package speech speaks interview questions aloud through the configured
// text-to-speech engine.
package speech

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jfreymuth/pulse"

	"github.com/greenroom-dev/greenroom/internal/audio"
	"github.com/greenroom-dev/greenroom/internal/config"
)

// Synthesizer turns text into raw 16kHz mono s16 PCM.
type Synthesizer func(ctx context.Context, text string) ([]byte, error)

// Player plays raw PCM until done or ctx cancellation.
type Player func(ctx context.Context, pcm []byte) error

// Speaker plays one utterance at a time. Speak never blocks and never fails
// the session; a new utterance replaces whatever is currently playing.
type Speaker struct {
	logger     *slog.Logger
	synthesize Synthesizer
	play       Player

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSpeaker wires a speaker against the real synthesis endpoint and the
// Pulse playback stack.
func NewSpeaker(logger *slog.Logger, cfg config.SpeechConfig, fallbackKeyEnv string) *Speaker {
	synth := newHTTPSynthesizer(cfg, fallbackKeyEnv)
	return &Speaker{
		logger:     logger,
		synthesize: synth,
		play:       playPCM,
	}
}

// NewSpeakerWithEngine wires a speaker with injected synthesis and playback.
func NewSpeakerWithEngine(logger *slog.Logger, synthesize Synthesizer, play Player) *Speaker {
	return &Speaker{
		logger:     logger,
		synthesize: synthesize,
		play:       play,
	}
}

// Speak queues text for playback and returns immediately. Any utterance in
// flight is cancelled first.
func (s *Speaker) Speak(text string) {
	text = strings.TrimSpace(text)
	if text == "" || s.synthesize == nil || s.play == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	prev := s.done
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go func() {
		// Done channels chain through the cancelled predecessor, so
		// waiting on the newest one observes every outstanding utterance.
		defer func() {
			cancel()
			if prev != nil {
				<-prev
			}
			close(done)
		}()

		pcm, err := s.synthesize(ctx, text)
		if err != nil {
			s.warn("speech synthesis failed", err)
			return
		}
		if ctx.Err() != nil {
			return
		}
		if err := s.play(ctx, pcm); err != nil && !errors.Is(err, context.Canceled) {
			s.warn("speech playback failed", err)
		}
	}()
}

// Stop cancels the current utterance and waits for every outstanding one
// to wind down.
func (s *Speaker) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	done := s.done
	s.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (s *Speaker) warn(message string, err error) {
	if s.logger != nil {
		s.logger.Warn(message, "error", err.Error())
	}
}

// newHTTPSynthesizer builds the /speak caller. A missing credential returns
// a nil synthesizer and playback is silently disabled.
func newHTTPSynthesizer(cfg config.SpeechConfig, fallbackKeyEnv string) Synthesizer {
	if !cfg.Enable {
		return nil
	}
	key := cfg.APIKey(fallbackKeyEnv)
	if key == "" {
		return nil
	}

	client := resty.New().
		SetBaseURL(strings.TrimSpace(cfg.Endpoint)).
		SetTimeout(15 * time.Second).
		SetHeader("Authorization", "Token "+key).
		SetHeader("Content-Type", "application/json")

	voice := cfg.Voice

	return func(ctx context.Context, text string) ([]byte, error) {
		response, err := client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"model":       voice,
				"encoding":    "linear16",
				"sample_rate": fmt.Sprintf("%d", audio.SampleRate),
				"container":   "none",
			}).
			SetBody(map[string]string{"text": text}).
			Post("/speak")
		if err != nil {
			return nil, err
		}
		if response.IsError() {
			return nil, fmt.Errorf("synthesis status %d", response.StatusCode())
		}
		return response.Body(), nil
	}
}

// playPCM streams raw 16kHz mono s16 PCM to the default Pulse sink.
func playPCM(ctx context.Context, pcm []byte) error {
	if len(pcm) == 0 {
		return nil
	}

	client, err := pulse.NewClient(
		pulse.ClientApplicationName("greenroom"),
		pulse.ClientApplicationIconName("audio-speakers"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	samples := decodeInt16LE(pcm)
	cursor := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if ctx.Err() != nil || cursor >= len(samples) {
			return 0, pulse.EndOfData
		}

		n := copy(buf, samples[cursor:])
		cursor += n
		if cursor >= len(samples) {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	stream, err := client.NewPlayback(
		reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(audio.SampleRate),
		pulse.PlaybackMediaName("Interview question"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if ctx.Err() != nil {
		return context.Canceled
	}
	return stream.Error()
}

func decodeInt16LE(pcm []byte) []int16 {
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[2*i:]))
	}
	return samples
}
