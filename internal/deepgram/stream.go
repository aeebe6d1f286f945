// Package deepgram implements the live speech-recognition websocket protocol.
package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Config controls stream initialization and recognition behavior.
type Config struct {
	Endpoint          string
	APIKey            string
	Model             string
	Language          string
	SampleRate        int
	Channels          int
	DialTimeout       time.Duration
	DebugResponseSink io.Writer
}

// Result is one recognition hypothesis pushed by the engine. IsFinal marks
// segments the engine will not revise; everything else is interim text.
type Result struct {
	Text    string
	IsFinal bool
}

// Stream wraps one active live-transcription websocket lifecycle.
type Stream struct {
	conn *websocket.Conn

	events chan Result
	audio  chan []byte
	done   chan struct{}

	wg sync.WaitGroup

	errMu sync.Mutex
	err   error

	closeSendOnce sync.Once
	closeOnce     sync.Once
	sendMu        sync.RWMutex
	sendClosed    bool

	debugSink io.Writer
}

// Dial connects the websocket, negotiates recognition options, and starts
// the read/write loops.
func Dial(ctx context.Context, cfg Config) (*Stream, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("speech recognition api key is empty")
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 3 * time.Second
	}

	wsURL, err := buildListenURL(cfg)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+cfg.APIKey)

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = cfg.DialTimeout

	conn, _, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		return nil, fmt.Errorf("dial speech recognition websocket: %w", err)
	}

	s := &Stream{
		conn:      conn,
		events:    make(chan Result, 64),
		audio:     make(chan []byte, 32),
		done:      make(chan struct{}),
		debugSink: cfg.DebugResponseSink,
	}

	s.wg.Add(2)
	go s.readLoop()
	go s.writeLoop()
	go func() {
		s.wg.Wait()
		close(s.events)
		close(s.done)
		_ = conn.Close()
	}()

	return s, nil
}

// SendAudio queues one chunk of PCM audio for the engine.
func (s *Stream) SendAudio(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}

	// Hold the read lock across the send so CloseSend cannot close the
	// channel underneath an in-flight sender.
	s.sendMu.RLock()
	defer s.sendMu.RUnlock()
	if s.sendClosed {
		return errors.New("stream already closed for sending")
	}

	copied := append([]byte(nil), chunk...)
	select {
	case s.audio <- copied:
		return nil
	case <-s.done:
		if err := s.Err(); err != nil {
			return err
		}
		return errors.New("stream closed")
	}
}

// Events returns the push stream of recognition results. The channel closes
// when the engine finishes or fails; check Err afterwards.
func (s *Stream) Events() <-chan Result {
	return s.events
}

// CloseSend ends the audio side, prompting the engine to flush final results.
func (s *Stream) CloseSend() error {
	s.closeSendOnce.Do(func() {
		s.sendMu.Lock()
		s.sendClosed = true
		close(s.audio)
		s.sendMu.Unlock()
	})
	return nil
}

// Close aborts the stream and waits for loop shutdown.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		_ = s.CloseSend()
		_ = s.conn.Close()
	})
	<-s.done
	return s.Err()
}

// Wait blocks until the engine side finishes and reports the first failure.
func (s *Stream) Wait() error {
	<-s.done
	return s.Err()
}

// Err reports the first engine or transport failure, if any.
func (s *Stream) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *Stream) setErr(err error) {
	if err == nil {
		return
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		return
	}

	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// writeLoop forwards queued audio frames and closes the engine stream after
// the audio side ends.
func (s *Stream) writeLoop() {
	defer s.wg.Done()

	for chunk := range s.audio {
		if err := s.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
			s.setErr(fmt.Errorf("send audio frame: %w", err))
			return
		}
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`)); err != nil {
		s.setErr(fmt.Errorf("close engine stream: %w", err))
	}
}

// readLoop decodes recognition responses until stream close or error.
func (s *Stream) readLoop() {
	defer s.wg.Done()

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.setErr(fmt.Errorf("read engine response: %w", err))
			return
		}

		if sink := s.debugSink; sink != nil {
			_, _ = sink.Write(append(append([]byte(nil), payload...), '\n'))
		}

		var response listenResponse
		if err := json.Unmarshal(payload, &response); err != nil {
			continue
		}

		switch {
		case strings.EqualFold(response.Type, "Error"):
			message := strings.TrimSpace(response.Message)
			if message == "" {
				message = "speech recognition engine reported an unknown error"
			}
			s.setErr(errors.New(message))
			return
		case strings.EqualFold(response.Type, "Metadata"):
			// End-of-stream summary; the engine closes shortly after.
			continue
		}

		transcript := strings.TrimSpace(response.transcript())
		if transcript == "" {
			continue
		}

		s.emit(Result{Text: transcript, IsFinal: response.IsFinal})
	}
}

func (s *Stream) emit(result Result) {
	select {
	case s.events <- result:
	case <-s.done:
	}
}

// listenResponse is the subset of the live recognition payload greenroom reads.
type listenResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	IsFinal bool   `json:"is_final"`

	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}

func (r listenResponse) transcript() string {
	if len(r.Channel.Alternatives) == 0 {
		return ""
	}
	return r.Channel.Alternatives[0].Transcript
}

// buildListenURL converts the configured HTTP endpoint into the websocket
// /listen URL with recognition query parameters.
func buildListenURL(cfg Config) (string, error) {
	base := strings.TrimSpace(cfg.Endpoint)
	if base == "" {
		return "", errors.New("speech recognition endpoint is empty")
	}

	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	base = strings.TrimRight(base, "/")

	listenURL, err := url.Parse(base + "/listen")
	if err != nil {
		return "", fmt.Errorf("invalid speech recognition endpoint: %w", err)
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	channels := cfg.Channels
	if channels <= 0 {
		channels = 1
	}

	query := listenURL.Query()
	query.Set("encoding", "linear16")
	query.Set("sample_rate", strconv.Itoa(sampleRate))
	query.Set("channels", strconv.Itoa(channels))
	query.Set("interim_results", "true")
	if model := strings.TrimSpace(cfg.Model); model != "" {
		query.Set("model", model)
	}
	if language := strings.TrimSpace(cfg.Language); language != "" {
		query.Set("language", language)
	}
	listenURL.RawQuery = query.Encode()
	return listenURL.String(), nil
}
