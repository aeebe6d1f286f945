package deepgram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestBuildListenURL(t *testing.T) {
	url, err := buildListenURL(Config{
		Endpoint: "https://api.deepgram.com/v1",
		Model:    "nova-2",
		Language: "en-US",
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "wss://api.deepgram.com/v1/listen?"))
	require.Contains(t, url, "encoding=linear16")
	require.Contains(t, url, "sample_rate=16000")
	require.Contains(t, url, "channels=1")
	require.Contains(t, url, "interim_results=true")
	require.Contains(t, url, "model=nova-2")
	require.Contains(t, url, "language=en-US")
}

func TestBuildListenURLPlainHTTP(t *testing.T) {
	url, err := buildListenURL(Config{Endpoint: "http://127.0.0.1:7000/v1/"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "ws://127.0.0.1:7000/v1/listen?"))
}

func TestBuildListenURLEmptyEndpoint(t *testing.T) {
	_, err := buildListenURL(Config{})
	require.ErrorContains(t, err, "endpoint is empty")
}

func TestDialRequiresAPIKey(t *testing.T) {
	_, err := Dial(context.Background(), Config{Endpoint: "http://127.0.0.1:1"})
	require.ErrorContains(t, err, "api key")
}

// fakeEngine is a minimal websocket endpoint speaking the live listen protocol.
type fakeEngine struct {
	upgrader websocket.Upgrader

	mu       sync.Mutex
	received [][]byte
	authed   string

	responses []string
	failAfter bool
}

func (e *fakeEngine) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e.mu.Lock()
		e.authed = r.Header.Get("Authorization")
		e.mu.Unlock()

		conn, err := e.upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		for {
			kind, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if kind == websocket.BinaryMessage {
				e.mu.Lock()
				e.received = append(e.received, payload)
				e.mu.Unlock()
				continue
			}
			if strings.Contains(string(payload), "CloseStream") {
				for _, resp := range e.responses {
					require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(resp)))
				}
				if e.failAfter {
					require.NoError(t, conn.WriteMessage(websocket.TextMessage,
						[]byte(`{"type":"Error","message":"engine fault"}`)))
				}
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
		}
	}
}

func dialFake(t *testing.T, engine *fakeEngine) *Stream {
	t.Helper()
	server := httptest.NewServer(engine.handler(t))
	t.Cleanup(server.Close)

	stream, err := Dial(context.Background(), Config{
		Endpoint:    server.URL,
		APIKey:      "dg-test",
		Model:       "nova-2",
		Language:    "en-US",
		DialTimeout: time.Second,
	})
	require.NoError(t, err)
	return stream
}

func result(text string, isFinal bool) string {
	finalField := "false"
	if isFinal {
		finalField = "true"
	}
	return `{"type":"Results","is_final":` + finalField +
		`,"channel":{"alternatives":[{"transcript":"` + text + `"}]}}`
}

func TestStreamDeliversInterimAndFinalResults(t *testing.T) {
	engine := &fakeEngine{responses: []string{
		result("tell me", false),
		result("tell me about", false),
		result("tell me about caching", true),
		`{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":""}]}}`,
		`{"type":"Metadata"}`,
	}}

	stream := dialFake(t, engine)
	require.NoError(t, stream.SendAudio([]byte{1, 2, 3, 4}))
	require.NoError(t, stream.CloseSend())

	var got []Result
	for res := range stream.Events() {
		got = append(got, res)
	}
	require.NoError(t, stream.Wait())

	require.Equal(t, []Result{
		{Text: "tell me", IsFinal: false},
		{Text: "tell me about", IsFinal: false},
		{Text: "tell me about caching", IsFinal: true},
	}, got)

	engine.mu.Lock()
	defer engine.mu.Unlock()
	require.Equal(t, "Token dg-test", engine.authed)
	require.Equal(t, [][]byte{{1, 2, 3, 4}}, engine.received)
}

func TestStreamSurfacesEngineError(t *testing.T) {
	engine := &fakeEngine{failAfter: true}

	stream := dialFake(t, engine)
	require.NoError(t, stream.SendAudio([]byte{9}))
	require.NoError(t, stream.CloseSend())

	for range stream.Events() {
	}
	require.ErrorContains(t, stream.Wait(), "engine fault")
}

func TestSendAudioAfterCloseSend(t *testing.T) {
	engine := &fakeEngine{}
	stream := dialFake(t, engine)
	require.NoError(t, stream.CloseSend())
	require.ErrorContains(t, stream.SendAudio([]byte{1}), "closed for sending")
	_ = stream.Close()
}

func TestSendAudioEmptyChunkIsNoop(t *testing.T) {
	engine := &fakeEngine{}
	stream := dialFake(t, engine)
	require.NoError(t, stream.SendAudio(nil))
	_ = stream.Close()
}
