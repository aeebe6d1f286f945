package audio

import (
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectDeviceFromListPrimaryDefault(t *testing.T) {
	devices := []Device{
		{ID: "webcam-mic", Description: "Webcam Microphone", Available: true, Default: true},
		{ID: "headset", Description: "USB Headset", Available: true},
	}

	selection, err := selectDeviceFromList(devices, "default", "default")
	require.NoError(t, err)
	require.Equal(t, "webcam-mic", selection.Device.ID)
	require.Empty(t, selection.Warning)
}

func TestSelectDeviceFromListMutedPrimaryUsesFallback(t *testing.T) {
	devices := []Device{
		{ID: "webcam-mic", Description: "Webcam Microphone", Available: true, Muted: true, Default: true},
		{ID: "headset", Description: "USB Headset", Available: true},
	}

	selection, err := selectDeviceFromList(devices, "webcam-mic", "headset")
	require.NoError(t, err)
	require.Equal(t, "headset", selection.Device.ID)
	require.Contains(t, selection.Warning, "muted")
	require.True(t, selection.Fallback)
}

func TestSelectDeviceFromListFailsWhenAllMuted(t *testing.T) {
	devices := []Device{
		{ID: "webcam-mic", Description: "Webcam Microphone", Available: true, Muted: true, Default: true},
	}

	_, err := selectDeviceFromList(devices, "default", "default")
	require.Error(t, err)
	require.Contains(t, err.Error(), "muted")
}

func TestSelectDeviceFromListUnknownInput(t *testing.T) {
	devices := []Device{{ID: "webcam-mic", Description: "Webcam Microphone", Available: true, Default: true}}

	_, err := selectDeviceFromList(devices, "missing", "default")
	require.Error(t, err)
	require.Contains(t, err.Error(), "did not match")
}

func TestSelectDeviceFromListEmpty(t *testing.T) {
	_, err := selectDeviceFromList(nil, "default", "default")
	require.Error(t, err)
}

func TestDeviceMatchesByIDAndDescription(t *testing.T) {
	dev := Device{ID: "alsa_input.usb-webcam", Description: "Webcam Microphone"}
	require.True(t, deviceMatches(dev, "webcam"))
	require.True(t, deviceMatches(dev, "microphone"))
	require.False(t, deviceMatches(dev, "missing"))
}

func TestDescribe(t *testing.T) {
	require.Equal(t, "Webcam Microphone (cam0)", Describe(Device{ID: "cam0", Description: "Webcam Microphone"}))
	require.Equal(t, "cam0", Describe(Device{ID: "cam0"}))
	require.Equal(t, "Webcam Microphone", Describe(Device{Description: "Webcam Microphone"}))
}

func TestSourceStateString(t *testing.T) {
	require.Equal(t, "running", sourceStateString(0))
	require.Equal(t, "idle", sourceStateString(1))
	require.Equal(t, "suspended", sourceStateString(2))
	require.Equal(t, "unknown(9)", sourceStateString(9))
}

func TestCaptureOnPCMChunkingAndStopFlushesPending(t *testing.T) {
	capture := &Capture{
		chunks: make(chan []byte, 16),
		stopCh: make(chan struct{}),
	}

	full := make([]byte, chunkSizeBytes)
	partial := make([]byte, chunkSizeBytes/2)

	n, err := capture.onPCM(full)
	require.NoError(t, err)
	require.Equal(t, chunkSizeBytes, n)
	require.Len(t, <-capture.chunks, chunkSizeBytes)

	n, err = capture.onPCM(partial)
	require.NoError(t, err)
	require.Equal(t, len(partial), n)

	require.NoError(t, capture.Stop())
	flushed := <-capture.chunks
	require.Len(t, flushed, len(partial))

	_, open := <-capture.chunks
	require.False(t, open)
	require.Equal(t, int64(chunkSizeBytes+len(partial)), capture.BytesCaptured())
}

func TestCaptureOnPCMReturnsEOFWhenStopped(t *testing.T) {
	capture := &Capture{
		chunks: make(chan []byte, 4),
		stopCh: make(chan struct{}),
	}
	require.NoError(t, capture.Stop())

	_, err := capture.onPCM(make([]byte, chunkSizeBytes))
	require.ErrorIs(t, err, io.EOF)
}

func TestCaptureLevelTracksRMS(t *testing.T) {
	capture := &Capture{
		chunks: make(chan []byte, 16),
		stopCh: make(chan struct{}),
	}

	loud := make([]byte, chunkSizeBytes)
	for i := 0; i+1 < len(loud); i += 2 {
		binary.LittleEndian.PutUint16(loud[i:i+2], uint16(int16(math.MaxInt16)))
	}

	_, err := capture.onPCM(loud)
	require.NoError(t, err)
	<-capture.chunks
	require.InDelta(t, 1.0, capture.Level(), 0.01)

	silent := make([]byte, chunkSizeBytes)
	_, err = capture.onPCM(silent)
	require.NoError(t, err)
	require.Zero(t, capture.Level())
}

func TestRMSLevelEmptyBuffer(t *testing.T) {
	require.Zero(t, rmsLevel(nil))
}

func TestWriterFuncDelegatesWrite(t *testing.T) {
	var got []byte
	w := writerFunc(func(b []byte) (int, error) {
		got = append(got, b...)
		return len(b), nil
	})

	n, err := w.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, []byte{1, 2, 3}, got)
}
