// Package media acquires and releases the microphone and camera for one
// interview session.
package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/greenroom-dev/greenroom/internal/audio"
	"github.com/greenroom-dev/greenroom/internal/config"
)

var (
	// ErrPermissionDenied indicates the candidate (or the OS) refused
	// access to a capture device.
	ErrPermissionDenied = errors.New("media device access denied")
	// ErrDeviceUnavailable indicates no usable capture device was found.
	ErrDeviceUnavailable = errors.New("media device unavailable")
)

// AudioTrack is a live microphone capture. Satisfied by *audio.Capture.
type AudioTrack interface {
	Chunks() <-chan []byte
	Level() float64
	Stop() error
}

// VideoTrack is an open camera device held for the session's duration. No
// frames are read; the handle keeps the device busy and the preview honest.
type VideoTrack interface {
	Path() string
	Close() error
}

// Handle is the set of acquired tracks for one active session.
type Handle struct {
	Audio AudioTrack
	Video VideoTrack
}

// AudioOpener acquires a microphone track; VideoOpener a camera track.
type (
	AudioOpener func(ctx context.Context) (AudioTrack, error)
	VideoOpener func(path string) (VideoTrack, error)
)

// Controller owns media acquisition for the session lifecycle. Stop is safe
// to call from any Active exit path, any number of times.
type Controller struct {
	logger    *slog.Logger
	cfg       config.CameraConfig
	audioCfg  config.AudioConfig
	openAudio AudioOpener
	openVideo VideoOpener

	mu     sync.Mutex
	handle *Handle
}

// NewController wires a controller against the real Pulse and V4L2 devices.
func NewController(logger *slog.Logger, audioCfg config.AudioConfig, cameraCfg config.CameraConfig) *Controller {
	c := &Controller{
		logger:   logger,
		cfg:      cameraCfg,
		audioCfg: audioCfg,
	}
	c.openAudio = c.dialMicrophone
	c.openVideo = openVideoNode
	return c
}

// NewControllerWithOpeners wires a controller with injected device openers.
func NewControllerWithOpeners(logger *slog.Logger, cameraCfg config.CameraConfig, openAudio AudioOpener, openVideo VideoOpener) *Controller {
	return &Controller{
		logger:    logger,
		cfg:       cameraCfg,
		openAudio: openAudio,
		openVideo: openVideo,
	}
}

// Start acquires the microphone and, when enabled, the camera. On any
// failure every already-acquired track is released before returning.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle != nil {
		return nil
	}

	handle := &Handle{}

	track, err := c.openAudio(ctx)
	if err != nil {
		return classify(fmt.Errorf("acquire microphone: %w", err))
	}
	handle.Audio = track

	if c.cfg.Enable {
		video, err := c.openVideo(c.cfg.Device)
		if err != nil {
			_ = track.Stop()
			return classify(fmt.Errorf("acquire camera %s: %w", c.cfg.Device, err))
		}
		handle.Video = video
	}

	c.handle = handle
	if c.logger != nil {
		c.logger.Info("media acquired", "camera", c.cfg.Enable)
	}
	return nil
}

// Stop releases every acquired track. Idempotent.
func (c *Controller) Stop() {
	c.mu.Lock()
	handle := c.handle
	c.handle = nil
	c.mu.Unlock()

	if handle == nil {
		return
	}
	if handle.Audio != nil {
		_ = handle.Audio.Stop()
	}
	if handle.Video != nil {
		_ = handle.Video.Close()
	}
	if c.logger != nil {
		c.logger.Info("media released")
	}
}

// Handle returns the acquired tracks, or nil when media is not running.
func (c *Controller) Handle() *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle
}

// Level reports the microphone preview level in [0,1], 0 when idle.
func (c *Controller) Level() float64 {
	c.mu.Lock()
	handle := c.handle
	c.mu.Unlock()

	if handle == nil || handle.Audio == nil {
		return 0
	}
	return handle.Audio.Level()
}

func (c *Controller) dialMicrophone(ctx context.Context) (AudioTrack, error) {
	selection, err := audio.SelectDevice(ctx, c.audioCfg.Input, c.audioCfg.Fallback)
	if err != nil {
		return nil, err
	}
	if c.logger != nil {
		c.logger.Info("microphone selected", "device", audio.Describe(selection.Device))
		if selection.Warning != "" {
			c.logger.Warn("microphone fallback", "warning", selection.Warning)
		}
	}
	return audio.StartCapture(ctx, selection.Device, "Interview answer")
}

// classify maps OS-level open failures onto the session-facing sentinels.
func classify(err error) error {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	default:
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
}

type videoNode struct {
	path string
	file *os.File
}

func (v *videoNode) Path() string { return v.path }

func (v *videoNode) Close() error { return v.file.Close() }

// openVideoNode holds the camera device node open for the session. Frame
// capture is out of scope; the open descriptor is the acquisition.
func openVideoNode(path string) (VideoTrack, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &videoNode{path: path, file: file}, nil
}
