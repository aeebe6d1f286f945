// Package profile persists the candidate's practice record between runs.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/greenroom-dev/greenroom/internal/logging"
)

const fileName = "profile.json"

// Profile is the candidate's accumulated practice record. External screens
// read the gamification fields; the interview flow only adds points and
// counts completed sessions.
type Profile struct {
	Name             string `json:"name,omitempty"`
	Points           int    `json:"points"`
	Level            int    `json:"level"`
	Streak           int    `json:"streak"`
	SolvedProblems   int    `json:"solved_problems"`
	LessonsCompleted int    `json:"lessons_completed"`
	InterviewsDone   int    `json:"interviews_done"`
}

// Store loads, mutates, and persists the profile file.
type Store struct {
	logger *slog.Logger
	path   string

	mu      sync.Mutex
	profile Profile
}

// Open reads the profile from the state directory, starting fresh when no
// file exists yet.
func Open(logger *slog.Logger) (*Store, error) {
	dir, err := logging.StateDir()
	if err != nil {
		return nil, fmt.Errorf("resolve state dir: %w", err)
	}
	return OpenAt(logger, filepath.Join(dir, fileName))
}

// OpenAt reads the profile from an explicit path.
func OpenAt(logger *slog.Logger, path string) (*Store, error) {
	store := &Store{logger: logger, path: path}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return store, nil
	case err != nil:
		return nil, fmt.Errorf("read profile: %w", err)
	}

	if err := json.Unmarshal(data, &store.profile); err != nil {
		// A corrupt profile should not block interviews. Start over and
		// keep the broken file aside for inspection.
		if logger != nil {
			logger.Warn("profile file unreadable, starting fresh", "path", path, "error", err.Error())
		}
		_ = os.Rename(path, path+".corrupt")
		store.profile = Profile{}
	}
	return store, nil
}

// Current returns a copy of the profile record.
func (s *Store) Current() Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// AddPoints credits a completed interview and persists. Handed to the
// session controller as its award callback.
func (s *Store) AddPoints(points int) {
	if points <= 0 {
		return
	}

	s.mu.Lock()
	s.profile.Points += points
	s.profile.InterviewsDone++
	s.profile.Level = levelFor(s.profile.Points)
	snapshot := s.profile
	s.mu.Unlock()

	if err := s.save(snapshot); err != nil && s.logger != nil {
		s.logger.Warn("persist profile failed", "error", err.Error())
	}
}

// save writes atomically so a crash never truncates the record.
func (s *Store) save(snapshot Profile) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// levelFor maps lifetime points onto a practice level. Levels start at 1
// and advance every 500 points.
func levelFor(points int) int {
	return points/500 + 1
}
