package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	markerFileName = ".autosync-last-pull"
	// Marker name and format used by older installations; read when the
	// current marker is absent.
	legacyMarkerFileName = ".last_pull_timestamp"
)

// PullTimingStore tracks the last successful pull per repository. The
// in-memory value always wins over the persisted marker; the marker exists
// so the interval survives restarts and other editor instances.
type PullTimingStore struct {
	mu       sync.Mutex
	lastPull map[string]time.Time
}

func NewPullTimingStore() *PullTimingStore {
	return &PullTimingStore{
		lastPull: make(map[string]time.Time),
	}
}

// ShouldPull reports whether the interval has elapsed since the last
// recorded pull for repoDir. No record at all means "always due".
func (s *PullTimingStore) ShouldPull(repoDir string, interval time.Duration, now time.Time) bool {
	last := s.lastPullTime(repoDir)
	if last.IsZero() {
		return true
	}
	return now.Sub(last) >= interval
}

// RecordPull write-throughs: memory first, marker second. A persist failure
// is returned for logging but the in-memory record still governs subsequent
// in-process checks.
func (s *PullTimingStore) RecordPull(repoDir string, when time.Time) error {
	s.mu.Lock()
	s.lastPull[repoDir] = when
	s.mu.Unlock()

	return writeMarker(repoDir, when)
}

func (s *PullTimingStore) lastPullTime(repoDir string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.lastPull[repoDir]; ok {
		return last
	}

	last := readMarker(repoDir)
	s.lastPull[repoDir] = last
	return last
}

// LastRecordedPull reads the persisted marker without touching any in-memory
// state. Diagnostics use it; the sync flows go through the store.
func LastRecordedPull(repoDir string) (time.Time, bool) {
	last := readMarker(repoDir)
	return last, !last.IsZero()
}

func readMarker(repoDir string) time.Time {
	for _, name := range []string{markerFileName, legacyMarkerFileName} {
		raw, err := os.ReadFile(filepath.Join(repoDir, name))
		if err != nil {
			continue
		}
		seconds, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
		if err != nil || seconds <= 0 {
			continue
		}
		whole := int64(seconds)
		return time.Unix(whole, int64((seconds-float64(whole))*float64(time.Second)))
	}
	return time.Time{}
}

// writeMarker replaces the marker atomically so a crash mid-write, or a
// second editor instance racing this one, can never leave a corrupt
// timestamp behind.
func writeMarker(repoDir string, when time.Time) error {
	tempFile, err := os.CreateTemp(repoDir, ".autosync-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp pull marker: %w", err)
	}
	tempPath := tempFile.Name()

	_, writeErr := tempFile.WriteString(strconv.FormatInt(when.Unix(), 10) + "\n")
	closeErr := tempFile.Close()
	if writeErr != nil || closeErr != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("write pull marker: %w", errors.Join(writeErr, closeErr))
	}

	if err := os.Rename(tempPath, filepath.Join(repoDir, markerFileName)); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("replace pull marker: %w", err)
	}
	return nil
}
