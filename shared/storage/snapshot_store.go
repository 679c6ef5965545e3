package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"meteo-stack/internal/models"
	"meteo-stack/shared/logger"
)

const snapshotFile = "snapshots.json"

// SnapshotStore keeps the recently published snapshots on disk so the last
// display state survives restarts and can be inspected over HTTP
type SnapshotStore struct {
	filePath  string
	snapshots []StoredSnapshot
	mu        sync.RWMutex
	maxAge    time.Duration
	now       func() time.Time
}

// StoredSnapshot is one published snapshot
type StoredSnapshot struct {
	CycleID     string              `json:"cycle_id"`
	PublishedAt time.Time           `json:"published_at"`
	Data        *models.DisplayData `json:"data"`
}

// NewSnapshotStore opens (or creates) the store under dataDir. An unreadable
// store file is logged and replaced on the next save.
func NewSnapshotStore(dataDir string, maxAge time.Duration, log logger.Logger) (*SnapshotStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store := &SnapshotStore{
		filePath: filepath.Join(dataDir, snapshotFile),
		maxAge:   maxAge,
		now:      time.Now,
	}

	if err := store.load(); err != nil {
		log.Warnf("Starting with an empty snapshot store: %v", err)
		store.snapshots = nil
	}

	store.cleanup()

	return store, nil
}

// Save appends a snapshot, drops expired ones and persists the result
func (s *SnapshotStore) Save(cycleID string, data *models.DisplayData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots = append(s.snapshots, StoredSnapshot{
		CycleID:     cycleID,
		PublishedAt: s.now(),
		Data:        data,
	})
	s.cleanup()

	return s.save()
}

// Latest returns the most recent snapshot, if any
func (s *SnapshotStore) Latest() (StoredSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.snapshots) == 0 {
		return StoredSnapshot{}, false
	}
	return s.snapshots[len(s.snapshots)-1], true
}

// Count returns the number of retained snapshots
func (s *SnapshotStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}

// cleanup drops snapshots older than maxAge but always keeps the latest one
func (s *SnapshotStore) cleanup() {
	if s.maxAge <= 0 || len(s.snapshots) <= 1 {
		return
	}

	cutoff := s.now().Add(-s.maxAge)
	kept := s.snapshots[:0]
	for i, snapshot := range s.snapshots {
		if snapshot.PublishedAt.Before(cutoff) && i != len(s.snapshots)-1 {
			continue
		}
		kept = append(kept, snapshot)
	}
	s.snapshots = kept
}

func (s *SnapshotStore) load() error {
	file, err := os.Open(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&s.snapshots); err != nil {
		return fmt.Errorf("failed to decode snapshot data: %w", err)
	}

	return nil
}

// save writes to a temporary file first so a crash never leaves a truncated store
func (s *SnapshotStore) save() error {
	tmpPath := s.filePath + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.snapshots); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode snapshots: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	return os.Rename(tmpPath, s.filePath)
}
