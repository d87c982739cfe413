// Package ledger persists per-item migration outcomes as a JSON array on
// disk. The whole ledger is rewritten atomically after every Record call, so
// a crash can lose at most the in-flight item, never completed ones.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/calebms/vidshift/internal/domain"
	"github.com/calebms/vidshift/internal/logger"
)

var (
	// ErrCorrupt means the ledger file exists but cannot be parsed. Callers
	// must abort rather than treat the ledger as empty: an empty ledger
	// would resubmit every previously migrated item.
	ErrCorrupt = errors.New("ledger corrupt")

	// ErrLocked means another process holds the ledger lock. Two runs
	// against the same ledger file would clobber each other's writes.
	ErrLocked = errors.New("ledger locked by another process")
)

// Options configures a Store.
type Options struct {
	// Policy resolves duplicate external ids, both at load time and on
	// Record. Zero value means domain.LastWriteWins.
	Policy domain.ConflictPolicy

	// Lock takes an exclusive flock on a sidecar lock file for the lifetime
	// of the store.
	Lock bool

	Logger *logger.Logger
}

// Store is the durable ledger of migration outcomes, keyed by external id.
// It is written by a single sequential loop; the mutex only guards against
// accidental cross-goroutine use.
type Store struct {
	path   string
	policy domain.ConflictPolicy
	lock   *flock.Flock
	log    *logger.Logger

	mu      sync.RWMutex
	entries map[string]*domain.LedgerEntry
	order   []string // external ids in first-recorded order
}

// Open loads the ledger at path, creating an empty store when no file
// exists. A parse failure returns ErrCorrupt.
func Open(path string, opts Options) (*Store, error) {
	if opts.Policy == "" {
		opts.Policy = domain.LastWriteWins
	}
	log := opts.Logger
	if log == nil {
		log = logger.GetDefault()
	}

	s := &Store{
		path:    path,
		policy:  opts.Policy,
		log:     log.WithField(logger.FieldComponent, "ledger"),
		entries: make(map[string]*domain.LedgerEntry),
	}

	if opts.Lock {
		s.lock = flock.New(path + ".lock")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
		locked, err := s.lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire ledger lock: %w", err)
		}
		if !locked {
			return nil, fmt.Errorf("%w: %s", ErrLocked, s.lock.Path())
		}
	}

	if err := s.load(); err != nil {
		s.Close()
		return nil, err
	}

	s.log.WithField(logger.FieldCount, len(s.entries)).Debug("ledger loaded")
	return s, nil
}

// Close releases the ledger lock if one was taken.
func (s *Store) Close() error {
	if s.lock != nil {
		return s.lock.Unlock()
	}
	return nil
}

// IsCompleted reports whether an entry with the given id exists with a
// success outcome. Failed entries stay eligible for resubmission.
func (s *Store) IsCompleted(externalID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[externalID]
	return ok && entry.Succeeded()
}

// Record upserts the entry per the conflict policy and immediately persists
// the entire ledger. The durable write is the point: Record returning nil
// means the outcome survives a crash.
func (s *Store) Record(entry domain.LedgerEntry) error {
	if entry.ExternalID == "" {
		return errors.New("ledger entry requires an external id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[entry.ExternalID]; ok {
		if s.policy == domain.FirstSeenWins {
			return nil // keep the original, nothing to persist
		}
		*existing = entry // overwrite in place, keeps first-recorded order
	} else {
		e := entry
		s.entries[entry.ExternalID] = &e
		s.order = append(s.order, entry.ExternalID)
	}

	if err := s.save(); err != nil {
		return fmt.Errorf("persist ledger: %w", err)
	}
	return nil
}

// Entries returns all entries in first-recorded order.
func (s *Store) Entries() []domain.LedgerEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.LedgerEntry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.entries[id])
	}
	return out
}

// Successes returns the entries with a success outcome, in the order first
// recorded. These form the caption matcher's match universe.
func (s *Store) Successes() []domain.LedgerEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.LedgerEntry
	for _, id := range s.order {
		if s.entries[id].Succeeded() {
			out = append(out, *s.entries[id])
		}
	}
	return out
}

// Len returns the number of ledger entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// load reads the persisted ledger into memory.
func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil // fresh start
		}
		return fmt.Errorf("read ledger file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var entries []domain.LedgerEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	for _, entry := range entries {
		if entry.ExternalID == "" {
			continue
		}
		if existing, ok := s.entries[entry.ExternalID]; ok {
			// Older tool versions could append duplicates across retries;
			// resolve them here by the configured policy.
			if s.policy == domain.LastWriteWins {
				*existing = entry
			}
			continue
		}
		e := entry
		s.entries[entry.ExternalID] = &e
		s.order = append(s.order, entry.ExternalID)
	}

	return nil
}

// save writes the ledger to disk atomically via temp file and rename, so a
// crash mid-write never corrupts the previously durable state.
func (s *Store) save() error {
	entries := make([]domain.LedgerEntry, 0, len(s.order))
	for _, id := range s.order {
		entries = append(entries, *s.entries[id])
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath) // cleanup on failure
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
