package txstore

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// maxRetainedBlocks is the pruning threshold named in spec section 4.4.6:
// the blocks list is pruned to the last 100 once all their transactions
// have completed.
const maxRetainedBlocks = 100

// Store is a JSON-file-backed transaction manager. All writes are atomic
// (write-to-temp then rename) so a crash mid-write never corrupts the
// previous state.
type Store struct {
	mu     sync.Mutex
	path   string
	logger *log.Logger
	doc    document
}

// Open loads (or initializes) the store at path.
func Open(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(log.Writer(), "[TxStore] ", log.LstdFlags)
	}
	s := &Store{path: path, logger: logger, doc: document{Records: make(map[uuid.UUID]*Record)}}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("txstore: read %s: %w", path, err)
	}
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s.doc); err != nil {
		return nil, fmt.Errorf("txstore: parse %s: %w", path, err)
	}
	if s.doc.Records == nil {
		s.doc.Records = make(map[uuid.UUID]*Record)
	}
	return s, nil
}

// Put inserts or updates a record and persists the store.
func (s *Store) Put(r *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	s.doc.Records[r.ID] = r
	s.trackBlock(r.BlockNumber)
	return s.persistLocked()
}

// Get returns the record for id, if present.
func (s *Store) Get(id uuid.UUID) (*Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.doc.Records[id]
	return r, ok
}

// MarkFailed records an attempt's failure and increments Attempts.
func (s *Store) MarkFailed(id uuid.UUID, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.doc.Records[id]
	if !ok {
		return fmt.Errorf("txstore: record %s not found", id)
	}
	r.Status = StatusFailed
	r.Attempts++
	r.LastError = cause.Error()
	r.UpdatedAt = time.Now()
	return s.persistLocked()
}

// MarkFinalized records a record's successful completion.
func (s *Store) MarkFinalized(id uuid.UUID, txHash [32]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.doc.Records[id]
	if !ok {
		return fmt.Errorf("txstore: record %s not found", id)
	}
	r.Status = StatusFinalized
	r.TxHash = txHash
	r.UpdatedAt = time.Now()
	s.pruneCompletedBlocksLocked()
	return s.persistLocked()
}

// PendingRecords returns every record not yet finalized, ordered by
// creation time, for replay on startup.
func (s *Store) PendingRecords() []*Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []*Record
	for _, r := range s.doc.Records {
		if r.Status != StatusFinalized {
			pending = append(pending, r)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].CreatedAt.Before(pending[j].CreatedAt) })
	return pending
}

func (s *Store) trackBlock(blockNumber uint64) {
	for _, b := range s.doc.Blocks {
		if b == blockNumber {
			return
		}
	}
	s.doc.Blocks = append(s.doc.Blocks, blockNumber)
}

// pruneCompletedBlocksLocked trims the document's Blocks list: blocks with a
// record not yet finalized are kept, and of the blocks whose records are all
// finalized only the most recent 100 are retained.
func (s *Store) pruneCompletedBlocksLocked() {
	var inFlight, done []uint64
	for _, b := range s.doc.Blocks {
		if s.allFinalizedLocked(b) {
			done = append(done, b)
		} else {
			inFlight = append(inFlight, b)
		}
	}
	sort.Slice(done, func(i, j int) bool { return done[i] < done[j] })
	if len(done) > maxRetainedBlocks {
		done = done[len(done)-maxRetainedBlocks:]
	}

	merged := append(inFlight, done...)
	sort.Slice(merged, func(i, j int) bool { return merged[i] < merged[j] })
	s.doc.Blocks = merged
}

func (s *Store) allFinalizedLocked(blockNumber uint64) bool {
	for _, r := range s.doc.Records {
		if r.BlockNumber == blockNumber && r.Status != StatusFinalized {
			return false
		}
	}
	return true
}

// persistLocked writes the document to a temp file and renames it into
// place, the atomic-write idiom named in spec section 4.4.6. Caller must
// hold s.mu.
func (s *Store) persistLocked() error {
	raw, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("txstore: marshal: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".txstore-*.tmp")
	if err != nil {
		return fmt.Errorf("txstore: create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("txstore: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("txstore: close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("txstore: rename temp file: %w", err)
	}
	return nil
}
