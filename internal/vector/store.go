package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/taskmind/taskmind/internal/logger"
)

const (
	indexFileName  = "vectors.bin"
	ledgerFileName = "metadata.json"

	// excerptRunes bounds the stored copy of the source text. The full text
	// is embedded but not retained.
	excerptRunes = 200

	// emptyTextPlaceholder replaces empty or whitespace-only input before
	// embedding. The underlying models do not define behavior for empty
	// strings.
	emptyTextPlaceholder = "Empty text"

	defaultPersistEvery = 100
)

// Embedder turns text into a fixed-dimension float vector. Implementations
// must return vectors of exactly Dimensions() elements.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// Entry is one ledger record, paired with a row in the flat index.
type Entry struct {
	ID        int                    `json:"id"`
	Text      string                 `json:"text"`
	Metadata  map[string]interface{} `json:"metadata"`
	CreatedAt time.Time              `json:"created_at"`
}

// SearchResult is a single similarity hit returned by Store.Search.
// Similarity is 1/(1+distance), monotonically decreasing in distance and
// bounded in (0, 1].
type SearchResult struct {
	ID         int                    `json:"id"`
	Text       string                 `json:"text"`
	Metadata   map[string]interface{} `json:"metadata"`
	Distance   float32                `json:"distance"`
	Similarity float32                `json:"similarity"`
}

// Stats is a point-in-time snapshot of store contents and disk usage.
type Stats struct {
	TotalVectors int            `json:"total_vectors"`
	Dimensions   int            `json:"dimensions"`
	TypeCounts   map[string]int `json:"type_counts"`
	IndexBytes   int64          `json:"index_size_bytes"`
	LedgerBytes  int64          `json:"metadata_size_bytes"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Config holds construction parameters for a Store.
type Config struct {
	// Dir is the directory holding the paired index and ledger files.
	Dir string
	// Embedder provides the fixed-dimension embedding model.
	Embedder Embedder
	// PersistEvery flushes the pair to disk after every Nth add rather than
	// on each call. Zero selects the default of 100.
	PersistEvery int
	Logger       *logger.Logger
}

// Store owns one FlatIndex and the metadata ledger paired with it. Row i of
// the index corresponds to entries[i]; the two lengths must always be equal
// and every mutating operation re-checks that invariant.
//
// Mutations take the write lock (single-writer discipline); searches share
// the read lock and may run concurrently with each other.
type Store struct {
	mu       sync.RWMutex
	embedder Embedder
	index    *FlatIndex
	entries  []Entry

	// nextID is monotonic across deletes so ids are never reissued, except
	// by Update's explicit one-slot reuse.
	nextID int

	dir          string
	persistEvery int
	sinceFlush   int

	createdAt time.Time
	updatedAt time.Time
	recovered bool

	log *logger.Logger
}

// ledgerBlob is the on-disk form of the ledger file.
type ledgerBlob struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Count     int       `json:"count"`
	NextID    int       `json:"next_id"`
	Entries   []Entry   `json:"vectors"`
}

// Open loads the store from cfg.Dir, or creates a fresh pair if the
// directory holds none. A missing, unreadable, or mutually inconsistent
// index/ledger pair is treated as corrupt: the store starts fresh and
// Recovered reports true so the caller can surface an error status.
func Open(cfg Config) (*Store, error) {
	if cfg.Embedder == nil {
		return nil, &ConfigError{Reason: "embedder is required"}
	}
	if cfg.Embedder.Dimensions() <= 0 {
		return nil, &ConfigError{Reason: fmt.Sprintf("embedder reports invalid dimension %d", cfg.Embedder.Dimensions())}
	}
	if cfg.Dir == "" {
		return nil, &ConfigError{Reason: "store directory is required"}
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, &PersistenceError{Op: "open", Err: err}
	}

	log := cfg.Logger
	if log == nil {
		log = logger.GetDefault()
	}

	persistEvery := cfg.PersistEvery
	if persistEvery <= 0 {
		persistEvery = defaultPersistEvery
	}

	s := &Store{
		embedder:     cfg.Embedder,
		dir:          cfg.Dir,
		persistEvery: persistEvery,
		log:          log,
	}

	if err := s.load(); err != nil {
		log.WithError(err).Warn("Failed to load persisted vector index, starting fresh")
		s.recovered = true
		if err := s.freshLocked(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// load reads the on-disk pair into the store. It returns an error when
// either file is absent, unreadable, or when the two disagree on the
// vector count.
func (s *Store) load() error {
	indexPath := filepath.Join(s.dir, indexFileName)
	ledgerPath := filepath.Join(s.dir, ledgerFileName)

	indexFile, err := os.Open(indexPath)
	if err != nil {
		return fmt.Errorf("failed to open index file: %w", err)
	}
	defer indexFile.Close()

	idx, err := ReadFlatIndex(indexFile)
	if err != nil {
		return fmt.Errorf("failed to deserialize index: %w", err)
	}
	if idx.Dimensions() != s.embedder.Dimensions() {
		return &ConfigError{Reason: fmt.Sprintf(
			"persisted index dimension %d does not match embedding model dimension %d",
			idx.Dimensions(), s.embedder.Dimensions())}
	}

	ledgerData, err := os.ReadFile(ledgerPath)
	if err != nil {
		return fmt.Errorf("failed to read ledger file: %w", err)
	}
	var blob ledgerBlob
	if err := json.Unmarshal(ledgerData, &blob); err != nil {
		return fmt.Errorf("failed to decode ledger: %w", err)
	}

	// A crash between the two file writes leaves a mismatched pair. Loading
	// it would break the row/entry correspondence, so treat it as corrupt.
	if idx.Count() != len(blob.Entries) || blob.Count != len(blob.Entries) {
		return fmt.Errorf("index/ledger mismatch: %d rows vs %d entries (recorded count %d)",
			idx.Count(), len(blob.Entries), blob.Count)
	}

	s.index = idx
	s.entries = blob.Entries
	s.nextID = blob.NextID
	if s.nextID < len(blob.Entries) {
		s.nextID = len(blob.Entries)
	}
	s.createdAt = blob.CreatedAt
	s.updatedAt = blob.UpdatedAt

	s.log.WithField("vectors", idx.Count()).Info("Loaded persisted vector index")
	return nil
}

// freshLocked replaces state with an empty pair and persists it.
func (s *Store) freshLocked() error {
	idx, err := NewFlatIndex(s.embedder.Dimensions())
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	s.index = idx
	s.entries = nil
	s.nextID = 0
	s.sinceFlush = 0
	s.createdAt = now
	s.updatedAt = now
	return s.flushLocked()
}

// Recovered reports whether Open discarded a corrupt on-disk pair and
// started fresh. Callers use it to degrade the index status to error.
func (s *Store) Recovered() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recovered
}

// Count returns the number of indexed vectors.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Dimensions returns the fixed embedding dimension of the store.
func (s *Store) Dimensions() int {
	return s.embedder.Dimensions()
}

// Add embeds text, appends it to the index, and records a ledger entry with
// a truncated excerpt and the given metadata. Returns the assigned id.
// Persistence is periodic, not per-call: on crash the unpersisted tail is
// lost but the on-disk pair stays self-consistent.
func (s *Store) Add(ctx context.Context, text string, metadata map[string]interface{}) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(ctx, text, metadata)
}

func (s *Store) addLocked(ctx context.Context, text string, metadata map[string]interface{}) (int, error) {
	embedding, err := s.embed(ctx, text)
	if err != nil {
		return 0, err
	}

	id := s.nextID
	if _, err := s.index.Add(embedding); err != nil {
		return 0, err
	}
	s.entries = append(s.entries, Entry{
		ID:        id,
		Text:      excerpt(text),
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	})
	s.nextID++
	s.updatedAt = time.Now().UTC()

	if err := s.checkAlignedLocked(); err != nil {
		return 0, err
	}

	s.sinceFlush++
	if s.sinceFlush >= s.persistEvery {
		if err := s.flushLocked(); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// Search embeds the query and returns up to topK hits ordered by ascending
// distance. An empty index yields an empty slice, not an error.
func (s *Store) Search(ctx context.Context, query string, topK int) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return []SearchResult{}, nil
	}

	embedding, err := s.embed(ctx, query)
	if err != nil {
		return nil, err
	}

	matches, err := s.index.Search(embedding, topK)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		entry := s.entries[m.Row]
		results = append(results, SearchResult{
			ID:         entry.ID,
			Text:       entry.Text,
			Metadata:   entry.Metadata,
			Distance:   m.Distance,
			Similarity: 1.0 / (1.0 + m.Distance),
		})
	}
	return results, nil
}

// Delete removes the entry with the given id and rebuilds the index from
// the surviving stored vectors in their original row order. Surviving
// entries keep their ids, so id and row position diverge after the first
// delete; only a full pipeline rebuild re-densifies the mapping. Returns
// false when the id is not present.
func (s *Store) Delete(ctx context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted, err := s.deleteLocked(id)
	if err != nil {
		return false, err
	}
	if !deleted {
		return false, nil
	}
	if err := s.flushLocked(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) deleteLocked(id int) (bool, error) {
	pos := -1
	for i := range s.entries {
		if s.entries[i].ID == id {
			pos = i
			break
		}
	}
	if pos < 0 {
		s.log.WithField("vector_id", id).Warn("Vector id not found in ledger")
		return false, nil
	}

	// The flat index has no native remove. Rebuild it from the vectors we
	// already hold instead of re-embedding stored excerpts, so surviving
	// vectors keep their original embedding fidelity.
	rebuilt, err := NewFlatIndex(s.index.Dimensions())
	if err != nil {
		return false, err
	}
	for row := 0; row < s.index.Count(); row++ {
		if row == pos {
			continue
		}
		v, err := s.index.Vector(row)
		if err != nil {
			return false, err
		}
		if _, err := rebuilt.Add(v); err != nil {
			return false, err
		}
	}

	s.index = rebuilt
	s.entries = append(s.entries[:pos], s.entries[pos+1:]...)
	s.updatedAt = time.Now().UTC()

	if err := s.checkAlignedLocked(); err != nil {
		return false, err
	}
	return true, nil
}

// Update replaces the text and metadata of an existing entry in place,
// re-embedding the new text under the same id. In-place reuse only holds
// for the most recently assigned id: its row is the tail of both the ledger
// and the index, so the slot can be dropped and re-filled without touching
// any other entry. For an older id the store is left unmodified, a mismatch
// is logged, and false is returned; callers fall back to delete plus add
// under a fresh id.
func (s *Store) Update(ctx context.Context, id int, text string, metadata map[string]interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != s.nextID-1 {
		s.log.WithFields(logger.Fields{
			"vector_id": id,
			"latest_id": s.nextID - 1,
		}).Warn("Vector id mismatch during update")
		return false, nil
	}

	// Ids are assigned in append order and deletes preserve it, so the
	// latest id, when still present, sits in the last row.
	last := len(s.entries) - 1
	if last < 0 || s.entries[last].ID != id {
		s.log.WithField("vector_id", id).Warn("Vector id not found in ledger")
		return false, nil
	}
	prevEntry := s.entries[last]
	prevVector, err := s.index.Vector(last)
	if err != nil {
		return false, err
	}

	deleted, err := s.deleteLocked(id)
	if err != nil {
		return false, err
	}
	if !deleted {
		return false, nil
	}

	s.nextID--
	before := len(s.entries)
	if _, err := s.addLocked(ctx, text, metadata); err != nil {
		// Put the old entry back so a failed re-embed does not lose it.
		// When the failure happened after the new row landed, keep it.
		if len(s.entries) == before {
			if _, restoreErr := s.index.Add(prevVector); restoreErr != nil {
				return false, restoreErr
			}
			s.entries = append(s.entries, prevEntry)
			s.nextID++
		}
		return false, err
	}

	if err := s.flushLocked(); err != nil {
		return false, err
	}
	return true, nil
}

// Stats aggregates ledger contents by metadata type and reports the disk
// footprint of the persisted pair.
func (s *Store) Stats() *Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	typeCounts := make(map[string]int)
	for _, entry := range s.entries {
		if t, ok := entry.Metadata["type"].(string); ok && t != "" {
			typeCounts[t]++
		}
	}

	stats := &Stats{
		TotalVectors: len(s.entries),
		Dimensions:   s.index.Dimensions(),
		TypeCounts:   typeCounts,
		CreatedAt:    s.createdAt,
		UpdatedAt:    s.updatedAt,
	}
	if info, err := os.Stat(filepath.Join(s.dir, indexFileName)); err == nil {
		stats.IndexBytes = info.Size()
	}
	if info, err := os.Stat(filepath.Join(s.dir, ledgerFileName)); err == nil {
		stats.LedgerBytes = info.Size()
	}
	return stats
}

// Reset discards all vectors and ledger entries and persists the empty
// pair. Used by full rebuilds.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recovered = false
	return s.freshLocked()
}

// Flush persists the index and ledger to disk immediately.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

// flushLocked writes the index file then the ledger file. The pair is not
// transactional: a crash between the two writes leaves a count mismatch
// that load treats as corrupt.
func (s *Store) flushLocked() error {
	indexPath := filepath.Join(s.dir, indexFileName)
	f, err := os.Create(indexPath)
	if err != nil {
		return &PersistenceError{Op: "write index", Err: err}
	}
	if err := s.index.WriteTo(f); err != nil {
		f.Close()
		return &PersistenceError{Op: "write index", Err: err}
	}
	if err := f.Close(); err != nil {
		return &PersistenceError{Op: "write index", Err: err}
	}

	blob := ledgerBlob{
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
		Count:     len(s.entries),
		NextID:    s.nextID,
		Entries:   s.entries,
	}
	data, err := json.Marshal(&blob)
	if err != nil {
		return &PersistenceError{Op: "encode ledger", Err: err}
	}
	if err := os.WriteFile(filepath.Join(s.dir, ledgerFileName), data, 0644); err != nil {
		return &PersistenceError{Op: "write ledger", Err: err}
	}

	s.sinceFlush = 0
	return nil
}

// checkAlignedLocked enforces the pairing invariant between index rows and
// ledger entries after a mutation.
func (s *Store) checkAlignedLocked() error {
	if s.index.Count() != len(s.entries) {
		return fmt.Errorf("vector: index/ledger misalignment: %d rows vs %d entries",
			s.index.Count(), len(s.entries))
	}
	return nil
}

// embed coerces empty input to a placeholder and wraps model failures in
// EmbeddingError.
func (s *Store) embed(ctx context.Context, text string) ([]float32, error) {
	clean := strings.TrimSpace(text)
	if clean == "" {
		clean = emptyTextPlaceholder
	}
	embedding, err := s.embedder.Embed(ctx, clean)
	if err != nil {
		return nil, &EmbeddingError{Err: err}
	}
	if len(embedding) != s.embedder.Dimensions() {
		return nil, &ConfigError{Reason: fmt.Sprintf(
			"embedding model returned %d dimensions, expected %d",
			len(embedding), s.embedder.Dimensions())}
	}
	return embedding, nil
}

// excerpt truncates text for ledger storage, appending an ellipsis when
// anything was cut.
func excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptRunes {
		return text
	}
	return string(runes[:excerptRunes]) + "..."
}
