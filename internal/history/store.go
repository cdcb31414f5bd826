// Package history is the append-only, per-document ledger of review states.
// It is the single source of truth for claim state over time: every other
// component reads it, and all mutation goes through Append under a
// document-scoped lock, so write-write conflicts are impossible by
// construction.
package history

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"lacuna/internal/model"
)

// ErrNotFound signals a document with no history
var ErrNotFound = errors.New("history: document not found")

// Entry is one immutable version-history record: the full claim list for a
// document at one point in time, plus the document metadata downstream
// projections need. Corrections are new entries, never edits.
type Entry struct {
	ID              string        `json:"entry_id"`
	Filename        string        `json:"filename"`
	Title           string        `json:"title,omitempty"`
	PublicationYear *int          `json:"publication_year,omitempty"`
	Timestamp       time.Time     `json:"timestamp"`
	Snapshot        []model.Claim `json:"review_snapshot"`
}

// Store persists entries as one JSONL ledger file per document
type Store struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore opens (creating if needed) a history store rooted at dir
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return &Store{
		dir:   dir,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

// Append records a new review snapshot for a document. It never overwrites:
// the entry lands at the end of the document's ledger. Appends to the same
// document are serialized; appends to different documents are independent.
func (s *Store) Append(doc *model.Document, timestamp time.Time) (Entry, error) {
	if doc.Filename == "" {
		return Entry{}, fmt.Errorf("history: filename is required")
	}
	filename := doc.Filename

	lock := s.lockFor(filename)
	lock.Lock()
	defer lock.Unlock()

	prev, err := s.latestLocked(filename)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Entry{}, err
	}
	if err == nil {
		if err := checkContinuity(prev.Snapshot, doc.Claims); err != nil {
			return Entry{}, err
		}
		if timestamp.Before(prev.Timestamp) {
			return Entry{}, fmt.Errorf("history: timestamp %s predates latest entry %s for %s",
				timestamp.Format(time.RFC3339), prev.Timestamp.Format(time.RFC3339), filename)
		}
	}

	entry := Entry{
		ID:              uuid.NewString(),
		Filename:        filename,
		Title:           doc.Title,
		PublicationYear: doc.PublicationYear,
		Timestamp:       timestamp,
		Snapshot:        doc.Claims,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, fmt.Errorf("marshal history entry: %w", err)
	}

	f, err := os.OpenFile(s.path(filename), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return Entry{}, fmt.Errorf("open history ledger: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return Entry{}, fmt.Errorf("append history entry: %w", err)
	}

	return entry, nil
}

// Latest returns the most recent snapshot for a document
func (s *Store) Latest(filename string) (Entry, error) {
	lock := s.lockFor(filename)
	lock.Lock()
	defer lock.Unlock()
	return s.latestLocked(filename)
}

// AllVersions returns every entry for a document, oldest first
func (s *Store) AllVersions(filename string) ([]Entry, error) {
	lock := s.lockFor(filename)
	lock.Lock()
	defer lock.Unlock()
	return s.readAll(filename)
}

// Filenames lists every document with at least one history entry, sorted
func (s *Store) Filenames() ([]string, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read history dir: %w", err)
	}

	var filenames []string
	for _, de := range dirEntries {
		if de.IsDir() || filepath.Ext(de.Name()) != ".jsonl" {
			continue
		}
		first, err := s.readFirst(filepath.Join(s.dir, de.Name()))
		if err != nil {
			return nil, err
		}
		filenames = append(filenames, first.Filename)
	}
	sort.Strings(filenames)
	return filenames, nil
}

func (s *Store) latestLocked(filename string) (Entry, error) {
	entries, err := s.readAll(filename)
	if err != nil {
		return Entry{}, err
	}
	return entries[len(entries)-1], nil
}

func (s *Store) readAll(filename string) ([]Entry, error) {
	f, err := os.Open(s.path(filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
		}
		return nil, fmt.Errorf("open history ledger: %w", err)
	}
	defer func() { _ = f.Close() }()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("corrupt history entry in %s: %w", filename, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read history ledger: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
	}
	return entries, nil
}

func (s *Store) readFirst(path string) (Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return Entry{}, fmt.Errorf("open history ledger: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	if !scanner.Scan() {
		return Entry{}, fmt.Errorf("empty history ledger: %s", path)
	}
	var entry Entry
	if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
		return Entry{}, fmt.Errorf("corrupt history entry in %s: %w", path, err)
	}
	return entry, nil
}

// lockFor returns the document-scoped write lock, creating it on first use
func (s *Store) lockFor(filename string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lock, ok := s.locks[filename]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	s.locks[filename] = lock
	return lock
}

func (s *Store) path(filename string) string {
	hash := sha256.Sum256([]byte(filename))
	return filepath.Join(s.dir, hex.EncodeToString(hash[:16])+".jsonl")
}

// checkContinuity enforces claim-ID continuity across versions: an appeal or
// reanalysis must reuse the original claim ID, not mint a new one, or the
// audit trail linkage breaks.
func checkContinuity(prev, next []model.Claim) error {
	nextIDs := make(map[string]bool, len(next))
	for _, c := range next {
		if c.ID == "" {
			return fmt.Errorf("history: snapshot contains a claim without an ID")
		}
		if nextIDs[c.ID] {
			return fmt.Errorf("history: duplicate claim ID %q in snapshot", c.ID)
		}
		nextIDs[c.ID] = true
	}
	for _, c := range prev {
		if !nextIDs[c.ID] {
			return fmt.Errorf("history: claim %q disappeared from snapshot; claims are superseded, never deleted", c.ID)
		}
	}
	return nil
}
