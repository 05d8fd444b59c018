package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mudler/xlog"
)

const (
	defaultCapacity  = 1000
	defaultThreshold = 0.9
)

// Entry is one remembered question/answer pair, stored verbatim.
type Entry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Store is a file-backed list of past interactions. Lookups are fuzzy:
// a question close enough to a stored one returns the stored answer
// without any model round-trip.
type Store struct {
	sync.Mutex
	path      string
	capacity  int
	threshold float64
	matcher   Matcher
	entries   []Entry
}

type Option func(*Store)

// WithCapacity bounds how many entries the store keeps. When the bound
// is exceeded the oldest entries are dropped first.
func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithThreshold sets the similarity ratio a lookup must strictly exceed
// to count as a hit.
func WithThreshold(t float64) Option {
	return func(s *Store) {
		s.threshold = t
	}
}

// WithMatcher swaps the similarity implementation.
func WithMatcher(m Matcher) Option {
	return func(s *Store) {
		if m != nil {
			s.matcher = m
		}
	}
}

// NewStore opens the store backed by the JSON file at path, creating
// parent directories as needed. A missing or unreadable file starts the
// store empty rather than failing.
func NewStore(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:      path,
		capacity:  defaultCapacity,
		threshold: defaultThreshold,
		matcher:   SequenceMatcher{},
	}
	for _, o := range opts {
		o(s)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	s.entries = s.load()
	return s, nil
}

func (s *Store) load() []Entry {
	f, err := os.Open(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			xlog.Warn("Could not open answer store, starting empty", "path", s.path, "error", err)
		}
		return []Entry{}
	}
	defer f.Close()

	var entries []Entry
	if err := json.NewDecoder(f).Decode(&entries); err != nil {
		xlog.Warn("Could not decode answer store, starting empty", "path", s.path, "error", err)
		return []Entry{}
	}
	return entries
}

// Lookup scans stored entries oldest-first and returns the answer of
// the first question whose similarity to q strictly exceeds the
// threshold.
func (s *Store) Lookup(q string) (string, bool) {
	s.Lock()
	defer s.Unlock()

	normalized := Normalize(q)
	for _, e := range s.entries {
		ratio := s.matcher.Ratio(normalized, Normalize(e.Question))
		if ratio > s.threshold {
			xlog.Debug("Answer store hit", "question", q, "matched", e.Question, "ratio", ratio)
			return e.Answer, true
		}
	}
	return "", false
}

// Remember appends the pair, drops the oldest entries beyond capacity,
// and persists the result.
func (s *Store) Remember(question, answer string) error {
	s.Lock()
	defer s.Unlock()

	s.entries = append(s.entries, Entry{Question: question, Answer: answer})
	if len(s.entries) > s.capacity {
		s.entries = s.entries[len(s.entries)-s.capacity:]
	}
	return s.persist()
}

// persist writes the entries to a temporary file in the store directory
// and renames it over the target, so a crash mid-write never leaves a
// half-written store behind.
func (s *Store) persist() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding answer store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".store-*.json")
	if err != nil {
		return fmt.Errorf("creating temporary store file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing answer store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing answer store: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing answer store: %w", err)
	}
	return nil
}

// Len returns how many entries are currently stored.
func (s *Store) Len() int {
	s.Lock()
	defer s.Unlock()
	return len(s.entries)
}

// Entries returns a copy of the stored pairs, oldest first.
func (s *Store) Entries() []Entry {
	s.Lock()
	defer s.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}
