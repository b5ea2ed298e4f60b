package memstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/cognicore/treebank/pkg/treebank/internalerr"
	"github.com/cognicore/treebank/pkg/treebank/store"
)

type sentenceKey struct {
	runID   string
	ordinal int
}

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu        sync.RWMutex
	runs      map[string]store.Run
	sentences map[sentenceKey]store.Sentence
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		runs:      make(map[string]store.Run),
		sentences: make(map[sentenceKey]store.Sentence),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// BeginRun records a new import run.
func (s *Store) BeginRun(ctx context.Context, r store.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		return fmt.Errorf("%w: run without ID", internalerr.ErrInvalidInput)
	}
	if _, ok := s.runs[r.ID]; ok {
		return fmt.Errorf("%w: run %s", internalerr.ErrDuplicate, r.ID)
	}
	s.runs[r.ID] = r
	return nil
}

// FinishRun marks a run complete.
func (s *Store) FinishRun(ctx context.Context, runID string, finishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("%w: run %s", internalerr.ErrNotFound, runID)
	}
	r.FinishedAt = finishedAt
	s.runs[runID] = r
	return nil
}

// Runs returns all runs ordered by ID.
func (s *Store) Runs(ctx context.Context) ([]store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Run, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// PutSentence stores a sentence, replacing any previous one at the same ordinal.
func (s *Store) PutSentence(ctx context.Context, sent store.Sentence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[sent.RunID]; !ok {
		return fmt.Errorf("%w: run %s", internalerr.ErrNotFound, sent.RunID)
	}
	s.sentences[sentenceKey{sent.RunID, sent.Ordinal}] = copySentence(sent)
	return nil
}

// GetSentence returns a sentence by run and ordinal.
func (s *Store) GetSentence(ctx context.Context, runID string, ordinal int) (store.Sentence, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sent, ok := s.sentences[sentenceKey{runID, ordinal}]; ok {
		return copySentence(sent), true, nil
	}
	return store.Sentence{}, false, nil
}

// CountSentences returns how many sentences a run holds.
func (s *Store) CountSentences(ctx context.Context, runID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for k := range s.sentences {
		if k.runID == runID {
			n++
		}
	}
	return n, nil
}

// LabelCounts returns the count per dependency relation for a run.
func (s *Store) LabelCounts(ctx context.Context, runID string) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64)
	for k, sent := range s.sentences {
		if k.runID != runID {
			continue
		}
		for _, tok := range sent.Tokens {
			counts[tok.Deprel]++
		}
	}
	return counts, nil
}

func copySentence(s store.Sentence) store.Sentence {
	s.Tokens = slices.Clone(s.Tokens)
	s.Relations = slices.Clone(s.Relations)
	return s
}
